package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newServerClient(t *testing.T, handler http.HandlerFunc) (*SerpClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewSerpClient("test-key", "btc", 15, 5*time.Second)
	c.base = srv.URL
	return c, srv
}

func TestHeadlinesParsesResults(t *testing.T) {
	c, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("engine") != "google_news" {
			t.Errorf("Expected google_news engine, got %q", r.URL.Query().Get("engine"))
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			t.Error("Expected api key forwarded")
		}
		w.Write([]byte(`{"news_results":[
			{"title":"Bitcoin rallies","date":"04/16/2024, 08:01 AM, +0000 UTC","source":{"name":"Example Wire"}},
			{"title":"Miners expand","source":{}}
		]}`))
	})

	items, err := c.Headlines(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	if items[0].Title != "Bitcoin rallies" {
		t.Errorf("Unexpected title %q", items[0].Title)
	}
	if items[0].Source != "Example Wire" {
		t.Errorf("Unexpected source %q", items[0].Source)
	}
	if items[0].Timestamp == nil {
		t.Fatal("Expected parsed timestamp")
	}
	want := time.Date(2024, 4, 16, 8, 1, 0, 0, time.UTC).UnixMilli()
	if *items[0].Timestamp != want {
		t.Errorf("Expected timestamp %d, got %d", want, *items[0].Timestamp)
	}

	if items[1].Source != "Unknown source" {
		t.Errorf("Expected unknown-source fallback, got %q", items[1].Source)
	}
	if items[1].Timestamp != nil {
		t.Error("Expected nil timestamp for a dateless story")
	}
}

func TestHeadlinesUnparseableDateTolerated(t *testing.T) {
	c, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"news_results":[
			{"title":"Odd date","date":"3 hours ago","source":{"name":"Blog"}}
		]}`))
	})

	items, err := c.Headlines(context.Background())
	if err != nil {
		t.Fatalf("Expected tolerance for bad dates, got %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0].Timestamp != nil {
		t.Error("Expected nil timestamp for unparseable date")
	}
}

func TestHeadlinesFlattensNestedStories(t *testing.T) {
	c, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"news_results":[
			{"title":"Cluster","stories":[
				{"title":"First","source":{"name":"A"}},
				{"title":"Second","source":{"name":"B"}}
			]},
			{"title":"Standalone","source":{"name":"C"}}
		]}`))
	})

	items, err := c.Headlines(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	if items[0].Title != "First" || items[1].Title != "Second" || items[2].Title != "Standalone" {
		t.Errorf("Unexpected flattening order: %+v", items)
	}
}

func TestHeadlinesCapsAtMaxItems(t *testing.T) {
	c, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"news_results":[
			{"title":"1"},{"title":"2"},{"title":"3"},{"title":"4"}
		]}`))
	})
	c.maxItems = 2

	items, err := c.Headlines(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(items) != 2 {
		t.Errorf("Expected cap at 2 items, got %d", len(items))
	}
}

func TestHeadlinesHTTPError(t *testing.T) {
	c, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	if _, err := c.Headlines(context.Background()); err == nil {
		t.Fatal("Expected error on non-2xx status")
	}
}
