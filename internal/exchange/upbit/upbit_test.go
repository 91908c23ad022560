package upbit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func newServerClient(t *testing.T, mode string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Params{
		Mode:      mode,
		AccessKey: "ak",
		SecretKey: "sk",
		BaseURL:   srv.URL,
	})
}

func TestDailyCandlesReversedToChronological(t *testing.T) {
	c := newServerClient(t, "LIVE", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/candles/days") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("market") != "KRW-BTC" || r.URL.Query().Get("count") != "3" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		// Upbit order: newest first.
		w.Write([]byte(`[
			{"timestamp":3000,"opening_price":103,"high_price":113,"low_price":93,"trade_price":108,"candle_acc_trade_volume":3},
			{"timestamp":2000,"opening_price":102,"high_price":112,"low_price":92,"trade_price":107,"candle_acc_trade_volume":2},
			{"timestamp":1000,"opening_price":101,"high_price":111,"low_price":91,"trade_price":106,"candle_acc_trade_volume":1}
		]`))
	})

	candles, err := c.DailyCandles(context.Background(), "KRW-BTC", 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("Expected 3 candles, got %d", len(candles))
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Ts <= candles[i-1].Ts {
			t.Fatalf("Expected chronological order, got %d then %d", candles[i-1].Ts, candles[i].Ts)
		}
	}
	if candles[0].Close != 106 || candles[2].Close != 108 {
		t.Errorf("Expected oldest close 106 and newest 108, got %f/%f", candles[0].Close, candles[2].Close)
	}
}

func TestOrderBookDecodesFirstMarket(t *testing.T) {
	c := newServerClient(t, "LIVE", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{
			"market":"KRW-BTC","timestamp":1700000000000,
			"total_ask_size":5,"total_bid_size":4,
			"orderbook_units":[
				{"ask_price":50000000,"bid_price":49990000,"ask_size":1,"bid_size":2},
				{"ask_price":50010000,"bid_price":49980000,"ask_size":1,"bid_size":1}
			]
		}]`))
	})

	book, err := c.OrderBook(context.Background(), "KRW-BTC")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if book.BestAsk() != 50000000 {
		t.Errorf("Expected best ask 50000000, got %f", book.BestAsk())
	}
	if book.Timestamp != 1700000000000 {
		t.Errorf("Expected timestamp carried, got %d", book.Timestamp)
	}
}

func TestBalancesParsesStrings(t *testing.T) {
	c := newServerClient(t, "LIVE", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			t.Error("Expected signed request")
		}
		w.Write([]byte(`[
			{"currency":"KRW","balance":"1000000.5","avg_buy_price":"0"},
			{"currency":"BTC","balance":"0.25","avg_buy_price":"48000000"}
		]`))
	})

	balances, err := c.Balances(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("Expected 2 balances, got %d", len(balances))
	}
	if balances[0].Currency != "KRW" || balances[0].Balance != 1000000.5 {
		t.Errorf("Unexpected KRW balance %+v", balances[0])
	}
	if balances[1].AvgBuyPrice != 48000000 {
		t.Errorf("Unexpected avg buy price %f", balances[1].AvgBuyPrice)
	}
}

func TestDryRunOrderNeverHitsAPI(t *testing.T) {
	c := newServerClient(t, "DRY_RUN", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("Unexpected request to %s in DRY_RUN", r.URL.Path)
	})

	res, err := c.BuyMarket(context.Background(), "KRW-BTC", 10000)
	if err != nil {
		t.Fatalf("Expected simulated order, got %v", err)
	}
	if !strings.HasPrefix(res.UUID, "dry-run-") {
		t.Errorf("Expected simulated order id, got %q", res.UUID)
	}
	if res.State != "simulated" {
		t.Errorf("Expected simulated state, got %q", res.State)
	}
}

func TestLiveOrderSignedForm(t *testing.T) {
	var gotBody string
	var gotAuth string
	c := newServerClient(t, "LIVE", func(w http.ResponseWriter, r *http.Request) {
		b := make([]byte, r.ContentLength)
		r.Body.Read(b)
		gotBody = string(b)
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"uuid":"abc-123","side":"bid","ord_type":"price","market":"KRW-BTC","state":"wait"}`))
	})

	res, err := c.BuyMarket(context.Background(), "KRW-BTC", 5000)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.UUID != "abc-123" {
		t.Errorf("Expected order id decoded, got %q", res.UUID)
	}
	if !strings.Contains(gotBody, "ord_type=price") || !strings.Contains(gotBody, "side=bid") {
		t.Errorf("Expected market-buy form body, got %q", gotBody)
	}
	if !strings.Contains(gotBody, "price=5000") {
		t.Errorf("Expected KRW amount in body, got %q", gotBody)
	}

	raw := strings.TrimPrefix(gotAuth, "Bearer ")
	token, err := jwt.Parse(raw, func(tk *jwt.Token) (any, error) {
		return []byte("sk"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("Expected a valid HS256 token, got %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["access_key"] != "ak" {
		t.Errorf("Expected access key claim, got %v", claims["access_key"])
	}
	if claims["query_hash_alg"] != "SHA512" {
		t.Errorf("Expected SHA512 query hash, got %v", claims["query_hash_alg"])
	}
	if claims["nonce"] == "" {
		t.Error("Expected a nonce claim")
	}
}

func TestSellMarketForm(t *testing.T) {
	var gotBody string
	c := newServerClient(t, "LIVE", func(w http.ResponseWriter, r *http.Request) {
		b := make([]byte, r.ContentLength)
		r.Body.Read(b)
		gotBody = string(b)
		w.Write([]byte(`{"uuid":"s-1"}`))
	})

	if _, err := c.SellMarket(context.Background(), "KRW-BTC", 0.015); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(gotBody, "ord_type=market") || !strings.Contains(gotBody, "side=ask") {
		t.Errorf("Expected market-sell form body, got %q", gotBody)
	}
	if !strings.Contains(gotBody, "volume=0.015") {
		t.Errorf("Expected volume in body, got %q", gotBody)
	}
}

func TestCandlesHTTPError(t *testing.T) {
	c := newServerClient(t, "LIVE", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	if _, err := c.DailyCandles(context.Background(), "KRW-BTC", 30); err == nil {
		t.Fatal("Expected error on non-2xx status")
	}
}
