// Package news collects headline and sentiment-index data for the
// traded asset. Feed failures are soft: the tick proceeds with a "no
// news" marker rather than aborting.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"upbit-llm-trader/internal/interfaces"
	"upbit-llm-trader/internal/logger"
	"upbit-llm-trader/internal/types"
)

// serpDateLayout matches the date format Google News results carry,
// e.g. "04/16/2024, 08:01 AM, +0000 UTC".
const serpDateLayout = "01/02/2006, 03:04 PM, -0700 MST"

// SerpClient fetches Google News results through SERPAPI.
type SerpClient struct {
	apiKey   string
	query    string
	maxItems int
	base     string
	http     *http.Client
}

var _ interfaces.NewsFeed = (*SerpClient)(nil)

func NewSerpClient(apiKey, query string, maxItems int, timeout time.Duration) *SerpClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &SerpClient{
		apiKey:   apiKey,
		query:    query,
		maxItems: maxItems,
		base:     "https://serpapi.com",
		http:     &http.Client{Timeout: timeout},
	}
}

type serpStory struct {
	Title  string `json:"title"`
	Date   string `json:"date"`
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
}

type serpResult struct {
	serpStory
	Stories []serpStory `json:"stories"`
}

func (c *SerpClient) Headlines(ctx context.Context) ([]types.NewsItem, error) {
	q := url.Values{}
	q.Set("engine", "google_news")
	q.Set("q", c.query)
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/search.json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch news: serpapi http %d", resp.StatusCode)
	}

	var payload struct {
		NewsResults []serpResult `json:"news_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode news response: %w", err)
	}

	items := make([]types.NewsItem, 0, c.maxItems)
	for _, r := range payload.NewsResults {
		if len(r.Stories) > 0 {
			for _, s := range r.Stories {
				items = append(items, toItem(ctx, s))
			}
			continue
		}
		items = append(items, toItem(ctx, r.serpStory))
	}
	if c.maxItems > 0 && len(items) > c.maxItems {
		items = items[:c.maxItems]
	}
	return items, nil
}

// toItem converts one story, tolerating the external date format: a
// date that fails to parse yields the explicit nil-timestamp marker
// and never an error.
func toItem(ctx context.Context, s serpStory) types.NewsItem {
	item := types.NewsItem{Title: s.Title, Source: s.Source.Name}
	if item.Source == "" {
		item.Source = "Unknown source"
	}
	if s.Date == "" {
		return item
	}
	t, err := time.Parse(serpDateLayout, s.Date)
	if err != nil {
		logger.Debug(ctx, "Unparseable news date, marking unavailable", "date", s.Date)
		return item
	}
	millis := t.UnixMilli()
	item.Timestamp = &millis
	return item
}
