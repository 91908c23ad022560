package news

import (
	"context"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"

	"upbit-llm-trader/internal/interfaces"
	"upbit-llm-trader/internal/logger"
	"upbit-llm-trader/internal/types"
)

// Scraper is the headline fallback for deployments without a SERPAPI
// key: it scrapes Google News search results directly. Scraped items
// carry no reliable publish time, so their timestamp is always the
// explicit "unavailable" marker.
type Scraper struct {
	query    string
	maxItems int
	timeout  time.Duration
}

var _ interfaces.NewsFeed = (*Scraper)(nil)

func NewScraper(query string, maxItems int, timeout time.Duration) *Scraper {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Scraper{query: query, maxItems: maxItems, timeout: timeout}
}

func (s *Scraper) Headlines(ctx context.Context) ([]types.NewsItem, error) {
	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
	)
	c.SetRequestTimeout(s.timeout)

	items := []types.NewsItem{}
	c.OnHTML("article", func(e *colly.HTMLElement) {
		if s.maxItems > 0 && len(items) >= s.maxItems {
			return
		}
		title := e.ChildText("a.JtKRv, h3 a, h4 a")
		if title == "" {
			return
		}
		source := e.ChildText("div.vr1PYe")
		if source == "" {
			source = "Google News"
		}
		items = append(items, types.NewsItem{Title: title, Source: source})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.Debug(ctx, "News scrape request failed", "url", r.Request.URL.String(), "error", err)
	})

	target := "https://news.google.com/search?q=" + url.QueryEscape(s.query) + "&hl=en-US&gl=US&ceid=US:en"
	if err := c.Visit(target); err != nil {
		return nil, err
	}
	c.Wait()

	logger.Info(ctx, "News scraping completed", "query", s.query, "articles", len(items))
	return items, nil
}
