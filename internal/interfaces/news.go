package interfaces

import (
	"context"

	"upbit-llm-trader/internal/types"
)

// NewsFeed returns recent headlines for the traded asset.
type NewsFeed interface {
	Headlines(ctx context.Context) ([]types.NewsItem, error)
}

// FearGreedFeed returns a textual summary of the crypto fear & greed
// index history.
type FearGreedFeed interface {
	Index(ctx context.Context, limit int) (string, error)
}
