// Package aggregate merges per-tick inputs into one decision request.
package aggregate

import "upbit-llm-trader/internal/types"

// Inputs holds everything collected during a tick, before the oracle
// is consulted.
type Inputs struct {
	Market    string
	Daily     types.IndicatorFrame
	Hourly    types.IndicatorFrame
	OrderBook types.OrderBookDepth
	Status    types.AccountStatus
	News      []types.NewsItem
	FearGreed string
	History   []types.DecisionRecord
}

// Build is a pure merge: structural assembly only, no computation and
// no external calls. Granularity labels on the frames are preserved so
// the oracle can distinguish daily from hourly rows.
func Build(in Inputs) types.DecisionRequest {
	return types.DecisionRequest{
		Market:    in.Market,
		Daily:     in.Daily,
		Hourly:    in.Hourly,
		OrderBook: in.OrderBook,
		Status:    in.Status,
		News:      in.News,
		FearGreed: in.FearGreed,
		History:   in.History,
	}
}
