// Package snapshot builds the point-in-time market state for one tick.
package snapshot

import (
	"context"
	"fmt"

	"upbit-llm-trader/internal/interfaces"
	"upbit-llm-trader/internal/types"
)

// Builder fetches order-book depth and account balances at invocation
// time. Read-only, no caching; fetch failures propagate to the caller
// as transient errors and the tick skips the cycle.
type Builder struct {
	ex            interfaces.Exchange
	market        string
	baseCurrency  string
	quoteCurrency string
}

func NewBuilder(ex interfaces.Exchange, market string) *Builder {
	base, quote := splitMarket(market)
	return &Builder{ex: ex, market: market, baseCurrency: base, quoteCurrency: quote}
}

// Build captures the account status and order book. Both carry the
// capture timestamp drawn from the order-book response so one tick's
// state is internally consistent.
func (b *Builder) Build(ctx context.Context) (types.AccountStatus, types.OrderBookDepth, error) {
	book, err := b.ex.OrderBook(ctx, b.market)
	if err != nil {
		return types.AccountStatus{}, types.OrderBookDepth{}, err
	}

	balances, err := b.ex.Balances(ctx)
	if err != nil {
		return types.AccountStatus{}, types.OrderBookDepth{}, err
	}

	status := types.AccountStatus{CapturedAt: book.Timestamp}
	for _, bal := range balances {
		switch bal.Currency {
		case b.baseCurrency:
			status.BTCBalance = bal.Balance
			status.AvgBuyPrice = bal.AvgBuyPrice
		case b.quoteCurrency:
			status.KRWBalance = bal.Balance
		}
	}
	return status, book, nil
}

// splitMarket decomposes an Upbit market code ("KRW-BTC") into quote
// and base currencies.
func splitMarket(market string) (base, quote string) {
	for i := 0; i < len(market); i++ {
		if market[i] == '-' {
			return market[i+1:], market[:i]
		}
	}
	return market, ""
}

// Describe is a debug aid for startup logging.
func (b *Builder) Describe() string {
	return fmt.Sprintf("%s (base=%s quote=%s)", b.market, b.baseCurrency, b.quoteCurrency)
}
