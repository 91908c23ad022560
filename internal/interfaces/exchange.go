package interfaces

import (
	"context"

	"upbit-llm-trader/internal/types"
)

// Exchange is the narrow exchange capability consumed by the pipeline:
// read candles/order book/balances, submit a market order. Implemented
// by the Upbit client; substituted by fakes in tests.
type Exchange interface {
	DailyCandles(ctx context.Context, market string, count int) ([]types.Candle, error)
	HourlyCandles(ctx context.Context, market string, count int) ([]types.Candle, error)
	OrderBook(ctx context.Context, market string) (types.OrderBookDepth, error)
	Balances(ctx context.Context) ([]types.Balance, error)
	// BuyMarket spends krwAmount of quote currency at market price.
	BuyMarket(ctx context.Context, market string, krwAmount float64) (types.OrderResult, error)
	// SellMarket sells volume of base currency at market price.
	SellMarket(ctx context.Context, market string, volume float64) (types.OrderResult, error)
}
