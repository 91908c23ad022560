// Package exchangeobs wraps an Exchange with logging and tracing.
package exchangeobs

import (
	"context"

	"upbit-llm-trader/internal/interfaces"
	"upbit-llm-trader/internal/logger"
	"upbit-llm-trader/internal/trace"
	"upbit-llm-trader/internal/types"
)

type observableExchange struct {
	ex interfaces.Exchange
}

var _ interfaces.Exchange = (*observableExchange)(nil)

// Wrap wraps an exchange with observability middleware.
func Wrap(ex interfaces.Exchange) interfaces.Exchange {
	return &observableExchange{ex: ex}
}

func (o *observableExchange) DailyCandles(ctx context.Context, market string, count int) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.DailyCandles")
	defer span.End()

	candles, err := o.ex.DailyCandles(ctx, market, count)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch daily candles", err, "market", market, "count", count)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Daily candles fetched", "market", market, "count", len(candles))
	return candles, nil
}

func (o *observableExchange) HourlyCandles(ctx context.Context, market string, count int) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.HourlyCandles")
	defer span.End()

	candles, err := o.ex.HourlyCandles(ctx, market, count)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch hourly candles", err, "market", market, "count", count)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Hourly candles fetched", "market", market, "count", len(candles))
	return candles, nil
}

func (o *observableExchange) OrderBook(ctx context.Context, market string) (types.OrderBookDepth, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.OrderBook")
	defer span.End()

	book, err := o.ex.OrderBook(ctx, market)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch order book", err, "market", market)
		return types.OrderBookDepth{}, err
	}
	logger.DebugSkip(ctx, 1, "Order book fetched", "market", market, "levels", len(book.Levels), "best_ask", book.BestAsk())
	return book, nil
}

func (o *observableExchange) Balances(ctx context.Context) ([]types.Balance, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.Balances")
	defer span.End()

	balances, err := o.ex.Balances(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch balances", err)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Balances fetched", "currencies", len(balances))
	return balances, nil
}

func (o *observableExchange) BuyMarket(ctx context.Context, market string, krwAmount float64) (types.OrderResult, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.BuyMarket")
	defer span.End()

	result, err := o.ex.BuyMarket(ctx, market, krwAmount)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to submit market buy", err, "market", market, "krw_amount", krwAmount)
		return types.OrderResult{}, err
	}
	logger.InfoSkip(ctx, 1, "Market buy submitted", "market", market, "krw_amount", krwAmount, "order_id", result.UUID)
	return result, nil
}

func (o *observableExchange) SellMarket(ctx context.Context, market string, volume float64) (types.OrderResult, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.SellMarket")
	defer span.End()

	result, err := o.ex.SellMarket(ctx, market, volume)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to submit market sell", err, "market", market, "volume", volume)
		return types.OrderResult{}, err
	}
	logger.InfoSkip(ctx, 1, "Market sell submitted", "market", market, "volume", volume, "order_id", result.UUID)
	return result, nil
}
