// Package guard validates a decision against balance and
// minimum-notional constraints and issues at most one market order per
// tick.
package guard

import (
	"context"

	"upbit-llm-trader/internal/interfaces"
	"upbit-llm-trader/internal/logger"
	"upbit-llm-trader/internal/tradelog"
	"upbit-llm-trader/internal/types"
)

// Params fixes the execution constraints.
type Params struct {
	Market        string
	MinOrderKRW   float64 // minimum order notional in quote currency
	FeeMultiplier float64 // safety factor applied to buy amounts, e.g. 0.9995
	Journal       bool    // write submitted orders to the tradelog
}

type Guard struct {
	ex interfaces.Exchange
	p  Params
}

// Result reports what the guard did with a decision. ExecErr carries
// an order-submission failure; it never aborts the tick and the ledger
// still records the decision.
type Result struct {
	Action    types.Action
	Submitted bool
	Skipped   bool    // notional below the minimum-order threshold
	SpendKRW  float64 // buy: quote amount submitted
	Volume    float64 // sell: base quantity submitted
	Notional  float64 // order value in quote currency
	OrderID   string
	ExecErr   error
}

func New(ex interfaces.Exchange, p Params) *Guard {
	return &Guard{ex: ex, p: p}
}

// Execute runs the three-branch state machine. hold never touches the
// exchange write path regardless of account state.
func (g *Guard) Execute(ctx context.Context, d types.Decision, status types.AccountStatus, book types.OrderBookDepth) Result {
	switch d.Action {
	case types.ActionBuy:
		return g.buy(ctx, d, status)
	case types.ActionSell:
		return g.sell(ctx, d, status, book)
	default:
		logger.Debug(ctx, "Hold decision - no exchange interaction", "market", g.p.Market)
		return Result{Action: types.ActionHold}
	}
}

func (g *Guard) buy(ctx context.Context, d types.Decision, status types.AccountStatus) Result {
	spend := status.KRWBalance * (d.Percentage / 100.0) * g.p.FeeMultiplier
	res := Result{Action: types.ActionBuy, SpendKRW: spend, Notional: spend}

	if spend < g.p.MinOrderKRW {
		logger.Info(ctx, "Buy below minimum order size, skipping",
			"market", g.p.Market,
			"spend_krw", spend,
			"min_order_krw", g.p.MinOrderKRW,
		)
		res.Skipped = true
		return res
	}

	order, err := g.ex.BuyMarket(ctx, g.p.Market, spend)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to submit buy order", err, "market", g.p.Market, "spend_krw", spend)
		res.ExecErr = err
		return res
	}

	res.Submitted = true
	res.OrderID = order.UUID
	logger.Trade(ctx, g.p.Market, "buy", spend, 0, order.UUID, "percentage", d.Percentage)
	if g.p.Journal {
		_ = tradelog.Append(tradelog.Entry{
			Market:  g.p.Market,
			Side:    "buy",
			Amount:  spend,
			OrderID: order.UUID,
			Reason:  d.Reason,
		})
	}
	return res
}

func (g *Guard) sell(ctx context.Context, d types.Decision, status types.AccountStatus, book types.OrderBookDepth) Result {
	volume := status.BTCBalance * (d.Percentage / 100.0)
	price := book.BestAsk()
	notional := volume * price
	res := Result{Action: types.ActionSell, Volume: volume, Notional: notional}

	if price <= 0 {
		logger.Error(ctx, "No ask price available for sell sizing", "market", g.p.Market)
		res.ExecErr = errEmptyBook
		return res
	}
	if notional < g.p.MinOrderKRW {
		logger.Info(ctx, "Sell below minimum order size, skipping",
			"market", g.p.Market,
			"notional_krw", notional,
			"min_order_krw", g.p.MinOrderKRW,
		)
		res.Skipped = true
		return res
	}

	order, err := g.ex.SellMarket(ctx, g.p.Market, volume)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to submit sell order", err, "market", g.p.Market, "volume", volume)
		res.ExecErr = err
		return res
	}

	res.Submitted = true
	res.OrderID = order.UUID
	logger.Trade(ctx, g.p.Market, "sell", notional, price, order.UUID, "volume", volume, "percentage", d.Percentage)
	if g.p.Journal {
		_ = tradelog.Append(tradelog.Entry{
			Market:  g.p.Market,
			Side:    "sell",
			Volume:  volume,
			Price:   price,
			OrderID: order.UUID,
			Reason:  d.Reason,
		})
	}
	return res
}
