// Package engine orchestrates one pipeline tick: aggregate market
// state, obtain a decision, execute it behind the guard, persist the
// outcome. Within a tick, aggregation strictly precedes the decision
// request, which strictly precedes execution, which strictly precedes
// the ledger write.
package engine

import (
	"context"
	"fmt"

	"upbit-llm-trader/internal/aggregate"
	"upbit-llm-trader/internal/guard"
	"upbit-llm-trader/internal/indicator"
	"upbit-llm-trader/internal/interfaces"
	"upbit-llm-trader/internal/logger"
	"upbit-llm-trader/internal/snapshot"
	"upbit-llm-trader/internal/store"
	"upbit-llm-trader/internal/trace"
	"upbit-llm-trader/internal/types"
)

// Deps are the collaborators injected at construction so tests can
// substitute fakes for every external boundary.
type Deps struct {
	Exchange  interfaces.Exchange
	Oracle    interfaces.Oracle
	News      interfaces.NewsFeed
	FearGreed interfaces.FearGreedFeed
	Ledger    interfaces.Ledger
}

type Engine struct {
	cfg    *store.Config
	deps   Deps
	guard  *guard.Guard
	snap   *snapshot.Builder
	params indicator.Params
}

func New(cfg *store.Config, deps Deps) *Engine {
	params := indicator.Params{
		SMAWindow:   cfg.Indicators.SMAWindow,
		EMAWindow:   cfg.Indicators.EMAWindow,
		RSIPeriod:   cfg.Indicators.RSIPeriod,
		StochK:      cfg.Indicators.StochK,
		StochD:      cfg.Indicators.StochD,
		StochSmooth: cfg.Indicators.StochSmooth,
		MACDFast:    cfg.Indicators.MACDFast,
		MACDSlow:    cfg.Indicators.MACDSlow,
		MACDSignal:  cfg.Indicators.MACDSignal,
		BBWindow:    cfg.Indicators.BBWindow,
		BBStdDev:    cfg.Indicators.BBStdDev,
	}
	return &Engine{
		cfg:  cfg,
		deps: deps,
		guard: guard.New(deps.Exchange, guard.Params{
			Market:        cfg.Market,
			MinOrderKRW:   cfg.Guard.MinOrderKRW,
			FeeMultiplier: cfg.Guard.FeeMultiplier,
			Journal:       true,
		}),
		snap:   snapshot.NewBuilder(deps.Exchange, cfg.Market),
		params: params,
	}
}

// Tick runs the full pipeline once. A transient fetch failure or an
// exhausted oracle aborts the tick with no trade and no ledger write;
// an execution failure is logged and the decision is still recorded.
func (e *Engine) Tick(ctx context.Context) (*types.TickResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Tick")
	defer span.End()

	market := e.cfg.Market
	logger.Debug(ctx, "Starting tick", "market", market)

	// Headline feeds are soft dependencies: a failure degrades the
	// context instead of aborting the tick.
	news, err := e.deps.News.Headlines(ctx)
	if err != nil {
		logger.Warn(ctx, "News fetch failed, continuing without headlines", "error", err)
		news = nil
	}
	fearGreed := ""
	if e.deps.FearGreed != nil {
		fearGreed, err = e.deps.FearGreed.Index(ctx, e.cfg.News.FearGreedSize)
		if err != nil {
			logger.Warn(ctx, "Fear&greed fetch failed, continuing without index", "error", err)
			fearGreed = ""
		}
	}

	dailyCandles, err := e.deps.Exchange.DailyCandles(ctx, market, e.cfg.Candles.DailyCount)
	if err != nil {
		return nil, fmt.Errorf("fetch daily candles: %w", err)
	}
	hourlyCandles, err := e.deps.Exchange.HourlyCandles(ctx, market, e.cfg.Candles.HourlyCount)
	if err != nil {
		return nil, fmt.Errorf("fetch hourly candles: %w", err)
	}

	daily := indicator.BuildFrame(types.GranularityDaily, dailyCandles, e.params)
	hourly := indicator.BuildFrame(types.GranularityHourly, hourlyCandles, e.params)
	e.warnIncompleteWarmup(ctx, daily)
	e.warnIncompleteWarmup(ctx, hourly)

	status, book, err := e.snap.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build market snapshot: %w", err)
	}

	history, err := e.deps.Ledger.FetchRecent(ctx, e.cfg.HistoryDepth)
	if err != nil {
		return nil, fmt.Errorf("fetch decision history: %w", err)
	}

	req := aggregate.Build(aggregate.Inputs{
		Market:    market,
		Daily:     daily,
		Hourly:    hourly,
		OrderBook: book,
		Status:    status,
		News:      news,
		FearGreed: fearGreed,
		History:   history,
	})

	decision, err := e.deps.Oracle.Decide(ctx, req)
	if err != nil {
		// No decision means no trade and no ledger row for this tick.
		return nil, fmt.Errorf("oracle decision: %w", err)
	}
	logger.Decision(ctx, market, string(decision.Action), decision.Percentage, decision.Reason)

	res := e.guard.Execute(ctx, decision, status, book)

	record := types.DecisionRecord{
		Action:      decision.Action,
		Percentage:  decision.Percentage,
		Reason:      decision.Reason,
		BTCBalance:  status.BTCBalance,
		KRWBalance:  status.KRWBalance,
		AvgBuyPrice: status.AvgBuyPrice,
		MarketPrice: book.BestAsk(),
	}

	result := &types.TickResult{
		Market:    market,
		Decision:  decision,
		Price:     book.BestAsk(),
		Time:      book.Timestamp,
		Submitted: res.Submitted,
		Skipped:   res.Skipped,
		Reason:    decision.Reason,
	}

	if err := e.deps.Ledger.Append(ctx, record); err != nil {
		logger.ErrorWithErr(ctx, "Failed to record decision", err, "market", market)
		return result, fmt.Errorf("record decision: %w", err)
	}

	logger.Debug(ctx, "Tick completed",
		"market", market,
		"action", decision.Action,
		"submitted", res.Submitted,
		"skipped", res.Skipped,
	)
	return result, nil
}

// warnIncompleteWarmup flags a frame whose most recent row still lacks
// the longest-warm-up indicator; such values are insufficient to act
// on and the oracle sees them as null.
func (e *Engine) warnIncompleteWarmup(ctx context.Context, frame types.IndicatorFrame) {
	latest, ok := frame.Latest()
	if !ok || latest.MiddleBand == nil {
		logger.Warn(ctx, "Indicator warm-up incomplete on latest row",
			"granularity", frame.Granularity,
			"rows", len(frame.Rows),
		)
	}
}
