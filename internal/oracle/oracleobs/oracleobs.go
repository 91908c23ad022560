// Package oracleobs wraps an Oracle with logging and tracing.
package oracleobs

import (
	"context"

	"upbit-llm-trader/internal/interfaces"
	"upbit-llm-trader/internal/logger"
	"upbit-llm-trader/internal/trace"
	"upbit-llm-trader/internal/types"
)

type observableOracle struct {
	oracle interfaces.Oracle
}

var _ interfaces.Oracle = (*observableOracle)(nil)

// Wrap wraps an oracle with observability middleware.
func Wrap(oracle interfaces.Oracle) interfaces.Oracle {
	return &observableOracle{oracle: oracle}
}

func (oo *observableOracle) Decide(ctx context.Context, req types.DecisionRequest) (types.Decision, error) {
	ctx, span := trace.StartSpan(ctx, "oracle.Decide")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Requesting trading decision",
		"market", req.Market,
		"history_records", len(req.History),
		"news_items", len(req.News),
	)

	decision, err := oo.oracle.Decide(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to get trading decision", err, "market", req.Market)
		return types.Decision{}, err
	}

	logger.InfoSkip(ctx, 1, "Trading decision received",
		"market", req.Market,
		"action", decision.Action,
		"percentage", decision.Percentage,
		"reason", decision.Reason,
	)
	return decision, nil
}
