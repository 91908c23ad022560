package noop

import (
	"context"

	"upbit-llm-trader/internal/logger"
	"upbit-llm-trader/internal/types"
)

// Advisor is the fallback used when no reasoning provider is
// configured. It always advises hold.
type Advisor struct{}

func NewAdvisor() *Advisor {
	return &Advisor{}
}

func (a *Advisor) Advise(ctx context.Context, req types.DecisionRequest) (string, error) {
	logger.Debug(ctx, "Noop advisor called - always returns hold", "market", req.Market)
	return `{"decision":"hold","reason":"noop_advisor_fallback"}`, nil
}
