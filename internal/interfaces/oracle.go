package interfaces

import (
	"context"

	"upbit-llm-trader/internal/types"
)

// Oracle turns an aggregated decision request into a validated trade
// decision. The retrying oracle client implements this; the engine
// never talks to a provider directly.
type Oracle interface {
	Decide(ctx context.Context, req types.DecisionRequest) (types.Decision, error)
}
