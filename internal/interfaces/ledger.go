package interfaces

import (
	"context"

	"upbit-llm-trader/internal/types"
)

// Ledger is the append-only decision history. No update or delete
// operations exist; corrections are out of scope.
type Ledger interface {
	Append(ctx context.Context, rec types.DecisionRecord) error
	// FetchRecent returns the n most recent records, newest first,
	// with timestamps normalized to milliseconds since the epoch.
	FetchRecent(ctx context.Context, n int) ([]types.DecisionRecord, error)
}
