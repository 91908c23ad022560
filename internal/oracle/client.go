// Package oracle sends aggregated context to the external reasoning
// service and turns its raw output into a validated decision. The
// service is treated as nondeterministic and occasionally
// non-conformant; this client is the retry boundary around it.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"upbit-llm-trader/internal/interfaces"
	"upbit-llm-trader/internal/logger"
	"upbit-llm-trader/internal/types"
)

// ErrNoDecision is the sentinel for an exhausted retry budget: the
// tick must not execute any trade and must not write a ledger row.
var ErrNoDecision = errors.New("oracle: no decision after retries")

// ErrMalformedDecision marks output that fails the structured-decode
// step: non-JSON, an action outside the three enumerated values, or a
// percentage outside (0,100]. Malformed output is retried, never
// clamped or guessed at.
var ErrMalformedDecision = errors.New("oracle: malformed decision")

// Advisor is one provider call: serialize the request, query the
// reasoning service, return its raw textual output.
type Advisor interface {
	Advise(ctx context.Context, req types.DecisionRequest) (string, error)
}

// Client retries an Advisor until its output parses, up to a fixed
// bound with a fixed inter-attempt delay, re-issuing the same request
// each time.
type Client struct {
	advisor    Advisor
	maxRetries int
	delay      time.Duration

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

var _ interfaces.Oracle = (*Client)(nil)

func NewClient(advisor Advisor, maxRetries int, delay time.Duration) *Client {
	return &Client{
		advisor:    advisor,
		maxRetries: maxRetries,
		delay:      delay,
		sleep:      sleepCtx,
	}
}

func (c *Client) Decide(ctx context.Context, req types.DecisionRequest) (types.Decision, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		raw, err := c.advisor.Advise(ctx, req)
		if err == nil {
			var decision types.Decision
			decision, err = ParseDecision(raw)
			if err == nil {
				return decision, nil
			}
		}
		lastErr = err
		logger.Warn(ctx, "Oracle attempt failed",
			"attempt", attempt,
			"max_retries", c.maxRetries,
			"error", err,
		)
		if attempt == c.maxRetries {
			break
		}
		if serr := c.sleep(ctx, c.delay); serr != nil {
			return types.Decision{}, fmt.Errorf("%w: %w", ErrNoDecision, serr)
		}
	}
	return types.Decision{}, fmt.Errorf("%w: %w", ErrNoDecision, lastErr)
}

// wireDecision mirrors the schema the instructions document demands:
// a decision, an optional percentage and a rationale.
type wireDecision struct {
	Decision   string   `json:"decision"`
	Percentage *float64 `json:"percentage"`
	Reason     string   `json:"reason"`
}

// ParseDecision decodes and validates raw oracle output. It fails
// closed: any shape problem is ErrMalformedDecision. A missing
// percentage defaults to 100 (full position sizing); action and
// rationale pass through unchanged apart from case normalization.
func ParseDecision(raw string) (types.Decision, error) {
	var w wireDecision
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &w); err != nil {
		return types.Decision{}, fmt.Errorf("%w: %w", ErrMalformedDecision, err)
	}

	action := types.Action(strings.ToLower(strings.TrimSpace(w.Decision)))
	if !action.Valid() {
		return types.Decision{}, fmt.Errorf("%w: unknown action %q", ErrMalformedDecision, w.Decision)
	}

	percentage := 100.0
	if w.Percentage != nil {
		percentage = *w.Percentage
		if percentage <= 0 || percentage > 100 {
			return types.Decision{}, fmt.Errorf("%w: percentage %.2f outside (0,100]", ErrMalformedDecision, percentage)
		}
	}

	return types.Decision{Action: action, Percentage: percentage, Reason: w.Reason}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
