package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"upbit-llm-trader/internal/trace"
	"upbit-llm-trader/internal/types"
)

// Advisor queries the Anthropic messages API. The endpoint can be
// overridden via CLAUDE_API_ENDPOINT for proxy setups.
type Advisor struct {
	model        string
	maxTokens    int
	temperature  float32
	instructions string
	endpoint     string
	http         *http.Client
}

func NewAdvisor(model string, maxTokens int, temperature float32, instructions string, timeout time.Duration) *Advisor {
	endpoint := "https://api.anthropic.com/v1/messages"
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Advisor{
		model:        model,
		maxTokens:    maxTokens,
		temperature:  temperature,
		instructions: instructions,
		endpoint:     endpoint,
		http:         &http.Client{Timeout: timeout},
	}
}

func (a *Advisor) Advise(ctx context.Context, dreq types.DecisionRequest) (string, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	apiKey := os.Getenv("CLAUDE_API_KEY")
	if apiKey == "" {
		return "", errors.New("CLAUDE_API_KEY missing")
	}

	state, err := json.Marshal(dreq)
	if err != nil {
		return "", fmt.Errorf("marshal decision request: %w", err)
	}

	reqBody := map[string]any{
		"model":  a.model,
		"system": a.instructions,
		"messages": []map[string]string{
			{"role": "user", "content": "Respond ONLY with compact JSON matching the instructed schema.\nState:" + string(state)},
		},
		"max_tokens":  a.maxTokens,
		"temperature": a.temperature,
	}

	bb, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(bb))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("claude http %d: %s", resp.StatusCode, string(body))
	}

	var r struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	for _, block := range r.Content {
		if block.Type == "text" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", errors.New("claude: no text content in response")
}
