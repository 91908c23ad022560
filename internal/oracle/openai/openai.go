package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"upbit-llm-trader/internal/trace"
	"upbit-llm-trader/internal/types"
)

const endpoint = "https://api.openai.com/v1/chat/completions"

// Advisor queries OpenAI chat completions in strict JSON-object mode
// so the oracle client can parse the reply without free-text
// extraction.
type Advisor struct {
	model        string
	maxTokens    int
	temperature  float32
	instructions string
	http         *http.Client
}

func NewAdvisor(model string, maxTokens int, temperature float32, instructions string, timeout time.Duration) *Advisor {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Advisor{
		model:        model,
		maxTokens:    maxTokens,
		temperature:  temperature,
		instructions: instructions,
		http:         &http.Client{Timeout: timeout},
	}
}

func (a *Advisor) Advise(ctx context.Context, dreq types.DecisionRequest) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", errors.New("OPENAI_API_KEY missing")
	}

	state, err := json.Marshal(dreq)
	if err != nil {
		return "", fmt.Errorf("marshal decision request: %w", err)
	}

	body := map[string]any{
		"model": a.model,
		"messages": []map[string]string{
			{"role": "system", "content": a.instructions},
			{"role": "user", "content": string(state)},
		},
		"temperature":     a.temperature,
		"max_tokens":      a.maxTokens,
		"response_format": map[string]string{"type": "json_object"},
	}
	bb, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bb))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
