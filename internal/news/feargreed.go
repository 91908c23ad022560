package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"upbit-llm-trader/internal/interfaces"
)

// FearGreedClient fetches the crypto fear & greed index from
// alternative.me and renders the recent history as a compact textual
// summary for the oracle.
type FearGreedClient struct {
	base string
	http *http.Client
}

var _ interfaces.FearGreedFeed = (*FearGreedClient)(nil)

func NewFearGreedClient(timeout time.Duration) *FearGreedClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &FearGreedClient{
		base: "https://api.alternative.me",
		http: &http.Client{Timeout: timeout},
	}
}

type fearGreedEntry struct {
	Value          string `json:"value"`
	Classification string `json:"value_classification"`
	Timestamp      string `json:"timestamp"`
}

func (c *FearGreedClient) Index(ctx context.Context, limit int) (string, error) {
	u := c.base + "/fng/?limit=" + strconv.Itoa(limit) + "&format=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch fear&greed index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch fear&greed index: http %d", resp.StatusCode)
	}

	var payload struct {
		Data []fearGreedEntry `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode fear&greed response: %w", err)
	}

	var sb strings.Builder
	for _, e := range payload.Data {
		b, _ := json.Marshal(e)
		sb.Write(b)
	}
	return sb.String(), nil
}
