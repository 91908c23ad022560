// Package upbit implements the Exchange interface against the Upbit
// REST API. Authenticated endpoints sign each request with an HS256
// JWT carrying the access key, a random nonce and, when the request
// has parameters, a SHA512 hash of the encoded query.
package upbit

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"upbit-llm-trader/internal/interfaces"
	"upbit-llm-trader/internal/logger"
	"upbit-llm-trader/internal/types"
)

const defaultBaseURL = "https://api.upbit.com"

// Params configures the client.
type Params struct {
	Mode      string // DRY_RUN or LIVE; DRY_RUN simulates order submission
	AccessKey string
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

type Client struct {
	p    Params
	http *http.Client
	base string
}

var _ interfaces.Exchange = (*Client)(nil)

func New(p Params) *Client {
	base := p.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := p.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		p:    p,
		http: &http.Client{Timeout: timeout},
		base: strings.TrimRight(base, "/"),
	}
}

type candlePayload struct {
	Timestamp    int64   `json:"timestamp"`
	OpeningPrice float64 `json:"opening_price"`
	HighPrice    float64 `json:"high_price"`
	LowPrice     float64 `json:"low_price"`
	TradePrice   float64 `json:"trade_price"`
	AccVolume    float64 `json:"candle_acc_trade_volume"`
}

func (c *Client) DailyCandles(ctx context.Context, market string, count int) ([]types.Candle, error) {
	return c.candles(ctx, "/v1/candles/days", market, count)
}

func (c *Client) HourlyCandles(ctx context.Context, market string, count int) ([]types.Candle, error) {
	return c.candles(ctx, "/v1/candles/minutes/60", market, count)
}

func (c *Client) candles(ctx context.Context, path, market string, count int) ([]types.Candle, error) {
	q := url.Values{}
	q.Set("market", market)
	q.Set("count", strconv.Itoa(count))

	var payload []candlePayload
	if err := c.get(ctx, path, q, false, &payload); err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", path, err)
	}

	// Upbit returns newest-first; the pipeline wants chronological order.
	out := make([]types.Candle, len(payload))
	for i, p := range payload {
		out[len(payload)-1-i] = types.Candle{
			Ts:     p.Timestamp,
			Open:   p.OpeningPrice,
			High:   p.HighPrice,
			Low:    p.LowPrice,
			Close:  p.TradePrice,
			Volume: p.AccVolume,
		}
	}
	return out, nil
}

func (c *Client) OrderBook(ctx context.Context, market string) (types.OrderBookDepth, error) {
	q := url.Values{}
	q.Set("markets", market)

	var payload []types.OrderBookDepth
	if err := c.get(ctx, "/v1/orderbook", q, false, &payload); err != nil {
		return types.OrderBookDepth{}, fmt.Errorf("fetch orderbook: %w", err)
	}
	if len(payload) == 0 {
		return types.OrderBookDepth{}, fmt.Errorf("fetch orderbook: empty response for %s", market)
	}
	return payload[0], nil
}

type balancePayload struct {
	Currency    string `json:"currency"`
	Balance     string `json:"balance"`
	AvgBuyPrice string `json:"avg_buy_price"`
}

func (c *Client) Balances(ctx context.Context) ([]types.Balance, error) {
	var payload []balancePayload
	if err := c.get(ctx, "/v1/accounts", nil, true, &payload); err != nil {
		return nil, fmt.Errorf("fetch balances: %w", err)
	}

	out := make([]types.Balance, 0, len(payload))
	for _, b := range payload {
		bal, err := strconv.ParseFloat(b.Balance, 64)
		if err != nil {
			return nil, fmt.Errorf("fetch balances: bad balance %q for %s: %w", b.Balance, b.Currency, err)
		}
		avg := 0.0
		if b.AvgBuyPrice != "" {
			if avg, err = strconv.ParseFloat(b.AvgBuyPrice, 64); err != nil {
				return nil, fmt.Errorf("fetch balances: bad avg_buy_price %q for %s: %w", b.AvgBuyPrice, b.Currency, err)
			}
		}
		out = append(out, types.Balance{Currency: b.Currency, Balance: bal, AvgBuyPrice: avg})
	}
	return out, nil
}

// BuyMarket submits a market buy spending krwAmount of quote currency
// (Upbit ord_type "price").
func (c *Client) BuyMarket(ctx context.Context, market string, krwAmount float64) (types.OrderResult, error) {
	params := url.Values{}
	params.Set("market", market)
	params.Set("side", "bid")
	params.Set("ord_type", "price")
	params.Set("price", formatNumber(krwAmount))
	return c.placeOrder(ctx, params)
}

// SellMarket submits a market sell of volume base currency (Upbit
// ord_type "market").
func (c *Client) SellMarket(ctx context.Context, market string, volume float64) (types.OrderResult, error) {
	params := url.Values{}
	params.Set("market", market)
	params.Set("side", "ask")
	params.Set("ord_type", "market")
	params.Set("volume", formatNumber(volume))
	return c.placeOrder(ctx, params)
}

func (c *Client) placeOrder(ctx context.Context, params url.Values) (types.OrderResult, error) {
	if c.p.Mode == "DRY_RUN" {
		logger.Info(ctx, "DRY_RUN order simulated",
			"market", params.Get("market"),
			"side", params.Get("side"),
			"ord_type", params.Get("ord_type"),
			"price", params.Get("price"),
			"volume", params.Get("volume"),
		)
		return types.OrderResult{
			UUID:    "dry-run-" + nonce(),
			Side:    params.Get("side"),
			OrdType: params.Get("ord_type"),
			Market:  params.Get("market"),
			State:   "simulated",
		}, nil
	}

	body := params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/orders", strings.NewReader(body))
	if err != nil {
		return types.OrderResult{}, err
	}
	token, err := c.authToken(params)
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("sign order request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return types.OrderResult{}, fmt.Errorf("submit order: upbit http %d: %s", resp.StatusCode, string(b))
	}

	var result types.OrderResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return types.OrderResult{}, fmt.Errorf("decode order response: %w", err)
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, authed bool, out any) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if authed {
		token, err := c.authToken(q)
		if err != nil {
			return fmt.Errorf("sign request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upbit http %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// authToken builds the signed access token Upbit expects. Requests
// with parameters additionally carry a SHA512 hash of the encoded
// query string.
func (c *Client) authToken(params url.Values) (string, error) {
	claims := jwt.MapClaims{
		"access_key": c.p.AccessKey,
		"nonce":      nonce(),
	}
	if len(params) > 0 {
		h := sha512.Sum512([]byte(params.Encode()))
		claims["query_hash"] = hex.EncodeToString(h[:])
		claims["query_hash_alg"] = "SHA512"
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.p.SecretKey))
}

func nonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
