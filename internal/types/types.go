package types

// Granularity labels a candle series so the oracle can tell daily rows
// from hourly rows in the aggregated request.
type Granularity string

const (
	GranularityDaily  Granularity = "daily"
	GranularityHourly Granularity = "hourly"
)

// Candle is a single OHLCV bar. Ts is milliseconds since the Unix epoch.
type Candle struct {
	Ts     int64   `json:"ts"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// IndicatorRow is one candle plus its derived indicator values. A nil
// pointer means the indicator has no value yet (inside its warm-up
// window); it serializes as JSON null, never as a fabricated number.
type IndicatorRow struct {
	Candle
	SMA10      *float64 `json:"sma_10"`
	EMA10      *float64 `json:"ema_10"`
	RSI14      *float64 `json:"rsi_14"`
	StochK     *float64 `json:"stoch_k"`
	StochD     *float64 `json:"stoch_d"`
	MACD       *float64 `json:"macd"`
	MACDSignal *float64 `json:"signal_line"`
	MACDHist   *float64 `json:"macd_histogram"`
	MiddleBand *float64 `json:"middle_band"`
	UpperBand  *float64 `json:"upper_band"`
	LowerBand  *float64 `json:"lower_band"`
}

// IndicatorFrame is a candle series of one granularity augmented with
// indicator columns, preserving the original candle ordering.
type IndicatorFrame struct {
	Granularity Granularity    `json:"granularity"`
	Rows        []IndicatorRow `json:"rows"`
}

// Latest returns the most recent row. ok is false for an empty frame.
func (f IndicatorFrame) Latest() (row IndicatorRow, ok bool) {
	if len(f.Rows) == 0 {
		return IndicatorRow{}, false
	}
	return f.Rows[len(f.Rows)-1], true
}

// DepthLevel is one price level of the order book.
type DepthLevel struct {
	AskPrice float64 `json:"ask_price"`
	BidPrice float64 `json:"bid_price"`
	AskSize  float64 `json:"ask_size"`
	BidSize  float64 `json:"bid_size"`
}

// OrderBookDepth is the order book for a market at capture time.
// Timestamp is milliseconds since the Unix epoch, taken from the
// exchange response.
type OrderBookDepth struct {
	Market       string       `json:"market"`
	Timestamp    int64        `json:"timestamp"`
	TotalAskSize float64      `json:"total_ask_size"`
	TotalBidSize float64      `json:"total_bid_size"`
	Levels       []DepthLevel `json:"orderbook_units"`
}

// BestAsk returns the lowest ask price, or 0 for an empty book.
func (b OrderBookDepth) BestAsk() float64 {
	if len(b.Levels) == 0 {
		return 0
	}
	return b.Levels[0].AskPrice
}

// Balance is one currency entry of the exchange account.
type Balance struct {
	Currency    string
	Balance     float64
	AvgBuyPrice float64
}

// AccountStatus is a point-in-time snapshot of the account, never
// mutated after creation. CapturedAt is shared with the order book
// captured in the same snapshot.
type AccountStatus struct {
	BTCBalance  float64 `json:"btc_balance"`
	KRWBalance  float64 `json:"krw_balance"`
	AvgBuyPrice float64 `json:"btc_avg_buy_price"`
	CapturedAt  int64   `json:"current_time"`
}

// Action is the trade action chosen by the oracle.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Valid reports whether a is one of the three enumerated actions.
func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell || a == ActionHold
}

// Decision is a validated oracle response. Percentage is always in
// (0,100] once it leaves the oracle client.
type Decision struct {
	Action     Action  `json:"decision"`
	Percentage float64 `json:"percentage"`
	Reason     string  `json:"reason"`
}

// DecisionRecord is the canonical audit unit persisted by the ledger:
// one decision plus the account and market state it was evaluated
// against. Timestamp is milliseconds since the Unix epoch on the read
// path.
type DecisionRecord struct {
	ID          uint    `json:"-"`
	Timestamp   int64   `json:"timestamp"`
	Action      Action  `json:"decision"`
	Percentage  float64 `json:"percentage"`
	Reason      string  `json:"reason"`
	BTCBalance  float64 `json:"btc_balance"`
	KRWBalance  float64 `json:"krw_balance"`
	AvgBuyPrice float64 `json:"btc_avg_buy_price"`
	MarketPrice float64 `json:"btc_krw_price"`
}

// NewsItem is one headline from the sentiment feed. A nil Timestamp is
// the explicit "no timestamp provided" marker for unparseable dates.
type NewsItem struct {
	Title     string `json:"title"`
	Source    string `json:"source"`
	Timestamp *int64 `json:"timestamp"`
}

// DecisionRequest is the full context handed to the oracle for one
// tick. Constructed fresh per tick and never persisted as-is.
type DecisionRequest struct {
	Market    string           `json:"market"`
	Daily     IndicatorFrame   `json:"daily"`
	Hourly    IndicatorFrame   `json:"hourly"`
	OrderBook OrderBookDepth   `json:"orderbook"`
	Status    AccountStatus    `json:"status"`
	News      []NewsItem       `json:"news"`
	FearGreed string           `json:"fear_greed"`
	History   []DecisionRecord `json:"last_decisions"`
}

// OrderResult is the opaque exchange response for a submitted order.
// Only UUID is consumed downstream (journaling).
type OrderResult struct {
	UUID    string `json:"uuid"`
	Side    string `json:"side"`
	OrdType string `json:"ord_type"`
	Market  string `json:"market"`
	State   string `json:"state"`
}

// TickResult summarizes one completed pipeline tick.
type TickResult struct {
	Market    string   `json:"market"`
	Decision  Decision `json:"decision"`
	Price     float64  `json:"price"`
	Time      int64    `json:"time"`
	Submitted bool     `json:"submitted"`
	Skipped   bool     `json:"skipped"`
	Reason    string   `json:"reason"`
}
