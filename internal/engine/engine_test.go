package engine

import (
	"context"
	"errors"
	"testing"

	"upbit-llm-trader/internal/oracle"
	"upbit-llm-trader/internal/store"
	"upbit-llm-trader/internal/types"
)

type fakeExchange struct {
	candleErr error
	orderErr  error
	buyCalls  int
	sellCalls int
}

func (f *fakeExchange) DailyCandles(ctx context.Context, market string, count int) ([]types.Candle, error) {
	if f.candleErr != nil {
		return nil, f.candleErr
	}
	return makeCandles(count), nil
}

func (f *fakeExchange) HourlyCandles(ctx context.Context, market string, count int) ([]types.Candle, error) {
	if f.candleErr != nil {
		return nil, f.candleErr
	}
	return makeCandles(count), nil
}

func (f *fakeExchange) OrderBook(ctx context.Context, market string) (types.OrderBookDepth, error) {
	return types.OrderBookDepth{
		Market:    market,
		Timestamp: 1700000000000,
		Levels:    []types.DepthLevel{{AskPrice: 50000000, AskSize: 2}},
	}, nil
}

func (f *fakeExchange) Balances(ctx context.Context) ([]types.Balance, error) {
	return []types.Balance{
		{Currency: "KRW", Balance: 1000000},
		{Currency: "BTC", Balance: 0.5, AvgBuyPrice: 48000000},
	}, nil
}

func (f *fakeExchange) BuyMarket(ctx context.Context, market string, krwAmount float64) (types.OrderResult, error) {
	f.buyCalls++
	if f.orderErr != nil {
		return types.OrderResult{}, f.orderErr
	}
	return types.OrderResult{UUID: "buy-1"}, nil
}

func (f *fakeExchange) SellMarket(ctx context.Context, market string, volume float64) (types.OrderResult, error) {
	f.sellCalls++
	if f.orderErr != nil {
		return types.OrderResult{}, f.orderErr
	}
	return types.OrderResult{UUID: "sell-1"}, nil
}

func makeCandles(n int) []types.Candle {
	out := make([]types.Candle, n)
	for i := range out {
		price := 50000000.0 + float64(i)*10000
		out[i] = types.Candle{
			Ts:     int64(1700000000000 + i*3600000),
			Open:   price,
			High:   price + 50000,
			Low:    price - 50000,
			Close:  price + 10000,
			Volume: 3,
		}
	}
	return out
}

type fakeOracle struct {
	decision types.Decision
	err      error
	lastReq  types.DecisionRequest
	calls    int
}

func (f *fakeOracle) Decide(ctx context.Context, req types.DecisionRequest) (types.Decision, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return types.Decision{}, f.err
	}
	return f.decision, nil
}

type fakeNews struct {
	items []types.NewsItem
	err   error
}

func (f *fakeNews) Headlines(ctx context.Context) ([]types.NewsItem, error) {
	return f.items, f.err
}

type fakeFearGreed struct {
	summary string
	err     error
}

func (f *fakeFearGreed) Index(ctx context.Context, limit int) (string, error) {
	return f.summary, f.err
}

type fakeLedger struct {
	records  []types.DecisionRecord
	fetchErr error
	writeErr error
}

func (f *fakeLedger) Append(ctx context.Context, rec types.DecisionRecord) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeLedger) FetchRecent(ctx context.Context, n int) ([]types.DecisionRecord, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if n > 0 && len(f.records) > n {
		return f.records[:n], nil
	}
	return f.records, nil
}

func testConfig() *store.Config {
	cfg := &store.Config{Mode: "DRY_RUN", Market: "KRW-BTC", HistoryDepth: 10}
	cfg.Candles.DailyCount = 30
	cfg.Candles.HourlyCount = 24
	cfg.Indicators.SMAWindow = 10
	cfg.Indicators.EMAWindow = 10
	cfg.Indicators.RSIPeriod = 14
	cfg.Indicators.StochK = 14
	cfg.Indicators.StochD = 3
	cfg.Indicators.StochSmooth = 3
	cfg.Indicators.MACDFast = 12
	cfg.Indicators.MACDSlow = 26
	cfg.Indicators.MACDSignal = 9
	cfg.Indicators.BBWindow = 20
	cfg.Indicators.BBStdDev = 2.0
	cfg.Guard.MinOrderKRW = 5000
	cfg.Guard.FeeMultiplier = 0.9995
	cfg.News.FearGreedSize = 30
	return cfg
}

type fixture struct {
	ex     *fakeExchange
	orc    *fakeOracle
	news   *fakeNews
	mood   *fakeFearGreed
	ledger *fakeLedger
	eng    *Engine
}

func newFixture(decision types.Decision) *fixture {
	f := &fixture{
		ex:     &fakeExchange{},
		orc:    &fakeOracle{decision: decision},
		news:   &fakeNews{items: []types.NewsItem{{Title: "Bitcoin steady", Source: "Wire"}}},
		mood:   &fakeFearGreed{summary: "fear 40"},
		ledger: &fakeLedger{},
	}
	f.eng = New(testConfig(), Deps{
		Exchange:  f.ex,
		Oracle:    f.orc,
		News:      f.news,
		FearGreed: f.mood,
		Ledger:    f.ledger,
	})
	return f
}

func TestTickBuyFlow(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	f := newFixture(types.Decision{Action: types.ActionBuy, Percentage: 50, Reason: "up"})

	res, err := f.eng.Tick(context.Background())
	if err != nil {
		t.Fatalf("Expected clean tick, got %v", err)
	}
	if !res.Submitted {
		t.Errorf("Expected order submitted, got %+v", res)
	}
	if f.ex.buyCalls != 1 {
		t.Errorf("Expected one buy, got %d", f.ex.buyCalls)
	}
	if len(f.ledger.records) != 1 {
		t.Fatalf("Expected one ledger record, got %d", len(f.ledger.records))
	}

	rec := f.ledger.records[0]
	if rec.Action != types.ActionBuy || rec.Percentage != 50 {
		t.Errorf("Unexpected record %+v", rec)
	}
	if rec.KRWBalance != 1000000 || rec.BTCBalance != 0.5 {
		t.Errorf("Expected snapshot balances in record, got %+v", rec)
	}
	if rec.MarketPrice != 50000000 {
		t.Errorf("Expected best ask as market price, got %f", rec.MarketPrice)
	}
}

func TestTickHoldWritesLedgerWithoutOrder(t *testing.T) {
	f := newFixture(types.Decision{Action: types.ActionHold, Percentage: 100, Reason: "flat"})

	res, err := f.eng.Tick(context.Background())
	if err != nil {
		t.Fatalf("Expected clean tick, got %v", err)
	}
	if res.Submitted {
		t.Error("Expected no order for hold")
	}
	if f.ex.buyCalls != 0 || f.ex.sellCalls != 0 {
		t.Error("Expected no exchange order calls for hold")
	}
	if len(f.ledger.records) != 1 {
		t.Errorf("Expected hold still recorded, got %d records", len(f.ledger.records))
	}
}

func TestTickRequestCarriesContext(t *testing.T) {
	f := newFixture(types.Decision{Action: types.ActionHold, Percentage: 100})
	f.ledger.records = []types.DecisionRecord{
		{Action: types.ActionBuy, Reason: "yesterday"},
	}

	if _, err := f.eng.Tick(context.Background()); err != nil {
		t.Fatalf("Expected clean tick, got %v", err)
	}

	req := f.orc.lastReq
	if req.Market != "KRW-BTC" {
		t.Errorf("Expected market in request, got %q", req.Market)
	}
	if len(req.Daily.Rows) != 30 || len(req.Hourly.Rows) != 24 {
		t.Errorf("Expected 30 daily and 24 hourly rows, got %d/%d", len(req.Daily.Rows), len(req.Hourly.Rows))
	}
	if req.Daily.Granularity != types.GranularityDaily || req.Hourly.Granularity != types.GranularityHourly {
		t.Error("Expected granularity labels preserved")
	}
	if len(req.News) != 1 || req.News[0].Title != "Bitcoin steady" {
		t.Errorf("Expected headlines in request, got %+v", req.News)
	}
	if req.FearGreed != "fear 40" {
		t.Errorf("Expected fear&greed summary, got %q", req.FearGreed)
	}
	if len(req.History) != 1 || req.History[0].Reason != "yesterday" {
		t.Errorf("Expected prior decisions in request, got %+v", req.History)
	}
	if req.Status.KRWBalance != 1000000 {
		t.Errorf("Expected account status in request, got %+v", req.Status)
	}
}

func TestTickNewsFailureTolerated(t *testing.T) {
	f := newFixture(types.Decision{Action: types.ActionHold, Percentage: 100})
	f.news.err = errors.New("serpapi down")
	f.mood.err = errors.New("alternative.me down")

	if _, err := f.eng.Tick(context.Background()); err != nil {
		t.Fatalf("Expected tick to survive feed failures, got %v", err)
	}
	if f.orc.calls != 1 {
		t.Error("Expected oracle still consulted")
	}
	if len(f.orc.lastReq.News) != 0 {
		t.Errorf("Expected empty news on failure, got %+v", f.orc.lastReq.News)
	}
	if f.orc.lastReq.FearGreed != "" {
		t.Errorf("Expected empty fear&greed on failure, got %q", f.orc.lastReq.FearGreed)
	}
}

func TestTickCandleFailureAborts(t *testing.T) {
	f := newFixture(types.Decision{Action: types.ActionBuy, Percentage: 100})
	f.ex.candleErr = errors.New("upbit 500")

	if _, err := f.eng.Tick(context.Background()); err == nil {
		t.Fatal("Expected tick abort on candle failure")
	}
	if f.orc.calls != 0 {
		t.Error("Expected no oracle call after fetch failure")
	}
	if len(f.ledger.records) != 0 {
		t.Error("Expected no ledger write on aborted tick")
	}
}

func TestTickHistoryFailureAborts(t *testing.T) {
	f := newFixture(types.Decision{Action: types.ActionBuy, Percentage: 100})
	f.ledger.fetchErr = errors.New("db locked")

	if _, err := f.eng.Tick(context.Background()); err == nil {
		t.Fatal("Expected tick abort on history failure")
	}
	if f.orc.calls != 0 {
		t.Error("Expected no oracle call without history")
	}
}

func TestTickNoDecisionNoTradeNoRecord(t *testing.T) {
	f := newFixture(types.Decision{})
	f.orc.err = oracle.ErrNoDecision

	_, err := f.eng.Tick(context.Background())
	if !errors.Is(err, oracle.ErrNoDecision) {
		t.Fatalf("Expected ErrNoDecision surfaced, got %v", err)
	}
	if f.ex.buyCalls != 0 || f.ex.sellCalls != 0 {
		t.Error("Expected no orders without a decision")
	}
	if len(f.ledger.records) != 0 {
		t.Error("Expected no ledger row without a decision")
	}
}

func TestTickExecFailureStillRecorded(t *testing.T) {
	f := newFixture(types.Decision{Action: types.ActionBuy, Percentage: 100, Reason: "go"})
	f.ex.orderErr = errors.New("insufficient funds")

	res, err := f.eng.Tick(context.Background())
	if err != nil {
		t.Fatalf("Expected tick to complete despite order failure, got %v", err)
	}
	if res.Submitted {
		t.Error("Expected submitted false on order failure")
	}
	if len(f.ledger.records) != 1 {
		t.Errorf("Expected decision recorded despite order failure, got %d records", len(f.ledger.records))
	}
}

func TestTickLedgerWriteFailureSurfaced(t *testing.T) {
	f := newFixture(types.Decision{Action: types.ActionHold, Percentage: 100})
	f.ledger.writeErr = errors.New("disk full")

	res, err := f.eng.Tick(context.Background())
	if err == nil {
		t.Fatal("Expected ledger write failure surfaced")
	}
	if res == nil {
		t.Error("Expected tick result despite audit failure")
	}
}
