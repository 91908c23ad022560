package store

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode   string `yaml:"mode"`
	Market string `yaml:"market"`

	Schedule ScheduleConfig `yaml:"schedule"`

	HistoryDepth int `yaml:"history_depth"`

	Candles struct {
		DailyCount  int `yaml:"daily_count"`
		HourlyCount int `yaml:"hourly_count"`
	} `yaml:"candles"`

	Indicators struct {
		SMAWindow   int     `yaml:"sma_window"`
		EMAWindow   int     `yaml:"ema_window"`
		RSIPeriod   int     `yaml:"rsi_period"`
		StochK      int     `yaml:"stoch_k"`
		StochD      int     `yaml:"stoch_d"`
		StochSmooth int     `yaml:"stoch_smooth"`
		MACDFast    int     `yaml:"macd_fast"`
		MACDSlow    int     `yaml:"macd_slow"`
		MACDSignal  int     `yaml:"macd_signal"`
		BBWindow    int     `yaml:"bb_window"`
		BBStdDev    float64 `yaml:"bb_stddev"`
	} `yaml:"indicators"`

	Oracle struct {
		Provider          string  `yaml:"provider"`
		Model             string  `yaml:"model"`
		InstructionsPath  string  `yaml:"instructions_path"`
		MaxRetries        int     `yaml:"max_retries"`
		RetryDelaySeconds int     `yaml:"retry_delay_seconds"`
		MaxTokens         int     `yaml:"max_tokens"`
		Temperature       float32 `yaml:"temperature"`
	} `yaml:"oracle"`

	Guard struct {
		MinOrderKRW   float64 `yaml:"min_order_krw"`
		FeeMultiplier float64 `yaml:"fee_multiplier"`
	} `yaml:"guard"`

	News struct {
		Query         string `yaml:"query"`
		MaxItems      int    `yaml:"max_items"`
		FearGreedSize int    `yaml:"fear_greed_size"`
	} `yaml:"news"`

	Ledger struct {
		Path string `yaml:"path"`
	} `yaml:"ledger"`

	HTTPTimeoutSeconds int `yaml:"http_timeout_seconds"`
}

// ScheduleConfig selects the tick cadence: fixed wall-clock times per
// day, or once per hour at minute :01.
type ScheduleConfig struct {
	Cadence  string   `yaml:"cadence"` // TIMES or HOURLY
	Times    []string `yaml:"times"`   // "HH:MM", used when cadence is TIMES
	Timezone string   `yaml:"timezone"`
}

// Location resolves the schedule timezone, defaulting to Asia/Seoul.
func (s ScheduleConfig) Location() (*time.Location, error) {
	tz := s.Timezone
	if tz == "" {
		tz = "Asia/Seoul"
	}
	return time.LoadLocation(tz)
}

// Next returns the next scheduled tick strictly after now.
func (s ScheduleConfig) Next(now time.Time) (time.Time, error) {
	loc, err := s.Location()
	if err != nil {
		return time.Time{}, err
	}
	local := now.In(loc)

	if s.Cadence == "HOURLY" {
		next := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 1, 0, 0, loc)
		if !next.After(local) {
			next = next.Add(time.Hour)
		}
		return next, nil
	}

	var best time.Time
	for day := 0; day <= 1; day++ {
		base := local.AddDate(0, 0, day)
		for _, at := range s.Times {
			t, err := time.ParseInLocation("15:04", at, loc)
			if err != nil {
				return time.Time{}, fmt.Errorf("invalid schedule time %q: %w", at, err)
			}
			cand := time.Date(base.Year(), base.Month(), base.Day(), t.Hour(), t.Minute(), 0, 0, loc)
			if cand.After(local) && (best.IsZero() || cand.Before(best)) {
				best = cand
			}
		}
	}
	if best.IsZero() {
		return time.Time{}, fmt.Errorf("schedule has no times configured")
	}
	return best, nil
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Market == "" {
		return fmt.Errorf("market cannot be empty")
	}
	if c.Schedule.Cadence != "TIMES" && c.Schedule.Cadence != "HOURLY" {
		return fmt.Errorf("schedule.cadence must be 'TIMES' or 'HOURLY', got '%s'", c.Schedule.Cadence)
	}
	if c.Schedule.Cadence == "TIMES" && len(c.Schedule.Times) == 0 {
		return fmt.Errorf("schedule.times cannot be empty when cadence is TIMES")
	}
	if _, err := c.Schedule.Location(); err != nil {
		return fmt.Errorf("invalid schedule.timezone '%s': %w", c.Schedule.Timezone, err)
	}
	if c.Guard.MinOrderKRW <= 0 {
		return fmt.Errorf("guard.min_order_krw must be positive, got %.2f", c.Guard.MinOrderKRW)
	}
	if c.Guard.FeeMultiplier <= 0 || c.Guard.FeeMultiplier > 1 {
		return fmt.Errorf("guard.fee_multiplier must be in (0,1], got %.5f", c.Guard.FeeMultiplier)
	}
	if c.Oracle.MaxRetries <= 0 {
		return fmt.Errorf("oracle.max_retries must be positive, got %d", c.Oracle.MaxRetries)
	}
	if c.HistoryDepth < 0 {
		return fmt.Errorf("history_depth cannot be negative, got %d", c.HistoryDepth)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Market == "" {
		c.Market = "KRW-BTC"
	}
	if c.Schedule.Cadence == "" {
		c.Schedule.Cadence = "TIMES"
	}
	if c.Schedule.Cadence == "TIMES" && len(c.Schedule.Times) == 0 {
		c.Schedule.Times = []string{"00:01", "08:01", "16:01"}
	}
	if c.HistoryDepth == 0 {
		c.HistoryDepth = 10
	}
	if c.Candles.DailyCount == 0 {
		c.Candles.DailyCount = 30
	}
	if c.Candles.HourlyCount == 0 {
		c.Candles.HourlyCount = 24
	}
	applyIndicatorDefaults(&c)
	if c.Oracle.MaxRetries == 0 {
		c.Oracle.MaxRetries = 5
	}
	if c.Oracle.RetryDelaySeconds == 0 {
		c.Oracle.RetryDelaySeconds = 5
	}
	if c.Oracle.InstructionsPath == "" {
		c.Oracle.InstructionsPath = "instructions.md"
	}
	if c.Guard.MinOrderKRW == 0 {
		c.Guard.MinOrderKRW = 5000
	}
	if c.Guard.FeeMultiplier == 0 {
		c.Guard.FeeMultiplier = 0.9995
	}
	if c.News.Query == "" {
		c.News.Query = "btc"
	}
	if c.News.MaxItems == 0 {
		c.News.MaxItems = 15
	}
	if c.News.FearGreedSize == 0 {
		c.News.FearGreedSize = 30
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = "trading_decisions.sqlite"
	}
	if c.HTTPTimeoutSeconds == 0 {
		c.HTTPTimeoutSeconds = 30
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func applyIndicatorDefaults(c *Config) {
	ind := &c.Indicators
	if ind.SMAWindow == 0 {
		ind.SMAWindow = 10
	}
	if ind.EMAWindow == 0 {
		ind.EMAWindow = 10
	}
	if ind.RSIPeriod == 0 {
		ind.RSIPeriod = 14
	}
	if ind.StochK == 0 {
		ind.StochK = 14
	}
	if ind.StochD == 0 {
		ind.StochD = 3
	}
	if ind.StochSmooth == 0 {
		ind.StochSmooth = 3
	}
	if ind.MACDFast == 0 {
		ind.MACDFast = 12
	}
	if ind.MACDSlow == 0 {
		ind.MACDSlow = 26
	}
	if ind.MACDSignal == 0 {
		ind.MACDSignal = 9
	}
	if ind.BBWindow == 0 {
		ind.BBWindow = 20
	}
	if ind.BBStdDev == 0 {
		ind.BBStdDev = 2.0
	}
}

// RetryDelay returns the oracle inter-attempt delay as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Oracle.RetryDelaySeconds) * time.Second
}

// HTTPTimeout returns the bounded timeout applied to outbound calls.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}
