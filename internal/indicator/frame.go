// Package indicator assembles candle series into indicator frames.
package indicator

import (
	"math"

	"upbit-llm-trader/internal/ta"
	"upbit-llm-trader/internal/types"
)

// Params fixes the window sizes for every derived series.
type Params struct {
	SMAWindow   int
	EMAWindow   int
	RSIPeriod   int
	StochK      int
	StochD      int
	StochSmooth int
	MACDFast    int
	MACDSlow    int
	MACDSignal  int
	BBWindow    int
	BBStdDev    float64
}

// DefaultParams matches the classic indicator set: SMA/EMA 10, RSI 14,
// Stoch 14/3/3, MACD 12/26/9, Bollinger 20 with 2 standard deviations.
func DefaultParams() Params {
	return Params{
		SMAWindow:   10,
		EMAWindow:   10,
		RSIPeriod:   14,
		StochK:      14,
		StochD:      3,
		StochSmooth: 3,
		MACDFast:    12,
		MACDSlow:    26,
		MACDSignal:  9,
		BBWindow:    20,
		BBStdDev:    2.0,
	}
}

// BuildFrame computes every indicator series over candles and returns
// the labeled frame. Rows keep the input candle ordering; candles are
// copied, never mutated. Too-short input is not an error: rows inside
// an indicator's warm-up window simply carry no value for it.
func BuildFrame(granularity types.Granularity, candles []types.Candle, p Params) types.IndicatorFrame {
	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}

	sma := ta.SMA(closes, p.SMAWindow)
	ema := ta.EMA(closes, p.EMAWindow)
	rsi := ta.RSI(closes, p.RSIPeriod)
	stochK, stochD := ta.Stoch(highs, lows, closes, p.StochK, p.StochSmooth, p.StochD)
	macd, sig, hist := ta.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	mid, up, low := ta.Bollinger(closes, p.BBWindow, p.BBStdDev)

	rows := make([]types.IndicatorRow, len(candles))
	for i, c := range candles {
		rows[i] = types.IndicatorRow{
			Candle:     c,
			SMA10:      value(sma[i]),
			EMA10:      value(ema[i]),
			RSI14:      value(rsi[i]),
			StochK:     value(stochK[i]),
			StochD:     value(stochD[i]),
			MACD:       value(macd[i]),
			MACDSignal: value(sig[i]),
			MACDHist:   value(hist[i]),
			MiddleBand: value(mid[i]),
			UpperBand:  value(up[i]),
			LowerBand:  value(low[i]),
		}
	}

	return types.IndicatorFrame{Granularity: granularity, Rows: rows}
}

// value converts a NaN warm-up marker into an explicit nil.
func value(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
