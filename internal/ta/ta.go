// Package ta computes technical indicator series over OHLCV data.
// Every function returns a slice aligned index-for-index with its
// input; positions inside an indicator's warm-up window hold NaN.
// Inputs are never mutated and outputs are deterministic.
package ta

import "math"

// SMA returns the simple moving average with window n. The first n-1
// positions are NaN. NaN inputs propagate through any window that
// contains them.
func SMA(vals []float64, n int) []float64 {
	out := nanSlice(len(vals))
	if n <= 0 {
		return out
	}
	for i := n - 1; i < len(vals); i++ {
		sum := 0.0
		for j := i - n + 1; j <= i; j++ {
			sum += vals[j]
		}
		out[i] = sum / float64(n)
	}
	return out
}

// EMA returns the exponential moving average with window n, seeded
// with the SMA of the first n values. The first n-1 positions are NaN.
func EMA(vals []float64, n int) []float64 {
	out := nanSlice(len(vals))
	if n <= 0 || len(vals) < n {
		return out
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += vals[i]
	}
	out[n-1] = sum / float64(n)
	alpha := 2.0 / float64(n+1)
	for i := n; i < len(vals); i++ {
		out[i] = alpha*vals[i] + (1-alpha)*out[i-1]
	}
	return out
}

// EWM returns the recursively-defined exponential moving average with
// the given span, seeded from the first value. Defined for every
// position; used by MACD where no warm-up gap exists.
func EWM(vals []float64, span int) []float64 {
	out := nanSlice(len(vals))
	if span <= 0 || len(vals) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = vals[0]
	for i := 1; i < len(vals); i++ {
		out[i] = alpha*vals[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI returns the relative strength index over period, using Wilder's
// smoothing for gains and losses. The first period positions are NaN.
// A window with zero average loss yields 100.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// Stoch returns the smoothed stochastic oscillator pair. Raw %K looks
// back k bars, is smoothed by an SMA of length smooth, and %D is an
// SMA of %K with length d. A flat lookback window (high == low over
// the full range) yields a neutral 50 for the raw value.
func Stoch(highs, lows, closes []float64, k, smooth, d int) (stochK, stochD []float64) {
	raw := nanSlice(len(closes))
	if k <= 0 || len(highs) != len(closes) || len(lows) != len(closes) {
		return raw, nanSlice(len(closes))
	}
	for i := k - 1; i < len(closes); i++ {
		hh := highs[i]
		ll := lows[i]
		for j := i - k + 1; j <= i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}
		if hh == ll {
			raw[i] = 50.0
			continue
		}
		raw[i] = 100.0 * (closes[i] - ll) / (hh - ll)
	}
	stochK = SMA(raw, smooth)
	stochD = SMA(stochK, d)
	return stochK, stochD
}

// MACD returns the trend-convergence triple: fast EMA minus slow EMA,
// a signal line (EMA of the difference), and their histogram. All
// three are defined from the first bar because the underlying EMAs are
// seeded recursively.
func MACD(closes []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	fastEMA := EWM(closes, fast)
	slowEMA := EWM(closes, slow)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	sig = EWM(macd, signal)
	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - sig[i]
	}
	return macd, sig, hist
}

// StdDev returns the rolling sample standard deviation (ddof=1) with
// window n. The first n-1 positions are NaN.
func StdDev(vals []float64, n int) []float64 {
	out := nanSlice(len(vals))
	if n <= 1 {
		return out
	}
	means := SMA(vals, n)
	for i := n - 1; i < len(vals); i++ {
		s := 0.0
		for j := i - n + 1; j <= i; j++ {
			d := vals[j] - means[i]
			s += d * d
		}
		out[i] = math.Sqrt(s / float64(n-1))
	}
	return out
}

// Bollinger returns the volatility band triple: SMA centerline and
// bands offset by k rolling standard deviations.
func Bollinger(closes []float64, n int, k float64) (mid, up, low []float64) {
	mid = SMA(closes, n)
	sd := StdDev(closes, n)
	up = make([]float64, len(closes))
	low = make([]float64, len(closes))
	for i := range closes {
		up[i] = mid[i] + k*sd[i]
		low[i] = mid[i] - k*sd[i]
	}
	return mid, up, low
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
