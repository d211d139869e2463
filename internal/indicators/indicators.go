// Package indicators computes the technical indicator columns the
// strategy logic can reference. Values inside each indicator's warm-up
// window are NaN: the column exists on every bar, but its value is
// undefined until the window fills.
package indicators

import (
	"math"

	"strategy-lab/internal/domain"
)

// Default indicator set appended before signal generation.
const (
	ColEMA20      = "ema_20"
	ColEMA50      = "ema_50"
	ColRSI14      = "rsi_14"
	ColMACD       = "macd"
	ColMACDSignal = "macd_signal"
)

// Enrich returns a copy of bars with the default indicator columns
// appended: EMA 20/50, RSI 14, and MACD(12,26) with its 9-period
// signal line. The input slice is not mutated.
func Enrich(bars []domain.Bar) []domain.Bar {
	closes := make([]float64, len(bars))
	for i := range bars {
		closes[i] = bars[i].Close
	}

	ema20 := EMA(closes, 20)
	ema50 := EMA(closes, 50)
	rsi14 := RSI(closes, 14)
	macd, signal := MACD(closes, 12, 26, 9)

	out := make([]domain.Bar, len(bars))
	for i := range bars {
		// NaN warm-up values are stored as-is so the column is a
		// known field on every bar; Bar.Field reports NaN as
		// undefined.
		out[i] = bars[i].WithIndicators(map[string]float64{
			ColEMA20:      ema20[i],
			ColEMA50:      ema50[i],
			ColRSI14:      rsi14[i],
			ColMACD:       macd[i],
			ColMACDSignal: signal[i],
		})
	}
	return out
}

// EMA computes an exponential moving average with alpha = 2/(n+1),
// seeded from the first close. The first n-1 values are NaN (warm-up).
func EMA(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window < 1 || len(values) == 0 {
		return out
	}

	alpha := 2.0 / (float64(window) + 1)
	ema := values[0]
	for i, v := range values {
		if i > 0 {
			ema = alpha*v + (1-alpha)*ema
		}
		if i >= window-1 {
			out[i] = ema
		}
	}
	return out
}

// RSI computes the relative strength index with Wilder smoothing
// (alpha = 1/n) over gains and losses. The first n values are NaN.
func RSI(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window < 1 || len(values) < 2 {
		return out
	}

	alpha := 1.0 / float64(window)
	avgGain := math.Max(values[1]-values[0], 0)
	avgLoss := math.Max(values[0]-values[1], 0)

	for i := 2; i < len(values); i++ {
		diff := values[i] - values[i-1]
		avgGain = alpha*math.Max(diff, 0) + (1-alpha)*avgGain
		avgLoss = alpha*math.Max(-diff, 0) + (1-alpha)*avgLoss
		if i < window {
			continue
		}
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACD computes the moving average convergence/divergence line
// (EMA fast − EMA slow) and its EMA signal line. The macd line is
// defined from index slow-1, the signal line sign-1 bars later.
func MACD(values []float64, fast, slow, sign int) (macd, signal []float64) {
	macd = nanSlice(len(values))
	signal = nanSlice(len(values))
	if len(values) == 0 || fast < 1 || slow < 1 || sign < 1 {
		return macd, signal
	}

	emaFast := ema1(values, fast)
	emaSlow := ema1(values, slow)
	for i := range values {
		if i >= slow-1 {
			macd[i] = emaFast[i] - emaSlow[i]
		}
	}

	alpha := 2.0 / (float64(sign) + 1)
	var sig float64
	started := -1
	for i := range macd {
		if math.IsNaN(macd[i]) {
			continue
		}
		if started < 0 {
			started = i
			sig = macd[i]
		} else {
			sig = alpha*macd[i] + (1-alpha)*sig
		}
		if i >= started+sign-1 {
			signal[i] = sig
		}
	}
	return macd, signal
}

// ema1 is the EMA recurrence over the full series with no warm-up
// masking, used internally by MACD.
func ema1(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	alpha := 2.0 / (float64(window) + 1)
	ema := values[0]
	for i, v := range values {
		if i > 0 {
			ema = alpha*v + (1-alpha)*ema
		}
		out[i] = ema
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
