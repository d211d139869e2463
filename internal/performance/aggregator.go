// Package performance aggregates a completed trade list plus the bar
// sequence it was produced from into return, risk and trade statistics.
package performance

import (
	"math"
	"sort"

	"strategy-lab/internal/domain"
)

// startingCapital is the fixed notional base (in units) every run is
// measured against. Independent of quantity_pct.
const startingCapital = 1000.0

// annualizationDays scales bar-over-bar statistics to a yearly figure.
// Calendar-day scaling is applied regardless of the actual bar
// interval.
const annualizationDays = 365.0

// Aggregate computes the metrics mapping for a completed run. An empty
// trade list yields an empty mapping; no divide-by-zero path is taken.
// Every value is sanitized: non-finite results collapse to 0.0 and
// everything is rounded to 2 decimals.
func Aggregate(bars []domain.Bar, trades []domain.Trade) map[string]float64 {
	if len(trades) == 0 {
		return map[string]float64{}
	}

	totalReturnPct := 0.0
	for _, t := range trades {
		totalReturnPct += t.PnlPct
	}
	totalReturnUsd := startingCapital * totalReturnPct / 100

	firstEntry := trades[0].EntryTime
	lastExit := trades[0].ExitTime
	for _, t := range trades {
		if t.EntryTime.Before(firstEntry) {
			firstEntry = t.EntryTime
		}
		if t.ExitTime.After(lastExit) {
			lastExit = t.ExitTime
		}
	}
	// Whole-day truncation, then a floor that keeps same-day backtests
	// away from a zero divisor.
	days := math.Floor(lastExit.Sub(firstEntry).Hours() / 24)
	durationYears := math.Max(days/annualizationDays, 1e-6)

	cagr := (math.Pow(1+totalReturnPct/100, 1/durationYears) - 1) * 100

	returns := closeReturns(bars)
	meanRet := mean(returns)
	stdRet := stddev(returns, meanRet)

	volatilityPct := stdRet * math.Sqrt(annualizationDays) * 100
	sharpe := meanRet / stdRet * math.Sqrt(annualizationDays)

	downside := negatives(returns)
	sortino := meanRet / stddev(downside, mean(downside)) * math.Sqrt(annualizationDays)

	maxDrawdown := maxDrawdownFrac(bars)
	maxDrawdownPct := maxDrawdown * 100
	maxDrawdownUsd := startingCapital * math.Abs(maxDrawdown)

	calmar := 0.0
	if maxDrawdownPct != 0 {
		calmar = totalReturnPct / math.Abs(maxDrawdownPct)
	}

	wins := 0
	sumDurationHrs := 0.0
	sumEntry := 0.0
	largestWin := trades[0].PnlPct
	largestLoss := trades[0].PnlPct
	for _, t := range trades {
		if t.PnlPct > 0 {
			wins++
		}
		sumDurationHrs += t.ExitTime.Sub(t.EntryTime).Hours()
		sumEntry += t.EntryPrice
		largestWin = math.Max(largestWin, t.PnlPct)
		largestLoss = math.Min(largestLoss, t.PnlPct)
	}
	n := float64(len(trades))

	var95 := percentile(returns, 5) * 100 * startingCapital

	return map[string]float64{
		"totalReturnPct":   safeFloat(totalReturnPct),
		"totalReturnUsd":   safeFloat(totalReturnUsd),
		"cagr":             safeFloat(cagr),
		"sharpeRatio":      safeFloat(sharpe),
		"sortinoRatio":     safeFloat(sortino),
		"calmarRatio":      safeFloat(calmar),
		"maxDrawdownPct":   safeFloat(maxDrawdownPct),
		"maxDrawdownUsd":   safeFloat(maxDrawdownUsd),
		"volatilityPct":    safeFloat(volatilityPct),
		"var95":            safeFloat(var95),
		"winRate":          safeFloat(float64(wins) / n * 100),
		"totalTrades":      n,
		"avgTradeDuration": safeFloat(sumDurationHrs / n),
		"largestWin":       safeFloat(largestWin),
		"largestLoss":      safeFloat(largestLoss),
		"turnover":         safeFloat(sumEntry / startingCapital * 100),
	}
}

// safeFloat sanitizes a metric value: NaN and infinities collapse to
// 0.0, everything else is rounded to 2 decimal places.
func safeFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	return math.Round(v*100) / 100
}

// closeReturns computes bar-over-bar close returns, skipping bars with
// an undefined close.
func closeReturns(bars []domain.Bar) []float64 {
	var returns []float64
	prev := math.NaN()
	for i := range bars {
		c := bars[i].Close
		if math.IsNaN(c) {
			continue
		}
		if !math.IsNaN(prev) && prev != 0 {
			returns = append(returns, c/prev-1)
		}
		prev = c
	}
	return returns
}

// maxDrawdownFrac computes the worst peak-to-trough decline of the
// close cumulative-return curve, as a (negative or zero) fraction.
func maxDrawdownFrac(bars []domain.Bar) float64 {
	var base float64
	haveBase := false
	rollingMax := math.Inf(-1)
	worst := 0.0

	for i := range bars {
		c := bars[i].Close
		if math.IsNaN(c) {
			continue
		}
		if !haveBase {
			base = c
			haveBase = true
		}
		if base == 0 {
			return 0
		}
		cum := c / base
		if cum > rollingMax {
			rollingMax = cum
		}
		if dd := cum/rollingMax - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation (n-1 denominator).
func stddev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	sumSq := 0.0
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

func negatives(xs []float64) []float64 {
	var out []float64
	for _, x := range xs {
		if x < 0 {
			out = append(out, x)
		}
	}
	return out
}

// percentile computes the p-th percentile (0..100) with linear
// interpolation between closest ranks.
func percentile(xs []float64, p float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)

	if n == 1 {
		return sorted[0]
	}
	idx := p / 100 * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
