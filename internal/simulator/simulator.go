// Package simulator runs the sequential single-position trade state
// machine over signal-flagged bars.
package simulator

import (
	"math"

	"strategy-lab/internal/domain"
)

// Simulate walks the bar sequence with a two-state machine (flat /
// in-trade) and emits one Trade per completed round trip.
//
// Entry: first bar with entry_signal while flat. The entry bar is
// consumed: it can never also trigger an exit. Exit, checked on every
// later bar while in trade: exit_signal, close >= take-profit target,
// or close <= stop. When several trigger on the same bar the reason is
// labeled by fixed precedence: tp, then sl, then exit_signal.
//
// A position still open when the sequence ends is discarded, not
// force-closed. Bars with an undefined close or timestamp are skipped
// without any state transition.
func Simulate(bars []domain.SignalBar, cfg domain.ExecutionConfig) []domain.Trade {
	trades := []domain.Trade{}

	inTrade := false
	var (
		entryAt     int
		entryPrice  float64
		stopPrice   float64
		targetPrice float64
		hasStop     bool
		hasTarget   bool
	)

	for i := range bars {
		bar := &bars[i]
		if math.IsNaN(bar.Close) || bar.Timestamp.IsZero() {
			continue
		}
		price := bar.Close

		if !inTrade {
			if !bar.EntrySignal {
				continue
			}
			inTrade = true
			entryAt = i
			entryPrice = applySlippage(price, cfg.SlippageBps, true)

			hasStop = cfg.StopLossPct != 0
			if hasStop {
				stopPrice = entryPrice * (1 - cfg.StopLossPct/100)
			}
			hasTarget = cfg.TakeProfitPct != 0
			if hasTarget {
				targetPrice = entryPrice * (1 + cfg.TakeProfitPct/100)
			}
			// Entry consumes the bar: exit is not evaluated here.
			continue
		}

		hitTP := hasTarget && price >= targetPrice
		hitSL := hasStop && price <= stopPrice
		if !bar.ExitSignal && !hitTP && !hitSL {
			continue
		}

		exitPrice := applySlippage(price, cfg.SlippageBps, false)

		feePct := cfg.FeeBps / 10000
		netEntry := entryPrice * (1 + feePct)
		netExit := exitPrice * (1 - feePct)
		pnlPct := (netExit - netEntry) / netEntry * 100

		reason := domain.ExitReasonSignal
		if hitTP {
			reason = domain.ExitReasonTakeProfit
		} else if hitSL {
			reason = domain.ExitReasonStopLoss
		}

		trades = append(trades, domain.Trade{
			EntryTime:  bars[entryAt].Timestamp,
			EntryPrice: round2(entryPrice),
			ExitTime:   bar.Timestamp,
			ExitPrice:  round2(exitPrice),
			PnlPct:     round2(pnlPct),
			Reason:     reason,
		})

		inTrade = false
	}

	return trades
}

// applySlippage worsens the fill price by slippage_bps: up for a buy,
// down for a sell.
func applySlippage(price, slippageBps float64, buy bool) float64 {
	slip := slippageBps / 10000 * price
	if buy {
		return price + slip
	}
	return price - slip
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
