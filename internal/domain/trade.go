package domain

import "time"

// Exit reason codes, in tie-break precedence order: when several exit
// conditions trigger on the same bar, take-profit wins over stop-loss,
// which wins over a signal exit.
const (
	ExitReasonTakeProfit = "tp"
	ExitReasonStopLoss   = "sl"
	ExitReasonSignal     = "exit_signal"
)

// Trade is one completed round trip emitted by the simulator. Created
// atomically when a position closes and never updated afterwards.
// Prices and pnl are rounded to 2 decimals.
type Trade struct {
	EntryTime  time.Time `json:"entry_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitTime   time.Time `json:"exit_time"`
	ExitPrice  float64   `json:"exit_price"`
	PnlPct     float64   `json:"pnl_pct"`
	Reason     string    `json:"reason"`
}
