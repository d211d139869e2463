// Package reporting renders backtest results as CSV and Markdown.
package reporting

import (
	"time"

	"strategy-lab/internal/domain"
)

// Report is the rendered view of one backtest run across symbols.
type Report struct {
	GeneratedAt time.Time
	Interval    string

	// Symbols sorted ascending; failed symbols carry an error string.
	Symbols []SymbolSection
}

// SymbolSection holds one symbol's backtest output.
type SymbolSection struct {
	Symbol  string
	Error   string
	Trades  []domain.Trade
	Metrics map[string]float64
}

// metricOrder fixes the row order of the metrics table so reports are
// diffable between runs.
var metricOrder = []string{
	"totalReturnPct",
	"totalReturnUsd",
	"cagr",
	"sharpeRatio",
	"sortinoRatio",
	"calmarRatio",
	"maxDrawdownPct",
	"maxDrawdownUsd",
	"volatilityPct",
	"var95",
	"winRate",
	"totalTrades",
	"avgTradeDuration",
	"largestWin",
	"largestLoss",
	"turnover",
}
