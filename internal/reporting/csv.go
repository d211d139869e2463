package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderTradesCSV renders the trade logs of every symbol as one CSV
// string, symbol first so multi-symbol runs stay in a single file.
func RenderTradesCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("symbol,entry_time,entry_price,exit_time,exit_price,pnl_pct,reason\n")

	for _, sec := range r.Symbols {
		for _, t := range sec.Trades {
			sb.WriteString(fmt.Sprintf("%s,%s,%.2f,%s,%.2f,%.2f,%s\n",
				sec.Symbol,
				formatTradeTime(t.EntryTime),
				t.EntryPrice,
				formatTradeTime(t.ExitTime),
				t.ExitPrice,
				t.PnlPct,
				t.Reason,
			))
		}
	}

	return sb.String()
}

func formatTradeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// RenderMetricsCSV renders the metrics of every symbol in a fixed
// column order.
func RenderMetricsCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("symbol," + strings.Join(metricOrder, ",") + "\n")

	for _, sec := range r.Symbols {
		if sec.Error != "" || sec.Metrics == nil {
			continue
		}
		sb.WriteString(sec.Symbol)
		for _, key := range metricOrder {
			sb.WriteString(fmt.Sprintf(",%.2f", sec.Metrics[key]))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
