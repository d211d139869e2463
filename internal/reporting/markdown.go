package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Interval: %s | Symbols: %d\n\n", r.Interval, len(r.Symbols)))

	failed := 0
	for _, sec := range r.Symbols {
		if sec.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		sb.WriteString(fmt.Sprintf("**%d symbol(s) failed.**\n\n", failed))
	}

	for _, sec := range r.Symbols {
		sb.WriteString(fmt.Sprintf("## %s\n\n", sec.Symbol))

		if sec.Error != "" {
			sb.WriteString(fmt.Sprintf("Error: %s\n\n", sec.Error))
			continue
		}

		sb.WriteString("### Metrics\n\n")
		if len(sec.Metrics) > 0 {
			sb.WriteString("| Metric | Value |\n")
			sb.WriteString("|--------|-------|\n")
			for _, key := range metricOrder {
				sb.WriteString(fmt.Sprintf("| %s | %.2f |\n", key, sec.Metrics[key]))
			}
		} else {
			sb.WriteString("No trades, no metrics.\n")
		}
		sb.WriteString("\n")

		sb.WriteString("### Trades\n\n")
		if len(sec.Trades) > 0 {
			sb.WriteString("| Entry | Entry Price | Exit | Exit Price | PnL % | Reason |\n")
			sb.WriteString("|-------|-------------|------|------------|-------|--------|\n")
			for _, t := range sec.Trades {
				sb.WriteString(fmt.Sprintf("| %s | %.2f | %s | %.2f | %.2f | %s |\n",
					formatTradeTime(t.EntryTime), t.EntryPrice,
					formatTradeTime(t.ExitTime), t.ExitPrice,
					t.PnlPct, t.Reason))
			}
		} else {
			sb.WriteString("No trades executed.\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
