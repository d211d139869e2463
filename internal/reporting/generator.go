package reporting

import (
	"sort"
	"time"

	"strategy-lab/internal/domain"
)

// Generator assembles reports from backtest results.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Build turns per-symbol backtest results into a Report with symbols
// sorted ascending.
func (g *Generator) Build(interval string, results map[string]*domain.SymbolResult) *Report {
	symbols := make([]string, 0, len(results))
	for s := range results {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	sections := make([]SymbolSection, 0, len(symbols))
	for _, s := range symbols {
		res := results[s]
		sec := SymbolSection{Symbol: s}
		if res == nil {
			sections = append(sections, sec)
			continue
		}
		sec.Error = res.Err
		sec.Trades = res.Trades
		sec.Metrics = res.Metrics
		sections = append(sections, sec)
	}

	return &Report{
		GeneratedAt: g.now(),
		Interval:    interval,
		Symbols:     sections,
	}
}
