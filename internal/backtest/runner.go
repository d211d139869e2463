// Package backtest wires the full per-symbol pipeline: load bars,
// enrich indicators, generate signals, simulate trades, aggregate
// metrics.
package backtest

import (
	"context"
	"log"
	"sync"
	"time"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/indicators"
	"strategy-lab/internal/observability"
	"strategy-lab/internal/performance"
	"strategy-lab/internal/rules"
	"strategy-lab/internal/signals"
	"strategy-lab/internal/simulator"
)

// BarSource supplies time-ordered bar sequences for a symbol and
// interval. Implemented by the CSV dataset loader and the ClickHouse
// bar store.
type BarSource interface {
	Bars(ctx context.Context, symbol, interval string) ([]domain.Bar, error)
}

// Runner executes backtest requests against a bar source. Each symbol
// runs on its own goroutine over data it owns exclusively; results are
// keyed by symbol with per-symbol error entries, so one missing
// dataset never aborts the rest of the request.
type Runner struct {
	source    BarSource
	evaluator *rules.Evaluator
	logger    *log.Logger
}

// NewRunner creates a Runner.
func NewRunner(source BarSource, logger *log.Logger) *Runner {
	return &Runner{
		source:    source,
		evaluator: rules.New(logger),
		logger:    logger,
	}
}

// Run executes the full backtest for every requested symbol and
// returns results keyed by symbol.
func (r *Runner) Run(ctx context.Context, req *domain.BacktestRequest) map[string]*domain.SymbolResult {
	start := time.Now()
	defer func() { observability.RecordBacktestRun("backtest", time.Since(start).Seconds()) }()
	return r.fanOut(ctx, req, func(ctx context.Context, symbol string) *domain.SymbolResult {
		return r.runSymbol(ctx, symbol, req, true)
	})
}

// RunSignals executes indicator enrichment and signal generation only,
// for previewing strategy behavior without trade simulation.
func (r *Runner) RunSignals(ctx context.Context, req *domain.BacktestRequest) map[string]*domain.SymbolResult {
	start := time.Now()
	defer func() { observability.RecordBacktestRun("signals", time.Since(start).Seconds()) }()
	return r.fanOut(ctx, req, func(ctx context.Context, symbol string) *domain.SymbolResult {
		return r.runSymbol(ctx, symbol, req, false)
	})
}

func (r *Runner) fanOut(ctx context.Context, req *domain.BacktestRequest,
	run func(context.Context, string) *domain.SymbolResult) map[string]*domain.SymbolResult {

	results := make(map[string]*domain.SymbolResult, len(req.Symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, symbol := range req.Symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			res := run(ctx, symbol)
			mu.Lock()
			results[symbol] = res
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	return results
}

// runSymbol is the sequential pipeline for one symbol. All data is
// request-scoped and owned by this call.
func (r *Runner) runSymbol(ctx context.Context, symbol string, req *domain.BacktestRequest, simulate bool) *domain.SymbolResult {
	bars, err := r.source.Bars(ctx, symbol, req.Interval)
	if err != nil {
		r.logger.Printf("symbol %s: %v", symbol, err)
		observability.RecordSymbolRun(true)
		return &domain.SymbolResult{Err: err.Error()}
	}
	observability.RecordSymbolRun(false)

	enriched := indicators.Enrich(bars)

	gen := signals.New(r.evaluator, r.logger)
	gen.InjectFallback = req.Fallback()
	flagged := gen.Generate(enriched, &req.Strategy.Entry, &req.Strategy.Exit)
	observability.RecordSignalRows(len(flagged))

	res := &domain.SymbolResult{Preview: preview(flagged)}
	if !simulate {
		return res
	}

	res.Trades = simulator.Simulate(flagged, req.Execution())
	res.Metrics = performance.Aggregate(enriched, res.Trades)
	observability.RecordTrades(len(res.Trades))
	return res
}

func preview(flagged []domain.SignalBar) []domain.SignalPreview {
	out := make([]domain.SignalPreview, len(flagged))
	for i, sb := range flagged {
		out[i] = domain.SignalPreview{
			Timestamp:   sb.Timestamp.UTC().Format(time.RFC3339),
			EntrySignal: sb.EntrySignal,
			ExitSignal:  sb.ExitSignal,
		}
	}
	return out
}
