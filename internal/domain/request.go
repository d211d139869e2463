package domain

// BacktestRequest is the client-facing request for signal preview and
// backtest runs: which symbols and interval to load, the strategy
// logic, and optional execution overrides.
type BacktestRequest struct {
	Symbols  []string         `json:"symbols"`
	Interval string           `json:"interval"`
	Strategy StrategyLogic    `json:"strategy"`
	Exec     *ExecutionConfig `json:"execution,omitempty"`

	// InjectFallback keeps a degenerate strategy demo-friendly by
	// forcing signals at fixed rows when no entry ever fires. Nil
	// defaults to enabled, matching historical behavior; production
	// callers set it to false explicitly.
	InjectFallback *bool `json:"inject_fallback,omitempty"`
}

// Execution returns the request execution config, falling back to the
// documented defaults when omitted.
func (r *BacktestRequest) Execution() ExecutionConfig {
	if r.Exec == nil {
		return DefaultExecutionConfig()
	}
	return *r.Exec
}

// Fallback reports whether fallback signal injection is enabled.
func (r *BacktestRequest) Fallback() bool {
	if r.InjectFallback == nil {
		return true
	}
	return *r.InjectFallback
}

// SignalPreview is one row of the signal preview returned to clients.
type SignalPreview struct {
	Timestamp   string `json:"timestamp"`
	EntrySignal bool   `json:"entry_signal"`
	ExitSignal  bool   `json:"exit_signal"`
}

// SymbolResult is the per-symbol outcome of a backtest run. Either Err
// is set, or the preview/trades/metrics triple is populated. Partial
// failure is always reported per symbol, never as an aggregate error.
type SymbolResult struct {
	Preview []SignalPreview    `json:"preview,omitempty"`
	Trades  []Trade            `json:"trades,omitempty"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Err     string             `json:"error,omitempty"`
}
