package domain

// Order types accepted by ExecutionConfig.
const (
	OrderTypeMarket = "market"
	OrderTypeLimit  = "limit"
)

// ExecutionConfig controls how trades are simulated: order type, fees,
// slippage and risk limits. Immutable for the duration of a run.
// A zero stop_loss_pct or take_profit_pct disables that threshold.
type ExecutionConfig struct {
	OrderType     string  `json:"order_type"`
	QuantityPct   float64 `json:"quantity_pct"`
	FeeBps        float64 `json:"fee_bps"`
	SlippageBps   float64 `json:"slippage_bps"`
	StopLossPct   float64 `json:"stop_loss_pct"`
	TakeProfitPct float64 `json:"take_profit_pct"`
}

// DefaultExecutionConfig returns the documented defaults applied when a
// request omits execution parameters.
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		OrderType:     OrderTypeMarket,
		QuantityPct:   100.0,
		FeeBps:        10.0,
		SlippageBps:   5.0,
		StopLossPct:   2.0,
		TakeProfitPct: 2.0,
	}
}
