package domain

import "time"

// SavedStrategy is a named, reusable strategy definition: entry/exit
// logic plus the execution config it was designed for. Stored in the
// strategy catalog; backtest requests may reference it by name.
type SavedStrategy struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Logic       StrategyLogic    `json:"strategy"`
	Exec        *ExecutionConfig `json:"execution,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
