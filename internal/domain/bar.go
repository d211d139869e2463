package domain

import (
	"math"
	"strings"
	"time"
)

// Bar represents one OHLCV observation plus named indicator columns.
// Bars are immutable once loaded; indicator columns are appended by
// copying, never mutated in place.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`

	// Indicators holds named indicator values (ema_20, rsi_14, ...).
	// A missing key means the value is undefined (indicator warm-up).
	Indicators map[string]float64 `json:"indicators,omitempty"`
}

// Field resolves a named column against the bar. OHLCV columns are
// matched case-insensitively; anything else is looked up in Indicators.
// Returns ok=false for unknown names and for NaN values, making the
// "undefined evaluates false" rule explicit at the accessor.
func (b *Bar) Field(name string) (float64, bool) {
	var v float64
	switch strings.ToLower(name) {
	case "open":
		v = b.Open
	case "high":
		v = b.High
	case "low":
		v = b.Low
	case "close":
		v = b.Close
	case "volume":
		v = b.Volume
	default:
		iv, ok := b.Indicators[name]
		if !ok || math.IsNaN(iv) {
			return 0, false
		}
		return iv, true
	}
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// HasField reports whether name resolves to a column on the bar,
// defined or not. Used to distinguish "field with undefined value"
// from "not a field at all" (a literal).
func (b *Bar) HasField(name string) bool {
	switch strings.ToLower(name) {
	case "open", "high", "low", "close", "volume", "timestamp":
		return true
	}
	_, ok := b.Indicators[name]
	return ok
}

// WithIndicators returns a copy of the bar with the given indicator
// values merged in. The receiver is left untouched.
func (b *Bar) WithIndicators(values map[string]float64) Bar {
	out := *b
	out.Indicators = make(map[string]float64, len(b.Indicators)+len(values))
	for k, v := range b.Indicators {
		out.Indicators[k] = v
	}
	for k, v := range values {
		out.Indicators[k] = v
	}
	return out
}

// SignalBar is a bar with the derived entry/exit signal flags attached.
type SignalBar struct {
	Bar
	EntrySignal bool `json:"entry_signal"`
	ExitSignal  bool `json:"exit_signal"`
}
