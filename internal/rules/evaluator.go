// Package rules evaluates recursive boolean strategy logic against
// single bars of indicator-enriched OHLCV data.
package rules

import (
	"log"
	"strings"
	"time"

	"strategy-lab/internal/domain"
)

// Evaluator evaluates Logic trees row by row. Evaluation is total: a
// malformed node, an unresolvable operand or an undefined value makes
// that node false; it never panics and never aborts the surrounding
// signal generation.
type Evaluator struct {
	logger *log.Logger
}

// New creates an Evaluator. A nil logger disables condition-error
// logging.
func New(logger *log.Logger) *Evaluator {
	return &Evaluator{logger: logger}
}

// Evaluate walks the tree bottom-up for one bar.
// An empty AND list is vacuously true; an empty OR list is false.
func (e *Evaluator) Evaluate(bar *domain.Bar, node *domain.Logic) bool {
	if bar == nil || node == nil {
		return false
	}

	switch {
	case node.And != nil:
		for i := range node.And {
			if !e.Evaluate(bar, &node.And[i]) {
				return false
			}
		}
		return true
	case node.Or != nil:
		for i := range node.Or {
			if e.Evaluate(bar, &node.Or[i]) {
				return true
			}
		}
		return false
	case node.Not != nil:
		return !e.Evaluate(bar, node.Not)
	case node.Cond != nil:
		return e.evalCondition(bar, node.Cond)
	}
	return false
}

// evalCondition evaluates a single {left, op, right} leaf.
func (e *Evaluator) evalCondition(bar *domain.Bar, cond *domain.Condition) bool {
	if isTimestampOperand(cond.Left) || isTimestampOperand(cond.Right) {
		return e.evalTemporal(bar, cond)
	}

	left, ok := resolveNumeric(bar, cond.Left)
	if !ok {
		// String-vs-string comparisons are legal for literals that
		// resolve to neither a field nor a number.
		return e.evalString(bar, cond)
	}
	right, ok := resolveNumeric(bar, cond.Right)
	if !ok {
		e.logf("condition %v %s %v: right operand unresolved", cond.Left, cond.Op, cond.Right)
		return false
	}

	switch cond.Op {
	case domain.OpLT:
		return left < right
	case domain.OpGT:
		return left > right
	case domain.OpLTE:
		return left <= right
	case domain.OpGTE:
		return left >= right
	case domain.OpEQ:
		return left == right
	case domain.OpNEQ:
		return left != right
	}
	e.logf("condition %v %s %v: unknown operator", cond.Left, cond.Op, cond.Right)
	return false
}

// evalTemporal compares operands as timestamps. Either side may be the
// bar's timestamp column, an RFC 3339 / date literal, or an epoch
// value. Unparseable operands make the condition false.
func (e *Evaluator) evalTemporal(bar *domain.Bar, cond *domain.Condition) bool {
	left, ok := resolveTime(bar, cond.Left)
	if !ok {
		return false
	}
	right, ok := resolveTime(bar, cond.Right)
	if !ok {
		return false
	}

	switch cond.Op {
	case domain.OpLT:
		return left.Before(right)
	case domain.OpGT:
		return left.After(right)
	case domain.OpLTE:
		return !left.After(right)
	case domain.OpGTE:
		return !left.Before(right)
	case domain.OpEQ:
		return left.Equal(right)
	case domain.OpNEQ:
		return !left.Equal(right)
	}
	return false
}

// evalString compares two string literals. An operand that names a
// field is not a literal: it only reaches here when its value is
// undefined, which makes the condition false.
func (e *Evaluator) evalString(bar *domain.Bar, cond *domain.Condition) bool {
	left, lok := cond.Left.(string)
	right, rok := cond.Right.(string)
	if !lok || !rok || bar.HasField(left) || bar.HasField(right) {
		e.logf("condition %v %s %v: incomparable operands", cond.Left, cond.Op, cond.Right)
		return false
	}

	switch cond.Op {
	case domain.OpLT:
		return left < right
	case domain.OpGT:
		return left > right
	case domain.OpLTE:
		return left <= right
	case domain.OpGTE:
		return left >= right
	case domain.OpEQ:
		return left == right
	case domain.OpNEQ:
		return left != right
	}
	return false
}

func (e *Evaluator) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

// isTimestampOperand reports whether the operand names the timestamp
// column (any casing, any prefix such as "open_timestamp").
func isTimestampOperand(operand any) bool {
	s, ok := operand.(string)
	return ok && strings.Contains(strings.ToLower(s), "timestamp")
}

// resolveNumeric turns an operand into a float: a field name resolves
// against the bar (undefined → not ok), numeric literals pass through.
func resolveNumeric(bar *domain.Bar, operand any) (float64, bool) {
	switch v := operand.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		if bar.HasField(v) {
			return bar.Field(v)
		}
		return 0, false
	}
	return 0, false
}

// resolveTime turns an operand into a time.Time: the timestamp column
// resolves to the bar's timestamp, string literals are parsed in a few
// common layouts, numbers are treated as Unix epoch seconds (or
// milliseconds when large enough).
func resolveTime(bar *domain.Bar, operand any) (time.Time, bool) {
	switch v := operand.(type) {
	case string:
		if strings.Contains(strings.ToLower(v), "timestamp") {
			if bar.Timestamp.IsZero() {
				return time.Time{}, false
			}
			return bar.Timestamp, true
		}
		return parseTimeLiteral(v)
	case float64:
		return epochToTime(int64(v)), true
	case int64:
		return epochToTime(v), true
	case int:
		return epochToTime(int64(v)), true
	}
	return time.Time{}, false
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimeLiteral(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// epochToTime interprets v as Unix milliseconds when it is too large
// to be a plausible seconds value.
func epochToTime(v int64) time.Time {
	const msThreshold = int64(1e12)
	if v >= msThreshold {
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}
