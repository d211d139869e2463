package domain

import (
	"encoding/json"
	"fmt"
)

// Comparison operators accepted in a Condition.
const (
	OpLT  = "<"
	OpGT  = ">"
	OpLTE = "<="
	OpGTE = ">="
	OpEQ  = "="
	OpNEQ = "!="
)

// Condition is a leaf expression {left, op, right}. Left and Right are
// either a column name (resolved against a Bar) or a literal value
// (number or string). Stateless and immutable.
type Condition struct {
	Left  any    `json:"left"`
	Op    string `json:"op"`
	Right any    `json:"right"`
}

// Logic is a recursive boolean expression tree. Exactly one of the
// fields is set: And, Or, Not, or Cond (a bare condition leaf).
// On the wire it is either {"and": [...]}, {"or": [...]}, {"not": ...}
// or a plain condition object {"left", "op", "right"}.
type Logic struct {
	And  []Logic
	Or   []Logic
	Not  *Logic
	Cond *Condition
}

// logicEnvelope mirrors the wire shape of a combinator node.
type logicEnvelope struct {
	And []json.RawMessage `json:"and"`
	Or  []json.RawMessage `json:"or"`
	Not json.RawMessage   `json:"not"`
}

// UnmarshalJSON decodes either a combinator node or a condition leaf.
func (l *Logic) UnmarshalJSON(data []byte) error {
	var env logicEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode logic node: %w", err)
	}

	switch {
	case env.And != nil:
		children, err := decodeChildren(env.And)
		if err != nil {
			return err
		}
		l.And = children
	case env.Or != nil:
		children, err := decodeChildren(env.Or)
		if err != nil {
			return err
		}
		l.Or = children
	case env.Not != nil:
		var child Logic
		if err := json.Unmarshal(env.Not, &child); err != nil {
			return err
		}
		l.Not = &child
	default:
		var cond Condition
		if err := json.Unmarshal(data, &cond); err != nil {
			return fmt.Errorf("decode condition leaf: %w", err)
		}
		l.Cond = &cond
	}
	return nil
}

// MarshalJSON encodes the node back into its wire shape.
func (l Logic) MarshalJSON() ([]byte, error) {
	switch {
	case l.And != nil:
		return json.Marshal(map[string][]Logic{"and": l.And})
	case l.Or != nil:
		return json.Marshal(map[string][]Logic{"or": l.Or})
	case l.Not != nil:
		return json.Marshal(map[string]*Logic{"not": l.Not})
	case l.Cond != nil:
		return json.Marshal(l.Cond)
	}
	return []byte("null"), nil
}

func decodeChildren(raw []json.RawMessage) ([]Logic, error) {
	children := make([]Logic, 0, len(raw))
	for _, r := range raw {
		var child Logic
		if err := json.Unmarshal(r, &child); err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// CondLeaf wraps a condition into a Logic leaf node.
func CondLeaf(left any, op string, right any) Logic {
	return Logic{Cond: &Condition{Left: left, Op: op, Right: right}}
}

// StrategyLogic carries the entry and exit expression trees of one
// strategy request.
type StrategyLogic struct {
	Entry Logic `json:"entry"`
	Exit  Logic `json:"exit"`
}
