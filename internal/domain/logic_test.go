package domain

import (
	"encoding/json"
	"testing"
)

func TestLogic_UnmarshalConditionLeaf(t *testing.T) {
	var l Logic
	if err := json.Unmarshal([]byte(`{"left":"close","op":">","right":100}`), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if l.Cond == nil {
		t.Fatal("expected condition leaf")
	}
	if l.Cond.Left != "close" || l.Cond.Op != OpGT {
		t.Errorf("cond = %+v", l.Cond)
	}
	// Numbers decode as float64 through the any operand.
	if v, ok := l.Cond.Right.(float64); !ok || v != 100 {
		t.Errorf("right = %v (%T), want float64 100", l.Cond.Right, l.Cond.Right)
	}
}

func TestLogic_UnmarshalNested(t *testing.T) {
	raw := `{
		"and": [
			{"left": "close", "op": ">", "right": "ema_20"},
			{"or": [
				{"left": "rsi_14", "op": "<", "right": 30},
				{"not": {"left": "volume", "op": "=", "right": 0}}
			]}
		]
	}`

	var l Logic
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(l.And) != 2 {
		t.Fatalf("expected 2 and-children, got %d", len(l.And))
	}
	if l.And[0].Cond == nil {
		t.Error("first child should be a condition leaf")
	}
	or := l.And[1]
	if len(or.Or) != 2 {
		t.Fatalf("expected 2 or-children, got %d", len(or.Or))
	}
	if or.Or[1].Not == nil || or.Or[1].Not.Cond == nil {
		t.Error("second or-child should be a negated condition")
	}
}

func TestLogic_UnmarshalEmptyCombinators(t *testing.T) {
	var and Logic
	if err := json.Unmarshal([]byte(`{"and":[]}`), &and); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if and.And == nil || len(and.And) != 0 {
		t.Errorf("empty and should decode to a non-nil empty list, got %+v", and)
	}

	var or Logic
	if err := json.Unmarshal([]byte(`{"or":[]}`), &or); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if or.Or == nil || len(or.Or) != 0 {
		t.Errorf("empty or should decode to a non-nil empty list, got %+v", or)
	}
}

func TestLogic_RoundTrip(t *testing.T) {
	raw := `{"and":[{"left":"close","op":">","right":100},{"not":{"left":"rsi_14","op":">=","right":70}}]}`

	var l Logic
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	encoded, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var l2 Logic
	if err := json.Unmarshal(encoded, &l2); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if len(l2.And) != 2 || l2.And[1].Not == nil {
		t.Errorf("round-tripped tree lost structure: %+v", l2)
	}
}

func TestStrategyLogic_Unmarshal(t *testing.T) {
	raw := `{
		"entry": {"left": "close", "op": ">", "right": "ema_20"},
		"exit": {"left": "close", "op": "<", "right": "ema_20"}
	}`

	var sl StrategyLogic
	if err := json.Unmarshal([]byte(raw), &sl); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sl.Entry.Cond == nil || sl.Exit.Cond == nil {
		t.Errorf("entry/exit should both be condition leaves: %+v", sl)
	}
}

func TestBacktestRequest_Defaults(t *testing.T) {
	var req BacktestRequest
	exec := req.Execution()
	if exec != DefaultExecutionConfig() {
		t.Errorf("Execution() = %+v, want defaults", exec)
	}
	if !req.Fallback() {
		t.Error("Fallback() should default to true")
	}

	off := false
	req.InjectFallback = &off
	if req.Fallback() {
		t.Error("explicit false should disable fallback")
	}

	custom := ExecutionConfig{OrderType: OrderTypeLimit, FeeBps: 2}
	req.Exec = &custom
	if req.Execution() != custom {
		t.Errorf("Execution() = %+v, want override", req.Execution())
	}
}
