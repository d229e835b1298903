package engine

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/ludeme/internal/ir"
)

// Compound timings: the special activity runs before or after the operation.
const (
	TimingBefore = "before"
	TimingAfter  = "after"
)

// Move is one player action with its parameters. Params holds the value of
// every decision the action makes, keyed by decision id; declared action
// parameters use their "$name" as id.
type Move struct {
	ActionID      string        `json:"action_id"`
	Params        ir.Object     `json:"params,omitempty"`
	FreeOperation bool          `json:"free_operation,omitempty"`
	ActionClass   string        `json:"action_class,omitempty"`
	Compound      *CompoundMove `json:"compound,omitempty"`
}

// CompoundMove attaches a special activity to an operation.
type CompoundMove struct {
	SpecialActivity Move   `json:"special_activity"`
	Timing          string `json:"timing"`
}

// Object renders the move as a game value, for hashing and storage.
func (m Move) Object() (ir.Object, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode move: %w", err)
	}
	v, err := ir.UnmarshalValue(data)
	if err != nil {
		return nil, fmt.Errorf("encode move: %w", err)
	}
	obj, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("encode move: expected an object, got %s", ir.Kind(v))
	}
	return obj, nil
}

// ParseMove decodes a move from JSON.
func ParseMove(data []byte) (Move, error) {
	var m Move
	if err := json.Unmarshal(data, &m); err != nil {
		return Move{}, fmt.Errorf("decode move: %w", err)
	}
	if m.ActionID == "" {
		return Move{}, fmt.Errorf("decode move: action_id is required")
	}
	return m, nil
}

// WithParam returns a copy of m with one more parameter set.
func (m Move) WithParam(name string, v ir.Value) Move {
	params := make(ir.Object, len(m.Params)+1)
	for k, pv := range m.Params {
		params[k] = pv
	}
	params[name] = v
	m.Params = params
	return m
}
