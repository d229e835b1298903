package harness

import (
	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/ir"
)

// MoveTrace is what one scripted move did.
type MoveTrace struct {
	// Step is the index of the move in the scenario.
	Step int

	// Seq is the move's position in the match log; zero for a rejected move.
	Seq int64

	Move   engine.Move
	Events []engine.TraceEvent

	// Digest is the state digest after the move.
	Digest string

	// Rejected holds the error of a move rejected as expected.
	Rejected string
}

// Object renders the move trace as a game value for canonical encoding.
func (m MoveTrace) Object() (ir.Object, error) {
	move, err := m.Move.Object()
	if err != nil {
		return nil, err
	}
	events := make(ir.List, len(m.Events))
	for i, e := range m.Events {
		events[i] = e.Object()
	}
	out := ir.Object{
		"step":   ir.Int(m.Step),
		"move":   move,
		"events": events,
	}
	if m.Rejected != "" {
		out["rejected"] = ir.Str(m.Rejected)
	} else {
		out["seq"] = ir.Int(m.Seq)
		out["digest"] = ir.Str(m.Digest)
	}
	return out, nil
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every move behaved as scripted and every expectation held.
	Pass bool

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string

	// MatchID is the id of the match in the run's match log.
	MatchID string

	// InitialDigest is the digest of the initial state.
	InitialDigest string

	// Moves holds one entry per scripted move that was attempted.
	Moves []MoveTrace

	// State is the final state; Digest its digest.
	State  *engine.GameState
	Digest string

	// Outcome is set when the match is over.
	Outcome *engine.Outcome
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Moves:  []MoveTrace{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Events returns every trace event of the run, in order.
func (r *Result) Events() []engine.TraceEvent {
	var out []engine.TraceEvent
	for _, m := range r.Moves {
		out = append(out, m.Events...)
	}
	return out
}
