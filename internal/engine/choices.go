package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/ludeme/internal/ir"
)

// Decision kinds.
const (
	DecisionChooseOne = "chooseOne"
	DecisionChooseN   = "chooseN"
)

// ChoiceRequest is the outcome of LegalChoices: Complete, Pending or Illegal.
type ChoiceRequest interface {
	choiceRequest()
}

// Complete means every decision of the move is resolved.
type Complete struct{}

// Pending describes the first decision the partial move does not resolve.
// Min and Max are set for chooseN.
type Pending struct {
	DecisionID string  `json:"decision_id"`
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	Options    ir.List `json:"options"`
	Min        *int    `json:"min,omitempty"`
	Max        *int    `json:"max,omitempty"`
}

// Illegal means the move cannot be completed in this state.
type Illegal struct {
	Reason string `json:"reason"`
}

func (Complete) choiceRequest() {}
func (Pending) choiceRequest()  {}
func (Illegal) choiceRequest()  {}

// deadEnd is a decision that no value can satisfy.
type deadEnd struct {
	decisionID string
	reason     string
}

func (d *deadEnd) Error() string {
	return fmt.Sprintf("decision %q: %s", d.decisionID, d.reason)
}

// decisionID derives a decision's identifier from its static id and the
// bind template resolved in the current environment. The resolved bind is
// also the name the chosen value is bound to.
func decisionID(static, bind string, b Bindings) (id, name string, err error) {
	name, err = substituteTemplate(bind, b)
	if err != nil {
		return "", "", err
	}
	if static == "" {
		static = bind
	}
	if name == bind {
		return static, name, nil
	}
	return static + "::" + name, name, nil
}

// resolveDecision reads a decision from the move parameters. In discover
// mode a missing value unwinds the walk with the pending request.
func (x *executor) resolveDecision(req Pending, validate func(ir.Value) error) (ir.Value, error) {
	if x.sandboxed {
		return nil, runtimeErr(ErrCodeDecisionInSandbox, "id",
			"decision %q inside an evaluateSubset compute list", req.DecisionID)
	}
	v, ok := x.params[req.DecisionID]
	if !ok {
		if x.mode == modeDiscover {
			return nil, &pendingDecision{request: req}
		}
		return nil, runtimeErr(ErrCodeMissingDecision, "id", "no value supplied for decision %q", req.DecisionID)
	}
	if err := validate(v); err != nil {
		return nil, &ChoiceValidationError{DecisionID: req.DecisionID, Message: err.Error()}
	}
	x.trace.emit(TraceDecision, ir.Object{"id": ir.Str(req.DecisionID), "value": v})
	return v, nil
}

// chooseFrom resolves a single-valued decision over options.
func (x *executor) chooseFrom(id, name string, options ir.List) (ir.Value, error) {
	if len(options) == 0 {
		if _, supplied := x.params[id]; !supplied {
			return nil, &deadEnd{decisionID: id, reason: "no options"}
		}
	}
	req := Pending{DecisionID: id, Name: name, Kind: DecisionChooseOne, Options: options}
	return x.resolveDecision(req, func(v ir.Value) error {
		if !ir.Contains(options, v) {
			return fmt.Errorf("%s is not among the %d options", ir.Describe(v), len(options))
		}
		return nil
	})
}

func (x *executor) applyChooseOne(st *GameState, e env, n ir.ChooseOne) (*GameState, env, error) {
	id, name, err := decisionID(n.ID, n.Bind, e.b)
	if err != nil {
		return nil, e, err
	}
	options, err := x.evalQuery(st, e, n.Options)
	if err != nil {
		return nil, e, err
	}
	v, err := x.chooseFrom(id, name, options)
	if err != nil {
		return nil, e, err
	}
	return st, e.with(name, v), nil
}

func (x *executor) applyChooseN(st *GameState, e env, n ir.ChooseN) (*GameState, env, error) {
	id, name, err := decisionID(n.ID, n.Bind, e.b)
	if err != nil {
		return nil, e, err
	}
	options, err := x.evalQuery(st, e, n.Options)
	if err != nil {
		return nil, e, err
	}
	lo, hi := int64(0), int64(len(options))
	if n.N != nil {
		k, err := x.evalInt(st, e, *n.N, "n")
		if err != nil {
			return nil, e, err
		}
		lo, hi = k, k
	}
	if n.Min != nil {
		if lo, err = x.evalInt(st, e, *n.Min, "min"); err != nil {
			return nil, e, err
		}
	}
	if n.Max != nil {
		if hi, err = x.evalInt(st, e, *n.Max, "max"); err != nil {
			return nil, e, err
		}
	}
	if lo < 0 || lo > hi {
		return nil, e, runtimeErr(ErrCodeOutOfRange, "min", "invalid cardinality [%d, %d]", lo, hi)
	}
	if lo > int64(len(options)) {
		if _, supplied := x.params[id]; !supplied {
			return nil, e, &deadEnd{decisionID: id, reason: fmt.Sprintf("needs %d of %d options", lo, len(options))}
		}
	}
	minN, maxN := int(lo), int(min(hi, int64(len(options))))
	req := Pending{DecisionID: id, Name: name, Kind: DecisionChooseN, Options: options, Min: &minN, Max: &maxN}
	v, err := x.resolveDecision(req, func(v ir.Value) error {
		list, ok := ir.AsList(v)
		if !ok {
			return fmt.Errorf("expected a list, got %s", ir.Kind(v))
		}
		if len(list) < minN || len(list) > maxN {
			return fmt.Errorf("chose %d items, need between %d and %d", len(list), minN, maxN)
		}
		for i, item := range list {
			if !ir.Contains(options, item) {
				return fmt.Errorf("%s is not among the options", ir.Describe(item))
			}
			if ir.Contains(list[:i], item) {
				return fmt.Errorf("%s chosen twice", ir.Describe(item))
			}
		}
		return nil
	})
	if err != nil {
		return nil, e, err
	}
	return st, e.with(name, v), nil
}

// LegalChoices walks a partial move exactly as ApplyMove would execute it
// and reports the first decision the move's parameters leave open.
//
// The walk threads state and randomness through every resolved effect, so
// later option domains see the effects of earlier ones. Lifecycle triggers
// after the action are not walked. A supplied value outside its domain is
// a *ChoiceValidationError, not an Illegal outcome.
//
// opts should match those the move will be applied with, so the walk takes
// the same branches the commit will.
func LegalChoices(def *ir.GameDef, state *GameState, partial Move, opts ...ApplyOption) (ChoiceRequest, error) {
	_, err := walkMove(def, state, partial, opts)
	if err == nil {
		return Complete{}, nil
	}
	var (
		pd *pendingDecision
		de *deadEnd
		ie *IllegalMoveError
	)
	switch {
	case errors.As(err, &pd):
		return pd.request, nil
	case errors.As(err, &de):
		return Illegal{Reason: de.Error()}, nil
	case errors.As(err, &ie):
		return Illegal{Reason: ie.Reason}, nil
	default:
		return nil, err
	}
}

// walkMove runs a move in discovery mode and returns the state the walk
// reached.
func walkMove(def *ir.GameDef, state *GameState, m Move, opts []ApplyOption) (*GameState, error) {
	cfg := newApplyConfig(opts)
	x := newExecutor(def, modeDiscover, m.Params, nil, NewPhaseBudget(cfg.phaseBudget))
	x.maxTriggerDepth = cfg.maxTriggerDepth
	st, _, err := x.executeMove(state, m)
	return st, err
}
