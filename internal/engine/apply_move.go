package engine

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/roach88/ludeme/internal/ir"
	"github.com/roach88/ludeme/internal/turnflow"
)

// DefaultPhaseTransitionBudget is the phase-transition budget of one move.
const DefaultPhaseTransitionBudget = 64

// applyConfig holds per-call engine policy.
type applyConfig struct {
	phaseBudget     int
	maxTriggerDepth int
}

// ApplyOption configures ApplyMove.
type ApplyOption func(*applyConfig)

// WithPhaseTransitionBudget sets how many phase transitions one move may
// cause, counting those fired by triggers.
//
// Default: 64 (DefaultPhaseTransitionBudget)
func WithPhaseTransitionBudget(n int) ApplyOption {
	return func(c *applyConfig) {
		c.phaseBudget = n
	}
}

// WithMaxTriggerDepth sets how deeply triggers may nest.
//
// Default: 8 (DefaultMaxTriggerDepth)
func WithMaxTriggerDepth(n int) ApplyOption {
	return func(c *applyConfig) {
		c.maxTriggerDepth = n
	}
}

func newApplyConfig(opts []ApplyOption) applyConfig {
	c := applyConfig{
		phaseBudget:     DefaultPhaseTransitionBudget,
		maxTriggerDepth: DefaultMaxTriggerDepth,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// ApplyMoveResult is the outcome of a committed move.
type ApplyMoveResult struct {
	State          *GameState
	TriggerFirings []TriggerFiring
	Trace          *Trace

	// Outcome is set when the move ended the game.
	Outcome *Outcome
}

// ApplyMove commits a move. The move must be legal in state: an illegal
// move, a missing decision value or a value outside its domain is an
// *IllegalMoveError, and the input state is never modified.
func ApplyMove(def *ir.GameDef, state *GameState, move Move, opts ...ApplyOption) (*ApplyMoveResult, error) {
	cfg := newApplyConfig(opts)
	trace := NewTrace()
	x := newExecutor(def, modeCommit, move.Params, trace, NewPhaseBudget(cfg.phaseBudget))
	x.maxTriggerDepth = cfg.maxTriggerDepth
	x.opts = opts

	if over, err := x.terminal(state); err != nil {
		return nil, err
	} else if over != nil {
		return nil, illegal(move, "the game is over")
	}
	if state.CardRuntime() != nil {
		if err := checkOffered(def, state, move, opts); err != nil {
			return nil, err
		}
	}

	moveObj, err := move.Object()
	if err != nil {
		return nil, err
	}
	trace.emit(TraceMove, ir.Object{"move": moveObj, "player": ir.Int(state.ActivePlayer)})

	st, info, err := x.executeMove(state, move)
	if err != nil {
		return nil, rejectMove(move, err)
	}
	st = st.withUsageIncrement(move.ActionID)

	e := env{actor: info.actor, executor: info.executor, b: Bindings{}}
	if st, err = x.dispatch(st, e, lifecycleEvent{kind: ir.EventActionResolved, phase: st.CurrentPhase, action: move.ActionID}); err != nil {
		return nil, err
	}
	if st, err = x.afterMove(st, e, move, info); err != nil {
		return nil, err
	}
	if st, err = x.autoAdvance(st, e); err != nil {
		return nil, err
	}
	st = x.refreshActive(st)

	outcome, err := x.terminal(st)
	if err != nil {
		return nil, err
	}
	slog.Debug("move applied",
		"action", move.ActionID,
		"player", info.actor,
		"phase", st.CurrentPhase,
		"events", len(trace.Events),
	)
	return &ApplyMoveResult{
		State:          st,
		TriggerFirings: *x.firings,
		Trace:          trace,
		Outcome:        outcome,
	}, nil
}

// rejectMove converts decision failures into an illegal move. Runtime and
// definition errors pass through.
func rejectMove(m Move, err error) error {
	var (
		ie *IllegalMoveError
		de *deadEnd
		ce *ChoiceValidationError
		re *EffectRuntimeError
	)
	switch {
	case errors.As(err, &ie):
		return err
	case errors.As(err, &de):
		return &IllegalMoveError{ActionID: m.ActionID, Reason: de.Error(), Err: err}
	case errors.As(err, &ce):
		return &IllegalMoveError{ActionID: m.ActionID, Reason: ce.Error(), Err: err}
	case errors.As(err, &re) && re.Code == ErrCodeMissingDecision:
		return &IllegalMoveError{ActionID: m.ActionID, Reason: re.Message, Err: err}
	}
	return err
}

// checkOffered requires a card-driven move to match one the turn-flow
// filters leave standing, on its action, class, free flag and declared
// parameters.
func checkOffered(def *ir.GameDef, state *GameState, m Move, opts []ApplyOption) error {
	a, ok := def.Action(m.ActionID)
	if !ok {
		return illegal(m, "unknown action")
	}
	offered, err := LegalMoves(def, state, opts...)
	if err != nil {
		return err
	}
	cfg := def.TurnOrder.TurnFlow
	class := turnflow.ResolveClass(cfg, a.ID, m.ActionClass, a.Class)
	for _, t := range offered {
		if t.ActionID != m.ActionID || t.FreeOperation != m.FreeOperation {
			continue
		}
		if turnflow.ResolveClass(cfg, a.ID, t.ActionClass, a.Class) != class {
			continue
		}
		same := true
		for _, p := range a.Params {
			if !ir.Equal(t.Params[p.Name], m.Params[p.Name]) {
				same = false
				break
			}
		}
		if same {
			return nil
		}
	}
	return illegal(m, "not offered by the turn flow")
}

// afterMove updates the turn order for a resolved move.
func (x *executor) afterMove(st *GameState, e env, m Move, info moveInfo) (*GameState, error) {
	switch st.TurnOrder.Type {
	case ir.TurnOrderSimultaneous:
		if slices.Contains(st.TurnOrder.Submitted, info.actor) {
			return st, nil
		}
		st = st.clone()
		st.TurnOrder.Submitted = append(slices.Clone(st.TurnOrder.Submitted), info.actor)
		if len(st.TurnOrder.Submitted) < st.PlayerCount {
			return st, nil
		}
		return x.applyAdvancePhase(st, e)
	case ir.TurnOrderCardDriven:
		return x.afterCardMove(st, e, m, info)
	}
	return st, nil
}

// autoAdvance moves past phases in which the active player has nothing to
// do. It stops at a terminal state, at a state with legal moves, in an
// interrupt phase, or when the phase budget runs out, and never goes
// further than one full cycle of phases for every player.
func (x *executor) autoAdvance(st *GameState, e env) (*GameState, error) {
	limit := (len(x.def.Phases) + 1) * max(1, st.PlayerCount)
	for range limit {
		st = x.refreshActive(st)
		if over, err := x.terminal(st); err != nil || over != nil {
			return st, err
		}
		moves, err := LegalMoves(x.def, st, x.opts...)
		if err != nil {
			return nil, err
		}
		if len(moves) > 0 || x.def.IsInterruptPhase(st.CurrentPhase) {
			return st, nil
		}
		next, err := x.applyAdvancePhase(st, e)
		if err != nil {
			return nil, err
		}
		if next == st {
			return st, nil
		}
		st = next
	}
	slog.Debug("auto-advance found no playable phase",
		"phase", st.CurrentPhase,
		"turn", st.TurnCount,
	)
	return st, nil
}
