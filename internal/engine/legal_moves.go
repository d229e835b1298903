package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/ludeme/internal/ir"
	"github.com/roach88/ludeme/internal/turnflow"
)

// MaxEnumeratedMoves caps the moves LegalMoves may produce. Past it the
// enumeration fails instead of returning a truncated list.
const MaxEnumeratedMoves = 10000

// Operation classes the move enumeration synthesizes.
const (
	classOperation        = "operation"
	classLimitedOperation = "limitedOperation"
)

// LegalMoves lists the moves the active player may make, with every
// declared action parameter filled in. Decisions taken inside effects are
// left open; LegalChoices resolves them one at a time.
//
// Under a card-driven turn order the turn-flow filters run after base
// legality: grant priority, option matrix, monsoon, pivotal arbitration and
// cancellation. A terminal state has no legal moves.
//
// opts are the options the moves will be applied with; the phase budget
// bounds each discovery walk as it bounds the committed move.
func LegalMoves(def *ir.GameDef, state *GameState, opts ...ApplyOption) ([]Move, error) {
	cfg := newApplyConfig(opts)
	x := newExecutor(def, modeDiscover, nil, nil, nil)
	if over, err := x.terminal(state); err != nil {
		return nil, err
	} else if over != nil {
		return nil, nil
	}

	var moves []Move
	for _, t := range x.templates(state) {
		found, err := enumerateParams(def, state, t, len(moves), cfg)
		if err != nil {
			return nil, err
		}
		moves = append(moves, found...)
	}
	if state.CardRuntime() == nil || x.inCoupRound(state) {
		return moves, nil
	}
	return x.filterCardMoves(state, moves)
}

// templates lists the move shapes worth walking in the current phase: the
// plain move of every action, a free variant per usable grant class, and a
// limited-operation variant where the option matrix asks for one.
func (x *executor) templates(st *GameState) []Move {
	var out []Move
	rt := st.CardRuntime()
	var allowed []string
	if rt != nil {
		allowed = turnflow.AllowedSecondClasses(x.turnFlow(), *rt)
	}
	for i := range x.def.Actions {
		a := &x.def.Actions[i]
		if !a.InPhase(st.CurrentPhase) {
			continue
		}
		out = append(out, Move{ActionID: a.ID})
		if rt == nil {
			continue
		}
		class := turnflow.ResolveClass(x.turnFlow(), a.ID, "", a.Class)
		if class == classOperation && slices.Contains(allowed, classLimitedOperation) {
			out = append(out, Move{ActionID: a.ID, ActionClass: classLimitedOperation})
		}
		var seen []string
		for _, g := range rt.UsableGrants() {
			if slices.Contains(seen, g.OperationClass) || !grantCovers(g, a.ID, class) {
				continue
			}
			seen = append(seen, g.OperationClass)
			out = append(out, Move{ActionID: a.ID, FreeOperation: true, ActionClass: g.OperationClass})
		}
	}
	return out
}

// grantCovers reports whether a grant can pay for an action. A grant that
// names no actions covers those of its own class; a limited operation grant
// also covers operations.
func grantCovers(g turnflow.Grant, actionID, class string) bool {
	if len(g.ActionIDs) > 0 {
		return slices.Contains(g.ActionIDs, actionID)
	}
	return class == g.OperationClass ||
		(g.OperationClass == classLimitedOperation && class == classOperation)
}

// enumerateParams expands a move template over its declared parameters by
// walking it and branching at every pending declared parameter. Moves the
// walk rejects are dropped. found counts moves already enumerated.
func enumerateParams(def *ir.GameDef, st *GameState, m Move, found int, cfg applyConfig) ([]Move, error) {
	a, ok := def.Action(m.ActionID)
	if !ok {
		return nil, nil
	}
	x := newExecutor(def, modeDiscover, m.Params, nil, NewPhaseBudget(cfg.phaseBudget))
	x.maxTriggerDepth = cfg.maxTriggerDepth
	_, _, err := x.executeMove(st, m)
	if err == nil {
		return []Move{m}, checkEnumerationCap(found + 1)
	}

	var pd *pendingDecision
	if !errors.As(err, &pd) {
		if isRejection(err) {
			return nil, nil
		}
		return nil, err
	}
	declared := slices.ContainsFunc(a.Params, func(p ir.ParamDef) bool { return p.Name == pd.request.DecisionID })
	if !declared {
		return []Move{m}, checkEnumerationCap(found + 1)
	}
	var out []Move
	for _, opt := range pd.request.Options {
		sub, err := enumerateParams(def, st, m.WithParam(pd.request.DecisionID, opt), found+len(out), cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

func checkEnumerationCap(n int) error {
	if n > MaxEnumeratedMoves {
		return fmt.Errorf("legal moves: more than %d moves", MaxEnumeratedMoves)
	}
	return nil
}

// isRejection reports errors that make a move illegal rather than failing
// the enumeration.
func isRejection(err error) bool {
	var (
		ie *IllegalMoveError
		de *deadEnd
		ce *ChoiceValidationError
	)
	return errors.As(err, &ie) || errors.As(err, &de) || errors.As(err, &ce)
}

// filterCardMoves applies grant priority and the turn-flow filters.
func (x *executor) filterCardMoves(st *GameState, moves []Move) ([]Move, error) {
	cfg := x.turnFlow()
	rt := *st.CardRuntime()
	seat := activeSeat(st, rt)
	if ps, ok := grantPriority(&rt); ok && ps == seat {
		moves = slices.DeleteFunc(moves, func(m Move) bool {
			return !m.FreeOperation && !turnflow.IsPass(cfg, m.ActionID)
		})
	}
	tfEnv, err := x.turnFlowEnv(st)
	if err != nil {
		return nil, err
	}
	cands := make([]turnflow.Candidate, len(moves))
	for i, m := range moves {
		a, _ := x.def.Action(m.ActionID)
		s := seat
		if ps, pivotal := turnflow.PivotalSeat(cfg, m.ActionID); pivotal {
			s = ps
		}
		cands[i] = turnflow.Candidate{
			Index:         i,
			ActionID:      m.ActionID,
			Class:         turnflow.ResolveClass(cfg, a.ID, m.ActionClass, a.Class),
			Seat:          s,
			Params:        m.Params,
			FreeOperation: m.FreeOperation,
		}
	}
	kept := turnflow.Apply(cfg, rt, tfEnv, cands)
	out := make([]Move, len(kept))
	for i, c := range kept {
		out[i] = moves[c.Index]
	}
	return out, nil
}
