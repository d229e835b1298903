package engine

import (
	"log/slog"
	"slices"

	"github.com/roach88/ludeme/internal/ir"
)

// consumeBudget takes one phase-transition unit. On exhaustion the caller
// skips the transition and leaves the state untouched.
func (x *executor) consumeBudget(op string) bool {
	if x.budget.Consume() {
		return true
	}
	slog.Debug("phase transition budget exhausted; skipping",
		"op", op,
		"limit", x.budget.Limit(),
	)
	return false
}

// setPhase switches the current phase and installs the given per-phase
// usage counters (nil resets them).
func (x *executor) setPhase(st *GameState, to string, usage map[string]int) *GameState {
	from := st.CurrentPhase
	st = st.withPhaseUsage(usage)
	st.CurrentPhase = to
	if st.TurnOrder.Type == ir.TurnOrderSimultaneous {
		st.TurnOrder.Submitted = nil
	}
	x.trace.emit(TracePhaseChange, ir.Object{"from": ir.Str(from), "to": ir.Str(to)})
	return st
}

// transition exits the current phase, switches, and enters the target.
func (x *executor) transition(st *GameState, e env, to string, usage map[string]int) (*GameState, error) {
	st, err := x.dispatch(st, e, lifecycleEvent{kind: ir.EventPhaseExit, phase: st.CurrentPhase})
	if err != nil {
		return nil, err
	}
	st = x.setPhase(st, to, usage)
	return x.dispatch(st, e, lifecycleEvent{kind: ir.EventPhaseEnter, phase: to})
}

// phaseSequence is the ordered list the current phase advances through:
// the coup phases during a coup round, otherwise the regular phases.
func (x *executor) phaseSequence(st *GameState) []string {
	plan := x.def.TurnOrder.CoupPlan
	if plan == nil || st.TurnOrder.Type != ir.TurnOrderCardDriven {
		return x.def.Phases
	}
	if slices.Contains(plan.Phases, st.CurrentPhase) {
		return plan.Phases
	}
	return x.regularPhases()
}

// regularPhases is the phase list without the coup phases.
func (x *executor) regularPhases() []string {
	plan := x.def.TurnOrder.CoupPlan
	if plan == nil {
		return x.def.Phases
	}
	return slices.DeleteFunc(slices.Clone(x.def.Phases), func(p string) bool {
		return slices.Contains(plan.Phases, p)
	})
}

func (x *executor) inCoupRound(st *GameState) bool {
	plan := x.def.TurnOrder.CoupPlan
	return plan != nil && st.TurnOrder.Type == ir.TurnOrderCardDriven && slices.Contains(plan.Phases, st.CurrentPhase)
}

func (x *executor) unknownPhase(phase string) *EffectRuntimeError {
	err := runtimeErr(ErrCodeUnknownPhase, "phase", "no phase %q", phase)
	err.Candidates = append(slices.Clone(x.def.Phases), x.def.InterruptPhases...)
	return err
}

// applyGotoPhaseExact jumps forward within the phase list. Validation
// happens before the budget is charged; a jump to the current phase is
// free and does nothing.
func (x *executor) applyGotoPhaseExact(st *GameState, e env, n ir.GotoPhaseExact) (*GameState, error) {
	if !x.def.HasPhase(n.Phase) {
		return nil, x.unknownPhase(n.Phase)
	}
	if n.Phase == st.CurrentPhase {
		return st, nil
	}
	cur, tgt := x.def.PhaseIndex(st.CurrentPhase), x.def.PhaseIndex(n.Phase)
	if cur < 0 || tgt < 0 {
		return nil, runtimeErr(ErrCodePhaseUnresolved, "phase",
			"cannot order %q after %q; interrupt phases have no index", n.Phase, st.CurrentPhase)
	}
	if tgt < cur {
		return nil, runtimeErr(ErrCodePhaseBackward, "phase",
			"%q comes before the current phase %q", n.Phase, st.CurrentPhase)
	}
	if !x.consumeBudget(ir.KindGotoPhaseExact) {
		return st, nil
	}
	return x.transition(st, e, n.Phase, nil)
}

// applyAdvancePhase moves to the next phase of the sequence, wrapping into
// the next turn after the last one.
func (x *executor) applyAdvancePhase(st *GameState, e env) (*GameState, error) {
	if x.def.IsInterruptPhase(st.CurrentPhase) {
		return nil, runtimeErr(ErrCodePhaseUnresolved, "phase",
			"%q is an interrupt phase; pop it instead", st.CurrentPhase)
	}
	seq := x.phaseSequence(st)
	i := slices.Index(seq, st.CurrentPhase)
	if i < 0 {
		return nil, runtimeErr(ErrCodePhaseUnresolved, "phase", "current phase %q is not in the phase list", st.CurrentPhase)
	}
	if !x.consumeBudget(ir.KindAdvancePhase) {
		return st, nil
	}
	if i+1 < len(seq) {
		return x.transition(st, e, seq[i+1], nil)
	}
	return x.endTurn(st, e)
}

// applyPushInterruptPhase diverts into an interrupt phase, saving the
// per-phase usage counters for the matching pop.
func (x *executor) applyPushInterruptPhase(st *GameState, e env, n ir.PushInterruptPhase) (*GameState, error) {
	if !x.def.IsInterruptPhase(n.Phase) {
		err := runtimeErr(ErrCodeUnknownPhase, "phase", "%q is not an interrupt phase", n.Phase)
		err.Candidates = x.def.InterruptPhases
		return nil, err
	}
	resume := n.ResumePhase
	if resume == "" {
		resume = st.CurrentPhase
	}
	if !x.def.HasPhase(resume) {
		return nil, x.unknownPhase(resume)
	}
	if !x.consumeBudget(ir.KindPushInterruptPhase) {
		return st, nil
	}
	frame := InterruptFrame{Phase: n.Phase, ResumePhase: resume, SavedPhaseUsage: st.phaseUsage()}
	st, err := x.dispatch(st, e, lifecycleEvent{kind: ir.EventPhaseExit, phase: st.CurrentPhase})
	if err != nil {
		return nil, err
	}
	st = st.withInterruptStack(append(slices.Clone(st.InterruptStack), frame))
	x.trace.emit(TraceInterruptPush, ir.Object{"phase": ir.Str(n.Phase), "resume": ir.Str(resume)})
	st = x.setPhase(st, n.Phase, nil)
	return x.dispatch(st, e, lifecycleEvent{kind: ir.EventPhaseEnter, phase: n.Phase})
}

// applyPopInterruptPhase resumes the phase saved by the latest push and
// restores its usage counters. An empty stack is an error even when the
// budget is exhausted.
func (x *executor) applyPopInterruptPhase(st *GameState, e env) (*GameState, error) {
	if len(st.InterruptStack) == 0 {
		return nil, runtimeErr(ErrCodeInterruptStackEmpty, "", "no interrupt phase to pop")
	}
	if !x.consumeBudget(ir.KindPopInterruptPhase) {
		return st, nil
	}
	frame := st.InterruptStack[len(st.InterruptStack)-1]
	st, err := x.dispatch(st, e, lifecycleEvent{kind: ir.EventPhaseExit, phase: st.CurrentPhase})
	if err != nil {
		return nil, err
	}
	st = st.withInterruptStack(slices.Clone(st.InterruptStack[:len(st.InterruptStack)-1]))
	x.trace.emit(TraceInterruptPop, ir.Object{"phase": ir.Str(frame.Phase), "resume": ir.Str(frame.ResumePhase)})
	st = x.setPhase(st, frame.ResumePhase, frame.SavedPhaseUsage)
	return x.dispatch(st, e, lifecycleEvent{kind: ir.EventPhaseEnter, phase: frame.ResumePhase})
}

// endTurn closes the current turn and opens the next one.
func (x *executor) endTurn(st *GameState, e env) (*GameState, error) {
	if st.TurnOrder.Type == ir.TurnOrderCardDriven {
		if x.inCoupRound(st) {
			return x.endCoupRound(st, e)
		}
		return x.endCard(st, e)
	}
	st, err := x.closeTurn(st, e)
	if err != nil {
		return nil, err
	}
	st = st.clone()
	switch st.TurnOrder.Type {
	case ir.TurnOrderRoundRobin:
		st.ActivePlayer = (st.ActivePlayer + 1) % st.PlayerCount
	case ir.TurnOrderFixedOrder:
		order := x.def.TurnOrder.Order
		st.TurnOrder.Position = (st.TurnOrder.Position + 1) % len(order)
		st.ActivePlayer = order[st.TurnOrder.Position]
	case ir.TurnOrderSimultaneous:
		st.TurnOrder.Submitted = nil
		st.ActivePlayer = 0
	}
	return x.openTurn(st, e, x.def.Phases[0])
}

// closeTurn dispatches phaseExit for the current phase and turnEnd.
func (x *executor) closeTurn(st *GameState, e env) (*GameState, error) {
	st, err := x.dispatch(st, e, lifecycleEvent{kind: ir.EventPhaseExit, phase: st.CurrentPhase})
	if err != nil {
		return nil, err
	}
	return x.dispatch(st, e, lifecycleEvent{kind: ir.EventTurnEnd, phase: st.CurrentPhase})
}

// openTurn counts a new turn, resets turn usage, dispatches turnStart and
// any extra events, then enters phase.
func (x *executor) openTurn(st *GameState, e env, phase string, extra ...lifecycleEvent) (*GameState, error) {
	st = st.withTurnUsageReset()
	st.TurnCount++
	x.trace.emit(TraceTurnStart, ir.Object{"turn": ir.Int(st.TurnCount), "player": ir.Int(st.ActivePlayer)})
	return x.startTurn(st, e, phase, extra...)
}

// startTurn dispatches the opening events of a turn and enters phase.
func (x *executor) startTurn(st *GameState, e env, phase string, extra ...lifecycleEvent) (*GameState, error) {
	st, err := x.dispatch(st, e, lifecycleEvent{kind: ir.EventTurnStart, phase: phase})
	if err != nil {
		return nil, err
	}
	for _, ev := range extra {
		if st, err = x.dispatch(st, e, ev); err != nil {
			return nil, err
		}
	}
	st = x.setPhase(st, phase, nil)
	return x.dispatch(st, e, lifecycleEvent{kind: ir.EventPhaseEnter, phase: phase})
}
