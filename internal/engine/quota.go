package engine

// PhaseBudget bounds phase transitions within one move application.
//
// One budget is shared by pointer across the whole call tree of a move:
// gotoPhaseExact, advancePhase, pushInterruptPhase and popInterruptPhase
// each take one unit, including those fired from triggers and lifecycle
// dispatch. It bounds trigger cascades (phaseEnter -> advancePhase ->
// phaseEnter -> ...) without a recursion limit per path.
//
// Exhaustion is fail-open: the transition is skipped, the state is left
// untouched, and the move carries on. This is deliberately unlike the
// evaluateSubset cap, which fails the move.
//
// A nil *PhaseBudget is unlimited.
type PhaseBudget struct {
	limit     int
	remaining int
}

// NewPhaseBudget creates a budget allowing n transitions.
func NewPhaseBudget(n int) *PhaseBudget {
	return &PhaseBudget{limit: n, remaining: n}
}

// Consume takes one unit. It returns false, taking nothing, when the budget
// is exhausted.
func (b *PhaseBudget) Consume() bool {
	if b == nil {
		return true
	}
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// Remaining returns the units left, or -1 for an unlimited budget.
func (b *PhaseBudget) Remaining() int {
	if b == nil {
		return -1
	}
	return b.remaining
}

// Limit returns the budget's initial size, or -1 for an unlimited budget.
func (b *PhaseBudget) Limit() int {
	if b == nil {
		return -1
	}
	return b.limit
}

// detach returns an independent budget with the same remaining units, for
// sandboxes whose transitions must not drain the caller's budget.
func (b *PhaseBudget) detach() *PhaseBudget {
	if b == nil {
		return nil
	}
	return &PhaseBudget{limit: b.limit, remaining: b.remaining}
}
