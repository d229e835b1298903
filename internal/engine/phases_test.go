package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ludeme/internal/ir"
)

func twoPhaseGame(t *testing.T) *ir.GameDef {
	t.Helper()
	def := mustDef(t, potGame)
	def.Phases = []string{"main", "cleanup"}
	return def
}

func TestInterruptPhase_PushPop(t *testing.T) {
	def := twoPhaseGame(t)
	st := mustInitial(t, def, 1, 2)
	st = st.withUsageIncrement("take")

	res, trace, err := run(t, def, st, `[{"pushInterruptPhase": {"phase": "react"}}]`)
	require.NoError(t, err)
	pushed := res.State
	assert.Equal(t, "react", pushed.CurrentPhase)
	assert.Equal(t, []InterruptFrame{{Phase: "react", ResumePhase: "main", SavedPhaseUsage: map[string]int{"take": 1}}}, pushed.InterruptStack)
	assert.Equal(t, 0, pushed.usage("take").Phase)
	assert.Equal(t, 1, pushed.usage("take").Turn)
	assert.Equal(t, []string{TraceInterruptPush, TracePhaseChange}, trace.Kinds())

	res, trace, err = run(t, def, pushed, `[{"popInterruptPhase": {}}]`)
	require.NoError(t, err)
	assert.Equal(t, "main", res.State.CurrentPhase)
	assert.Empty(t, res.State.InterruptStack)
	assert.Equal(t, 1, res.State.usage("take").Phase)
	assert.Equal(t, []string{TraceInterruptPop, TracePhaseChange}, trace.Kinds())
}

func TestInterruptPhase_Errors(t *testing.T) {
	def := twoPhaseGame(t)
	st := mustInitial(t, def, 1, 2)

	// An empty stack fails even when no budget is left to spend.
	_, err := ApplyEffects(EffectContext{Def: def, State: st, Budget: NewPhaseBudget(0)},
		mustEffects(t, `[{"popInterruptPhase": {}}]`))
	require.Error(t, err)
	assert.Equal(t, ErrCodeInterruptStackEmpty, runtimeCode(t, err))

	_, _, err = run(t, def, st, `[{"pushInterruptPhase": {"phase": "cleanup"}}]`)
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnknownPhase, runtimeCode(t, err))

	_, _, err = run(t, def, st, `[{"pushInterruptPhase": {"phase": "react"}}, {"advancePhase": {}}]`)
	require.Error(t, err)
	assert.Equal(t, ErrCodePhaseUnresolved, runtimeCode(t, err))
}

func TestGotoPhaseExact(t *testing.T) {
	def := twoPhaseGame(t)
	st := mustInitial(t, def, 1, 2)

	res, _, err := run(t, def, st, `[{"gotoPhaseExact": {"phase": "cleanup"}}]`)
	require.NoError(t, err)
	assert.Equal(t, "cleanup", res.State.CurrentPhase)
	assert.Equal(t, 0, res.State.ActivePlayer)

	_, _, err = run(t, def, res.State, `[{"gotoPhaseExact": {"phase": "main"}}]`)
	require.Error(t, err)
	assert.Equal(t, ErrCodePhaseBackward, runtimeCode(t, err))

	_, _, err = run(t, def, st, `[{"gotoPhaseExact": {"phase": "upkeep"}}]`)
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnknownPhase, runtimeCode(t, err))

	same, trace, err := run(t, def, st, `[{"gotoPhaseExact": {"phase": "main"}}]`)
	require.NoError(t, err)
	assert.Same(t, st, same.State)
	assert.Empty(t, trace.Kinds())
}

func TestAdvancePhase_WrapsIntoNextTurn(t *testing.T) {
	def := twoPhaseGame(t)
	st := mustInitial(t, def, 1, 2)

	res, _, err := run(t, def, st, `[{"advancePhase": {}}]`)
	require.NoError(t, err)
	assert.Equal(t, "cleanup", res.State.CurrentPhase)
	assert.Equal(t, 0, res.State.ActivePlayer)

	res, trace, err := run(t, def, res.State, `[{"advancePhase": {}}]`)
	require.NoError(t, err)
	assert.Equal(t, "main", res.State.CurrentPhase)
	assert.Equal(t, 1, res.State.ActivePlayer)
	assert.Equal(t, 2, res.State.TurnCount)
	assert.Equal(t, int64(2), intVar(t, res.State, "turns"))
	assert.Equal(t, []string{TraceTurnStart, TraceTrigger, TraceVarChange, TracePhaseChange}, trace.Kinds())
}

func TestPhaseBudget_ExhaustionSkipsTransition(t *testing.T) {
	def := twoPhaseGame(t)
	st := mustInitial(t, def, 1, 2)

	budget := NewPhaseBudget(1)
	res, err := ApplyEffects(EffectContext{Def: def, State: st, Budget: budget},
		mustEffects(t, `[{"advancePhase": {}}, {"advancePhase": {}}, {"addVar": {"var": "pot", "delta": -1}}]`))
	require.NoError(t, err)
	assert.Equal(t, "cleanup", res.State.CurrentPhase)
	assert.Equal(t, 0, res.State.ActivePlayer)
	assert.Equal(t, int64(4), intVar(t, res.State, "pot"), "effects after a skipped transition still run")
	assert.Equal(t, 0, budget.Remaining())
}
