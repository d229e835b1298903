package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ludeme/internal/ir"
)

func TestInitialState_PotGame(t *testing.T) {
	def := mustDef(t, potGame)
	st := mustInitial(t, def, 7, 2)

	assert.Equal(t, int64(5), intVar(t, st, "pot"))
	assert.Equal(t, int64(1), intVar(t, st, "turns"), "turnStart trigger fires for the first turn")
	assert.Equal(t, int64(0), playerVar(t, st, 1, "score"))
	assert.Equal(t, ir.Bool(false), st.PlayerVars[0]["ready"])
	assert.Equal(t, "main", st.CurrentPhase)
	assert.Equal(t, 0, st.ActivePlayer)
	assert.Equal(t, 1, st.TurnCount)
	assert.Len(t, st.ZoneTokens("deck:none"), 6)
	assert.Empty(t, st.ZoneTokens("hand:0"))
	assert.Equal(t, 6, st.NextTokenOrdinal)
}

func TestInitialState_RejectsPlayerCount(t *testing.T) {
	def := mustDef(t, potGame)
	_, err := InitialState(def, 1, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4 players")
}

func TestLegalMoves_EnumeratesDeclaredParams(t *testing.T) {
	def := mustDef(t, potGame)
	st := mustInitial(t, def, 7, 2)

	moves, err := LegalMoves(def, st)
	require.NoError(t, err)

	want := []Move{
		{ActionID: "take", Params: ir.Object{"$n": ir.Int(1)}},
		{ActionID: "take", Params: ir.Object{"$n": ir.Int(2)}},
		{ActionID: "take", Params: ir.Object{"$n": ir.Int(3)}},
		{ActionID: "roll"},
	}
	assert.Equal(t, want, moves)
}

func TestApplyMove_TransfersAndRotates(t *testing.T) {
	def := mustDef(t, potGame)
	st := mustInitial(t, def, 7, 2)

	res := mustApply(t, def, st, Move{ActionID: "take", Params: ir.Object{"$n": ir.Int(3)}})

	assert.Equal(t, int64(2), intVar(t, res.State, "pot"))
	assert.Equal(t, int64(3), playerVar(t, res.State, 0, "score"))
	assert.Equal(t, 1, res.State.ActivePlayer)
	assert.Equal(t, 2, res.State.TurnCount)
	assert.Equal(t, int64(2), intVar(t, res.State, "turns"))
	assert.Nil(t, res.Outcome)

	assert.Equal(t, []string{
		TraceMove, TraceDecision, TraceVarChange, TraceVarChange,
		TraceTurnStart, TraceTrigger, TraceVarChange, TracePhaseChange,
	}, res.Trace.Kinds())
	assert.Equal(t, []TriggerFiring{{TriggerID: "count-turns", Event: ir.EventTurnStart, Depth: 1}}, res.TriggerFirings)

	// The input state is untouched.
	assert.Equal(t, int64(5), intVar(t, st, "pot"))
	assert.Equal(t, 0, st.ActivePlayer)
}

func TestApplyMove_TransferStopsAtAvailable(t *testing.T) {
	def := mustDef(t, potGame)
	st := mustInitial(t, def, 7, 2)

	st = mustApply(t, def, st, Move{ActionID: "take", Params: ir.Object{"$n": ir.Int(3)}}).State
	res := mustApply(t, def, st, Move{ActionID: "take", Params: ir.Object{"$n": ir.Int(3)}})

	assert.Equal(t, int64(0), intVar(t, res.State, "pot"))
	assert.Equal(t, int64(2), playerVar(t, res.State, 1, "score"))

	require.NotNil(t, res.Outcome)
	assert.Equal(t, ir.ResultScore, res.Outcome.Kind)
	assert.Equal(t, []int64{3, 2}, res.Outcome.Scores)
	require.NotNil(t, res.Outcome.Winner)
	assert.Equal(t, 0, *res.Outcome.Winner)

	moves, err := LegalMoves(def, res.State)
	require.NoError(t, err)
	assert.Empty(t, moves)

	_, err = ApplyMove(def, res.State, Move{ActionID: "roll"})
	require.Error(t, err)
	assert.True(t, IsIllegalMoveError(err))
}

func TestApplyMove_RejectsIllegalMoves(t *testing.T) {
	def := mustDef(t, potGame)
	st := mustInitial(t, def, 7, 2)

	tests := []struct {
		name string
		move Move
	}{
		{"unknown action", Move{ActionID: "fly"}},
		{"param outside domain", Move{ActionID: "take", Params: ir.Object{"$n": ir.Int(4)}}},
		{"missing param", Move{ActionID: "take"}},
		{"free operation without turn flow", Move{ActionID: "roll", FreeOperation: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyMove(def, st, tt.move)
			require.Error(t, err)
			assert.True(t, IsIllegalMoveError(err), "got %v", err)
		})
	}
}

func TestApplyMove_UsageLimits(t *testing.T) {
	def := mustDef(t, handGame)
	def.Actions[0].Limits = []ir.UsageLimit{{Scope: ir.LimitScopeTurn, Max: 1}}
	st := mustInitial(t, def, 3, 2)

	res := mustApply(t, def, st, Move{ActionID: "discard", Params: ir.Object{
		"pick":   ir.Str("card#0"),
		"$extra": ir.List{},
	}})

	// The limit leaves player 0 without moves, so play passes to player 1
	// and the turn counter resets.
	assert.Equal(t, 1, res.State.ActivePlayer)
	assert.Equal(t, 0, res.State.usage("discard").Turn)
	assert.Equal(t, 1, res.State.usage("discard").Game)
}

func TestApplyMove_AutoAdvancesWhenStuck(t *testing.T) {
	def := mustDef(t, handGame)
	st := mustInitial(t, def, 3, 2)

	st = mustApply(t, def, st, Move{ActionID: "discard", Params: ir.Object{
		"pick":   ir.Str("card#0"),
		"$extra": ir.List{ir.Str("card#1")},
	}}).State
	assert.Equal(t, 0, st.ActivePlayer)
	assert.Equal(t, []string{"card#2"}, tokenIDs(st, "hand:0"))

	st = mustApply(t, def, st, Move{ActionID: "discard", Params: ir.Object{
		"pick":   ir.Str("card#2"),
		"$extra": ir.List{},
	}}).State
	assert.Empty(t, st.ZoneTokens("hand:0"))
	assert.Equal(t, 1, st.ActivePlayer)
	assert.Equal(t, 2, st.TurnCount)
	assert.Equal(t, []string{"card#2", "card#1", "card#0"}, tokenIDs(st, "discard:none"))
}

func TestApplyMove_Deterministic(t *testing.T) {
	def := mustDef(t, potGame)
	script := []Move{
		{ActionID: "roll"},
		{ActionID: "take", Params: ir.Object{"$n": ir.Int(2)}},
		{ActionID: "roll"},
		{ActionID: "take", Params: ir.Object{"$n": ir.Int(1)}},
	}

	run := func() ([]byte, []byte) {
		st := mustInitial(t, def, 42, 2)
		var traces bytes.Buffer
		for _, m := range script {
			res := mustApply(t, def, st, m)
			data, err := res.Trace.Canonical()
			require.NoError(t, err)
			traces.Write(data)
			st = res.State
		}
		data, err := SerializeGameState(st)
		require.NoError(t, err)
		return data, traces.Bytes()
	}

	wantState, wantTrace := run()
	for i := range 20 {
		gotState, gotTrace := run()
		require.Equal(t, wantState, gotState, "run %d state", i)
		require.Equal(t, wantTrace, gotTrace, "run %d trace", i)
	}
}

func TestApplyMove_PhaseBudgetOption(t *testing.T) {
	def := mustDef(t, potGame)
	st := mustInitial(t, def, 7, 2)

	// With no budget the advancePhase is skipped and the same player keeps
	// the turn.
	res, err := ApplyMove(def, st, Move{ActionID: "take", Params: ir.Object{"$n": ir.Int(1)}}, WithPhaseTransitionBudget(0))
	require.NoError(t, err)
	assert.Equal(t, 0, res.State.ActivePlayer)
	assert.Equal(t, 1, res.State.TurnCount)
	assert.Equal(t, int64(4), intVar(t, res.State, "pot"))
}

func TestApplyMove_TriggerDepthOption(t *testing.T) {
	def := mustDef(t, potGame)
	st := mustInitial(t, def, 7, 2)

	res, err := ApplyMove(def, st, Move{ActionID: "take", Params: ir.Object{"$n": ir.Int(1)}}, WithMaxTriggerDepth(0))
	require.NoError(t, err)
	assert.Empty(t, res.TriggerFirings)
	assert.Equal(t, int64(1), intVar(t, res.State, "turns"))
}
