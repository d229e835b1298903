package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ludeme/internal/ir"
)

func ptr[T any](v T) *T { return &v }

func TestLegalChoices_WalksDecisionsInOrder(t *testing.T) {
	def := mustDef(t, handGame)
	st := mustInitial(t, def, 3, 2)

	req, err := LegalChoices(def, st, Move{ActionID: "discard"})
	require.NoError(t, err)
	assert.Equal(t, Pending{
		DecisionID: "pick",
		Name:       "$card",
		Kind:       DecisionChooseOne,
		Options:    ir.List{ir.Str("card#0"), ir.Str("card#1"), ir.Str("card#2")},
	}, req)

	// The chooseN domain sees the hand after the first discard.
	req, err = LegalChoices(def, st, Move{ActionID: "discard", Params: ir.Object{"pick": ir.Str("card#1")}})
	require.NoError(t, err)
	assert.Equal(t, Pending{
		DecisionID: "$extra",
		Name:       "$extra",
		Kind:       DecisionChooseN,
		Options:    ir.List{ir.Str("card#0"), ir.Str("card#2")},
		Min:        ptr(0),
		Max:        ptr(1),
	}, req)

	req, err = LegalChoices(def, st, Move{ActionID: "discard", Params: ir.Object{
		"pick":   ir.Str("card#1"),
		"$extra": ir.List{ir.Str("card#2")},
	}})
	require.NoError(t, err)
	assert.Equal(t, Complete{}, req)
}

func TestLegalChoices_MatchesApplyMove(t *testing.T) {
	def := mustDef(t, handGame)
	st := mustInitial(t, def, 3, 2)

	first, err := LegalChoices(def, st, Move{ActionID: "discard"})
	require.NoError(t, err)
	picks := first.(Pending).Options

	for _, pick := range picks {
		m := Move{ActionID: "discard", Params: ir.Object{"pick": pick}}
		next, err := LegalChoices(def, st, m)
		require.NoError(t, err)
		extras := next.(Pending).Options

		candidates := []ir.List{{}}
		for _, o := range extras {
			candidates = append(candidates, ir.List{o})
		}
		for _, extra := range candidates {
			full := m.WithParam("$extra", extra)
			req, err := LegalChoices(def, st, full)
			require.NoError(t, err)
			assert.Equal(t, Complete{}, req, "pick %v extra %v", pick, extra)

			_, err = ApplyMove(def, st, full)
			assert.NoError(t, err, "pick %v extra %v", pick, extra)
			assertWalkMatchesCommit(t, def, st, full)
		}
	}
}

// assertWalkMatchesCommit checks that walking a fully resolved move reaches
// the same state as committing it.
func assertWalkMatchesCommit(t *testing.T, def *ir.GameDef, st *GameState, m Move) {
	t.Helper()
	walked, err := walkMove(def, st, m, nil)
	require.NoError(t, err)

	x := newExecutor(def, modeCommit, m.Params, NewTrace(), NewPhaseBudget(DefaultPhaseTransitionBudget))
	committed, _, err := x.executeMove(st, m)
	require.NoError(t, err)

	want, err := SerializeGameState(committed)
	require.NoError(t, err)
	got, err := SerializeGameState(walked)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got), "move %v", m.Params)
}

func TestLegalChoices_SeesEarlierEffects(t *testing.T) {
	def := mustDef(t, boardGame)
	st := mustInitial(t, def, 5, 2)

	// The pick domain only has troops once the forEach has moved them south.
	req, err := LegalChoices(def, st, Move{ActionID: "muster"})
	require.NoError(t, err)
	require.IsType(t, Pending{}, req)
	picks := req.(Pending).Options
	assert.Equal(t, ir.List{ir.Str("troop#0"), ir.Str("troop#1"), ir.Str("troop#2")}, picks)

	resolved := 0
	for _, pick := range picks {
		m := Move{ActionID: "muster", Params: ir.Object{"pick": pick}}
		next, err := LegalChoices(def, st, m)
		require.NoError(t, err)
		require.IsType(t, Pending{}, next)
		lost := next.(Pending).Options
		assert.Len(t, lost, 4, "the picked troop has left the south")
		assert.NotContains(t, lost, pick)

		candidates := []ir.List{{}}
		for _, o := range lost {
			candidates = append(candidates, ir.List{o})
		}
		for _, c := range candidates {
			full := m.WithParam("$lost", c)
			req, err := LegalChoices(def, st, full)
			require.NoError(t, err)
			assert.Equal(t, Complete{}, req, "pick %v lost %v", pick, c)

			assertWalkMatchesCommit(t, def, st, full)

			res, err := ApplyMove(def, st, full)
			require.NoError(t, err, "pick %v lost %v", pick, c)
			assert.Equal(t, []string{string(pick.(ir.Str))}, tokenIDs(res.State, "north:none"))
			resolved++
		}
	}
	assert.Equal(t, 15, resolved)
}

func TestLegalChoices_UsesPhaseBudget(t *testing.T) {
	def := mustDef(t, phaseGame)
	st := mustInitial(t, def, 1, 2)
	m := Move{ActionID: "go"}

	req, err := LegalChoices(def, st, m)
	require.NoError(t, err)
	require.IsType(t, Pending{}, req)
	assert.Equal(t, ir.List{ir.Int(1)}, req.(Pending).Options)

	// Without budget the advance is skipped and the move stays in phase a.
	noBudget := WithPhaseTransitionBudget(0)
	req, err = LegalChoices(def, st, m, noBudget)
	require.NoError(t, err)
	require.IsType(t, Pending{}, req)
	assert.Equal(t, ir.List{ir.Int(1), ir.Int(2)}, req.(Pending).Options)

	pickTwo := m.WithParam("pick", ir.Int(2))
	req, err = LegalChoices(def, st, pickTwo, noBudget)
	require.NoError(t, err)
	assert.Equal(t, Complete{}, req)

	res, err := ApplyMove(def, st, pickTwo, noBudget)
	require.NoError(t, err)
	assert.Equal(t, int64(2), intVar(t, res.State, "picked"))

	_, err = ApplyMove(def, st, pickTwo)
	require.Error(t, err)
	assert.True(t, IsIllegalMoveError(err))

	moves, err := LegalMoves(def, st, noBudget)
	require.NoError(t, err)
	assert.Equal(t, []Move{m}, moves)
}

func TestLegalChoices_RejectsValueOutsideDomain(t *testing.T) {
	def := mustDef(t, handGame)
	st := mustInitial(t, def, 3, 2)
	m := Move{ActionID: "discard", Params: ir.Object{"pick": ir.Str("card#3")}}

	_, err := LegalChoices(def, st, m)
	require.Error(t, err)
	assert.True(t, IsChoiceValidationError(err))

	_, err = ApplyMove(def, st, m.WithParam("$extra", ir.List{}))
	require.Error(t, err)
	assert.True(t, IsIllegalMoveError(err))
	assert.True(t, IsChoiceValidationError(err), "the rejection wraps the validation failure")
}

func TestLegalChoices_ChooseNCardinality(t *testing.T) {
	def := mustDef(t, handGame)
	st := mustInitial(t, def, 3, 2)

	_, err := LegalChoices(def, st, Move{ActionID: "discard", Params: ir.Object{
		"pick":   ir.Str("card#0"),
		"$extra": ir.List{ir.Str("card#1"), ir.Str("card#2")},
	}})
	require.Error(t, err)
	assert.True(t, IsChoiceValidationError(err))
}

func TestLegalChoices_Illegal(t *testing.T) {
	def := mustDef(t, handGame)
	st := mustInitial(t, def, 3, 2)

	req, err := LegalChoices(def, st, Move{ActionID: "shuffle"})
	require.NoError(t, err)
	assert.IsType(t, Illegal{}, req)

	// An empty hand leaves the first decision without options.
	empty := st.withZone("hand:0", []Token{})
	req, err = LegalChoices(def, empty, Move{ActionID: "discard"})
	require.NoError(t, err)
	require.IsType(t, Illegal{}, req)
	assert.Contains(t, req.(Illegal).Reason, "no options")
}

func TestLegalChoices_DoesNotModifyState(t *testing.T) {
	def := mustDef(t, handGame)
	st := mustInitial(t, def, 3, 2)
	before, err := SerializeGameState(st)
	require.NoError(t, err)

	_, err = LegalChoices(def, st, Move{ActionID: "discard", Params: ir.Object{"pick": ir.Str("card#0")}})
	require.NoError(t, err)

	after, err := SerializeGameState(st)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
