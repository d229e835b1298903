package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ludeme/internal/ir"
)

func TestTerminalResult(t *testing.T) {
	def := mustDef(t, potGame)
	st := mustInitial(t, def, 1, 3)

	out, err := TerminalResult(def, st)
	require.NoError(t, err)
	assert.Nil(t, out)

	res, _, err := run(t, def, st, `[
		{"setVar": {"var": "pot", "value": 0}},
		{"setVar": {"var": "score", "player": 0, "value": 4}},
		{"setVar": {"var": "score", "player": 2, "value": 4}}
	]`)
	require.NoError(t, err)
	out, err = TerminalResult(def, res.State)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, []int64{4, 0, 4}, out.Scores)
	assert.Nil(t, out.Winner, "a shared best score has no winner")
}

func TestTerminalResult_FirstConditionWins(t *testing.T) {
	def := mustDef(t, potGame)
	def.Terminal = append([]ir.TerminalDef{{
		When:   ir.Cond{Node: ir.BoolLit{Value: true}},
		Result: ir.TerminalResult{Kind: ir.ResultWin, Player: &ir.PlayerSel{Kind: ir.PlayerIndex, Index: 1}},
	}}, def.Terminal...)
	st := mustInitial(t, def, 1, 2)

	out, err := TerminalResult(def, st)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, ir.ResultWin, out.Kind)
	assert.Equal(t, 0, out.Terminal)
	require.NotNil(t, out.Winner)
	assert.Equal(t, 1, *out.Winner)

	moves, err := LegalMoves(def, st)
	require.NoError(t, err)
	assert.Empty(t, moves)
}
