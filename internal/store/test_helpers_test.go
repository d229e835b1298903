package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ludeme/internal/compiler"
	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/ir"
	"github.com/roach88/ludeme/internal/testutil"
)

// nimDoc is a two-player take-away game: seven stones, take one to three,
// whoever empties the pile ends the game.
const nimDoc = `{
	"id": "nim",
	"players": {"min": 2, "max": 2},
	"zones": [
		{"id": "pile", "owner": "none", "ordering": "stack"},
		{"id": "hand", "owner": "player"}
	],
	"token_types": [{"id": "stone"}],
	"global_vars": [{"name": "left", "type": "int", "init": 7, "min": 0, "max": 7}],
	"setup": [{"zone": "pile:none", "token_type": "stone", "count": 7}],
	"phases": ["main"],
	"turn_order": {"type": "roundRobin"},
	"actions": [{
		"id": "take",
		"phases": ["main"],
		"params": [{"name": "$n", "domain": {"intsInRange": {"min": 1, "max": {"arith": {"op": "min", "left": 3, "right": {"gvar": "left"}}}}}}],
		"effects": [
			{"addVar": {"var": "left", "delta": {"arith": {"op": "-", "left": 0, "right": "$n"}}}},
			{"draw": {"from": "pile", "to": "hand:actor", "count": "$n"}},
			{"advancePhase": {}}
		]
	}],
	"terminal": [
		{"when": {"cmp": {"op": "==", "left": {"gvar": "left"}, "right": 0}}, "result": {"kind": "win", "player": "active"}}
	]
}`

const nimHash = "nim-hash"

// createTestStore creates a new store in a temp dir with sequential match ids.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	opts = append([]Option{WithMatchIDGenerator(testutil.NewSequentialMatchIDs("m"))}, opts...)
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func nimDef(t *testing.T) *ir.GameDef {
	t.Helper()
	def, err := compiler.DecodeGame([]byte(nimDoc))
	require.NoError(t, err)
	return def
}

func take(n int64) engine.Move {
	return engine.Move{ActionID: "take", Params: ir.Object{"$n": ir.Int(n)}}
}

// playAndStore opens a match and appends each move, applying it first.
// Returns the match and the final state.
func playAndStore(t *testing.T, s *Store, def *ir.GameDef, moves ...engine.Move) (Match, *engine.ApplyMoveResult) {
	t.Helper()
	ctx := context.Background()

	m, st, err := s.OpenMatch(ctx, def, nimHash, 42, 2)
	require.NoError(t, err)

	var last *engine.ApplyMoveResult
	for _, mv := range moves {
		last, err = engine.ApplyMove(def, st, mv)
		require.NoError(t, err)
		_, err = s.AppendMove(ctx, m.ID, mv, last.State)
		require.NoError(t, err)
		st = last.State
	}
	return m, last
}
