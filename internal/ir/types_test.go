package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const miniDef = `{
	"id": "mini",
	"players": {"min": 2, "max": 2},
	"zones": [
		{"id": "deck", "owner": "none", "ordering": "stack"},
		{"id": "hand", "owner": "player", "visibility": "owner"},
		{"id": "hue", "owner": "none", "adjacent_to": ["saigon:none"], "attributes": {"pop": 2}},
		{"id": "saigon", "owner": "none", "adjacent_to": ["hue:none"]}
	],
	"token_types": [{"id": "card", "props": [{"name": "rank", "type": "int"}]}],
	"global_vars": [{"name": "aid", "type": "int", "init": 10, "min": 0, "max": 75}],
	"per_player_vars": [{"name": "done", "type": "boolean", "init": false}],
	"phases": ["main", "cleanup"],
	"interrupt_phases": ["commitment"],
	"turn_order": {"type": "roundRobin"},
	"actions": [
		{"id": "pass", "phases": ["main"]},
		{"id": "draw", "phases": ["main"], "effects": [{"draw": {"from": "deck:none", "to": "hand:active", "count": 1}}]}
	]
}`

func decodeMini(t *testing.T) *GameDef {
	t.Helper()
	var def GameDef
	require.NoError(t, json.Unmarshal([]byte(miniDef), &def))
	return &def
}

func TestGameDefDecode(t *testing.T) {
	def := decodeMini(t)

	assert.Equal(t, "mini", def.ID)
	assert.Equal(t, PlayerRange{Min: 2, Max: 2}, def.Players)
	assert.Equal(t, Int(10), def.GlobalVars[0].Init.Value)
	assert.Equal(t, Bool(false), def.PerPlayerVars[0].Init.Value)
	assert.Equal(t, Object{"pop": Int(2)}, def.Zones[2].Attributes)
	assert.Equal(t, TurnOrderRoundRobin, def.TurnOrder.Type)

	draw, ok := def.Action("draw")
	require.True(t, ok)
	require.Len(t, draw.Effects, 1)
	assert.Equal(t, KindDraw, draw.Effects[0].Kind())
}

func TestGameDefLookups(t *testing.T) {
	def := decodeMini(t)

	_, ok := def.Action("missing")
	assert.False(t, ok)

	assert.Equal(t, 1, def.PhaseIndex("cleanup"))
	assert.Equal(t, -1, def.PhaseIndex("commitment"))
	assert.True(t, def.IsInterruptPhase("commitment"))
	assert.True(t, def.HasPhase("commitment"))

	v, ok := def.GlobalVar("aid")
	require.True(t, ok)
	assert.Equal(t, int64(75), v.Max)

	tt, ok := def.TokenType("card")
	require.True(t, ok)
	_, ok = tt.Prop("rank")
	assert.True(t, ok)
}

func TestConcreteZones(t *testing.T) {
	def := decodeMini(t)

	assert.Equal(t,
		[]string{"deck:none", "hand:0", "hand:1", "hue:none", "saigon:none"},
		def.ConcreteZones(2))
}

func TestZoneForConcrete(t *testing.T) {
	def := decodeMini(t)

	z, owner, err := def.ZoneForConcrete("hand:1")
	require.NoError(t, err)
	assert.Equal(t, "hand", z.ID)
	assert.Equal(t, 1, owner)

	z, owner, err = def.ZoneForConcrete("deck:none")
	require.NoError(t, err)
	assert.Equal(t, "deck", z.ID)
	assert.Equal(t, -1, owner)

	for _, bad := range []string{"hand:none", "deck:0", "nowhere:none", "hand", "hand:x"} {
		_, _, err := def.ZoneForConcrete(bad)
		assert.Error(t, err, bad)
	}
}

func TestMarkerLatticeStateIndex(t *testing.T) {
	m := MarkerLattice{ID: "support", States: []string{"opposition", "neutral", "support"}, Default: "neutral"}
	assert.Equal(t, 1, m.StateIndex("neutral"))
	assert.Equal(t, -1, m.StateIndex("chaos"))
}
