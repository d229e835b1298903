package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ludeme/internal/ir"
)

// mustDef decodes a GameDef document.
func mustDef(t *testing.T, doc string) *ir.GameDef {
	t.Helper()
	var def ir.GameDef
	require.NoError(t, json.Unmarshal([]byte(doc), &def))
	return &def
}

func mustEffects(t *testing.T, doc string) ir.EffectList {
	t.Helper()
	var effects ir.EffectList
	require.NoError(t, json.Unmarshal([]byte(doc), &effects))
	return effects
}

func mustInitial(t *testing.T, def *ir.GameDef, seed int64, players int) *GameState {
	t.Helper()
	st, err := InitialState(def, seed, players)
	require.NoError(t, err)
	return st
}

func mustApply(t *testing.T, def *ir.GameDef, st *GameState, m Move) *ApplyMoveResult {
	t.Helper()
	res, err := ApplyMove(def, st, m)
	require.NoError(t, err)
	return res
}

func intVar(t *testing.T, st *GameState, name string) int64 {
	t.Helper()
	n, ok := ir.AsInt(st.GlobalVars[name])
	require.True(t, ok, "global %s is not an int", name)
	return n
}

func playerVar(t *testing.T, st *GameState, player int, name string) int64 {
	t.Helper()
	n, ok := ir.AsInt(st.PlayerVars[player][name])
	require.True(t, ok, "player %d var %s is not an int", player, name)
	return n
}

func tokenIDs(st *GameState, zone string) []string {
	var out []string
	for _, tok := range st.ZoneTokens(zone) {
		out = append(out, tok.ID)
	}
	return out
}

// potGame: two players take 1-3 from a shared pot in turn; the game ends
// when the pot is empty and the higher score wins.
const potGame = `{
  "id": "pot",
  "players": {"min": 2, "max": 3},
  "zones": [
    {"id": "deck", "owner": "none", "ordering": "stack"},
    {"id": "hand", "owner": "player", "ordering": "set"}
  ],
  "token_types": [{"id": "chip", "props": [{"name": "value", "type": "int"}]}],
  "global_vars": [
    {"name": "pot", "type": "int", "init": 5, "min": 0, "max": 10},
    {"name": "turns", "type": "int", "init": 0, "min": 0, "max": 1000},
    {"name": "last_roll", "type": "int", "init": 0, "min": 0, "max": 6},
    {"name": "result", "type": "int", "init": 0, "min": -100, "max": 100}
  ],
  "per_player_vars": [
    {"name": "score", "type": "int", "init": 0, "min": 0, "max": 20},
    {"name": "ready", "type": "boolean", "init": false}
  ],
  "setup": [{"zone": "deck", "token_type": "chip", "count": 6, "props": {"value": 1}}],
  "setup_effects": [{"shuffle": {"zone": "deck"}}],
  "phases": ["main"],
  "interrupt_phases": ["react"],
  "turn_order": {"type": "roundRobin"},
  "actions": [
    {
      "id": "take",
      "phases": ["main"],
      "params": [{"name": "$n", "domain": {"intsInRange": {"min": 1, "max": 3}}}],
      "effects": [
        {"transferVar": {"from": {"var": "pot"}, "to": {"var": "score", "player": "actor"}, "amount": "$n"}},
        {"advancePhase": {}}
      ]
    },
    {
      "id": "roll",
      "phases": ["main"],
      "effects": [
        {"rollRandom": {"bind": "$r", "min": 1, "max": 6, "in": [{"setVar": {"var": "last_roll", "value": "$r"}}]}},
        {"draw": {"from": "deck", "to": "hand:actor", "count": 1}},
        {"advancePhase": {}}
      ]
    }
  ],
  "triggers": [
    {"id": "count-turns", "on": {"event": "turnStart"}, "effects": [{"addVar": {"var": "turns", "delta": 1}}]}
  ],
  "terminal": [
    {
      "when": {"cmp": {"op": "==", "left": {"gvar": "pot"}, "right": 0}},
      "result": {"kind": "score", "score": {"pvar": {"player": "actor", "var": "score"}}}
    }
  ]
}`

// handGame: discarding with nested decisions whose domains depend on
// earlier choices.
const handGame = `{
  "id": "hand",
  "players": {"min": 2, "max": 2},
  "zones": [
    {"id": "discard", "owner": "none", "ordering": "stack"},
    {"id": "hand", "owner": "player", "ordering": "set"}
  ],
  "token_types": [{"id": "card", "props": [{"name": "rank", "type": "int"}]}],
  "global_vars": [{"name": "discarded", "type": "int", "init": 0, "min": 0, "max": 100}],
  "setup": [
    {"zone": "hand:0", "token_type": "card", "count": 3, "props": {"rank": 2}},
    {"zone": "hand:1", "token_type": "card", "count": 2, "props": {"rank": 5}}
  ],
  "phases": ["main"],
  "turn_order": {"type": "roundRobin"},
  "actions": [
    {
      "id": "discard",
      "phases": ["main"],
      "effects": [
        {"chooseOne": {"id": "pick", "bind": "$card", "options": {"tokensInZone": {"zone": "hand:actor"}}}},
        {"moveToken": {"token": "$card", "to": "discard"}},
        {"rollRandom": {"bind": "$bonus", "min": 0, "max": 1, "in": [{"addVar": {"var": "discarded", "delta": "$bonus"}}]}},
        {"chooseN": {"bind": "$extra", "options": {"tokensInZone": {"zone": "hand:actor"}}, "max": 1}},
        {"forEach": {"bind": "$c", "over": {"binding": "$extra"}, "effects": [{"moveToken": {"token": "$c", "to": "discard"}}]}},
        {"addVar": {"var": "discarded", "delta": 1}}
      ]
    }
  ]
}`

// cardGame: a three-seat card-driven game.
const cardGame = `{
  "id": "cards",
  "players": {"min": 3, "max": 3},
  "zones": [
    {"id": "deck", "owner": "none", "ordering": "stack"},
    {"id": "played", "owner": "none", "ordering": "stack"},
    {"id": "lookahead", "owner": "none", "ordering": "stack"},
    {"id": "discard", "owner": "none", "ordering": "stack"},
    {"id": "saigon", "owner": "none"},
    {"id": "hue", "owner": "none"}
  ],
  "token_types": [{"id": "card", "props": [{"name": "coup", "type": "bool"}]}],
  "per_player_vars": [{"name": "resources", "type": "int", "init": 0, "min": 0, "max": 50}],
  "setup": [{"zone": "deck", "token_type": "card", "count": 6}],
  "phases": ["main"],
  "turn_order": {
    "type": "cardDriven",
    "turn_flow": {
      "cards": {"deck": "deck:none", "played": "played:none", "lookahead": "lookahead:none", "discard": "discard:none"},
      "seats": ["a", "b", "c"],
      "seat_classes": {"a": "coin", "b": "coin", "c": "insurgent"},
      "pass_actions": ["pass"],
      "pass_rewards": [{"seat_class": "insurgent", "var": "resources", "amount": 1}],
      "override_windows": [{"id": "remain", "duration": "nextTurn"}]
    }
  },
  "actions": [
    {"id": "op", "phases": ["main"], "class": "operation", "effects": []},
    {
      "id": "sweep",
      "phases": ["main"],
      "class": "operation",
      "params": [{"name": "$space", "domain": ["saigon:none", "hue:none"]}],
      "effects": []
    },
    {
      "id": "event",
      "phases": ["main"],
      "class": "event",
      "effects": [
        {"grantFreeOperation": {"id": "bonus", "seat": "b", "operation_class": "operation", "zone_filter": ["hue:none"]}}
      ]
    },
    {"id": "pass", "phases": ["main"], "effects": []}
  ]
}`

// boardGame: spaces with adjacency and markers, troops that muster from
// the north into the south, and a supply stack.
const boardGame = `{
  "id": "board",
  "players": {"min": 2, "max": 2},
  "zones": [
    {"id": "north", "owner": "none", "adjacent_to": ["south"]},
    {"id": "south", "owner": "none"},
    {"id": "east", "owner": "none"},
    {"id": "supply", "owner": "none", "ordering": "stack"},
    {"id": "casualties", "owner": "none"},
    {"id": "hand", "owner": "player", "ordering": "set"}
  ],
  "token_types": [
    {"id": "troop", "props": [{"name": "strength", "type": "int"}, {"name": "side", "type": "string"}]},
    {"id": "base"}
  ],
  "global_vars": [{"name": "result", "type": "int", "init": 0, "min": -1000, "max": 1000}],
  "marker_lattices": [{"id": "support", "states": ["opposed", "neutral", "active"], "default": "neutral"}],
  "global_marker_lattices": [
    {"id": "alert", "states": ["low", "mid", "high"], "default": "low"},
    {"id": "season", "states": ["dry", "wet"], "default": "dry"}
  ],
  "setup": [
    {"zone": "north", "token_type": "troop", "count": 3, "props": {"strength": 1, "side": "red"}},
    {"zone": "south", "token_type": "base", "count": 2},
    {"zone": "supply", "token_type": "troop", "count": 2, "props": {"strength": 2, "side": "blue"}}
  ],
  "phases": ["main"],
  "turn_order": {"type": "roundRobin"},
  "actions": [
    {
      "id": "muster",
      "phases": ["main"],
      "effects": [
        {"forEach": {"bind": "$t", "over": {"tokensInZone": {"zone": "north"}}, "effects": [{"moveToken": {"token": "$t", "to": "south"}}]}},
        {"chooseOne": {"id": "pick", "bind": "$pick", "options": {"tokensInZone": {"zone": "south", "filter": [{"prop": "type", "value": "troop"}]}}}},
        {"moveTokenAdjacent": {"token": "$pick", "to": "north"}},
        {"rollRandom": {"bind": "$r", "min": 0, "max": 2, "in": [{"shiftMarker": {"space": "north", "marker": "support", "delta": "$r"}}]}},
        {"chooseN": {"bind": "$lost", "options": {"tokensInZone": {"zone": "south"}}, "max": 1}},
        {"forEach": {"bind": "$c", "over": {"binding": "$lost"}, "effects": [{"destroyToken": {"token": "$c"}}]}}
      ]
    }
  ]
}`

// phaseGame: the options of a decision depend on a phase transition made
// earlier in the same move.
const phaseGame = `{
  "id": "phased",
  "players": {"min": 2, "max": 2},
  "zones": [{"id": "pile", "owner": "none"}],
  "global_vars": [{"name": "picked", "type": "int", "init": 0, "min": 0, "max": 10}],
  "phases": ["a", "b"],
  "turn_order": {"type": "roundRobin"},
  "actions": [
    {
      "id": "go",
      "phases": ["a"],
      "effects": [
        {"advancePhase": {}},
        {"chooseOne": {"id": "pick", "bind": "$n", "options": {"intsInRange": {
          "min": 1,
          "max": {"if": {"when": {"cmp": {"op": "==", "left": {"builtin": "currentPhase"}, "right": "b"}}, "then": 1, "else": 2}}
        }}}},
        {"setVar": {"var": "picked", "value": "$n"}}
      ]
    },
    {"id": "rest", "phases": ["b"], "effects": []}
  ]
}`
