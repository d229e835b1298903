package harness

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ludeme/internal/engine"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	sc, err := LoadScenario(filepath.Join("testdata", name))
	require.NoError(t, err)
	return sc
}

func TestRun_Opening(t *testing.T) {
	result, err := Run(loadTestScenario(t, "nim_opening.yaml"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %s", strings.Join(result.Errors, "\n"))
	assert.Equal(t, "nim_opening-1", result.MatchID)
	require.Len(t, result.Moves, 2)

	assert.Equal(t, int64(1), result.Moves[0].Seq)
	assert.NotEmpty(t, result.Moves[0].Events)
	assert.Equal(t, result.Digest, result.Moves[0].Digest)

	assert.Zero(t, result.Moves[1].Seq)
	assert.NotEmpty(t, result.Moves[1].Rejected)
	assert.Nil(t, result.Outcome)
}

func TestRun_Endgame(t *testing.T) {
	result, err := Run(loadTestScenario(t, "nim_endgame.yaml"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %s", strings.Join(result.Errors, "\n"))
	require.NotNil(t, result.Outcome)
	assert.Equal(t, "win", result.Outcome.Kind)
	require.Len(t, result.Moves, 4)
	assert.Contains(t, result.Moves[3].Rejected, "over")
}

func TestRun_FailedExpectation(t *testing.T) {
	sc := loadTestScenario(t, "nim_opening.yaml")
	sc.Expect = []Expectation{
		{Type: ExpectVar, Name: "left", Value: 6},
		{Type: ExpectPhase, Phase: "main"},
		{Type: ExpectTraceContains, Kind: "roll"},
	}

	result, err := Run(sc)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expect[0]")
	assert.Contains(t, result.Errors[0], "Assertion failed: var")
	assert.Contains(t, result.Errors[0], "left = 6")
	assert.Contains(t, result.Errors[1], "expect[2]")
	assert.Contains(t, result.Errors[1], "not found in trace")
}

func TestRun_UnexpectedRejection(t *testing.T) {
	sc := loadTestScenario(t, "nim_opening.yaml")
	sc.Moves = []MoveStep{
		{Action: "take", Params: map[string]any{"$n": 9}},
		{Action: "take", Params: map[string]any{"$n": 1}},
	}
	sc.Expect = []Expectation{{Type: ExpectPhase, Phase: "main"}}

	result, err := Run(sc)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "moves[0]: take rejected")
	assert.Empty(t, result.Moves, "the run stops at the first misbehaving move")
}

func TestRun_ExpectedErrorNotRaised(t *testing.T) {
	sc := loadTestScenario(t, "nim_opening.yaml")
	sc.Moves = []MoveStep{{Action: "take", Params: map[string]any{"$n": 1}, ExpectError: "illegal"}}
	sc.Expect = []Expectation{{Type: ExpectPhase, Phase: "main"}}

	result, err := Run(sc)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected a illegal error, move take was accepted")
}

func TestRun_WrongErrorClass(t *testing.T) {
	sc := loadTestScenario(t, "nim_opening.yaml")
	sc.Moves = []MoveStep{{Action: "take", Params: map[string]any{"$n": 9}, ExpectError: "SUBSET_CAP_EXCEEDED"}}
	sc.Expect = []Expectation{{Type: ExpectPhase, Phase: "main"}}

	result, err := Run(sc)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected a SUBSET_CAP_EXCEEDED error")
}

func TestRun_DefaultsToMinimumPlayers(t *testing.T) {
	sc := loadTestScenario(t, "nim_endgame.yaml")
	require.Zero(t, sc.Players)

	result, err := Run(sc)
	require.NoError(t, err)
	assert.Equal(t, 2, result.State.PlayerCount)
}

func TestRun_InvalidGame(t *testing.T) {
	path := writeScenario(t, "name: x\ngame: nim.json\nexpect:\n  - type: phase\n    phase: main\n")
	sc, err := LoadScenario(path)
	require.NoError(t, err)
	sc.Game = filepath.Join(filepath.Dir(path), "scenario.yaml")

	_, err = Run(sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load game")
}

func TestBuildMove(t *testing.T) {
	move, err := buildMove(MoveStep{
		Action:        "op",
		Params:        map[string]any{"$space": "saigon", "$n": 2, "$pieces": []any{"a", "b"}},
		FreeOperation: true,
		ActionClass:   "operation",
		Compound: &CompoundStep{
			SpecialActivity: MoveStep{Action: "ambush"},
			Timing:          engine.TimingAfter,
		},
	})
	require.NoError(t, err)

	want, err := engine.ParseMove([]byte(`{
		"action_id": "op",
		"params": {"$space": "saigon", "$n": 2, "$pieces": ["a", "b"]},
		"free_operation": true,
		"action_class": "operation",
		"compound": {"special_activity": {"action_id": "ambush"}, "timing": "after"}
	}`))
	require.NoError(t, err)

	gotJSON, err := json.Marshal(move)
	require.NoError(t, err)
	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))
}

func TestBuildMove_RejectsFloat(t *testing.T) {
	_, err := buildMove(MoveStep{Action: "take", Params: map[string]any{"$n": 1.5}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "param $n")
}

func TestCheckDeterminism(t *testing.T) {
	for _, name := range []string{"nim_opening.yaml", "nim_endgame.yaml"} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, CheckDeterminism(loadTestScenario(t, name), 20))
		})
	}
}

func TestDeterminismErrorMessage(t *testing.T) {
	err := &DeterminismError{Scenario: "s", Run: 3}
	assert.Equal(t, `scenario "s" is not deterministic: run 3 trace differs from run 1`, err.Error())
}
