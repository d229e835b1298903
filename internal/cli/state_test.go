package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ludeme/internal/engine"
)

func TestInit_PrintsCanonicalState(t *testing.T) {
	out, err := execute(t, "init", nimPath, "--seed", "42")
	require.NoError(t, err)

	st, err := engine.DeserializeGameState([]byte(strings.TrimSpace(out)))
	require.NoError(t, err)
	assert.Equal(t, 2, st.PlayerCount)
	assert.Len(t, st.ZoneTokens("pile:none"), 7)

	again, err := execute(t, "init", nimPath, "--seed", "42")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestInit_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s0.json")
	out, err := execute(t, "init", nimPath, "--seed", "1", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ State written to "+path)
	assert.Contains(t, out, "digest: ")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestInit_JSON(t *testing.T) {
	out, err := execute(t, "init", nimPath, "--format", "json")
	require.NoError(t, err)

	var result StateResult
	decodeData(t, out, &result)
	assert.NotEmpty(t, result.Digest)
	st, err := engine.DeserializeGameState(result.State)
	require.NoError(t, err)
	digest, err := engine.StateDigest(st)
	require.NoError(t, err)
	assert.Equal(t, result.Digest, digest)
}

func TestInit_BadPlayerCount(t *testing.T) {
	_, err := execute(t, "init", nimPath, "--players", "5")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestMoves(t *testing.T) {
	state := initState(t, "42")

	out, err := execute(t, "moves", nimPath, "--state", state)
	require.NoError(t, err)
	assert.Equal(t, take1+"\n"+take2+"\n"+take3+"\n", out)
}

func TestMoves_JSON(t *testing.T) {
	state := initState(t, "42")

	out, err := execute(t, "moves", nimPath, "--state", state, "--format", "json")
	require.NoError(t, err)

	var result MovesResult
	decodeData(t, out, &result)
	assert.Equal(t, 3, result.Count)
	assert.Equal(t, "take", result.Moves[0].ActionID)
}

func TestMoves_StateFromStdin(t *testing.T) {
	data, err := os.ReadFile(initState(t, "42"))
	require.NoError(t, err)

	out := &strings.Builder{}
	root := NewRootCommand()
	root.SetOut(out)
	root.SetErr(&strings.Builder{})
	root.SetIn(strings.NewReader(string(data)))
	root.SetArgs([]string{"moves", nimPath, "--state", "-"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), take3)
}

func TestMoves_BadState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	out, err := execute(t, "moves", nimPath, "--state", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E101]")
}

func TestChoices(t *testing.T) {
	state := initState(t, "42")

	tests := []struct {
		name string
		move string
		want string
	}{
		{"pending", `{"action_id":"take"}`, "pending: $n"},
		{"complete", take2, "complete"},
		{"illegal", `{"action_id":"pass"}`, "illegal: unknown action"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "choices", nimPath, "--state", state, "--move", tt.move)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, tt.want), out)
		})
	}
}

func TestChoices_ValueOutsideDomain(t *testing.T) {
	state := initState(t, "42")

	out, err := execute(t, "choices", nimPath, "--state", state, "--move", `{"action_id":"take","params":{"$n":5}}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E102]")
}

func TestChoices_JSON(t *testing.T) {
	state := initState(t, "42")

	out, err := execute(t, "choices", nimPath, "--state", state, "--move", `{"action_id":"take"}`, "--format", "json")
	require.NoError(t, err)

	var result struct {
		Result  string `json:"result"`
		Pending struct {
			DecisionID string `json:"decision_id"`
			Options    []int  `json:"options"`
		} `json:"pending"`
	}
	decodeData(t, out, &result)
	assert.Equal(t, "pending", result.Result)
	assert.Equal(t, "$n", result.Pending.DecisionID)
	assert.Equal(t, []int{1, 2, 3}, result.Pending.Options)
}

func TestChoices_MoveFromFile(t *testing.T) {
	state := initState(t, "42")
	movePath := filepath.Join(t.TempDir(), "move.json")
	require.NoError(t, os.WriteFile(movePath, []byte(take1), 0o644))

	out, err := execute(t, "choices", nimPath, "--state", state, "--move", "@"+movePath)
	require.NoError(t, err)
	assert.Equal(t, "complete\n", out)
}

func TestChoices_BadMove(t *testing.T) {
	state := initState(t, "42")

	out, err := execute(t, "choices", nimPath, "--state", state, "--move", `{"params":{}}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E102]")
}

func TestApply(t *testing.T) {
	state := initState(t, "42")
	next := filepath.Join(t.TempDir(), "s1.json")

	out, err := execute(t, "apply", nimPath, "--state", state, "--move", take2, "-o", next)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ take applied")
	assert.Contains(t, out, "varChange")
	assert.Contains(t, out, "to=5")
	assert.Contains(t, out, "state written to "+next)

	movesOut, err := execute(t, "moves", nimPath, "--state", next)
	require.NoError(t, err)
	assert.Equal(t, take1+"\n"+take2+"\n"+take3+"\n", movesOut)
}

func TestApply_JSON(t *testing.T) {
	state := initState(t, "42")

	out, err := execute(t, "apply", nimPath, "--state", state, "--move", take3, "--format", "json")
	require.NoError(t, err)

	var result ApplyResult
	decodeData(t, out, &result)
	assert.NotEmpty(t, result.Digest)
	assert.NotEmpty(t, result.State)
	assert.Nil(t, result.Outcome)

	st, err := engine.DeserializeGameState(result.State)
	require.NoError(t, err)
	assert.Len(t, st.ZoneTokens("hand:0"), 3)
	assert.Equal(t, 1, st.ActivePlayer)
}

func TestApply_IllegalMove(t *testing.T) {
	state := initState(t, "42")

	out, err := execute(t, "apply", nimPath, "--state", state, "--move", `{"action_id":"take","params":{"$n":4}}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "E103")
	assert.Contains(t, out, "move take rejected")
}
