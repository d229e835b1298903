package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenariosDir = filepath.Join("..", "harness", "testdata")

func TestTestCommand_AllPass(t *testing.T) {
	out, err := execute(t, "test", scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ nim_endgame")
	assert.Contains(t, out, "✓ nim_opening")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestTestCommand_Determinism(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--runs", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "2 passed")
}

func TestTestCommand_Filter(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--filter", "nim_open*", "--format", "json")
	require.NoError(t, err)

	var result TestResult
	decodeData(t, out, &result)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "nim_opening", result.Scenarios[0].Name)
	assert.True(t, result.Scenarios[0].Pass)
}

func TestTestCommand_Failure(t *testing.T) {
	dir := t.TempDir()
	game, err := os.ReadFile(nimPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nim.json"), game, 0o644))

	scenario := `name: wrong_count
game: nim.json
seed: 1
moves:
  - action: take
    params: { $n: 1 }
expect:
  - type: var
    name: left
    value: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_count.yaml"), []byte(scenario), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0o644))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 of 2 scenario(s) failed")
	assert.Contains(t, out, "✗ wrong_count")
	assert.Contains(t, out, "Assertion failed: var")
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommand_NoScenarios(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_MissingDirectory(t *testing.T) {
	_, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
