package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidGame(t *testing.T) {
	for _, file := range []string{"nim.json", "nim.yaml", "nim.cue"} {
		t.Run(file, func(t *testing.T) {
			out, err := execute(t, "validate", filepath.Join("..", "compiler", "testdata", file))
			require.NoError(t, err)
			assert.Contains(t, out, "✓ nim is valid")
		})
	}
}

func TestValidateValidGameJSON(t *testing.T) {
	out, err := execute(t, "validate", nimPath, "--format", "json")
	require.NoError(t, err)

	var result ValidationResult
	decodeData(t, out, &result)
	assert.True(t, result.Valid)
	assert.Equal(t, "nim", result.Game)
	assert.Empty(t, result.Errors)
}

func TestValidateNonExistentPath(t *testing.T) {
	out, err := execute(t, "validate", "/nonexistent/game.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, err := execute(t, "validate", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E003")
	assert.Contains(t, out, "no CUE files found")
}

func TestValidateInvalidGame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	bad := `{
  "id": "bad",
  "players": {"min": 2, "max": 2},
  "zones": [{"id": "pile", "owner": "none"}],
  "phases": ["main"],
  "turn_order": {"type": "roundRobin"},
  "actions": [{"id": "draw", "phases": ["nowhere"]}]
}`
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E207")
}
