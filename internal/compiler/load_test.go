package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadCode(t *testing.T, err error) string {
	t.Helper()
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr), "not a load error: %v", err)
	return loadErr.Code
}

func TestLoadFileFormatsAgree(t *testing.T) {
	fromJSON, err := LoadFile(filepath.Join("testdata", "nim.json"))
	require.NoError(t, err)

	for _, name := range []string{"nim.yaml", "nim.cue"} {
		t.Run(name, func(t *testing.T) {
			def, err := LoadFile(filepath.Join("testdata", name))
			require.NoError(t, err)
			assert.Equal(t, fromJSON, def)
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	src, err := os.ReadFile(filepath.Join("testdata", "nim.cue"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "nim.cue"), src, 0644))

	def, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "nim", def.ID)

	fromJSON, err := Load(filepath.Join("testdata", "nim.json"))
	require.NoError(t, err)
	assert.Equal(t, fromJSON, def)
}

func TestLoadErrors(t *testing.T) {
	tmpDir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(tmpDir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	_, err := Load(filepath.Join(tmpDir, "missing.json"))
	assert.Equal(t, ErrCodeNotFound, loadCode(t, err))

	_, err = LoadFile(write("game.toml", `id = "x"`))
	assert.Equal(t, ErrCodeFormat, loadCode(t, err))

	_, err = LoadFile(write("bad.json", `{"id": "x", "players": {"min": 1.5}}`))
	assert.Equal(t, ErrCodeDecode, loadCode(t, err))

	_, err = LoadDir(t.TempDir())
	assert.Equal(t, ErrCodeNoFiles, loadCode(t, err))
}

func TestLoadYAMLFloatReportsLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: odds\nplayers:\n  min: 1\n  max: 2.5\n"), 0644))

	_, err := LoadFile(path)
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeDecode, loadErr.Code)
	assert.Equal(t, 4, loadErr.Line)
	assert.Contains(t, loadErr.Error(), "line 4")
}

func TestLoadCUEInvalidSyntax(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "bad.cue"), []byte("package bad\n\ngame: {id: \n"), 0644))

	_, err := Load(tmpDir)
	require.Error(t, err)
	assert.Equal(t, ErrCodeLoadFailed, loadCode(t, err))
}

func TestLoadValid(t *testing.T) {
	def, err := LoadValid(filepath.Join("testdata", "nim.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "nim", def.ID)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id": "broken", "players": {"min": 1, "max": 1}, "phases": ["main"],
		"turn_order": {"type": "roundRobin"},
		"actions": [{"id": "a", "phases": ["setup"]}]}`), 0644))

	_, err = LoadValid(path)
	require.Error(t, err)
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, ErrUnknownPhase, verrs[0].Code)
}

func TestSourceDigest(t *testing.T) {
	a, err := SourceDigest(filepath.Join("testdata", "nim.json"))
	require.NoError(t, err)
	b, err := SourceDigest(filepath.Join("testdata", "nim.json"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	y, err := SourceDigest(filepath.Join("testdata", "nim.yaml"))
	require.NoError(t, err)
	assert.NotEqual(t, a, y, "digest covers the document bytes")

	tmpDir := t.TempDir()
	src, err := os.ReadFile(filepath.Join("testdata", "nim.cue"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "nim.cue"), src, 0644))
	before, err := SourceDigest(tmpDir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "nim.cue"), append(src, '\n'), 0644))
	after, err := SourceDigest(tmpDir)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	_, err = SourceDigest(filepath.Join(tmpDir, "missing.json"))
	assert.Equal(t, ErrCodeNotFound, loadCode(t, err))
}
