package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var nimPath = filepath.Join("..", "compiler", "testdata", "nim.json")

const (
	take1 = `{"action_id":"take","params":{"$n":1}}`
	take2 = `{"action_id":"take","params":{"$n":2}}`
	take3 = `{"action_id":"take","params":{"$n":3}}`
)

// execute runs the root command with args and returns what it wrote to
// stdout. Logs go to a discarded buffer.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	root := NewRootCommand()
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// decodeData decodes the data of an "ok" JSON response into v.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

// initState writes the initial nim state to a temp file.
func initState(t *testing.T, seed string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	_, err := execute(t, "init", nimPath, "--seed", seed, "-o", path)
	require.NoError(t, err)
	return path
}
