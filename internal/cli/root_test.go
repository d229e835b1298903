package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ludeme", cmd.Use)
	assert.Contains(t, cmd.Long, "byte for byte")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "init", "moves", "choices", "apply", "play", "replay", "test", "trace"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	budgetFlag := cmd.PersistentFlags().Lookup("phase-budget")
	require.NotNil(t, budgetFlag)
	assert.Equal(t, "64", budgetFlag.DefValue)

	depthFlag := cmd.PersistentFlags().Lookup("max-trigger-depth")
	require.NotNil(t, depthFlag)
	assert.Equal(t, "8", depthFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command  string
		flag     string
		defValue string
	}{
		{"init", "seed", "0"},
		{"init", "players", "0"},
		{"moves", "state", ""},
		{"choices", "move", ""},
		{"apply", "output", ""},
		{"play", "db", ""},
		{"play", "move", "[]"},
		{"replay", "match", ""},
		{"test", "runs", "1"},
		{"trace", "seq", "0"},
	}

	cmd := NewRootCommand()
	for _, tt := range tests {
		t.Run(tt.command+"/"+tt.flag, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{tt.command})
			require.NoError(t, err)
			flag := subCmd.Flags().Lookup(tt.flag)
			require.NotNil(t, flag)
			assert.Equal(t, tt.defValue, flag.DefValue)
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "validate", nimPath, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestApplyOptions(t *testing.T) {
	opts := &RootOptions{PhaseBudget: 4, MaxTriggerDepth: 2}
	assert.Len(t, opts.ApplyOptions(), 2)

	assert.Empty(t, (&RootOptions{}).ApplyOptions())
}
