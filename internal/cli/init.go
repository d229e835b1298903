package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ludeme/internal/engine"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Seed    int64
	Players int
	Output  string
}

// StateResult is a state together with its digest.
type StateResult struct {
	Digest string          `json:"digest"`
	State  json.RawMessage `json:"state,omitempty"`
	Output string          `json:"output,omitempty"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init <game>",
		Short: "Build the initial state of a match",
		Long: `Build the initial state of a match and print it as canonical JSON.

The state feeds the moves, choices and apply commands.

Examples:
  ludeme init nim.json --seed 42 > state.json
  ludeme init ./fitl --seed 7 --players 4 -o state.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "RNG seed")
	cmd.Flags().IntVar(&opts.Players, "players", 0, "player count (default: the definition's minimum)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the state to a file instead of stdout")

	return cmd
}

func runInit(opts *InitOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	g, err := loadGame(formatter, path)
	if err != nil {
		return err
	}

	players := opts.Players
	if players == 0 {
		players = g.Def.Players.Min
	}
	st, err := engine.InitialState(g.Def, opts.Seed, players)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeRuntime, "failed to build initial state", err)
	}
	return outputState(formatter, st, opts.Output)
}

// outputState writes a state to output, or prints it when output is empty.
func outputState(formatter *OutputFormatter, st *engine.GameState, output string) error {
	data, err := engine.SerializeGameState(st)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeState, "failed to serialize state", err)
	}
	digest, err := engine.StateDigest(st)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeState, "failed to serialize state", err)
	}

	written, err := writeOutput(output, data)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeState, fmt.Sprintf("failed to write %s", output), err)
	}

	if formatter.JSON() {
		result := StateResult{Digest: digest}
		if written {
			result.Output = output
		} else {
			result.State = data
		}
		return formatter.Success(result)
	}

	if written {
		fmt.Fprintf(formatter.Writer, "✓ State written to %s\n", output)
		fmt.Fprintf(formatter.Writer, "  digest: %s\n", digest)
		return nil
	}
	fmt.Fprintln(formatter.Writer, string(data))
	formatter.VerboseLog("digest: %s", digest)
	return nil
}
