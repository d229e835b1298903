package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/ir"
)

// StateOptions holds the flags of commands that read a state.
type StateOptions struct {
	*RootOptions
	State string
}

// MovesResult lists the legal moves of a state.
type MovesResult struct {
	Moves []engine.Move `json:"moves"`
	Count int           `json:"count"`
}

// NewMovesCommand creates the moves command.
func NewMovesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "moves <game>",
		Short: "List the legal moves of a state",
		Long: `List every legal move of the active player, one canonical JSON move per line.

Actions whose parameters are chosen inside their effects appear once,
without those parameters; use choices to walk them.

Examples:
  ludeme moves nim.json --state state.json
  ludeme init nim.json | ludeme moves nim.json --state -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMoves(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.State, "state", "", "state file, or - for stdin (required)")
	_ = cmd.MarkFlagRequired("state")

	return cmd
}

func runMoves(opts *StateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	g, err := loadGame(formatter, path)
	if err != nil {
		return err
	}
	st, err := readState(formatter, opts.State, cmd.InOrStdin())
	if err != nil {
		return err
	}

	moves, err := engine.LegalMoves(g.Def, st, opts.ApplyOptions()...)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeRuntime, "failed to enumerate moves", err)
	}

	if formatter.JSON() {
		if moves == nil {
			moves = []engine.Move{}
		}
		return formatter.Success(MovesResult{Moves: moves, Count: len(moves)})
	}

	if len(moves) == 0 {
		fmt.Fprintln(formatter.Writer, "No legal moves.")
		return nil
	}
	for _, m := range moves {
		obj, err := m.Object()
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeMove, "failed to encode move", err)
		}
		data, err := ir.MarshalCanonical(obj)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeMove, "failed to encode move", err)
		}
		fmt.Fprintln(formatter.Writer, string(data))
	}
	return nil
}
