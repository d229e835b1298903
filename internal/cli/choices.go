package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ludeme/internal/compiler"
	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/ir"
)

// ChoicesOptions holds flags for the choices command.
type ChoicesOptions struct {
	StateOptions
	Move string
}

// ChoicesResult is the answer to a partial move.
type ChoicesResult struct {
	Result  string          `json:"result"` // "complete" | "pending" | "illegal"
	Pending *engine.Pending `json:"pending,omitempty"`
	Reason  string          `json:"reason,omitempty"`
}

// NewChoicesCommand creates the choices command.
func NewChoicesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChoicesOptions{StateOptions: StateOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "choices <game>",
		Short: "Show the next decision of a partial move",
		Long: `Show the first decision a partial move leaves open, with its options.

Add the chosen value to the move's params and ask again until the move is
complete.

Examples:
  ludeme choices nim.json --state state.json --move '{"action_id":"take"}'
  ludeme choices fitl --state state.json --move @partial.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChoices(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.State, "state", "", "state file, or - for stdin (required)")
	cmd.Flags().StringVar(&opts.Move, "move", "", "partial move as JSON, or @file (required)")
	_ = cmd.MarkFlagRequired("state")
	_ = cmd.MarkFlagRequired("move")

	return cmd
}

func runChoices(opts *ChoicesOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	g, err := loadGame(formatter, path)
	if err != nil {
		return err
	}
	st, err := readState(formatter, opts.State, cmd.InOrStdin())
	if err != nil {
		return err
	}
	move, err := parseMove(formatter, opts.Move)
	if err != nil {
		return err
	}

	req, err := engine.LegalChoices(g.Def, st, move, opts.ApplyOptions()...)
	if engine.IsChoiceValidationError(err) {
		return formatter.Fail(ExitFailure, ErrCodeMove, "a supplied value is outside its domain", err)
	}
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeRuntime, "failed to resolve choices", err)
	}

	var result ChoicesResult
	switch r := req.(type) {
	case engine.Complete:
		result.Result = "complete"
	case engine.Pending:
		result.Result = "pending"
		result.Pending = &r
	case engine.Illegal:
		result.Result = "illegal"
		result.Reason = r.Reason
	default:
		return formatter.Fail(ExitCommandError, compiler.ErrCodeGeneric, fmt.Sprintf("unexpected choice request %T", req), nil)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	switch result.Result {
	case "pending":
		p := result.Pending
		fmt.Fprintf(w, "pending: %s (%s)\n", p.DecisionID, p.Kind)
		if p.Min != nil && p.Max != nil {
			fmt.Fprintf(w, "  choose %d to %d\n", *p.Min, *p.Max)
		}
		options, err := ir.MarshalCanonical(p.Options)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeMove, "failed to encode options", err)
		}
		fmt.Fprintf(w, "  options: %s\n", options)
	case "illegal":
		fmt.Fprintf(w, "illegal: %s\n", result.Reason)
	default:
		fmt.Fprintln(w, "complete")
	}
	return nil
}
