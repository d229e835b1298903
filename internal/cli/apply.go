package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/ir"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	StateOptions
	Move   string
	Output string
}

// ApplyResult is the outcome of one applied move.
type ApplyResult struct {
	Digest         string                 `json:"digest"`
	State          json.RawMessage        `json:"state,omitempty"`
	Output         string                 `json:"output,omitempty"`
	Events         []engine.TraceEvent    `json:"events"`
	TriggerFirings []engine.TriggerFiring `json:"trigger_firings,omitempty"`
	Outcome        *engine.Outcome        `json:"outcome,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{StateOptions: StateOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "apply <game>",
		Short: "Apply one move to a state",
		Long: `Apply one complete move to a state and report the trace.

With -o the next state is written to a file; otherwise only the trace
and digest are printed (JSON output includes the state).

Exit codes:
  0 - Move applied
  1 - Move rejected or failed at runtime
  2 - Command error (unreadable state, bad move JSON, etc.)

Examples:
  ludeme apply nim.json --state s0.json --move '{"action_id":"take","params":{"$n":2}}' -o s1.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.State, "state", "", "state file, or - for stdin (required)")
	cmd.Flags().StringVar(&opts.Move, "move", "", "move as JSON, or @file (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the next state to a file")
	_ = cmd.MarkFlagRequired("state")
	_ = cmd.MarkFlagRequired("move")

	return cmd
}

func runApply(opts *ApplyOptions, path string, cmd *cobra.Command) error {
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

	applied, err := engine.ApplyMove(g.Def, st, move, opts.ApplyOptions()...)
	if err != nil {
		return moveFailure(formatter, move, err)
	}

	data, err := engine.SerializeGameState(applied.State)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeState, "failed to serialize state", err)
	}
	result := ApplyResult{
		Digest:         ir.StateDigest(data),
		Events:         applied.Trace.Events,
		TriggerFirings: applied.TriggerFirings,
		Outcome:        applied.Outcome,
	}
	if result.Events == nil {
		result.Events = []engine.TraceEvent{}
	}

	written, err := writeOutput(opts.Output, data)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeState, fmt.Sprintf("failed to write %s", opts.Output), err)
	}
	if written {
		result.Output = opts.Output
	} else {
		result.State = data
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ %s applied\n", move.ActionID)
	writeEvents(w, "  ", result.Events)
	for _, f := range result.TriggerFirings {
		fmt.Fprintf(w, "  trigger %s on %s (depth %d)\n", f.TriggerID, f.Event, f.Depth)
	}
	fmt.Fprintf(w, "  digest: %s\n", result.Digest)
	if written {
		fmt.Fprintf(w, "  state written to %s\n", opts.Output)
	}
	if result.Outcome != nil {
		fmt.Fprintf(w, "  game over: %s\n", formatOutcome(*result.Outcome))
	}
	return nil
}
