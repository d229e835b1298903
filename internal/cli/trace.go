package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Match    string
	Seq      int64 // optional - show a single move
}

// TraceMove is one logged move with the events it produced on replay.
type TraceMove struct {
	Seq            int64                  `json:"seq"`
	Move           engine.Move            `json:"move"`
	Events         []engine.TraceEvent    `json:"events"`
	TriggerFirings []engine.TriggerFiring `json:"trigger_firings,omitempty"`
	Digest         string                 `json:"digest"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	MatchID string          `json:"match_id"`
	GameID  string          `json:"game_id"`
	Seed    int64           `json:"seed"`
	Players int             `json:"players"`
	Moves   []TraceMove     `json:"moves"`
	Stats   TraceStats      `json:"stats"`
	Outcome *engine.Outcome `json:"outcome,omitempty"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Moves          int            `json:"moves"`
	Events         int            `json:"events"`
	TriggerFirings int            `json:"trigger_firings"`
	Kinds          map[string]int `json:"kinds"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <game>",
		Short: "Show the trace of a stored match",
		Long: `Re-apply a stored match move by move and show the events each move produced.

Every rebuilt state is checked against the digest stored with its move.

Examples:
  ludeme trace nim.json --db ./matches.db --match <id>
  ludeme trace nim.json --db ./matches.db --match <id> --seq 3 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Match, "match", "", "match id (required)")
	cmd.Flags().Int64Var(&opts.Seq, "seq", 0, "show only the move at this seq")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("match")

	return cmd
}

func runTrace(opts *TraceOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := context.Background()

	g, err := loadGame(formatter, path)
	if err != nil {
		return err
	}
	st, err := openMatchLog(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := buildTrace(ctx, formatter, st, g, opts)
	if err != nil {
		return err
	}
	if opts.Seq > 0 {
		result.Moves = filterSeq(result.Moves, opts.Seq)
		if len(result.Moves) == 0 {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase,
				fmt.Sprintf("match %s has no move at seq %d", opts.Match, opts.Seq), nil)
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	outputTraceText(formatter, result)
	return nil
}

// buildTrace replays the match log from the initial state, collecting the
// trace of every move.
func buildTrace(ctx context.Context, formatter *OutputFormatter, st *store.Store, g *game, opts *TraceOptions) (TraceResult, error) {
	fail := func(code int, errCode, msg string, err error) (TraceResult, error) {
		return TraceResult{}, formatter.Fail(code, errCode, msg, err)
	}

	m, err := st.GetMatch(ctx, opts.Match)
	if err != nil {
		return fail(ExitCommandError, ErrCodeDatabase, "failed to read match", err)
	}
	if m.GameDefHash != g.Hash {
		return fail(ExitFailure, ErrCodeDivergence, "wrong definition",
			&store.DefinitionMismatchError{MatchID: m.ID, Stored: m.GameDefHash, Given: g.Hash})
	}
	state, err := engine.InitialState(g.Def, m.Seed, m.Players)
	if err != nil {
		return fail(ExitFailure, ErrCodeRuntime, "failed to build initial state", err)
	}
	records, err := st.ReadMoves(ctx, m.ID, 0)
	if err != nil {
		return fail(ExitCommandError, ErrCodeDatabase, "failed to read moves", err)
	}

	result := TraceResult{
		MatchID: m.ID,
		GameID:  m.GameID,
		Seed:    m.Seed,
		Players: m.Players,
		Moves:   make([]TraceMove, 0, len(records)),
		Stats:   TraceStats{Kinds: map[string]int{}},
	}
	for _, rec := range records {
		applied, err := engine.ApplyMove(g.Def, state, rec.Move, opts.ApplyOptions()...)
		if err != nil {
			return fail(ExitFailure, ErrCodeDivergence, fmt.Sprintf("seq %d no longer applies", rec.Seq), err)
		}
		digest, err := engine.StateDigest(applied.State)
		if err != nil {
			return fail(ExitCommandError, ErrCodeState, "failed to digest state", err)
		}
		if digest != rec.StateDigest {
			return fail(ExitFailure, ErrCodeDivergence, "replay diverged from the match log",
				&store.DivergenceError{MatchID: m.ID, Seq: rec.Seq, Stored: rec.StateDigest, Replay: digest})
		}

		events := applied.Trace.Events
		if events == nil {
			events = []engine.TraceEvent{}
		}
		result.Moves = append(result.Moves, TraceMove{
			Seq:            rec.Seq,
			Move:           rec.Move,
			Events:         events,
			TriggerFirings: applied.TriggerFirings,
			Digest:         digest,
		})
		result.Stats.Moves++
		result.Stats.Events += len(events)
		result.Stats.TriggerFirings += len(applied.TriggerFirings)
		for _, ev := range events {
			result.Stats.Kinds[ev.Kind]++
		}
		if applied.Outcome != nil {
			result.Outcome = applied.Outcome
		}
		state = applied.State
	}
	return result, nil
}

func filterSeq(moves []TraceMove, seq int64) []TraceMove {
	for _, m := range moves {
		if m.Seq == seq {
			return []TraceMove{m}
		}
	}
	return nil
}

func outputTraceText(formatter *OutputFormatter, result TraceResult) {
	w := formatter.Writer

	fmt.Fprintf(w, "Trace for Match: %s\n", result.MatchID)
	fmt.Fprintf(w, "Game: %s (seed %d, %d players)\n", result.GameID, result.Seed, result.Players)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Moves ===")
	if len(result.Moves) == 0 {
		fmt.Fprintln(w, "  (no moves)")
	}
	for _, m := range result.Moves {
		fmt.Fprintf(w, "  [%d] %s%s\n", m.Seq, m.Move.ActionID, formatFields(m.Move.Params))
		writeEvents(w, "       ", m.Events)
		for _, f := range m.TriggerFirings {
			fmt.Fprintf(w, "       trigger %s on %s (depth %d)\n", f.TriggerID, f.Event, f.Depth)
		}
		if formatter.Verbose {
			fmt.Fprintf(w, "       digest: %s\n", m.Digest)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Moves:           %d\n", result.Stats.Moves)
	fmt.Fprintf(w, "  Events:          %d\n", result.Stats.Events)
	fmt.Fprintf(w, "  Trigger Firings: %d\n", result.Stats.TriggerFirings)
	if result.Outcome != nil {
		fmt.Fprintf(w, "  Outcome:         %s\n", formatOutcome(*result.Outcome))
	}
}
