package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/store"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Database string
	Match    string // continue this match instead of opening one
	Seed     int64
	Players  int
	Moves    []string

	// MatchIDs overrides the match id generator (for testing).
	// If nil, the store's UUIDv7 generator is used.
	MatchIDs store.MatchIDGenerator
}

// PlayResult reports where a match stands after play.
type PlayResult struct {
	MatchID string          `json:"match_id"`
	Applied int             `json:"applied"`
	Seq     int64           `json:"seq"`
	Digest  string          `json:"digest"`
	Outcome *engine.Outcome `json:"outcome,omitempty"`
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	return newPlayCommand(&PlayOptions{RootOptions: rootOpts})
}

func newPlayCommand(opts *PlayOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <game>",
		Short: "Play moves into a stored match",
		Long: `Open a match in a SQLite match log, or continue one, and apply moves to it.

Each accepted move is appended to the log. The first rejected move stops
play; the moves before it stay committed.

Exit codes:
  0 - All moves applied
  1 - A move was rejected or failed at runtime
  2 - Command error (database error, unknown match, etc.)

Examples:
  ludeme play nim.json --db ./matches.db --seed 42 --move '{"action_id":"take","params":{"$n":2}}'
  ludeme play nim.json --db ./matches.db --match <id> --move @next.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Match, "match", "", "continue an existing match")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "RNG seed of a new match")
	cmd.Flags().IntVar(&opts.Players, "players", 0, "player count of a new match (default: the definition's minimum)")
	cmd.Flags().StringArrayVar(&opts.Moves, "move", nil, "move as JSON, or @file (repeatable)")

	return cmd
}

func runPlay(opts *PlayOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	g, err := loadGame(formatter, path)
	if err != nil {
		return err
	}

	// Parse every move before touching the log.
	moves := make([]engine.Move, len(opts.Moves))
	for i, arg := range opts.Moves {
		if moves[i], err = parseMove(formatter, arg); err != nil {
			return err
		}
	}

	storeOpts := []store.Option{store.WithLogger(slog.Default())}
	if opts.MatchIDs != nil {
		storeOpts = append(storeOpts, store.WithMatchIDGenerator(opts.MatchIDs))
	}
	st, err := store.Open(opts.Database, storeOpts...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	result, state, err := startPlay(ctx, opts, g, st)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to start match", err)
	}
	if result.Outcome != nil && len(moves) > 0 {
		return formatter.Fail(ExitFailure, ErrCodeIllegalMove,
			fmt.Sprintf("match %s is over (%s)", result.MatchID, formatOutcome(*result.Outcome)), nil)
	}

	for _, move := range moves {
		applied, err := engine.ApplyMove(g.Def, state, move, opts.ApplyOptions()...)
		if err != nil {
			formatter.VerboseLog("match %s stopped at seq %d", result.MatchID, result.Seq)
			return moveFailure(formatter, move, err)
		}
		rec, err := st.AppendMove(ctx, result.MatchID, move, applied.State)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to record move", err)
		}
		state = applied.State
		result.Applied++
		result.Seq = rec.Seq
		result.Digest = rec.StateDigest
		formatter.VerboseLog("seq %d: %s -> %s", rec.Seq, move.ActionID, rec.StateDigest)

		if applied.Outcome != nil {
			if err := st.RecordOutcome(ctx, result.MatchID, rec.Seq, *applied.Outcome, state); err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to record outcome", err)
			}
			result.Outcome = applied.Outcome
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "match %s\n", result.MatchID)
	fmt.Fprintf(w, "  applied: %d move(s)\n", result.Applied)
	fmt.Fprintf(w, "  seq: %d\n", result.Seq)
	fmt.Fprintf(w, "  digest: %s\n", result.Digest)
	if result.Outcome != nil {
		fmt.Fprintf(w, "  game over: %s\n", formatOutcome(*result.Outcome))
	}
	return nil
}

// startPlay opens a new match, or resumes opts.Match from its latest
// snapshot.
func startPlay(ctx context.Context, opts *PlayOptions, g *game, st *store.Store) (PlayResult, *engine.GameState, error) {
	if opts.Match == "" {
		players := opts.Players
		if players == 0 {
			players = g.Def.Players.Min
		}
		m, state, err := st.OpenMatch(ctx, g.Def, g.Hash, opts.Seed, players)
		if err != nil {
			return PlayResult{}, nil, err
		}
		digest, err := engine.StateDigest(state)
		if err != nil {
			return PlayResult{}, nil, err
		}
		return PlayResult{MatchID: m.ID, Digest: digest}, state, nil
	}

	res, err := st.ResumeMatch(ctx, g.Def, g.Hash, opts.Match, opts.ApplyOptions()...)
	if err != nil {
		return PlayResult{}, nil, err
	}
	return PlayResult{
		MatchID: res.Match.ID,
		Seq:     res.LastSeq,
		Digest:  res.Digest,
		Outcome: res.Outcome,
	}, res.State, nil
}
