package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Match    string // optional - specific match only
}

// ReplayMatchResult holds the replay result for a single match.
type ReplayMatchResult struct {
	MatchID  string          `json:"match_id"`
	Moves    int             `json:"moves"`
	LastSeq  int64           `json:"last_seq"`
	Digest   string          `json:"digest,omitempty"`
	Outcome  *engine.Outcome `json:"outcome,omitempty"`
	Verified bool            `json:"verified"`
	Error    string          `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Matches     []ReplayMatchResult `json:"matches"`
	Total       int                 `json:"total"`
	Skipped     int                 `json:"skipped"` // matches of other definitions
	AllVerified bool                `json:"all_verified"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <game>",
		Short: "Replay stored matches and verify determinism",
		Long: `Rebuild stored matches from their seed and move log and verify every
stored state digest.

Without --match, every match played with this definition is replayed;
matches of other definitions are skipped.

Exit codes:
  0 - Every replayed match reproduced its log
  1 - A match diverged from its log
  2 - Command error (database not found, unknown match, etc.)

Examples:
  ludeme replay nim.json --db ./matches.db
  ludeme replay nim.json --db ./matches.db --match <id> --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Match, "match", "", "replay specific match only")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
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

	matchIDs, skipped, err := matchesToReplay(ctx, st, g, opts.Match)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to list matches", err)
	}

	result := ReplayResult{
		Matches:     make([]ReplayMatchResult, 0, len(matchIDs)),
		Total:       len(matchIDs),
		Skipped:     skipped,
		AllVerified: true,
	}
	for _, id := range matchIDs {
		mr, err := replayOne(ctx, st, g, id, opts)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to replay match %s", id), err)
		}
		result.Matches = append(result.Matches, mr)
		if !mr.Verified {
			result.AllVerified = false
		}
	}

	if formatter.JSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputReplayText(formatter, result)
	}

	if !result.AllVerified {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: replay diverged from the match log", ErrCodeDivergence))
	}
	return nil
}

// openMatchLog opens an existing match log; unlike play it never creates
// one.
func openMatchLog(formatter *OutputFormatter, path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("database not found: %s", path), nil)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	return st, nil
}

// matchesToReplay returns the match ids to replay: the one named, or every
// match stored with this definition's hash.
func matchesToReplay(ctx context.Context, st *store.Store, g *game, only string) ([]string, int, error) {
	if only != "" {
		return []string{only}, 0, nil
	}
	all, err := st.ListMatches(ctx)
	if err != nil {
		return nil, 0, err
	}
	matches, err := st.FindMatches(ctx, store.MatchFilter{GameDefHash: g.Hash})
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return ids, len(all) - len(matches), nil
}

// replayOne replays a match. Divergence and a definition mismatch are
// reported in the result; other errors are returned.
func replayOne(ctx context.Context, st *store.Store, g *game, matchID string, opts *ReplayOptions) (ReplayMatchResult, error) {
	res, err := st.ReplayMatch(ctx, g.Def, g.Hash, matchID, opts.ApplyOptions()...)
	if err != nil {
		var (
			diverged *store.DivergenceError
			mismatch *store.DefinitionMismatchError
		)
		if errors.As(err, &diverged) || errors.As(err, &mismatch) || engine.IsIllegalMoveError(err) {
			return ReplayMatchResult{MatchID: matchID, Error: err.Error()}, nil
		}
		return ReplayMatchResult{}, err
	}
	return ReplayMatchResult{
		MatchID:  matchID,
		Moves:    res.Moves,
		LastSeq:  res.LastSeq,
		Digest:   res.Digest,
		Outcome:  res.Outcome,
		Verified: true,
	}, nil
}

func outputReplayText(formatter *OutputFormatter, result ReplayResult) {
	w := formatter.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No matches found in database.")
		return
	}

	for _, m := range result.Matches {
		if !m.Verified {
			fmt.Fprintf(w, "✗ %s\n", m.MatchID)
			fmt.Fprintf(w, "  %s\n", m.Error)
			continue
		}
		fmt.Fprintf(w, "✓ %s (%d move(s), seq %d)\n", m.MatchID, m.Moves, m.LastSeq)
		if formatter.Verbose {
			fmt.Fprintf(w, "  digest: %s\n", m.Digest)
		}
		if m.Outcome != nil {
			fmt.Fprintf(w, "  game over: %s\n", formatOutcome(*m.Outcome))
		}
	}

	fmt.Fprintln(w)
	if result.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d match(es) of other definitions.\n", result.Skipped)
	}
	if result.AllVerified {
		fmt.Fprintf(w, "All %d match(es) replayed deterministically.\n", result.Total)
	} else {
		fmt.Fprintln(w, "Replay diverged from the match log.")
	}
}
