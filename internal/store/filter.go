package store

import (
	"context"
	"fmt"
	"strings"
)

// Outcome states a MatchFilter can select.
const (
	AnyOutcome = iota
	Finished
	Unfinished
)

// MatchFilter selects match headers. Zero fields match every match.
type MatchFilter struct {
	GameID      string
	GameDefHash string
	Players     int
	Outcome     int // AnyOutcome, Finished or Unfinished
}

// predicate is one parameterized condition of a WHERE clause.
type predicate struct {
	sql  string
	args []any
}

// compile turns the filter into a SELECT over matches. Values are always
// bound as parameters, and the result is always ordered by id so the same
// log lists the same way every time.
func (f MatchFilter) compile() (string, []any, error) {
	var preds []predicate
	if f.GameID != "" {
		preds = append(preds, predicate{"m.game_id = ?", []any{f.GameID}})
	}
	if f.GameDefHash != "" {
		preds = append(preds, predicate{"m.gamedef_hash = ?", []any{f.GameDefHash}})
	}
	if f.Players != 0 {
		preds = append(preds, predicate{"m.players = ?", []any{f.Players}})
	}
	switch f.Outcome {
	case AnyOutcome:
	case Finished:
		preds = append(preds, predicate{"EXISTS (SELECT 1 FROM outcomes o WHERE o.match_id = m.id)", nil})
	case Unfinished:
		preds = append(preds, predicate{"NOT EXISTS (SELECT 1 FROM outcomes o WHERE o.match_id = m.id)", nil})
	default:
		return "", nil, fmt.Errorf("unknown outcome filter %d", f.Outcome)
	}

	var b strings.Builder
	b.WriteString(`SELECT m.id, m.game_id, m.gamedef_hash, m.seed, m.players, m.engine_version, m.schema_version FROM matches m`)
	var args []any
	for i, p := range preds {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(p.sql)
		args = append(args, p.args...)
	}
	b.WriteString(" ORDER BY m.id COLLATE BINARY ASC")
	return b.String(), args, nil
}

// FindMatches returns the match headers selected by f, ordered by id.
func (s *Store) FindMatches(ctx context.Context, f MatchFilter) ([]Match, error) {
	query, args, err := f.compile()
	if err != nil {
		return nil, fmt.Errorf("find matches: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(
			&m.ID,
			&m.GameID,
			&m.GameDefHash,
			&m.Seed,
			&m.Players,
			&m.EngineVersion,
			&m.SchemaVersion,
		); err != nil {
			return nil, fmt.Errorf("find matches: scan: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find matches: %w", err)
	}
	return matches, nil
}
