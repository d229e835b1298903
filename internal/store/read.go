package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ludeme/internal/engine"
)

// Snapshot is a stored state at a position of a match.
type Snapshot struct {
	MatchID string
	Seq     int64
	Digest  string
	State   *engine.GameState
}

// GetMatch reads a match header.
func (s *Store) GetMatch(ctx context.Context, matchID string) (Match, error) {
	var m Match
	err := s.db.QueryRowContext(ctx, `
		SELECT id, game_id, gamedef_hash, seed, players, engine_version, schema_version
		FROM matches
		WHERE id = ?
	`, matchID).Scan(
		&m.ID,
		&m.GameID,
		&m.GameDefHash,
		&m.Seed,
		&m.Players,
		&m.EngineVersion,
		&m.SchemaVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Match{}, fmt.Errorf("get match: %w: %s", ErrMatchNotFound, matchID)
	}
	if err != nil {
		return Match{}, fmt.Errorf("get match: %w", err)
	}
	return m, nil
}

// ListMatches returns every match header, ordered by id. UUIDv7 ids sort by
// creation time.
func (s *Store) ListMatches(ctx context.Context) ([]Match, error) {
	return s.FindMatches(ctx, MatchFilter{})
}

// ReadMoves returns the moves of a match with seq greater than afterSeq,
// in seq order. Pass 0 for the whole log.
func (s *Store) ReadMoves(ctx context.Context, matchID string, afterSeq int64) ([]MoveRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, match_id, seq, move, state_digest
		FROM moves
		WHERE match_id = ? AND seq > ?
		ORDER BY seq ASC
	`, matchID, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("read moves: %w", err)
	}
	defer rows.Close()

	var records []MoveRecord
	for rows.Next() {
		var rec MoveRecord
		var moveJSON string
		if err := rows.Scan(&rec.ID, &rec.MatchID, &rec.Seq, &moveJSON, &rec.StateDigest); err != nil {
			return nil, fmt.Errorf("read moves: scan: %w", err)
		}
		rec.Move, err = unmarshalMove(moveJSON)
		if err != nil {
			return nil, fmt.Errorf("read moves: seq %d: %w", rec.Seq, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read moves: %w", err)
	}
	return records, nil
}

// LatestSnapshot returns the stored snapshot with the highest seq.
// Every match has at least its seq 0 snapshot.
func (s *Store) LatestSnapshot(ctx context.Context, matchID string) (Snapshot, error) {
	return s.readSnapshot(ctx, `
		SELECT match_id, seq, digest, state
		FROM snapshots
		WHERE match_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, matchID)
}

// SnapshotAt returns the snapshot stored at exactly seq.
func (s *Store) SnapshotAt(ctx context.Context, matchID string, seq int64) (Snapshot, error) {
	return s.readSnapshot(ctx, `
		SELECT match_id, seq, digest, state
		FROM snapshots
		WHERE match_id = ? AND seq = ?
	`, matchID, seq)
}

func (s *Store) readSnapshot(ctx context.Context, query string, args ...any) (Snapshot, error) {
	var snap Snapshot
	var stateJSON string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&snap.MatchID, &snap.Seq, &snap.Digest, &stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("read snapshot: %w: %v", ErrMatchNotFound, args[0])
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	snap.State, err = unmarshalState(stateJSON, snap.Digest)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: seq %d: %w", snap.Seq, err)
	}
	return snap, nil
}

// ReadOutcome returns how a match ended, or nil while it is still running.
func (s *Store) ReadOutcome(ctx context.Context, matchID string) (*engine.Outcome, error) {
	var outcomeJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT outcome FROM outcomes WHERE match_id = ?
	`, matchID).Scan(&outcomeJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read outcome: %w", err)
	}
	o, err := unmarshalOutcome(outcomeJSON)
	if err != nil {
		return nil, fmt.Errorf("read outcome: %w", err)
	}
	return &o, nil
}
