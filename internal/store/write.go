package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/ir"
)

// Match is the header of a stored match: everything needed to rebuild its
// initial state.
type Match struct {
	ID            string
	GameID        string
	GameDefHash   string
	Seed          int64
	Players       int
	EngineVersion string
	SchemaVersion string
}

// MoveRecord is one committed move in a match log.
type MoveRecord struct {
	ID          string // ir.MoveDigest(MatchID, Seq, Move)
	MatchID     string
	Seq         int64
	Move        engine.Move
	StateDigest string // digest of the state the move produced
}

// ErrMatchNotFound is returned for operations on a match id the store does
// not hold.
var ErrMatchNotFound = errors.New("match not found")

// OpenMatch starts a new match: it builds the initial state, names the
// match and records its header together with the seq 0 snapshot.
//
// defHash identifies the definition document (see ir.GameDefDigest);
// replay refuses a definition with a different hash.
func (s *Store) OpenMatch(ctx context.Context, def *ir.GameDef, defHash string, seed int64, players int) (Match, *engine.GameState, error) {
	st, err := engine.InitialState(def, seed, players)
	if err != nil {
		return Match{}, nil, fmt.Errorf("open match: %w", err)
	}
	stateJSON, digest, err := marshalState(st)
	if err != nil {
		return Match{}, nil, fmt.Errorf("open match: %w", err)
	}

	m := Match{
		ID:            s.ids.Generate(),
		GameID:        def.ID,
		GameDefHash:   defHash,
		Seed:          seed,
		Players:       players,
		EngineVersion: ir.EngineVersion,
		SchemaVersion: ir.SchemaVersion,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Match{}, nil, fmt.Errorf("open match: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO matches
		(id, game_id, gamedef_hash, seed, players, engine_version, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID,
		m.GameID,
		m.GameDefHash,
		m.Seed,
		m.Players,
		m.EngineVersion,
		m.SchemaVersion,
	)
	if err != nil {
		return Match{}, nil, fmt.Errorf("open match: %w", err)
	}

	if err := writeSnapshot(ctx, tx, m.ID, 0, stateJSON, digest); err != nil {
		return Match{}, nil, fmt.Errorf("open match: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Match{}, nil, fmt.Errorf("open match: commit: %w", err)
	}

	s.logger.Info("match opened", "match", m.ID, "game", m.GameID, "seed", seed, "players", players)
	return m, st, nil
}

// AppendMove records a committed move at the next seq of the match.
// state is the state the move produced; its digest is stored with the move,
// and the full state is stored as a snapshot every snapshot interval.
//
// Uses ON CONFLICT(id) DO NOTHING: writing the same move at the same seq
// twice is silently ignored.
func (s *Store) AppendMove(ctx context.Context, matchID string, move engine.Move, state *engine.GameState) (MoveRecord, error) {
	moveJSON, moveObj, err := marshalMove(move)
	if err != nil {
		return MoveRecord{}, fmt.Errorf("append move: %w", err)
	}
	stateJSON, digest, err := marshalState(state)
	if err != nil {
		return MoveRecord{}, fmt.Errorf("append move: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return MoveRecord{}, fmt.Errorf("append move: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := matchExists(ctx, tx, matchID); err != nil {
		return MoveRecord{}, fmt.Errorf("append move: %w", err)
	}

	var last int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM moves WHERE match_id = ?
	`, matchID).Scan(&last)
	if err != nil {
		return MoveRecord{}, fmt.Errorf("append move: last seq: %w", err)
	}

	rec := MoveRecord{
		MatchID:     matchID,
		Seq:         last + 1,
		Move:        move,
		StateDigest: digest,
	}
	rec.ID, err = ir.MoveDigest(matchID, rec.Seq, moveObj)
	if err != nil {
		return MoveRecord{}, fmt.Errorf("append move: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO moves
		(id, match_id, seq, move, state_digest)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.MatchID,
		rec.Seq,
		moveJSON,
		rec.StateDigest,
	)
	if err != nil {
		return MoveRecord{}, fmt.Errorf("append move: %w", err)
	}

	if rec.Seq%s.snapshotInterval == 0 {
		if err := writeSnapshot(ctx, tx, matchID, rec.Seq, stateJSON, digest); err != nil {
			return MoveRecord{}, fmt.Errorf("append move: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return MoveRecord{}, fmt.Errorf("append move: commit: %w", err)
	}

	s.logger.Debug("move appended", "match", matchID, "seq", rec.Seq, "action", move.ActionID)
	return rec, nil
}

// RecordOutcome stores how a match ended, together with the seq of the
// move that ended it. A match has at most one outcome: later writes are
// silently ignored.
//
// The state at seq is stored as a snapshot so a finished match resumes
// without replaying.
func (s *Store) RecordOutcome(ctx context.Context, matchID string, seq int64, outcome engine.Outcome, state *engine.GameState) error {
	outcomeJSON, err := marshalOutcome(outcome)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	stateJSON, digest, err := marshalState(state)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record outcome: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := matchExists(ctx, tx, matchID); err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outcomes (match_id, seq, outcome)
		VALUES (?, ?, ?)
		ON CONFLICT(match_id) DO NOTHING
	`, matchID, seq, outcomeJSON)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}

	if err := writeSnapshot(ctx, tx, matchID, seq, stateJSON, digest); err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record outcome: commit: %w", err)
	}

	s.logger.Info("match finished", "match", matchID, "seq", seq, "kind", outcome.Kind)
	return nil
}

func writeSnapshot(ctx context.Context, tx *sql.Tx, matchID string, seq int64, stateJSON, digest string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (match_id, seq, digest, state)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(match_id, seq) DO NOTHING
	`, matchID, seq, digest, stateJSON)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func matchExists(ctx context.Context, tx *sql.Tx, matchID string) error {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE id = ?`, matchID).Scan(&n)
	if err != nil {
		return fmt.Errorf("look up match: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	return nil
}
