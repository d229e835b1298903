package store

import (
	"context"
	"fmt"

	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/ir"
)

// DefinitionMismatchError reports a replay against a definition other than
// the one the match was played with.
type DefinitionMismatchError struct {
	MatchID string
	Stored  string
	Given   string
}

func (e *DefinitionMismatchError) Error() string {
	return fmt.Sprintf("match %s was played with definition %s, not %s", e.MatchID, e.Stored, e.Given)
}

// DivergenceError reports a replayed state whose digest differs from the
// one stored for that seq.
type DivergenceError struct {
	MatchID string
	Seq     int64
	Stored  string
	Replay  string
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("match %s diverged at seq %d: stored digest %s, replay produced %s",
		e.MatchID, e.Seq, e.Stored, e.Replay)
}

// ReplayResult is the outcome of rebuilding a match from its log.
type ReplayResult struct {
	Match   Match
	Moves   int
	LastSeq int64
	State   *engine.GameState
	Digest  string

	// Outcome is set when the replayed match is over.
	Outcome *engine.Outcome
}

// ReplayMatch rebuilds a match from its seed and move log and verifies
// every state digest along the way, starting with the seq 0 snapshot.
// The first mismatch stops the replay with a *DivergenceError.
//
// opts must be the engine options the match was played with.
func (s *Store) ReplayMatch(ctx context.Context, def *ir.GameDef, defHash, matchID string, opts ...engine.ApplyOption) (*ReplayResult, error) {
	m, err := s.checkedMatch(ctx, defHash, matchID)
	if err != nil {
		return nil, fmt.Errorf("replay match: %w", err)
	}

	st, err := engine.InitialState(def, m.Seed, m.Players)
	if err != nil {
		return nil, fmt.Errorf("replay match: %w", err)
	}
	initial, err := s.SnapshotAt(ctx, matchID, 0)
	if err != nil {
		return nil, fmt.Errorf("replay match: %w", err)
	}
	if err := verify(matchID, 0, initial.Digest, st); err != nil {
		return nil, err
	}

	moves, err := s.ReadMoves(ctx, matchID, 0)
	if err != nil {
		return nil, fmt.Errorf("replay match: %w", err)
	}
	res, err := applyLog(def, matchID, st, moves, opts)
	if err != nil {
		return nil, err
	}
	res.Match = m

	s.logger.Info("match replayed", "match", matchID, "moves", res.Moves, "digest", res.Digest)
	return res, nil
}

// ResumeMatch rebuilds the current state of a match from its latest
// snapshot and the moves logged after it.
func (s *Store) ResumeMatch(ctx context.Context, def *ir.GameDef, defHash, matchID string, opts ...engine.ApplyOption) (*ReplayResult, error) {
	m, err := s.checkedMatch(ctx, defHash, matchID)
	if err != nil {
		return nil, fmt.Errorf("resume match: %w", err)
	}

	snap, err := s.LatestSnapshot(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("resume match: %w", err)
	}
	moves, err := s.ReadMoves(ctx, matchID, snap.Seq)
	if err != nil {
		return nil, fmt.Errorf("resume match: %w", err)
	}
	res, err := applyLog(def, matchID, snap.State, moves, opts)
	if err != nil {
		return nil, err
	}
	res.Match = m
	if res.LastSeq < snap.Seq {
		res.LastSeq = snap.Seq
	}
	return res, nil
}

func (s *Store) checkedMatch(ctx context.Context, defHash, matchID string) (Match, error) {
	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return Match{}, err
	}
	if m.GameDefHash != defHash {
		return Match{}, &DefinitionMismatchError{MatchID: matchID, Stored: m.GameDefHash, Given: defHash}
	}
	return m, nil
}

// applyLog applies moves in order to st, verifying each stored digest.
func applyLog(def *ir.GameDef, matchID string, st *engine.GameState, moves []MoveRecord, opts []engine.ApplyOption) (*ReplayResult, error) {
	res := &ReplayResult{State: st}
	for _, rec := range moves {
		applied, err := engine.ApplyMove(def, res.State, rec.Move, opts...)
		if err != nil {
			return nil, fmt.Errorf("replay match %s: seq %d: %w", matchID, rec.Seq, err)
		}
		if err := verify(matchID, rec.Seq, rec.StateDigest, applied.State); err != nil {
			return nil, err
		}
		res.State = applied.State
		res.Moves++
		res.LastSeq = rec.Seq
		res.Digest = rec.StateDigest
	}

	if res.Digest == "" {
		digest, err := engine.StateDigest(res.State)
		if err != nil {
			return nil, fmt.Errorf("replay match %s: %w", matchID, err)
		}
		res.Digest = digest
	}

	outcome, err := engine.TerminalResult(def, res.State)
	if err != nil {
		return nil, fmt.Errorf("replay match %s: %w", matchID, err)
	}
	res.Outcome = outcome
	return res, nil
}

func verify(matchID string, seq int64, stored string, st *engine.GameState) error {
	got, err := engine.StateDigest(st)
	if err != nil {
		return fmt.Errorf("replay match %s: seq %d: %w", matchID, seq, err)
	}
	if got != stored {
		return &DivergenceError{MatchID: matchID, Seq: seq, Stored: stored, Replay: got}
	}
	return nil
}
