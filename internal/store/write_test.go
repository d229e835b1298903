package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ludeme/internal/engine"
	"github.com/roach88/ludeme/internal/ir"
)

func TestOpenMatch_StoresHeaderAndInitialSnapshot(t *testing.T) {
	s := createTestStore(t)
	def := nimDef(t)
	ctx := context.Background()

	m, st, err := s.OpenMatch(ctx, def, nimHash, 42, 2)
	require.NoError(t, err)

	assert.Equal(t, Match{
		ID:            "m-1",
		GameID:        "nim",
		GameDefHash:   nimHash,
		Seed:          42,
		Players:       2,
		EngineVersion: ir.EngineVersion,
		SchemaVersion: ir.SchemaVersion,
	}, m)

	got, err := s.GetMatch(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, m, got)

	snap, err := s.SnapshotAt(ctx, m.ID, 0)
	require.NoError(t, err)
	digest, err := engine.StateDigest(st)
	require.NoError(t, err)
	assert.Equal(t, digest, snap.Digest)
	assert.Equal(t, int64(0), snap.Seq)
	assert.Len(t, snap.State.ZoneTokens("pile:none"), 7)
}

func TestOpenMatch_RejectsBadPlayerCount(t *testing.T) {
	s := createTestStore(t)

	_, _, err := s.OpenMatch(context.Background(), nimDef(t), nimHash, 1, 5)
	require.Error(t, err)

	matches, err := s.ListMatches(context.Background())
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestAppendMove_AssignsConsecutiveSeq(t *testing.T) {
	s := createTestStore(t)
	def := nimDef(t)
	ctx := context.Background()

	m, st, err := s.OpenMatch(ctx, def, nimHash, 42, 2)
	require.NoError(t, err)

	for i, n := range []int64{2, 1, 3} {
		res, err := engine.ApplyMove(def, st, take(n))
		require.NoError(t, err)

		rec, err := s.AppendMove(ctx, m.ID, take(n), res.State)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), rec.Seq)

		obj, err := take(n).Object()
		require.NoError(t, err)
		wantID, err := ir.MoveDigest(m.ID, rec.Seq, obj)
		require.NoError(t, err)
		assert.Equal(t, wantID, rec.ID)

		wantDigest, err := engine.StateDigest(res.State)
		require.NoError(t, err)
		assert.Equal(t, wantDigest, rec.StateDigest)

		st = res.State
	}
}

func TestAppendMove_UnknownMatch(t *testing.T) {
	s := createTestStore(t)
	def := nimDef(t)
	st, err := engine.InitialState(def, 1, 2)
	require.NoError(t, err)

	_, err = s.AppendMove(context.Background(), "nope", take(1), st)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMatchNotFound))
}

func TestAppendMove_SnapshotInterval(t *testing.T) {
	s := createTestStore(t, WithSnapshotInterval(2))
	m, last := playAndStore(t, s, nimDef(t), take(1), take(1), take(1))
	ctx := context.Background()

	snap, err := s.LatestSnapshot(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Seq)

	_, err = s.SnapshotAt(ctx, m.ID, 3)
	assert.True(t, errors.Is(err, ErrMatchNotFound))

	lastDigest, err := engine.StateDigest(last.State)
	require.NoError(t, err)
	assert.NotEqual(t, lastDigest, snap.Digest)
}

func TestRecordOutcome_FirstWriteWins(t *testing.T) {
	s := createTestStore(t)
	m, last := playAndStore(t, s, nimDef(t), take(3), take(3), take(1))
	require.NotNil(t, last.Outcome)
	ctx := context.Background()

	got, err := s.ReadOutcome(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "no outcome before it is recorded")

	require.NoError(t, s.RecordOutcome(ctx, m.ID, 3, *last.Outcome, last.State))
	require.NoError(t, s.RecordOutcome(ctx, m.ID, 3, engine.Outcome{Kind: "draw"}, last.State))

	got, err = s.ReadOutcome(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *last.Outcome, *got)

	snap, err := s.LatestSnapshot(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.Seq)
}

func TestRecordOutcome_UnknownMatch(t *testing.T) {
	s := createTestStore(t)
	st, err := engine.InitialState(nimDef(t), 1, 2)
	require.NoError(t, err)

	err = s.RecordOutcome(context.Background(), "nope", 1, engine.Outcome{Kind: "draw"}, st)
	assert.True(t, errors.Is(err, ErrMatchNotFound))
}
