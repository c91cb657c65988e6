package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spectra/internal/fingerprint"
	"github.com/roach88/spectra/internal/matrix"
)

func TestGranuleStream_OrderAcrossPages(t *testing.T) {
	s := createTestStore(t, WithPageSize(3))
	ctx := t.Context()

	// Ten graphs of order 4 whose digests interleave with insertion order.
	var records []GraphRecord
	for i := 0; i < 10; i++ {
		records = append(records, createTestRecord(fmt.Sprintf("g%02d", i), 4, i, fmt.Sprintf("h%d", i%4), 0))
	}
	records = append(records, createTestRecord("other", 5, 0, "h0", 0))
	insertRecords(t, s, records...)

	var got []GranuleEntry
	err := s.WithGranuleTx(ctx, 4, matrix.Adjacency, func(tx *GranuleTx) error {
		return tx.Stream(ctx, func(e GranuleEntry) error {
			got = append(got, e)
			return nil
		})
	})
	require.NoError(t, err)
	require.Len(t, got, 10)

	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		ordered := prev.Digest < cur.Digest || (prev.Digest == cur.Digest && prev.ID < cur.ID)
		assert.True(t, ordered, "entry %d out of order: %+v then %+v", i, prev, cur)
	}
	assert.Equal(t, fingerprint.Digest("h0"), got[0].Digest)
}

func TestGranuleStream_StopsOnError(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	insertRecords(t, s,
		createTestRecord("a", 3, 0, "x", 0),
		createTestRecord("b", 3, 0, "y", 0),
	)
	stop := errors.New("stop")
	calls := 0
	err := s.WithGranuleTx(ctx, 3, matrix.Adjacency, func(tx *GranuleTx) error {
		return tx.Stream(ctx, func(GranuleEntry) error {
			calls++
			return stop
		})
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestWithGranuleTx_CommitsPairsAndMarker(t *testing.T) {
	s := createTestStore(t, WithPageSize(1))
	ctx := t.Context()
	insertRecords(t, s,
		createTestRecord("D?{", 5, 4, "shared", -2, 0, 0, 0, 2),
		createTestRecord("DEo", 5, 4, "shared", -2, 0, 0, 0, 2),
	)

	err := s.WithGranuleTx(ctx, 5, matrix.Adjacency, func(tx *GranuleTx) error {
		var ids []int64
		// Writes interleave with the page-at-a-time stream.
		if err := tx.Stream(ctx, func(e GranuleEntry) error {
			ids = append(ids, e.ID)
			if len(ids) == 2 {
				_, err := tx.WritePairs(ctx, []Pair{NewPair(ids[1], ids[0], matrix.Adjacency)})
				return err
			}
			return nil
		}); err != nil {
			return err
		}

		results, err := tx.Results(ctx, ids)
		if err != nil {
			return err
		}
		assert.True(t, results[ids[0]].Spectrum.Equal(results[ids[1]].Spectrum))

		classified, err := tx.CountClassified(ctx)
		if err != nil {
			return err
		}
		return tx.MarkComplete(ctx, classified, 1, "run-1")
	})
	require.NoError(t, err)

	marker, ok, err := s.GranuleStatus(ctx, 5, matrix.Adjacency)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, marker.Classified)
	assert.Equal(t, 1, marker.Pairs)
	assert.Equal(t, "run-1", marker.RunID)

	mates, err := s.MatesOf(ctx, "D?{", matrix.Adjacency)
	require.NoError(t, err)
	require.Len(t, mates, 1)
	assert.Equal(t, "DEo", mates[0].Encoding)

	mates, err = s.MatesOf(ctx, "DEo", matrix.Adjacency)
	require.NoError(t, err)
	require.Len(t, mates, 1)
	assert.Equal(t, "D?{", mates[0].Encoding)

	count, err := s.CountPairs(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWithGranuleTx_RollsBackOnError(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	insertRecords(t, s,
		createTestRecord("a", 3, 0, "x", 0),
		createTestRecord("b", 3, 0, "x", 0),
	)

	boom := errors.New("boom")
	err := s.WithGranuleTx(ctx, 3, matrix.Adjacency, func(tx *GranuleTx) error {
		if _, err := tx.WritePairs(ctx, []Pair{NewPair(1, 2, matrix.Adjacency)}); err != nil {
			return err
		}
		if err := tx.MarkComplete(ctx, 2, 1, "run-1"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := s.CountPairs(ctx, matrix.Adjacency)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, ok, err := s.GranuleStatus(ctx, 3, matrix.Adjacency)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWritePairs_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	insertRecords(t, s,
		createTestRecord("a", 3, 0, "x", 0),
		createTestRecord("b", 3, 0, "x", 0),
	)

	write := func() int {
		var inserted int
		err := s.WithGranuleTx(ctx, 3, matrix.Adjacency, func(tx *GranuleTx) error {
			var err error
			inserted, err = tx.WritePairs(ctx, []Pair{NewPair(2, 1, matrix.Adjacency)})
			return err
		})
		require.NoError(t, err)
		return inserted
	}
	assert.Equal(t, 1, write())
	assert.Equal(t, 0, write())

	pairs, err := s.Pairs(ctx, matrix.Adjacency)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{GraphA: 1, GraphB: 2, Kind: matrix.Adjacency}}, pairs)
}

func TestWritePairs_RejectsNonCanonical(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	err := s.WithGranuleTx(ctx, 3, matrix.Adjacency, func(tx *GranuleTx) error {
		_, err := tx.WritePairs(ctx, []Pair{{GraphA: 2, GraphB: 2, Kind: matrix.Adjacency}})
		return err
	})
	assert.Error(t, err)
}

func TestNewPair_Canonical(t *testing.T) {
	p := NewPair(9, 3, matrix.NonBacktracking)
	assert.Equal(t, int64(3), p.GraphA)
	assert.Equal(t, int64(9), p.GraphB)
}
