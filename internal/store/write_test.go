package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spectra/internal/fingerprint"
	"github.com/roach88/spectra/internal/matrix"
	"github.com/roach88/spectra/internal/spectrum"
)

func TestInsertGraphs_InsertIfAbsent(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	first := createTestRecord("Bg", 3, 2, "1111", -1.41421356, 0, 1.41421356)
	n, err := s.InsertGraphs(ctx, []GraphRecord{first})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Same encoding, different payload: existing row wins.
	second := createTestRecord("Bg", 3, 2, "2222", 9)
	n, err = s.InsertGraphs(ctx, []GraphRecord{second, createTestRecord("Bw", 3, 3, "3333", -1, -1, 2)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, err := s.ReadGraph(ctx, "Bg")
	require.NoError(t, err)
	kr, ok := rec.Result(matrix.Adjacency)
	require.True(t, ok)
	assert.Equal(t, fingerprint.Digest("1111"), kr.Digest)
	assert.Equal(t, []float64{-1.41421356, 0, 1.41421356}, kr.Spectrum.Reals())
}

func TestInsertGraphs_Empty(t *testing.T) {
	s := createTestStore(t)
	n, err := s.InsertGraphs(t.Context(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInsertGraphs_AbsentKindsStayNull(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	insertRecords(t, s, createTestRecord("Bg", 3, 2, "1111", 0))

	rec, err := s.ReadGraph(ctx, "Bg")
	require.NoError(t, err)
	assert.Len(t, rec.Kinds, 1)
	_, ok := rec.Result(matrix.NonBacktracking)
	assert.False(t, ok)
}

func TestInsertGraphs_ComplexRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	zs := []complex128{complex(-0.5, -0.8660254), complex(-0.5, 0.8660254), complex(1, 0)}
	rec := GraphRecord{
		Encoding: "Bw",
		N:        3,
		M:        3,
		Kinds: map[matrix.Kind]KindResult{
			matrix.NonBacktracking: {Spectrum: spectrum.Complex(zs), Digest: "cccc"},
			// Empty spectrum is a computed result, distinct from NULL.
			matrix.NonBacktrackingLaplacian: {Spectrum: spectrum.Complex([]complex128{}), Digest: "eeee"},
		},
	}
	insertRecords(t, s, rec)

	got, err := s.ReadGraph(ctx, "Bw")
	require.NoError(t, err)

	nb, ok := got.Result(matrix.NonBacktracking)
	require.True(t, ok)
	assert.True(t, nb.Spectrum.IsComplex())
	assert.Equal(t, zs, nb.Spectrum.Complexes())

	nbl, ok := got.Result(matrix.NonBacktrackingLaplacian)
	require.True(t, ok)
	assert.True(t, nbl.Spectrum.Empty())
	assert.True(t, nbl.Spectrum.IsComplex())
	assert.Equal(t, fingerprint.Digest("eeee"), nbl.Digest)
}

func TestInsertGraphs_RejectsTagMismatch(t *testing.T) {
	s := createTestStore(t)
	rec := GraphRecord{
		Encoding: "Bw",
		N:        3,
		M:        3,
		Kinds: map[matrix.Kind]KindResult{
			matrix.Adjacency: {Spectrum: spectrum.Complex([]complex128{1}), Digest: "x"},
		},
	}
	_, err := s.InsertGraphs(t.Context(), []GraphRecord{rec})
	assert.Error(t, err)

	// Nothing committed.
	_, err = s.ReadGraph(t.Context(), "Bw")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateKind_FillsOnlyNull(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	insertRecords(t, s, createTestRecord("Bg", 3, 2, "1111", 0))

	lap := KindResult{Spectrum: spectrum.Real([]float64{0, 1, 2}), Digest: "8ae32f7c2962a5ca"}
	updated, err := s.UpdateKind(ctx, "Bg", matrix.NormalizedLaplacian, lap)
	require.NoError(t, err)
	assert.True(t, updated)

	// Second fill is a no-op.
	updated, err = s.UpdateKind(ctx, "Bg", matrix.NormalizedLaplacian,
		KindResult{Spectrum: spectrum.Real([]float64{5}), Digest: "ffff"})
	require.NoError(t, err)
	assert.False(t, updated)

	// Existing adjacency result is never overwritten.
	updated, err = s.UpdateKind(ctx, "Bg", matrix.Adjacency,
		KindResult{Spectrum: spectrum.Real([]float64{5}), Digest: "ffff"})
	require.NoError(t, err)
	assert.False(t, updated)

	rec, err := s.ReadGraph(ctx, "Bg")
	require.NoError(t, err)
	assert.Equal(t, fingerprint.Digest("8ae32f7c2962a5ca"), rec.Kinds[matrix.NormalizedLaplacian].Digest)
	assert.Equal(t, fingerprint.Digest("1111"), rec.Kinds[matrix.Adjacency].Digest)
}

func TestUpdateKind_InvalidKind(t *testing.T) {
	s := createTestStore(t)
	_, err := s.UpdateKind(t.Context(), "Bg", matrix.Kind(42), KindResult{})
	assert.Error(t, err)
}

func TestUpsertMetadata(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	insertRecords(t, s, createTestRecord("Bg", 3, 2, "1111", 0))

	require.NoError(t, s.UpsertMetadata(ctx, "Bg", Metadata{IsBipartite: ptr(true), Diameter: ptr(2)}))
	// Merge: nil fields keep stored values.
	require.NoError(t, s.UpsertMetadata(ctx, "Bg", Metadata{MaxDegree: ptr(2)}))

	rec, err := s.ReadGraph(ctx, "Bg")
	require.NoError(t, err)
	require.NotNil(t, rec.Metadata.IsBipartite)
	assert.True(t, *rec.Metadata.IsBipartite)
	require.NotNil(t, rec.Metadata.Diameter)
	assert.Equal(t, 2, *rec.Metadata.Diameter)
	require.NotNil(t, rec.Metadata.MaxDegree)
	assert.Equal(t, 2, *rec.Metadata.MaxDegree)
	assert.Nil(t, rec.Metadata.IsPlanar)

	err = s.UpsertMetadata(ctx, "C~", Metadata{IsPlanar: ptr(true)})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRecordFailure(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	insertRecords(t, s, createTestRecord("Bg", 3, 2, "1111", 0))

	require.NoError(t, s.RecordFailure(ctx, "Bg", matrix.NonBacktracking, "did not converge", "run-1"))
	require.NoError(t, s.RecordFailure(ctx, "Bg", matrix.NonBacktracking, "timed out", "run-2"))

	failures, err := s.Failures(ctx, matrix.NonBacktracking)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].Attempts)
	assert.Equal(t, "timed out", failures[0].Message)
	assert.Equal(t, "run-2", failures[0].RunID)
	assert.Equal(t, "Bg", failures[0].Encoding)

	require.NoError(t, s.ClearFailure(ctx, "Bg", matrix.NonBacktracking))
	failures, err = s.Failures(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, failures)

	err = s.RecordFailure(ctx, "C~", matrix.Adjacency, "x", "run-3")
	assert.ErrorIs(t, err, ErrNotFound)

	// Adjacency is already computed for Bg.
	err = s.RecordFailure(ctx, "Bg", matrix.Adjacency, "x", "run-3")
	assert.ErrorIs(t, err, ErrNotFound)
}
