package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/spectra/internal/fingerprint"
	"github.com/roach88/spectra/internal/matrix"
	"github.com/roach88/spectra/internal/spectrum"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates a record with an adjacency result only.
func createTestRecord(encoding string, n, m int, digest string, values ...float64) GraphRecord {
	return GraphRecord{
		Encoding: encoding,
		N:        n,
		M:        m,
		Kinds: map[matrix.Kind]KindResult{
			matrix.Adjacency: {
				Spectrum: spectrum.Real(values),
				Digest:   fingerprint.Digest(digest),
			},
		},
	}
}

// insertRecords inserts records and fails the test on error.
func insertRecords(t *testing.T, s *Store, records ...GraphRecord) {
	t.Helper()
	if _, err := s.InsertGraphs(t.Context(), records); err != nil {
		t.Fatalf("InsertGraphs() failed: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
