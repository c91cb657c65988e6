package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spectra/internal/matrix"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spectra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	kinds, err := cfg.MatrixKinds()
	require.NoError(t, err)
	assert.Equal(t, matrix.AllKinds, kinds)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
database: /var/lib/spectra/graphs.db
workers: 3
eigen_timeout: 250ms
kinds: [adj, nb]
index:
  verify: true
  parallelism: 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/spectra/graphs.db", cfg.Database)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.EigenTimeout)
	assert.True(t, cfg.Index.Verify)
	assert.Equal(t, 2, cfg.Index.Parallelism)

	// Untouched fields keep defaults.
	def := Default()
	assert.Equal(t, def.Precision, cfg.Precision)
	assert.Equal(t, def.BatchSize, cfg.BatchSize)
	assert.Equal(t, def.Index.FlushSize, cfg.Index.FlushSize)

	kinds, err := cfg.MatrixKinds()
	require.NoError(t, err)
	assert.Equal(t, []matrix.Kind{matrix.Adjacency, matrix.NonBacktracking}, kinds)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown field", "databse: x.db\n"},
		{"bad yaml", "workers: [\n"},
		{"zero workers", "workers: 0\n"},
		{"precision too high", "precision: 40\n"},
		{"digest too long", "digest_length: 65\n"},
		{"unknown kind", "kinds: [adj, laplacian]\n"},
		{"empty database", "database: \"\"\n"},
		{"negative timeout", "eigen_timeout: -1s\n"},
		{"zero flush size", "index:\n  flush_size: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_NilKindsMeansAll(t *testing.T) {
	cfg := Default()
	cfg.Kinds = nil
	require.NoError(t, Validate(cfg))

	kinds, err := cfg.MatrixKinds()
	require.NoError(t, err)
	assert.Len(t, kinds, len(matrix.AllKinds))
}
