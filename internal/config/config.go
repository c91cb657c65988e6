// Package config loads and validates spectra's configuration file.
//
// A config file is YAML. Fields it omits keep their defaults. The merged
// result is checked against an embedded CUE schema before use, so a typo
// or an out-of-range value fails at startup rather than mid-run.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/spectra/internal/fingerprint"
	"github.com/roach88/spectra/internal/index"
	"github.com/roach88/spectra/internal/matrix"
	"github.com/roach88/spectra/internal/pipeline"
	"github.com/roach88/spectra/internal/spectrum"
)

//go:embed schema.cue
var schemaSource string

// DefaultEigenTimeout bounds one eigensolver call unless configured.
const DefaultEigenTimeout = 30 * time.Second

// Config is the full runtime configuration.
type Config struct {
	// Database is the SQLite file path.
	Database string `yaml:"database" json:"database"`
	// Workers bounds concurrent classifications during ingest.
	Workers int `yaml:"workers" json:"workers"`
	// BatchSize is the number of graphs per store transaction.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// Precision is the number of decimals eigenvalues are rounded to.
	Precision int `yaml:"precision" json:"precision"`
	// DigestLength is the number of hex characters kept from the hash.
	DigestLength int `yaml:"digest_length" json:"digest_length"`
	// EigenTimeout bounds one eigensolver call; 0 disables the bound.
	EigenTimeout time.Duration `yaml:"eigen_timeout" json:"eigen_timeout"`
	// Kinds lists the matrix kinds to compute, by short name.
	Kinds []string    `yaml:"kinds" json:"kinds"`
	Index IndexConfig `yaml:"index" json:"index"`
	// MetricsAddr, if set, serves Prometheus metrics on this address.
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
}

// IndexConfig configures the cospectral indexer.
type IndexConfig struct {
	Parallelism int  `yaml:"parallelism" json:"parallelism"`
	Verify      bool `yaml:"verify" json:"verify"`
	FlushSize   int  `yaml:"flush_size" json:"flush_size"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	kinds := make([]string, len(matrix.AllKinds))
	for i, k := range matrix.AllKinds {
		kinds[i] = k.String()
	}
	return Config{
		Database:     "spectra.db",
		Workers:      runtime.NumCPU(),
		BatchSize:    pipeline.DefaultBatchSize,
		Precision:    spectrum.DefaultPrecision,
		DigestLength: fingerprint.DefaultLength,
		EigenTimeout: DefaultEigenTimeout,
		Kinds:        kinds,
		Index: IndexConfig{
			Parallelism: index.DefaultParallelism,
			FlushSize:   index.DefaultFlushSize,
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path returns the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, Validate(cfg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := decode(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// decode parses YAML onto cfg, rejecting unknown fields so a misspelled
// key is reported instead of silently ignored.
func decode(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// Validate checks cfg against the embedded CUE schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	if cfg.Kinds == nil {
		cfg.Kinds = []string{}
	}

	val := ctx.Encode(cfg)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// MatrixKinds parses Kinds. An empty list means every kind.
func (c Config) MatrixKinds() ([]matrix.Kind, error) {
	return matrix.ParseKinds(c.Kinds)
}
