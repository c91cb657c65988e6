package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/roach88/spectra/internal/config"
	"github.com/roach88/spectra/internal/fingerprint"
	"github.com/roach88/spectra/internal/index"
	"github.com/roach88/spectra/internal/matrix"
	"github.com/roach88/spectra/internal/pipeline"
	"github.com/roach88/spectra/internal/spectrum"
	"github.com/roach88/spectra/internal/store"
)

// RootOptions holds global flags for all commands, plus the state every
// command shares once PersistentPreRunE has run.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string

	// Config is loaded from ConfigPath with flag overrides applied.
	Config config.Config
	// Logger writes to the command's stderr.
	Logger *slog.Logger
	// RunIDs stamps failure rows and granule markers. If nil, defaults to
	// pipeline.UUIDv7Generator; tests substitute a fixed generator.
	RunIDs pipeline.RunIDGenerator
	// Registry collects pipeline and indexer metrics.
	Registry *prometheus.Registry
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the spectra CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spectra",
		Short: "spectra - cospectral graph fingerprints",
		Long: `Compute spectral fingerprints of graphs and index cospectral mates.

Graphs arrive as graph6 lines. Each is classified under six matrix
representations (adjacency, normalized, Kirchhoff and signless Laplacians,
non-backtracking and non-backtracking Laplacian); every spectrum is rounded,
hashed and stored in SQLite. The index command then records every pair of
graphs that share a fingerprint.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	cmd.AddCommand(NewIngestCommand(opts))
	cmd.AddCommand(NewRetryCommand(opts))
	cmd.AddCommand(NewIndexCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewMatesCommand(opts))
	cmd.AddCommand(NewScanCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewMetadataCommand(opts))

	return cmd
}

// setup loads configuration and installs the logger.
func (o *RootOptions) setup(stderr io.Writer) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	o.Config = cfg

	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	if o.RunIDs == nil {
		o.RunIDs = pipeline.UUIDv7Generator{}
	}
	if o.Registry == nil {
		o.Registry = prometheus.NewRegistry()
		o.Registry.MustRegister(collectors.NewGoCollector())
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openStore opens the configured database.
func (o *RootOptions) openStore() (*store.Store, error) {
	o.Logger.Debug("opening database", "path", o.Config.Database)
	st, err := store.Open(o.Config.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// closeStore closes st, logging rather than returning a close error.
func (o *RootOptions) closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		o.Logger.Error("error closing database", "error", err)
	}
}

// kinds returns the configured matrix kinds, narrowed by names if given.
func (o *RootOptions) kinds(names []string) ([]matrix.Kind, error) {
	if len(names) > 0 {
		kinds, err := matrix.ParseKinds(names)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --kind", err)
		}
		return kinds, nil
	}
	kinds, err := o.Config.MatrixKinds()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid kinds in config", err)
	}
	return kinds, nil
}

// newPipeline wires a classification pipeline from config.
func (o *RootOptions) newPipeline(st *store.Store, runID string, onBatch func(pipeline.Summary)) (*pipeline.Pipeline, error) {
	kinds, err := o.kinds(nil)
	if err != nil {
		return nil, err
	}
	hasher, err := fingerprint.New(fingerprint.Options{
		Precision: o.Config.Precision,
		Length:    o.Config.DigestLength,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid fingerprint settings", err)
	}
	extractor, err := spectrum.NewExtractor(spectrum.Options{
		Precision: o.Config.Precision,
		Timeout:   o.Config.EigenTimeout,
		Logger:    o.Logger,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid eigensolver settings", err)
	}
	metrics := pipeline.NewMetrics(o.Registry)
	classifier := pipeline.NewClassifier(extractor, hasher, kinds, metrics)
	return pipeline.New(st, classifier, pipeline.Options{
		Workers:   o.Config.Workers,
		BatchSize: o.Config.BatchSize,
		RunID:     runID,
		Logger:    o.Logger,
		Metrics:   metrics,
		OnBatch:   onBatch,
	}), nil
}

// newIndexer wires an indexer from config.
func (o *RootOptions) newIndexer(st *store.Store, runID string, force, verify bool) *index.Indexer {
	return index.New(st, index.Options{
		Parallelism: o.Config.Index.Parallelism,
		FlushSize:   o.Config.Index.FlushSize,
		Verify:      verify || o.Config.Index.Verify,
		Force:       force,
		RunID:       runID,
		Logger:      o.Logger,
		Metrics:     index.NewMetrics(o.Registry),
	})
}

// commandContext returns a context cancelled on SIGINT/SIGTERM or when the
// command's own context ends.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// serveMetrics exposes the registry over HTTP until ctx ends. It is a
// no-op when no address is configured.
func (o *RootOptions) serveMetrics(ctx context.Context) {
	addr := o.Config.MetricsAddr
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(o.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		o.Logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.Logger.Error("metrics listener failed", "addr", addr, "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
