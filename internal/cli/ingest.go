package cli

import (
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/spectra/internal/index"
	"github.com/roach88/spectra/internal/pipeline"
	"github.com/roach88/spectra/internal/source"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Workers   int
	BatchSize int
	Index     bool
}

// IngestResult is the ingest command's output.
type IngestResult struct {
	Ingest pipeline.Summary `json:"ingest"`
	Index  *index.Summary   `json:"index,omitempty"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest [file|-]",
		Short: "Classify graph6 lines and store their fingerprints",
		Long: `Read graph6 encodings, one per line, compute every configured
fingerprint and store the results. Reads standard input when the file is
omitted or "-".

Malformed lines and graphs whose eigensolver fails are logged and skipped;
absent fingerprints can be recomputed later with "spectra retry". Graphs
already stored are left untouched, so re-running an ingest is safe.

Examples:
  geng 8 | spectra ingest --db graphs.db
  spectra ingest --db graphs.db --index graphs9.g6`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runIngest(opts, path, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "concurrent classifications (overrides config)")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "graphs per store transaction (overrides config)")
	cmd.Flags().BoolVar(&opts.Index, "index", false, "index cospectral mates after ingesting")

	return cmd
}

func runIngest(opts *IngestOptions, path string, cmd *cobra.Command) error {
	if opts.Workers > 0 {
		opts.Config.Workers = opts.Workers
	}
	if opts.BatchSize > 0 {
		opts.Config.BatchSize = opts.BatchSize
	}

	in, err := source.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open input", err)
	}
	defer in.Close()

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	ctx, cancel := commandContext(cmd)
	defer cancel()
	opts.serveMetrics(ctx)

	runID := opts.RunIDs.Generate()
	log := opts.Logger.With("run_id", runID)
	p, err := opts.newPipeline(st, runID, func(s pipeline.Summary) {
		log.Info("progress", "read", s.Read, "inserted", s.Inserted, "batches", s.Batches)
	})
	if err != nil {
		return err
	}

	formatter := opts.formatter(cmd)
	formatter.VerboseLog("Reading graphs from %s (run %s)", inputName(path), runID)

	var result IngestResult
	result.Ingest, err = p.Run(ctx, source.NewReader(in))
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, WrapExitError(ExitFailure, "ingest failed", err))
	}

	if opts.Index {
		kinds, err := opts.kinds(nil)
		if err != nil {
			return err
		}
		sum, err := opts.newIndexer(st, runID, false, false).IndexAll(ctx, kinds)
		result.Index = &sum
		if err != nil {
			return indexExitError(formatter, err)
		}
	}

	return formatter.SuccessWithRun(runID, result, func(w io.Writer, pr *message.Printer) {
		printIngestSummary(w, pr, result.Ingest)
		if result.Index != nil {
			printIndexSummary(w, pr, *result.Index)
		}
	})
}

func inputName(path string) string {
	if path == "-" {
		return "standard input"
	}
	return path
}

func printIngestSummary(w io.Writer, p *message.Printer, s pipeline.Summary) {
	p.Fprintf(w, "Read %d graphs: %d inserted, %d already stored, %d malformed\n",
		s.Read, s.Inserted, s.Duplicates, s.Malformed)
	if s.KindFailures > 0 {
		p.Fprintf(w, "%d fingerprints could not be computed (see \"spectra retry\")\n", s.KindFailures)
	}
	if s.Ambiguous > 0 {
		p.Fprintf(w, "%d eigenvalue gaps fell below the rounding precision\n", s.Ambiguous)
	}
}
