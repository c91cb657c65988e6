package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/spectra/internal/index"
)

// IndexOptions holds flags for the index command.
type IndexOptions struct {
	*RootOptions
	Kinds  []string
	N      int
	Force  bool
	Verify bool
}

// IndexResult is the index command's output. Granules is set only when a
// single vertex count was requested.
type IndexResult struct {
	Summary  index.Summary         `json:"summary"`
	Granules []index.GranuleResult `json:"granules,omitempty"`
}

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IndexOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Record cospectral mates for stored fingerprints",
		Long: `Group stored graphs by (vertex count, matrix kind, fingerprint) and
record every pair of graphs that share a fingerprint.

Granules already indexed for the current number of classified graphs are
skipped unless --force is given. With --verify, every group's stored
spectra are compared before its pairs are written; a granule that fails
the check is rolled back and the command exits with status 1.

Examples:
  spectra index --db graphs.db
  spectra index --db graphs.db --kind adj --kind nb --n 9 --verify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(opts, cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Kinds, "kind", "k", nil, "matrix kinds to index (default: configured kinds)")
	cmd.Flags().IntVar(&opts.N, "n", 0, "only index graphs with this many vertices")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "reprocess granules already marked complete")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "compare stored spectra before writing pairs")

	return cmd
}

func runIndex(opts *IndexOptions, cmd *cobra.Command) error {
	kinds, err := opts.kinds(opts.Kinds)
	if err != nil {
		return err
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	ctx, cancel := commandContext(cmd)
	defer cancel()
	opts.serveMetrics(ctx)

	formatter := opts.formatter(cmd)
	runID := opts.RunIDs.Generate()
	ix := opts.newIndexer(st, runID, opts.Force, opts.Verify)

	var result IndexResult
	if opts.N > 0 {
		var errs []error
		for _, kind := range kinds {
			res, err := ix.IndexGranule(ctx, opts.N, kind)
			if err != nil {
				if !index.IsIndexInconsistency(err) {
					return indexExitError(formatter, err)
				}
				result.Summary.Inconsistent++
				errs = append(errs, err)
				continue
			}
			result.Granules = append(result.Granules, res)
			result.Summary.Granules++
			if res.Skipped {
				result.Summary.Skipped++
			}
			result.Summary.Pairs += res.Pairs
			result.Summary.Inserted += res.Inserted
		}
		err = errors.Join(errs...)
	} else {
		result.Summary, err = ix.IndexAll(ctx, kinds)
	}
	if err != nil {
		return indexExitError(formatter, err)
	}

	return formatter.SuccessWithRun(runID, result, func(w io.Writer, p *message.Printer) {
		for _, g := range result.Granules {
			if g.Skipped {
				p.Fprintf(w, "n=%d %s: up to date (%d graphs)\n", g.N, g.Kind, g.Classified)
				continue
			}
			p.Fprintf(w, "n=%d %s: %d graphs, %d groups, %d pairs (%d new)\n",
				g.N, g.Kind, g.Classified, g.Runs, g.Pairs, g.Inserted)
		}
		printIndexSummary(w, p, result.Summary)
	})
}

func printIndexSummary(w io.Writer, p *message.Printer, s index.Summary) {
	p.Fprintf(w, "Indexed %d granules (%d up to date): %d cospectral pairs, %d new\n",
		s.Granules, s.Skipped, s.Pairs, s.Inserted)
}

// indexExitError maps indexer errors to exit codes: inconsistencies are a
// finding (1), anything else a command error (2).
func indexExitError(f *OutputFormatter, err error) error {
	if index.IsIndexInconsistency(err) {
		return f.Fail(ErrCodeInconsistent, WrapExitError(ExitFailure, "index inconsistency", err))
	}
	return f.Fail(ErrCodeGeneric, WrapExitError(ExitCommandError, "index failed", err))
}
