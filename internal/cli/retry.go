package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/spectra/internal/matrix"
	"github.com/roach88/spectra/internal/pipeline"
	"github.com/roach88/spectra/internal/store"
)

// RetryOptions holds flags for the retry command.
type RetryOptions struct {
	*RootOptions
	Limit int
	List  bool
}

// FailureView is one recorded classification failure.
type FailureView struct {
	GraphID  int64       `json:"graph_id"`
	Graph6   string      `json:"graph6"`
	Kind     matrix.Kind `json:"kind"`
	Message  string      `json:"message"`
	Attempts int         `json:"attempts"`
	RunID    string      `json:"run_id"`
	Updated  string      `json:"updated_at"`
}

// NewRetryCommand creates the retry command.
func NewRetryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RetryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Recompute fingerprints that are still absent",
		Long: `Find stored graphs with an absent fingerprint for any configured kind
and compute it again. Fingerprints already present are never overwritten.
With --list, print the recorded failures instead of retrying them.

Examples:
  spectra retry --db graphs.db --limit 1000
  spectra retry --db graphs.db --list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetry(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum graphs per kind (0 = all)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list recorded failures without retrying")

	return cmd
}

func runRetry(opts *RetryOptions, cmd *cobra.Command) error {
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	formatter := opts.formatter(cmd)
	if opts.List {
		return listFailures(formatter, st, cmd)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	opts.serveMetrics(ctx)

	runID := opts.RunIDs.Generate()
	p, err := opts.newPipeline(st, runID, nil)
	if err != nil {
		return err
	}
	sum, err := p.Retry(ctx, opts.Limit)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, WrapExitError(ExitFailure, "retry failed", err))
	}

	return formatter.SuccessWithRun(runID, sum, func(w io.Writer, p *message.Printer) {
		printRetrySummary(w, p, sum)
	})
}

func printRetrySummary(w io.Writer, p *message.Printer, s pipeline.RetrySummary) {
	p.Fprintf(w, "Retried %d fingerprints: %d filled, %d still failing\n", s.Pending, s.Filled, s.Failed)
}

func listFailures(f *OutputFormatter, st *store.Store, cmd *cobra.Command) error {
	failures, err := st.Failures(cmd.Context(), 0)
	if err != nil {
		return f.Fail(ErrCodeGeneric, WrapExitError(ExitCommandError, "failed to read failures", err))
	}
	views := make([]FailureView, len(failures))
	for i, fl := range failures {
		views[i] = FailureView{
			GraphID:  fl.GraphID,
			Graph6:   fl.Encoding,
			Kind:     fl.Kind,
			Message:  fl.Message,
			Attempts: fl.Attempts,
			RunID:    fl.RunID,
			Updated:  fl.Updated,
		}
	}
	return f.Success(views, func(w io.Writer, p *message.Printer) {
		for _, v := range views {
			fmt.Fprintf(w, "%s  id=%d  %-9s  attempts=%d  %s\n", v.Graph6, v.GraphID, v.Kind, v.Attempts, v.Message)
		}
		p.Fprintf(w, "%d failures\n", len(views))
	})
}
