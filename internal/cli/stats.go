package cli

import (
	"io"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/spectra/internal/matrix"
	"github.com/roach88/spectra/internal/store"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize database contents",
		Long: `Print graph counts per vertex count, cospectral pair counts and
absent fingerprints per matrix kind, failure rows and indexed granules.

Example:
  spectra stats --db graphs.db --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, cmd)
		},
	}
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	stats, err := st.Stats(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read stats", err)
	}

	return opts.formatter(cmd).Success(stats, func(w io.Writer, p *message.Printer) {
		printStats(w, p, stats)
	})
}

func printStats(w io.Writer, p *message.Printer, s store.Stats) {
	p.Fprintf(w, "Graphs: %d\n", s.Graphs)
	orders := make([]int, 0, len(s.ByOrder))
	for n := range s.ByOrder {
		orders = append(orders, n)
	}
	slices.Sort(orders)
	for _, n := range orders {
		p.Fprintf(w, "  n=%-3d %12d\n", n, s.ByOrder[n])
	}

	io.WriteString(w, "Kind       pairs        pending\n")
	for _, k := range matrix.AllKinds {
		p.Fprintf(w, "  %-9s %-12d %d\n", k, s.Pairs[k], s.Pending[k])
	}
	p.Fprintf(w, "Failures: %d\n", s.Failures)
	p.Fprintf(w, "Indexed granules: %d\n", s.Granules)
}
