package cli

import (
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/spectra/internal/matrix"
	"github.com/roach88/spectra/internal/store"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	*RootOptions
	N         int
	MinEdges  int
	MaxEdges  int
	Bipartite bool
	Planar    bool
	Regular   bool
	MinGirth  int
	Computed  string
	AfterID   int64
	Limit     int
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List stored graphs matching structural filters",
		Long: `List stored graphs filtered by order, size and imported metadata,
ordered by id. Boolean filters apply only when given, so --bipartite=false
selects graphs known to be non-bipartite.

Examples:
  spectra scan --db graphs.db --n 8 --min-edges 10 --limit 20
  spectra scan --db graphs.db --n 9 --planar --computed nb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.N, "n", 0, "vertex count")
	cmd.Flags().IntVar(&opts.MinEdges, "min-edges", 0, "minimum edge count")
	cmd.Flags().IntVar(&opts.MaxEdges, "max-edges", 0, "maximum edge count")
	cmd.Flags().BoolVar(&opts.Bipartite, "bipartite", false, "filter on bipartiteness")
	cmd.Flags().BoolVar(&opts.Planar, "planar", false, "filter on planarity")
	cmd.Flags().BoolVar(&opts.Regular, "regular", false, "filter on regularity")
	cmd.Flags().IntVar(&opts.MinGirth, "min-girth", 0, "minimum girth")
	cmd.Flags().StringVar(&opts.Computed, "computed", "", "only graphs with a fingerprint for this kind")
	cmd.Flags().Int64Var(&opts.AfterID, "after", 0, "resume after this graph id")
	cmd.Flags().IntVar(&opts.Limit, "limit", 100, "maximum graphs to list (0 = all)")

	return cmd
}

func runScan(opts *ScanOptions, cmd *cobra.Command) error {
	f := store.Filter{
		N:        opts.N,
		MinEdges: opts.MinEdges,
		MaxEdges: opts.MaxEdges,
		MinGirth: opts.MinGirth,
		AfterID:  opts.AfterID,
		Limit:    opts.Limit,
	}
	flags := cmd.Flags()
	if flags.Changed("bipartite") {
		f.Bipartite = &opts.Bipartite
	}
	if flags.Changed("planar") {
		f.Planar = &opts.Planar
	}
	if flags.Changed("regular") {
		f.Regular = &opts.Regular
	}
	if opts.Computed != "" {
		kind, err := matrix.ParseKind(opts.Computed)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --computed", err)
		}
		f.Computed = kind
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	recs, err := st.ScanGraphs(cmd.Context(), f)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to scan graphs", err)
	}

	views := make([]GraphView, len(recs))
	for i, rec := range recs {
		views[i] = newGraphView(rec, nil, false, opts.Config.Precision)
	}

	return opts.formatter(cmd).Success(views, func(w io.Writer, p *message.Printer) {
		for _, v := range views {
			line := p.Sprintf("%-12s id=%d n=%d m=%d", v.Graph6, v.ID, v.N, v.M)
			if md := formatMetadata(v.Metadata); md != "" {
				line += "  " + md
			}
			io.WriteString(w, line+"\n")
		}
		p.Fprintf(w, "%d graphs\n", len(views))
	})
}
