package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/spectra/internal/fingerprint"
	"github.com/roach88/spectra/internal/graph"
	"github.com/roach88/spectra/internal/matrix"
	"github.com/roach88/spectra/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Spectra bool
}

// GraphView is a stored graph as printed by show and scan.
type GraphView struct {
	ID           int64          `json:"id"`
	Graph6       string         `json:"graph6"`
	N            int            `json:"n"`
	M            int            `json:"m"`
	Fingerprints []KindView     `json:"fingerprints,omitempty"`
	Metadata     store.Metadata `json:"metadata"`
}

// KindView is one kind's stored result.
type KindView struct {
	Kind     matrix.Kind        `json:"kind"`
	Computed bool               `json:"computed"`
	Digest   fingerprint.Digest `json:"digest,omitempty"`
	Spectrum string             `json:"spectrum,omitempty"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <graph6>",
		Short: "Show a stored graph's fingerprints",
		Long: `Print the stored fingerprints and metadata of one graph. Kinds whose
fingerprint is absent are listed as not computed.

Examples:
  spectra show --db graphs.db 'D?{'
  spectra show --db graphs.db --spectra --format json 'D?{'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Spectra, "spectra", false, "include the rounded eigenvalues")

	return cmd
}

func runShow(opts *ShowOptions, encoding string, cmd *cobra.Command) error {
	enc, err := canonicalEncoding(encoding)
	if err != nil {
		return err
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	formatter := opts.formatter(cmd)
	rec, err := st.ReadGraph(cmd.Context(), enc)
	if err != nil {
		return notFoundOr(formatter, err, "failed to read graph")
	}

	view := newGraphView(rec, matrix.AllKinds, opts.Spectra, opts.Config.Precision)
	return formatter.Success(view, func(w io.Writer, p *message.Printer) {
		printGraphView(w, p, view)
	})
}

// canonicalEncoding validates a graph6 argument and strips any header.
func canonicalEncoding(arg string) (string, error) {
	g, err := graph.Parse(arg)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "invalid graph6 argument", err)
	}
	return g.Encoding(), nil
}

// notFoundOr maps a missing graph to ExitFailure and any other read error
// to ExitCommandError, writing the JSON error envelope in JSON mode.
func notFoundOr(f *OutputFormatter, err error, message string) error {
	if errors.Is(err, store.ErrNotFound) {
		return f.Fail(ErrCodeNotFound, WrapExitError(ExitFailure, "graph not stored", err))
	}
	return f.Fail(ErrCodeGeneric, WrapExitError(ExitCommandError, message, err))
}

func newGraphView(rec store.GraphRecord, kinds []matrix.Kind, spectra bool, precision int) GraphView {
	view := GraphView{
		ID:       rec.ID,
		Graph6:   rec.Encoding,
		N:        rec.N,
		M:        rec.M,
		Metadata: rec.Metadata,
	}
	for _, kind := range kinds {
		kv := KindView{Kind: kind}
		if kr, ok := rec.Result(kind); ok {
			kv.Computed = true
			kv.Digest = kr.Digest
			if spectra {
				kv.Spectrum = kr.Spectrum.Format(precision)
			}
		}
		view.Fingerprints = append(view.Fingerprints, kv)
	}
	return view
}

func printGraphView(w io.Writer, p *message.Printer, v GraphView) {
	p.Fprintf(w, "%s  id=%d  n=%d  m=%d\n", v.Graph6, v.ID, v.N, v.M)
	for _, kv := range v.Fingerprints {
		if !kv.Computed {
			fmt.Fprintf(w, "  %-9s  (not computed)\n", kv.Kind)
			continue
		}
		fmt.Fprintf(w, "  %-9s  %s\n", kv.Kind, kv.Digest)
		if kv.Spectrum != "" {
			fmt.Fprintf(w, "             [%s]\n", kv.Spectrum)
		}
	}
	if md := formatMetadata(v.Metadata); md != "" {
		fmt.Fprintf(w, "  metadata   %s\n", md)
	}
}

// formatMetadata renders the known metadata fields on one line.
func formatMetadata(m store.Metadata) string {
	var out []byte
	add := func(name string, v any) {
		if len(out) > 0 {
			out = append(out, ' ')
		}
		out = fmt.Appendf(out, "%s=%v", name, v)
	}
	if m.IsBipartite != nil {
		add("bipartite", *m.IsBipartite)
	}
	if m.IsPlanar != nil {
		add("planar", *m.IsPlanar)
	}
	if m.IsRegular != nil {
		add("regular", *m.IsRegular)
	}
	if m.Diameter != nil {
		add("diameter", *m.Diameter)
	}
	if m.Girth != nil {
		add("girth", *m.Girth)
	}
	if m.Radius != nil {
		add("radius", *m.Radius)
	}
	if m.MinDegree != nil {
		add("min_degree", *m.MinDegree)
	}
	if m.MaxDegree != nil {
		add("max_degree", *m.MaxDegree)
	}
	if m.TriangleCount != nil {
		add("triangles", *m.TriangleCount)
	}
	return string(out)
}
