package cli

import (
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/spectra/internal/matrix"
)

// MatesOptions holds flags for the mates command.
type MatesOptions struct {
	*RootOptions
	Kinds []string
}

// MateView is one cospectral mate.
type MateView struct {
	ID     int64  `json:"id"`
	Graph6 string `json:"graph6"`
	N      int    `json:"n"`
	M      int    `json:"m"`
}

// MatesResult lists a graph's mates per kind.
type MatesResult struct {
	Graph6 string          `json:"graph6"`
	Kinds  []KindMatesView `json:"kinds"`
}

// KindMatesView holds the mates under one kind.
type KindMatesView struct {
	Kind  matrix.Kind `json:"kind"`
	Mates []MateView  `json:"mates"`
}

// NewMatesCommand creates the mates command.
func NewMatesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mates <graph6>",
		Short: "List a graph's cospectral mates",
		Long: `List the graphs recorded as cospectral with the given graph, per
matrix kind. Only indexed granules contribute; run "spectra index" first.

Example:
  spectra mates --db graphs.db --kind adj 'D?{'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMates(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Kinds, "kind", "k", nil, "matrix kinds to list (default: configured kinds)")

	return cmd
}

func runMates(opts *MatesOptions, encoding string, cmd *cobra.Command) error {
	enc, err := canonicalEncoding(encoding)
	if err != nil {
		return err
	}
	kinds, err := opts.kinds(opts.Kinds)
	if err != nil {
		return err
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	formatter := opts.formatter(cmd)
	result := MatesResult{Graph6: enc}
	for _, kind := range kinds {
		mates, err := st.MatesOf(cmd.Context(), enc, kind)
		if err != nil {
			return notFoundOr(formatter, err, "failed to read mates")
		}
		kv := KindMatesView{Kind: kind, Mates: make([]MateView, len(mates))}
		for i, m := range mates {
			kv.Mates[i] = MateView{ID: m.ID, Graph6: m.Encoding, N: m.N, M: m.M}
		}
		result.Kinds = append(result.Kinds, kv)
	}

	return formatter.Success(result, func(w io.Writer, p *message.Printer) {
		for _, kv := range result.Kinds {
			p.Fprintf(w, "%s: %d mates\n", kv.Kind, len(kv.Mates))
			for _, m := range kv.Mates {
				p.Fprintf(w, "  %s  id=%d  m=%d\n", m.Graph6, m.ID, m.M)
			}
		}
	})
}
