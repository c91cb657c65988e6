package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/spectra/internal/source"
	"github.com/roach88/spectra/internal/store"
)

// metadataLine is one JSONL record: a graph6 key plus any metadata fields.
type metadataLine struct {
	Graph6 string `json:"graph6"`
	store.Metadata
}

// MetadataResult totals one metadata import.
type MetadataResult struct {
	Lines     int `json:"lines"`
	Updated   int `json:"updated"`
	Unknown   int `json:"unknown"`   // graph not stored
	Malformed int `json:"malformed"` // line did not decode
}

// NewMetadataCommand creates the metadata command.
func NewMetadataCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metadata [file|-]",
		Short: "Import structural metadata from JSON lines",
		Long: `Merge externally computed structural properties into stored graphs.

Each input line is a JSON object with a "graph6" key and any of:
is_bipartite, is_planar, is_regular, diameter, girth, radius, min_degree,
max_degree, triangle_count. Fields absent from a line keep their stored
value. Lines naming graphs that are not stored are counted and skipped.

Example:
  echo '{"graph6":"D?{","is_planar":true,"girth":0}' | spectra metadata --db graphs.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runMetadata(rootOpts, path, cmd)
		},
	}
	return cmd
}

func runMetadata(opts *RootOptions, path string, cmd *cobra.Command) error {
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

	var result MetadataResult
	src := source.NewReader(in)
	for {
		item, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read input", err)
		}
		result.Lines++

		line, err := decodeMetadataLine(item.Encoding)
		if err != nil {
			result.Malformed++
			opts.Logger.Warn("skipping malformed metadata line", "line", item.Line, "error", err)
			continue
		}
		enc, err := canonicalEncoding(line.Graph6)
		if err != nil {
			result.Malformed++
			opts.Logger.Warn("skipping metadata for invalid graph6", "line", item.Line, "graph6", line.Graph6)
			continue
		}

		err = st.UpsertMetadata(ctx, enc, line.Metadata)
		if errors.Is(err, store.ErrNotFound) {
			result.Unknown++
			opts.Logger.Debug("metadata for unknown graph", "line", item.Line, "graph6", enc)
			continue
		}
		if err != nil {
			return WrapExitError(ExitFailure, "failed to store metadata", err)
		}
		result.Updated++
	}

	return opts.formatter(cmd).Success(result, func(w io.Writer, p *message.Printer) {
		p.Fprintf(w, "Read %d lines: %d graphs updated, %d not stored, %d malformed\n",
			result.Lines, result.Updated, result.Unknown, result.Malformed)
	})
}

func decodeMetadataLine(text string) (metadataLine, error) {
	var line metadataLine
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&line); err != nil {
		return metadataLine{}, err
	}
	if line.Graph6 == "" {
		return metadataLine{}, errors.New("missing graph6 key")
	}
	return line, nil
}
