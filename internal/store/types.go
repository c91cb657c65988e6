package store

import (
	"github.com/roach88/spectra/internal/fingerprint"
	"github.com/roach88/spectra/internal/matrix"
	"github.com/roach88/spectra/internal/spectrum"
)

// KindResult is the computed spectrum and fingerprint of one graph under
// one matrix kind.
type KindResult struct {
	Spectrum spectrum.Spectrum
	Digest   fingerprint.Digest
}

// GraphRecord is one row of the graphs table.
//
// Kinds holds only the kinds that have been computed; a missing key means
// "not computed". An empty spectrum is present with the empty-sentinel
// digest.
type GraphRecord struct {
	ID       int64
	Encoding string
	N        int
	M        int
	Kinds    map[matrix.Kind]KindResult
	Metadata Metadata
}

// Result returns the stored result for kind and whether it was computed.
func (r GraphRecord) Result(kind matrix.Kind) (KindResult, bool) {
	kr, ok := r.Kinds[kind]
	return kr, ok
}

// Metadata holds structural properties computed outside this module. Nil
// fields are unknown.
type Metadata struct {
	IsBipartite   *bool `json:"is_bipartite,omitempty" yaml:"is_bipartite,omitempty"`
	IsPlanar      *bool `json:"is_planar,omitempty" yaml:"is_planar,omitempty"`
	IsRegular     *bool `json:"is_regular,omitempty" yaml:"is_regular,omitempty"`
	Diameter      *int  `json:"diameter,omitempty" yaml:"diameter,omitempty"`
	Girth         *int  `json:"girth,omitempty" yaml:"girth,omitempty"`
	Radius        *int  `json:"radius,omitempty" yaml:"radius,omitempty"`
	MinDegree     *int  `json:"min_degree,omitempty" yaml:"min_degree,omitempty"`
	MaxDegree     *int  `json:"max_degree,omitempty" yaml:"max_degree,omitempty"`
	TriangleCount *int  `json:"triangle_count,omitempty" yaml:"triangle_count,omitempty"`
}

// IsZero reports whether no field is known.
func (m Metadata) IsZero() bool {
	return m.IsBipartite == nil && m.IsPlanar == nil && m.IsRegular == nil &&
		m.Diameter == nil && m.Girth == nil && m.Radius == nil &&
		m.MinDegree == nil && m.MaxDegree == nil && m.TriangleCount == nil
}

// Pair is one mate-index row. GraphA < GraphB always.
type Pair struct {
	GraphA int64
	GraphB int64
	Kind   matrix.Kind
}

// NewPair orders two graph ids canonically.
func NewPair(a, b int64, kind matrix.Kind) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{GraphA: a, GraphB: b, Kind: kind}
}

// GranuleEntry is one classified graph within an (n, kind) granule.
type GranuleEntry struct {
	ID     int64
	Digest fingerprint.Digest
}

// GranuleMarker records that a granule's pairs were fully written.
type GranuleMarker struct {
	N          int
	Kind       matrix.Kind
	Classified int
	Pairs      int
	RunID      string
	Completed  string
}

// PendingGraph identifies a graph whose fingerprint for some kind is absent.
type PendingGraph struct {
	ID       int64
	Encoding string
}

// Failure is a classification_failures row.
type Failure struct {
	GraphID  int64
	Encoding string
	Kind     matrix.Kind
	Message  string
	Attempts int
	RunID    string
	Updated  string
}

// Mate is a graph sharing a fingerprint with the queried graph.
type Mate struct {
	ID       int64
	Encoding string
	N        int
	M        int
}

// Filter selects graphs for ScanGraphs. Zero fields do not constrain.
type Filter struct {
	N        int
	MinEdges int
	MaxEdges int

	Bipartite *bool
	Planar    *bool
	Regular   *bool
	MinGirth  int

	// Computed restricts results to graphs with a fingerprint for this kind.
	Computed matrix.Kind

	// AfterID pages through results ordered by id.
	AfterID int64
	Limit   int
}

// Stats summarizes store contents.
type Stats struct {
	Graphs   int                 `json:"graphs"`
	ByOrder  map[int]int         `json:"by_order"`
	Pairs    map[matrix.Kind]int `json:"pairs"`
	Pending  map[matrix.Kind]int `json:"pending"`
	Failures int                 `json:"failures"`
	Granules int                 `json:"granules"`
}
