package testutil

import (
	"testing"

	"github.com/roach88/spectra/internal/graph"
)

// graph6 encodings of small named graphs used across package tests.
const (
	PathP3      = "Bg"  // 0-1-2
	Triangle    = "Bw"  // K3
	SingleEdge  = "A_"  // K2
	PathP4      = "Ch"  // 0-1-2-3
	CycleC4     = "Cl"  // 0-1-2-3-0
	CompleteK4  = "C~"  // K4
	TriangleK1  = "Cw"  // K3 plus an isolated vertex
	CycleC5     = "Dhc" // 0-1-2-3-4-0
	EmptyE5     = "D??" // five isolated vertices
	CycleC6     = "EhEG"
	Petersen    = "IheA@GUAo"
	SaltireStar = "D?{" // K1,4
	SaltireC4K1 = "DEo" // C4 plus an isolated vertex; adjacency-cospectral with K1,4
)

// Graphs lists every named fixture.
var Graphs = map[string]string{
	"P3":       PathP3,
	"K3":       Triangle,
	"K2":       SingleEdge,
	"P4":       PathP4,
	"C4":       CycleC4,
	"K4":       CompleteK4,
	"K3+K1":    TriangleK1,
	"C5":       CycleC5,
	"E5":       EmptyE5,
	"C6":       CycleC6,
	"Petersen": Petersen,
	"K1,4":     SaltireStar,
	"C4+K1":    SaltireC4K1,
}

// MustGraph parses a graph6 fixture, failing the test on error.
func MustGraph(t testing.TB, encoding string) *graph.Graph {
	t.Helper()
	g, err := graph.Parse(encoding)
	if err != nil {
		t.Fatalf("parse fixture %q: %v", encoding, err)
	}
	return g
}

// Cycle returns the cycle graph C_n (n >= 3).
func Cycle(n int) *graph.Graph {
	edges := make([]graph.Edge, 0, n)
	for i := 0; i < n; i++ {
		edges = append(edges, graph.Edge{U: i, V: (i + 1) % n})
	}
	return graph.MustNew(n, edges)
}

// Complete returns K_n.
func Complete(n int) *graph.Graph {
	var edges []graph.Edge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, graph.Edge{U: i, V: j})
		}
	}
	return graph.MustNew(n, edges)
}

// Path returns the path graph P_n.
func Path(n int) *graph.Graph {
	var edges []graph.Edge
	for i := 0; i+1 < n; i++ {
		edges = append(edges, graph.Edge{U: i, V: i + 1})
	}
	return graph.MustNew(n, edges)
}

// AllGraphs returns every labelled graph on n vertices (2^(n(n-1)/2) of
// them), in bitmask order. Keep n <= 5.
func AllGraphs(n int) []*graph.Graph {
	var slots []graph.Edge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			slots = append(slots, graph.Edge{U: i, V: j})
		}
	}
	out := make([]*graph.Graph, 0, 1<<len(slots))
	for mask := 0; mask < 1<<len(slots); mask++ {
		var edges []graph.Edge
		for k, e := range slots {
			if mask&(1<<k) != 0 {
				edges = append(edges, e)
			}
		}
		out = append(out, graph.MustNew(n, edges))
	}
	return out
}

// Relabel returns g with vertex v renamed to perm[v]. perm must be a
// permutation of 0..n-1.
func Relabel(g *graph.Graph, perm []int) *graph.Graph {
	edges := make([]graph.Edge, 0, g.Size())
	for _, e := range g.Edges() {
		edges = append(edges, graph.Edge{U: perm[e.U], V: perm[e.V]})
	}
	return graph.MustNew(g.Order(), edges)
}
