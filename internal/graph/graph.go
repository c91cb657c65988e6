package graph

import (
	"fmt"
	"sort"
)

// Edge is an undirected edge with U < V.
type Edge struct {
	U, V int
}

// Arc is a directed edge (From → To). Each undirected edge {u, v}
// contributes the two arcs (u, v) and (v, u).
type Arc struct {
	From, To int
}

// Graph is an immutable simple undirected graph on vertices 0..n-1.
//
// Construct with New or Parse. The zero value is the graph with no vertices.
type Graph struct {
	n     int
	edges []Edge  // sorted by (U, V)
	adj   [][]int // sorted neighbor lists
}

// New builds a graph on n vertices from an edge list.
// Edge endpoints may be given in either order; they are normalized to U < V.
// Self loops, duplicate edges and out-of-range endpoints are rejected.
func New(n int, edges []Edge) (*Graph, error) {
	if n < 0 {
		return nil, &MalformedError{Message: fmt.Sprintf("negative vertex count %d", n)}
	}

	norm := make([]Edge, 0, len(edges))
	for _, e := range edges {
		u, v := e.U, e.V
		if u > v {
			u, v = v, u
		}
		if u < 0 || v >= n {
			return nil, &MalformedError{Message: fmt.Sprintf("edge (%d,%d) out of range for n=%d", e.U, e.V, n)}
		}
		if u == v {
			return nil, &MalformedError{Message: fmt.Sprintf("self loop at vertex %d", u)}
		}
		norm = append(norm, Edge{U: u, V: v})
	}

	sort.Slice(norm, func(i, j int) bool {
		if norm[i].U != norm[j].U {
			return norm[i].U < norm[j].U
		}
		return norm[i].V < norm[j].V
	})
	for i := 1; i < len(norm); i++ {
		if norm[i] == norm[i-1] {
			return nil, &MalformedError{Message: fmt.Sprintf("duplicate edge (%d,%d)", norm[i].U, norm[i].V)}
		}
	}

	adj := make([][]int, n)
	for _, e := range norm {
		adj[e.U] = append(adj[e.U], e.V)
		adj[e.V] = append(adj[e.V], e.U)
	}
	for _, nb := range adj {
		sort.Ints(nb)
	}

	return &Graph{n: n, edges: norm, adj: adj}, nil
}

// MustNew is like New but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNew(n int, edges []Edge) *Graph {
	g, err := New(n, edges)
	if err != nil {
		panic(err)
	}
	return g
}

// Order returns the vertex count n.
func (g *Graph) Order() int { return g.n }

// Size returns the undirected edge count m.
func (g *Graph) Size() int { return len(g.edges) }

// Edges returns a copy of the edge list sorted by (U, V).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Degree returns the number of neighbors of v.
func (g *Graph) Degree(v int) int { return len(g.adj[v]) }

// Degrees returns the degree sequence in vertex order.
func (g *Graph) Degrees() []int {
	out := make([]int, g.n)
	for v := range g.adj {
		out[v] = len(g.adj[v])
	}
	return out
}

// Neighbors returns the sorted neighbors of v. The slice must not be modified.
func (g *Graph) Neighbors(v int) []int { return g.adj[v] }

// HasEdge reports whether {u, v} is an edge.
func (g *Graph) HasEdge(u, v int) bool {
	if u < 0 || v < 0 || u >= g.n || v >= g.n {
		return false
	}
	nb := g.adj[u]
	i := sort.SearchInts(nb, v)
	return i < len(nb) && nb[i] == v
}

// DirectedEdges returns the 2m arcs sorted lexicographically by (From, To).
// This is the basis order of the edge-indexed operators.
func (g *Graph) DirectedEdges() []Arc {
	arcs := make([]Arc, 0, 2*len(g.edges))
	// Walking vertices in order over sorted neighbor lists yields
	// lexicographic order directly.
	for u := 0; u < g.n; u++ {
		for _, v := range g.adj[u] {
			arcs = append(arcs, Arc{From: u, To: v})
		}
	}
	return arcs
}

// String returns the graph6 encoding.
func (g *Graph) String() string { return g.Encoding() }
