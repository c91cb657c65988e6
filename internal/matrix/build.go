package matrix

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/spectra/internal/graph"
)

// Build constructs the operator of the given kind for g.
//
// Build is a pure function of (g, kind): the basis order is fixed by the
// graph (vertex order or lexicographic directed-edge order), so the same
// graph always yields the same matrix.
func Build(g *graph.Graph, kind Kind) (Matrix, error) {
	if g == nil {
		return Matrix{}, &ConstructionError{Kind: kind, Message: "nil graph"}
	}
	if !kind.Valid() {
		return Matrix{}, &ConstructionError{Kind: kind, Encoding: g.Encoding(), Message: "unknown matrix kind"}
	}

	switch kind {
	case Adjacency:
		return buildVertexOperator(g, kind, 0, 1), nil
	case KirchhoffLaplacian:
		return buildVertexOperator(g, kind, 1, -1), nil
	case SignlessLaplacian:
		return buildVertexOperator(g, kind, 1, 1), nil
	case NormalizedLaplacian:
		return buildNormalizedLaplacian(g), nil
	case NonBacktracking:
		return buildNonBacktracking(g, false), nil
	case NonBacktrackingLaplacian:
		return buildNonBacktracking(g, true), nil
	}
	return Matrix{}, &ConstructionError{Kind: kind, Encoding: g.Encoding(), Message: fmt.Sprintf("no builder for %s", kind)}
}

// buildVertexOperator returns degScale·D + adjScale·A.
func buildVertexOperator(g *graph.Graph, kind Kind, degScale, adjScale float64) Matrix {
	n := g.Order()
	if n == 0 {
		return Matrix{kind: kind}
	}
	data := make([]float64, n*n)
	for v := 0; v < n; v++ {
		data[v*n+v] = degScale * float64(g.Degree(v))
	}
	for _, e := range g.Edges() {
		data[e.U*n+e.V] = adjScale
		data[e.V*n+e.U] = adjScale
	}
	return Matrix{kind: kind, dim: n, sym: mat.NewSymDense(n, data)}
}

// buildNormalizedLaplacian returns D^(−1/2)(D − A)D^(−1/2). For a vertex of
// positive degree this equals I − D^(−1/2)AD^(−1/2); a degree-0 vertex gets
// a zero row and column, never a division by zero.
func buildNormalizedLaplacian(g *graph.Graph) Matrix {
	n := g.Order()
	if n == 0 {
		return Matrix{kind: NormalizedLaplacian}
	}
	invSqrt := make([]float64, n)
	for v := 0; v < n; v++ {
		if d := g.Degree(v); d > 0 {
			invSqrt[v] = 1 / math.Sqrt(float64(d))
		}
	}

	data := make([]float64, n*n)
	for v := 0; v < n; v++ {
		if g.Degree(v) > 0 {
			data[v*n+v] = 1
		}
	}
	for _, e := range g.Edges() {
		w := -invSqrt[e.U] * invSqrt[e.V]
		data[e.U*n+e.V] = w
		data[e.V*n+e.U] = w
	}
	return Matrix{kind: NormalizedLaplacian, dim: n, sym: mat.NewSymDense(n, data)}
}

// buildNonBacktracking returns the Hashimoto operator B, or I − D_out⁻¹B
// when laplacian is set. B[e,f] = 1 iff e = (u,v), f = (v,w) and w ≠ u.
// Rows whose arc has out-degree 0 (head of degree ≤ 1) keep a zero
// D_out⁻¹ entry, so the Laplacian row is the identity row.
func buildNonBacktracking(g *graph.Graph, laplacian bool) Matrix {
	kind := NonBacktracking
	if laplacian {
		kind = NonBacktrackingLaplacian
	}
	arcs := g.DirectedEdges()
	size := len(arcs)
	if size == 0 {
		return Matrix{kind: kind}
	}

	// Arcs are grouped by tail vertex in vertex order, heads sorted, so the
	// index of (v, w) is offset[v] + rank of w among v's neighbors.
	offset := make([]int, g.Order()+1)
	for v := 0; v < g.Order(); v++ {
		offset[v+1] = offset[v] + g.Degree(v)
	}
	arcIndex := func(v, w int) int {
		return offset[v] + sort.SearchInts(g.Neighbors(v), w)
	}

	data := make([]float64, size*size)
	for e, arc := range arcs {
		u, v := arc.From, arc.To
		out := g.Degree(v) - 1
		if laplacian {
			data[e*size+e] = 1
		}
		if out == 0 {
			continue
		}
		weight := 1.0
		if laplacian {
			weight = -1 / float64(out)
		}
		for _, w := range g.Neighbors(v) {
			if w == u {
				continue
			}
			data[e*size+arcIndex(v, w)] += weight
		}
	}
	return Matrix{kind: kind, dim: size, dense: mat.NewDense(size, size, data)}
}
