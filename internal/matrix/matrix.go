// Package matrix turns a graph into one of its operator matrices.
//
// Vertex-indexed kinds (Adjacency and the three Laplacians) are n×n in
// vertex order and symmetric. Edge-indexed kinds (NonBacktracking and
// NonBacktrackingLaplacian) are 2m×2m in graph.DirectedEdges() order and in
// general not symmetric.
//
// A matrix of dimension 0 is valid: a graph with no edges has empty
// edge-indexed operators, and downstream code treats the empty spectrum as a
// real result rather than a failure.
package matrix

import (
	"gonum.org/v1/gonum/mat"
)

// Matrix is a built operator. Exactly one of the gonum views is populated
// when Dim() > 0: Sym() for symmetric kinds, Dense() otherwise.
type Matrix struct {
	kind  Kind
	dim   int
	sym   *mat.SymDense
	dense *mat.Dense
}

// Kind returns the operator kind.
func (m Matrix) Kind() Kind { return m.kind }

// Dim returns the side length. Zero for empty operators.
func (m Matrix) Dim() int { return m.dim }

// Symmetric reports whether the matrix is held as a gonum SymDense.
func (m Matrix) Symmetric() bool { return m.kind.Symmetric() }

// Empty reports whether the matrix is 0×0.
func (m Matrix) Empty() bool { return m.dim == 0 }

// Sym returns the symmetric view, or nil for non-symmetric or empty matrices.
func (m Matrix) Sym() *mat.SymDense { return m.sym }

// Dense returns the general view, or nil for symmetric or empty matrices.
func (m Matrix) Dense() *mat.Dense { return m.dense }

// At returns element (i, j).
func (m Matrix) At(i, j int) float64 {
	if m.sym != nil {
		return m.sym.At(i, j)
	}
	if m.dense != nil {
		return m.dense.At(i, j)
	}
	panic(mat.ErrIndexOutOfRange)
}

// Gonum returns whichever gonum view is populated, or nil when empty.
func (m Matrix) Gonum() mat.Matrix {
	if m.sym != nil {
		return m.sym
	}
	if m.dense != nil {
		return m.dense
	}
	return nil
}
