// Package graph provides the immutable simple-graph model used by the
// fingerprint engine, together with its canonical graph6 encoding.
//
// A Graph is identified by its encoding: the vertex count n followed by the
// upper-triangular adjacency bits packed six to a byte. Two graphs with the
// same encoding are the same graph; the engine never re-checks isomorphism,
// the upstream source is trusted to emit pairwise non-isomorphic graphs.
//
// Basis orders:
//   - vertex-indexed operators use vertex order 0..n-1
//   - edge-indexed operators use DirectedEdges(), sorted lexicographically
//     by (From, To)
//
// This package imports nothing internal.
package graph
