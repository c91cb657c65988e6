// Package store provides SQLite-backed durable storage for graph
// fingerprints and the cospectral mate index.
//
// # Tables
//
//   - graphs: one row per graph6 encoding, with per-kind eigenvalues and
//     fingerprint (NULL until computed) plus external structural metadata
//   - cospectral_pairs: append-only mate index, (graph1_id < graph2_id, kind)
//   - granules: completion marker per (n, kind), written with the pairs
//   - classification_failures: graphs whose fingerprint could not be computed
//
// # Idempotency
//
// Every write is insert-if-absent or fill-if-null. Re-inserting a graph,
// re-writing a pair or retrying a computed fingerprint changes nothing.
//
// # Ordering
//
// Granule streams are ordered by (fingerprint, id) and all list queries by
// id, so results are identical across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The pool holds a single connection. Code running inside WithGranuleTx
// must use only the GranuleTx it was given.
package store
