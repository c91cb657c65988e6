package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/spectra/internal/fingerprint"
	"github.com/roach88/spectra/internal/matrix"
)

// ReadGraph retrieves a single graph by its graph6 encoding.
// Returns ErrNotFound if no such graph is stored.
func (s *Store) ReadGraph(ctx context.Context, encoding string) (GraphRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+graphSelectColumns+" FROM graphs WHERE graph6 = ?", encoding)
	rec, err := scanGraph(row)
	if errors.Is(err, sql.ErrNoRows) {
		return GraphRecord{}, fmt.Errorf("read graph %s: %w", encoding, ErrNotFound)
	}
	if err != nil {
		return GraphRecord{}, fmt.Errorf("read graph %s: %w", encoding, err)
	}
	return rec, nil
}

// ReadGraphByID retrieves a single graph by row id.
// Returns ErrNotFound if no such graph is stored.
func (s *Store) ReadGraphByID(ctx context.Context, id int64) (GraphRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+graphSelectColumns+" FROM graphs WHERE id = ?", id)
	rec, err := scanGraph(row)
	if errors.Is(err, sql.ErrNoRows) {
		return GraphRecord{}, fmt.Errorf("read graph id %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return GraphRecord{}, fmt.Errorf("read graph id %d: %w", id, err)
	}
	return rec, nil
}

// ScanGraphs returns graphs matching f ordered by id.
//
// Returns empty slice (not nil) if nothing matches.
func (s *Store) ScanGraphs(ctx context.Context, f Filter) ([]GraphRecord, error) {
	var where []string
	var args []any

	if f.N > 0 {
		where = append(where, "n = ?")
		args = append(args, f.N)
	}
	if f.MinEdges > 0 {
		where = append(where, "m >= ?")
		args = append(args, f.MinEdges)
	}
	if f.MaxEdges > 0 {
		where = append(where, "m <= ?")
		args = append(args, f.MaxEdges)
	}
	if f.Bipartite != nil {
		where = append(where, "is_bipartite = ?")
		args = append(args, *f.Bipartite)
	}
	if f.Planar != nil {
		where = append(where, "is_planar = ?")
		args = append(args, *f.Planar)
	}
	if f.Regular != nil {
		where = append(where, "is_regular = ?")
		args = append(args, *f.Regular)
	}
	if f.MinGirth > 0 {
		where = append(where, "girth >= ?")
		args = append(args, f.MinGirth)
	}
	if f.Computed != 0 {
		if err := checkKind(f.Computed); err != nil {
			return nil, fmt.Errorf("scan graphs: %w", err)
		}
		where = append(where, hashColumn(f.Computed)+" IS NOT NULL")
	}
	if f.AfterID > 0 {
		where = append(where, "id > ?")
		args = append(args, f.AfterID)
	}

	query := "SELECT " + graphSelectColumns + " FROM graphs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	return s.queryGraphs(ctx, "scan graphs", query, args...)
}

// FindByFingerprint returns the graphs whose fingerprint for kind equals
// digest, ordered by id. n <= 0 searches every order.
func (s *Store) FindByFingerprint(ctx context.Context, kind matrix.Kind, digest fingerprint.Digest, n int) ([]GraphRecord, error) {
	if err := checkKind(kind); err != nil {
		return nil, fmt.Errorf("find by fingerprint: %w", err)
	}
	query := "SELECT " + graphSelectColumns + " FROM graphs WHERE " + hashColumn(kind) + " = ?"
	args := []any{string(digest)}
	if n > 0 {
		query += " AND n = ?"
		args = append(args, n)
	}
	query += " ORDER BY id ASC"
	return s.queryGraphs(ctx, "find by fingerprint", query, args...)
}

func (s *Store) queryGraphs(ctx context.Context, op, query string, args ...any) ([]GraphRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	records := []GraphRecord{}
	for rows.Next() {
		rec, err := scanGraph(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return records, nil
}

// PendingGraphs returns graphs with no fingerprint for kind, ordered by id.
// n <= 0 matches every order; limit <= 0 means no limit.
func (s *Store) PendingGraphs(ctx context.Context, kind matrix.Kind, n, limit int) ([]PendingGraph, error) {
	if err := checkKind(kind); err != nil {
		return nil, fmt.Errorf("pending graphs: %w", err)
	}
	query := "SELECT id, graph6 FROM graphs WHERE " + hashColumn(kind) + " IS NULL"
	var args []any
	if n > 0 {
		query += " AND n = ?"
		args = append(args, n)
	}
	query += " ORDER BY id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pending graphs: %w", err)
	}
	defer rows.Close()

	pending := []PendingGraph{}
	for rows.Next() {
		var p PendingGraph
		if err := rows.Scan(&p.ID, &p.Encoding); err != nil {
			return nil, fmt.Errorf("pending graphs: scan: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pending graphs: iterate: %w", err)
	}
	return pending, nil
}

// Failures lists recorded classification failures, ordered by graph id.
// A zero kind lists every kind.
func (s *Store) Failures(ctx context.Context, kind matrix.Kind) ([]Failure, error) {
	query := `
		SELECT f.graph_id, g.graph6, f.matrix_kind, f.message, f.attempts, f.run_id, f.updated_at
		FROM classification_failures f
		JOIN graphs g ON g.id = f.graph_id`
	var args []any
	if kind != 0 {
		query += " WHERE f.matrix_kind = ?"
		args = append(args, kind.String())
	}
	query += " ORDER BY f.graph_id ASC, f.matrix_kind ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failures: %w", err)
	}
	defer rows.Close()

	failures := []Failure{}
	for rows.Next() {
		var f Failure
		var kindName string
		if err := rows.Scan(&f.GraphID, &f.Encoding, &kindName, &f.Message, &f.Attempts, &f.RunID, &f.Updated); err != nil {
			return nil, fmt.Errorf("failures: scan: %w", err)
		}
		if f.Kind, err = matrix.ParseKind(kindName); err != nil {
			return nil, fmt.Errorf("failures: %w", err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failures: iterate: %w", err)
	}
	return failures, nil
}

// MatesOf returns the graphs paired with encoding under kind, ordered by id.
// Returns ErrNotFound if the graph itself is not stored.
func (s *Store) MatesOf(ctx context.Context, encoding string, kind matrix.Kind) ([]Mate, error) {
	if err := checkKind(kind); err != nil {
		return nil, fmt.Errorf("mates of %s: %w", encoding, err)
	}
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM graphs WHERE graph6 = ?", encoding).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mates of %s: %w", encoding, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("mates of %s: %w", encoding, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.graph6, g.n, g.m
		FROM cospectral_pairs p
		JOIN graphs g ON g.id = CASE WHEN p.graph1_id = ? THEN p.graph2_id ELSE p.graph1_id END
		WHERE p.matrix_kind = ? AND (p.graph1_id = ? OR p.graph2_id = ?)
		ORDER BY g.id ASC
	`, id, kind.String(), id, id)
	if err != nil {
		return nil, fmt.Errorf("mates of %s: %w", encoding, err)
	}
	defer rows.Close()

	mates := []Mate{}
	for rows.Next() {
		var m Mate
		if err := rows.Scan(&m.ID, &m.Encoding, &m.N, &m.M); err != nil {
			return nil, fmt.Errorf("mates of %s: scan: %w", encoding, err)
		}
		mates = append(mates, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mates of %s: iterate: %w", encoding, err)
	}
	return mates, nil
}

// Pairs lists mate-index rows for kind in (graph1_id, graph2_id) order.
func (s *Store) Pairs(ctx context.Context, kind matrix.Kind) ([]Pair, error) {
	if err := checkKind(kind); err != nil {
		return nil, fmt.Errorf("pairs: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT graph1_id, graph2_id FROM cospectral_pairs
		WHERE matrix_kind = ?
		ORDER BY graph1_id ASC, graph2_id ASC
	`, kind.String())
	if err != nil {
		return nil, fmt.Errorf("pairs: %w", err)
	}
	defer rows.Close()

	pairs := []Pair{}
	for rows.Next() {
		p := Pair{Kind: kind}
		if err := rows.Scan(&p.GraphA, &p.GraphB); err != nil {
			return nil, fmt.Errorf("pairs: scan: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pairs: iterate: %w", err)
	}
	return pairs, nil
}

// CountPairs returns the number of mate pairs for kind, or for every kind
// when kind is zero.
func (s *Store) CountPairs(ctx context.Context, kind matrix.Kind) (int, error) {
	query := "SELECT COUNT(*) FROM cospectral_pairs"
	var args []any
	if kind != 0 {
		query += " WHERE matrix_kind = ?"
		args = append(args, kind.String())
	}
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pairs: %w", err)
	}
	return count, nil
}

// CountClassified returns how many graphs of order n have a fingerprint
// for kind.
func (s *Store) CountClassified(ctx context.Context, n int, kind matrix.Kind) (int, error) {
	return countClassified(ctx, s.db, n, kind)
}

func countClassified(ctx context.Context, q querier, n int, kind matrix.Kind) (int, error) {
	if err := checkKind(kind); err != nil {
		return 0, fmt.Errorf("count classified: %w", err)
	}
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM graphs WHERE n = ? AND "+hashColumn(kind)+" IS NOT NULL", n).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count classified n=%d kind=%s: %w", n, kind, err)
	}
	return count, nil
}

// GranuleStatus returns the completion marker for (n, kind). ok is false
// if the granule was never completed.
func (s *Store) GranuleStatus(ctx context.Context, n int, kind matrix.Kind) (marker GranuleMarker, ok bool, err error) {
	if err := checkKind(kind); err != nil {
		return GranuleMarker{}, false, fmt.Errorf("granule status: %w", err)
	}
	marker = GranuleMarker{N: n, Kind: kind}
	err = s.db.QueryRowContext(ctx, `
		SELECT classified, pairs, run_id, completed_at
		FROM granules WHERE n = ? AND matrix_kind = ?
	`, n, kind.String()).Scan(&marker.Classified, &marker.Pairs, &marker.RunID, &marker.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return GranuleMarker{}, false, nil
	}
	if err != nil {
		return GranuleMarker{}, false, fmt.Errorf("granule status n=%d kind=%s: %w", n, kind, err)
	}
	return marker, true, nil
}

// VertexCounts returns the distinct graph orders present, ascending.
func (s *Store) VertexCounts(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT n FROM graphs ORDER BY n ASC")
	if err != nil {
		return nil, fmt.Errorf("vertex counts: %w", err)
	}
	defer rows.Close()

	counts := []int{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("vertex counts: scan: %w", err)
		}
		counts = append(counts, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vertex counts: iterate: %w", err)
	}
	return counts, nil
}

// Stats summarizes graph, pair, pending and failure counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{
		ByOrder: make(map[int]int),
		Pairs:   make(map[matrix.Kind]int),
		Pending: make(map[matrix.Kind]int),
	}

	rows, err := s.db.QueryContext(ctx, "SELECT n, COUNT(*) FROM graphs GROUP BY n ORDER BY n")
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	for rows.Next() {
		var n, c int
		if err := rows.Scan(&n, &c); err != nil {
			rows.Close()
			return Stats{}, fmt.Errorf("stats: scan: %w", err)
		}
		st.ByOrder[n] = c
		st.Graphs += c
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return Stats{}, fmt.Errorf("stats: iterate: %w", err)
	}
	rows.Close()

	for _, k := range matrix.AllKinds {
		c, err := s.CountPairs(ctx, k)
		if err != nil {
			return Stats{}, fmt.Errorf("stats: %w", err)
		}
		st.Pairs[k] = c

		var pending int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM graphs WHERE "+hashColumn(k)+" IS NULL").Scan(&pending); err != nil {
			return Stats{}, fmt.Errorf("stats: pending %s: %w", k, err)
		}
		st.Pending[k] = pending
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM classification_failures").Scan(&st.Failures); err != nil {
		return Stats{}, fmt.Errorf("stats: failures: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM granules").Scan(&st.Granules); err != nil {
		return Stats{}, fmt.Errorf("stats: granules: %w", err)
	}
	return st, nil
}
