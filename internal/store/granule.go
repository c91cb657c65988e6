package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/spectra/internal/fingerprint"
	"github.com/roach88/spectra/internal/matrix"
)

// GranuleTx is the transaction in which one (n, kind) granule is indexed.
// Pairs and the completion marker commit together or not at all.
type GranuleTx struct {
	tx       *sql.Tx
	n        int
	kind     matrix.Kind
	pageSize int
}

// WithGranuleTx runs fn inside a transaction scoped to granule (n, kind).
// The transaction commits if fn returns nil and rolls back otherwise.
func (s *Store) WithGranuleTx(ctx context.Context, n int, kind matrix.Kind, fn func(*GranuleTx) error) error {
	if err := checkKind(kind); err != nil {
		return fmt.Errorf("granule tx: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("granule tx n=%d kind=%s: begin: %w", n, kind, err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(&GranuleTx{tx: tx, n: n, kind: kind, pageSize: s.pageSize}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("granule tx n=%d kind=%s: commit: %w", n, kind, err)
	}
	return nil
}

// Stream calls fn for every classified graph in the granule in
// (fingerprint, id) order. Rows are read a page at a time and each page is
// closed before fn runs, so fn may write through the same transaction.
func (g *GranuleTx) Stream(ctx context.Context, fn func(GranuleEntry) error) error {
	return streamGranule(ctx, g.tx, g.n, g.kind, g.pageSize, fn)
}

func streamGranule(ctx context.Context, q querier, n int, kind matrix.Kind, pageSize int, fn func(GranuleEntry) error) error {
	col := hashColumn(kind)
	first := fmt.Sprintf(
		"SELECT id, %s FROM graphs WHERE n = ? AND %s IS NOT NULL ORDER BY %s ASC, id ASC LIMIT ?",
		col, col, col)
	next := fmt.Sprintf(
		"SELECT id, %s FROM graphs WHERE n = ? AND %s IS NOT NULL AND (%s, id) > (?, ?) ORDER BY %s ASC, id ASC LIMIT ?",
		col, col, col, col)

	var last *GranuleEntry
	for {
		var rows *sql.Rows
		var err error
		if last == nil {
			rows, err = q.QueryContext(ctx, first, n, pageSize)
		} else {
			rows, err = q.QueryContext(ctx, next, n, string(last.Digest), last.ID, pageSize)
		}
		if err != nil {
			return fmt.Errorf("stream granule n=%d kind=%s: %w", n, kind, err)
		}

		page := make([]GranuleEntry, 0, pageSize)
		for rows.Next() {
			var e GranuleEntry
			var digest string
			if err := rows.Scan(&e.ID, &digest); err != nil {
				rows.Close()
				return fmt.Errorf("stream granule n=%d kind=%s: scan: %w", n, kind, err)
			}
			e.Digest = fingerprint.Digest(digest)
			page = append(page, e)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("stream granule n=%d kind=%s: iterate: %w", n, kind, err)
		}
		rows.Close()

		for _, e := range page {
			if err := fn(e); err != nil {
				return err
			}
		}
		if len(page) < pageSize {
			return nil
		}
		last = &page[len(page)-1]
	}
}

// resultsChunk bounds the number of bound parameters per IN query.
const resultsChunk = 500

// Results loads the stored results for ids under the granule's kind.
// Ids that have no fingerprint are omitted.
func (g *GranuleTx) Results(ctx context.Context, ids []int64) (map[int64]KindResult, error) {
	out := make(map[int64]KindResult, len(ids))
	for start := 0; start < len(ids); start += resultsChunk {
		end := min(start+resultsChunk, len(ids))
		if err := g.loadResults(ctx, ids[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (g *GranuleTx) loadResults(ctx context.Context, ids []int64, out map[int64]KindResult) error {
	cols := kindColumns(g.kind)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := fmt.Sprintf("SELECT id, %s FROM graphs WHERE id IN (%s)", strings.Join(cols, ", "), placeholders)
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := g.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load results kind=%s: %w", g.kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		vals := make([]sql.NullString, len(cols))
		dest := []any{&id}
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("load results kind=%s: scan: %w", g.kind, err)
		}
		kr, ok, err := unmarshalKind(g.kind, vals)
		if err != nil {
			return fmt.Errorf("load results id=%d: %w", id, err)
		}
		if ok {
			out[id] = kr
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load results kind=%s: iterate: %w", g.kind, err)
	}
	return nil
}

// WritePairs inserts mate pairs. Uses ON CONFLICT DO NOTHING for
// idempotency; returns the number of new rows.
func (g *GranuleTx) WritePairs(ctx context.Context, pairs []Pair) (int, error) {
	if len(pairs) == 0 {
		return 0, nil
	}
	stmt, err := g.tx.PrepareContext(ctx, `
		INSERT INTO cospectral_pairs (graph1_id, graph2_id, matrix_kind)
		VALUES (?, ?, ?)
		ON CONFLICT(graph1_id, graph2_id, matrix_kind) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("write pairs: prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range pairs {
		if p.GraphA >= p.GraphB {
			return 0, fmt.Errorf("write pairs: non-canonical pair (%d, %d)", p.GraphA, p.GraphB)
		}
		res, err := stmt.ExecContext(ctx, p.GraphA, p.GraphB, g.kind.String())
		if err != nil {
			return 0, fmt.Errorf("write pair (%d, %d): %w", p.GraphA, p.GraphB, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("write pair (%d, %d): rows affected: %w", p.GraphA, p.GraphB, err)
		}
		inserted += int(n)
	}
	return inserted, nil
}

// CountClassified counts the granule's fingerprinted graphs as seen by the
// transaction.
func (g *GranuleTx) CountClassified(ctx context.Context) (int, error) {
	return countClassified(ctx, g.tx, g.n, g.kind)
}

// MarkComplete writes the granule's completion marker.
func (g *GranuleTx) MarkComplete(ctx context.Context, classified, pairs int, runID string) error {
	_, err := g.tx.ExecContext(ctx, `
		INSERT INTO granules (n, matrix_kind, classified, pairs, run_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(n, matrix_kind) DO UPDATE SET
			classified = excluded.classified,
			pairs = excluded.pairs,
			run_id = excluded.run_id,
			completed_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, g.n, g.kind.String(), classified, pairs, runID)
	if err != nil {
		return fmt.Errorf("mark granule n=%d kind=%s complete: %w", g.n, g.kind, err)
	}
	return nil
}
