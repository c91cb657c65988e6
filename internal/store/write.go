package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/spectra/internal/matrix"
)

// InsertGraphs inserts a batch of graph records in one transaction.
// Uses ON CONFLICT(graph6) DO NOTHING for idempotency - a graph that is
// already stored keeps its existing row, including any computed
// fingerprints. Returns the number of rows actually inserted.
func (s *Store) InsertGraphs(ctx context.Context, records []GraphRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	cols := []string{"graph6", "n", "m"}
	for _, k := range matrix.AllKinds {
		cols = append(cols, kindColumns(k)...)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf(
		"INSERT INTO graphs (%s) VALUES (%s) ON CONFLICT(graph6) DO NOTHING",
		strings.Join(cols, ", "), placeholders)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert graphs: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("insert graphs: prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		args := []any{rec.Encoding, rec.N, rec.M}
		for _, k := range matrix.AllKinds {
			kr, ok := rec.Kinds[k]
			if !ok {
				for range kindColumns(k) {
					args = append(args, nil)
				}
				continue
			}
			vals, err := marshalKind(k, kr)
			if err != nil {
				return 0, fmt.Errorf("insert graph %s: %w", rec.Encoding, err)
			}
			args = append(args, vals...)
		}

		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return 0, fmt.Errorf("insert graph %s: %w", rec.Encoding, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("insert graph %s: rows affected: %w", rec.Encoding, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert graphs: commit: %w", err)
	}
	return inserted, nil
}

// UpdateKind fills in a missing fingerprint for one graph and kind.
// A fingerprint that is already present is never overwritten; updated
// reports whether a row changed.
func (s *Store) UpdateKind(ctx context.Context, encoding string, kind matrix.Kind, kr KindResult) (updated bool, err error) {
	if err := checkKind(kind); err != nil {
		return false, fmt.Errorf("update kind: %w", err)
	}
	vals, err := marshalKind(kind, kr)
	if err != nil {
		return false, fmt.Errorf("update kind: %w", err)
	}

	cols := kindColumns(kind)
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = ?"
	}
	query := fmt.Sprintf(
		"UPDATE graphs SET %s WHERE graph6 = ? AND %s IS NULL",
		strings.Join(sets, ", "), hashColumn(kind))

	res, err := s.db.ExecContext(ctx, query, append(vals, encoding)...)
	if err != nil {
		return false, fmt.Errorf("update kind %s for %s: %w", kind, encoding, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update kind %s for %s: rows affected: %w", kind, encoding, err)
	}
	return n > 0, nil
}

// UpsertMetadata merges externally computed metadata into a graph's row.
// Nil fields keep their stored value. Returns ErrNotFound if the graph is
// not stored.
func (s *Store) UpsertMetadata(ctx context.Context, encoding string, m Metadata) error {
	sets := make([]string, len(metadataColumns))
	for i, c := range metadataColumns {
		sets[i] = fmt.Sprintf("%s = COALESCE(?, %s)", c, c)
	}
	query := fmt.Sprintf("UPDATE graphs SET %s WHERE graph6 = ?", strings.Join(sets, ", "))

	res, err := s.db.ExecContext(ctx, query, append(metadataArgs(m), encoding)...)
	if err != nil {
		return fmt.Errorf("upsert metadata for %s: %w", encoding, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert metadata for %s: rows affected: %w", encoding, err)
	}
	if n == 0 {
		return fmt.Errorf("upsert metadata for %s: %w", encoding, ErrNotFound)
	}
	return nil
}

// RecordFailure notes that kind could not be computed for a stored graph.
// Repeated failures increment the attempt counter. Returns ErrNotFound if
// no stored graph with this encoding is missing the fingerprint, so a
// failure never shadows a result computed earlier.
func (s *Store) RecordFailure(ctx context.Context, encoding string, kind matrix.Kind, message, runID string) error {
	if err := checkKind(kind); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO classification_failures (graph_id, matrix_kind, message, run_id)
		SELECT id, ?, ?, ? FROM graphs WHERE graph6 = ? AND `+hashColumn(kind)+` IS NULL
		ON CONFLICT(graph_id, matrix_kind) DO UPDATE SET
			message = excluded.message,
			run_id = excluded.run_id,
			attempts = attempts + 1,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, kind.String(), message, runID, encoding)
	if err != nil {
		return fmt.Errorf("record failure for %s: %w", encoding, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record failure for %s: rows affected: %w", encoding, err)
	}
	if n == 0 {
		return fmt.Errorf("record failure for %s: %w", encoding, ErrNotFound)
	}
	return nil
}

// ClearFailure removes the failure row for a graph and kind, if any.
func (s *Store) ClearFailure(ctx context.Context, encoding string, kind matrix.Kind) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM classification_failures
		WHERE matrix_kind = ? AND graph_id = (SELECT id FROM graphs WHERE graph6 = ?)
	`, kind.String(), encoding)
	if err != nil {
		return fmt.Errorf("clear failure for %s: %w", encoding, err)
	}
	return nil
}
