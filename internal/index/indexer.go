// Package index groups stored graphs by fingerprint and records every pair
// of graphs that share one in the mate index.
//
// Work is split into granules, one per (vertex count, matrix kind). Within a
// granule the store streams classified graphs ordered by (fingerprint, id);
// each maximal run of k >= 2 equal fingerprints yields all C(k,2) pairs.
// A granule's pairs and its completion marker are written in one
// transaction, so a granule is either fully indexed or untouched.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/spectra/internal/matrix"
	"github.com/roach88/spectra/internal/store"
)

const (
	// DefaultParallelism is the number of granules indexed concurrently.
	DefaultParallelism = 4
	// DefaultFlushSize is the number of pairs buffered per write.
	DefaultFlushSize = 5000
)

// Options configures an Indexer.
type Options struct {
	Parallelism int
	FlushSize   int
	// Verify re-checks that every run's members have identical stored
	// spectra before writing its pairs.
	Verify bool
	// Force reprocesses granules whose completion marker is current.
	Force   bool
	RunID   string
	Logger  *slog.Logger
	Metrics *Metrics
}

// Indexer builds the mate index from a Store.
type Indexer struct {
	store *store.Store
	opts  Options
	log   *slog.Logger
}

// New returns an Indexer over s with defaults applied to opts.
func New(s *store.Store, opts Options) *Indexer {
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultParallelism
	}
	if opts.FlushSize <= 0 {
		opts.FlushSize = DefaultFlushSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Indexer{store: s, opts: opts, log: opts.Logger}
}

// GranuleResult describes one IndexGranule call.
type GranuleResult struct {
	N          int         `json:"n"`
	Kind       matrix.Kind `json:"kind"`
	Skipped    bool        `json:"skipped"`
	Classified int         `json:"classified"`
	Runs       int         `json:"runs"`     // runs with k >= 2
	Pairs      int         `json:"pairs"`    // pairs emitted, including ones already stored
	Inserted   int         `json:"inserted"` // pairs that were new
}

// Summary aggregates an IndexAll call.
type Summary struct {
	Granules     int `json:"granules"`
	Skipped      int `json:"skipped"`
	Inconsistent int `json:"inconsistent"`
	Pairs        int `json:"pairs"`
	Inserted     int `json:"inserted"`
}

// IndexGranule indexes the graphs of order n under kind.
//
// The granule is skipped when its completion marker records the current
// classified count, unless Force is set. Otherwise it is fully reprocessed;
// pair writes are insert-if-absent, so reprocessing adds only missing rows.
func (ix *Indexer) IndexGranule(ctx context.Context, n int, kind matrix.Kind) (GranuleResult, error) {
	res := GranuleResult{N: n, Kind: kind}
	log := ix.log.With("n", n, "kind", kind.String())

	if !ix.opts.Force {
		marker, ok, err := ix.store.GranuleStatus(ctx, n, kind)
		if err != nil {
			return res, err
		}
		if ok {
			classified, err := ix.store.CountClassified(ctx, n, kind)
			if err != nil {
				return res, err
			}
			if classified == marker.Classified {
				res.Skipped = true
				res.Classified = classified
				ix.opts.Metrics.granule(kind.String(), "skipped")
				log.Debug("granule up to date, skipping", "classified", classified, "run_id", marker.RunID)
				return res, nil
			}
		}
	}

	start := time.Now()
	err := ix.store.WithGranuleTx(ctx, n, kind, func(tx *store.GranuleTx) error {
		w := &granuleWriter{tx: tx, kind: kind, flushSize: ix.opts.FlushSize}

		var g grouper
		handle := func(r run) error {
			if len(r.ids) < 2 {
				return nil
			}
			if ix.opts.Verify {
				if err := verifyRun(ctx, tx, n, kind, r); err != nil {
					return err
				}
			}
			res.Runs++
			res.Pairs += pairCount(len(r.ids))
			return eachPair(r.ids, func(a, b int64) error {
				return w.add(ctx, store.Pair{GraphA: a, GraphB: b, Kind: kind})
			})
		}

		if err := tx.Stream(ctx, func(e store.GranuleEntry) error {
			res.Classified++
			if done, closed := g.add(e); closed {
				return handle(done)
			}
			return nil
		}); err != nil {
			return err
		}
		if last, ok := g.flush(); ok {
			if err := handle(last); err != nil {
				return err
			}
		}
		if err := w.flush(ctx); err != nil {
			return err
		}
		res.Inserted = w.inserted
		return tx.MarkComplete(ctx, res.Classified, res.Pairs, ix.opts.RunID)
	})
	if err != nil {
		if IsIndexInconsistency(err) {
			ix.opts.Metrics.granule(kind.String(), "inconsistent")
			log.Error("granule rolled back", "error", err)
		} else {
			ix.opts.Metrics.granule(kind.String(), "error")
		}
		return GranuleResult{N: n, Kind: kind}, fmt.Errorf("index granule n=%d kind=%s: %w", n, kind, err)
	}

	ix.opts.Metrics.granule(kind.String(), "indexed")
	ix.opts.Metrics.inserted(kind.String(), res.Inserted)
	ix.opts.Metrics.observe(time.Since(start).Seconds())
	log.Info("granule indexed",
		"classified", res.Classified,
		"runs", res.Runs,
		"pairs", res.Pairs,
		"inserted", res.Inserted)
	return res, nil
}

// IndexAll indexes every (n, kind) granule for the given kinds, n over the
// vertex counts present in the store. An empty kinds list means every kind.
//
// Granules run concurrently up to Parallelism. An IndexInconsistency fails
// only its own granule; all of them are returned joined after the other
// granules finish. Any other error stops the pass.
func (ix *Indexer) IndexAll(ctx context.Context, kinds []matrix.Kind) (Summary, error) {
	if len(kinds) == 0 {
		kinds = matrix.AllKinds
	}
	orders, err := ix.store.VertexCounts(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("index all: %w", err)
	}

	var (
		mu           sync.Mutex
		sum          Summary
		inconsistent []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Parallelism)
	for _, kind := range kinds {
		for _, n := range orders {
			g.Go(func() error {
				res, err := ix.IndexGranule(gctx, n, kind)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if IsIndexInconsistency(err) {
						sum.Inconsistent++
						inconsistent = append(inconsistent, err)
						return nil
					}
					return err
				}
				sum.Granules++
				if res.Skipped {
					sum.Skipped++
				}
				sum.Pairs += res.Pairs
				sum.Inserted += res.Inserted
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return sum, fmt.Errorf("index all: %w", err)
	}

	ix.log.Info("index pass complete",
		"granules", sum.Granules,
		"skipped", sum.Skipped,
		"inconsistent", sum.Inconsistent,
		"pairs", sum.Pairs,
		"inserted", sum.Inserted)
	return sum, errors.Join(inconsistent...)
}

// verifyRun checks that every member of r has the same stored spectrum as
// its first member.
func verifyRun(ctx context.Context, tx *store.GranuleTx, n int, kind matrix.Kind, r run) error {
	results, err := tx.Results(ctx, r.ids)
	if err != nil {
		return err
	}
	first, ok := results[r.ids[0]]
	if !ok {
		return &IndexInconsistency{N: n, Kind: kind, Digest: r.digest, GraphA: r.ids[0], Message: "fingerprinted graph has no stored spectrum"}
	}
	for _, id := range r.ids[1:] {
		kr, ok := results[id]
		if !ok || !kr.Spectrum.Equal(first.Spectrum) {
			return &IndexInconsistency{
				N:       n,
				Kind:    kind,
				Digest:  r.digest,
				GraphA:  r.ids[0],
				GraphB:  id,
				Message: "equal fingerprints with different spectra",
			}
		}
	}
	return nil
}

// granuleWriter buffers pairs and writes them through the granule's
// transaction.
type granuleWriter struct {
	tx        *store.GranuleTx
	kind      matrix.Kind
	flushSize int
	buf       []store.Pair
	inserted  int
}

func (w *granuleWriter) add(ctx context.Context, p store.Pair) error {
	w.buf = append(w.buf, p)
	if len(w.buf) >= w.flushSize {
		return w.flush(ctx)
	}
	return nil
}

func (w *granuleWriter) flush(ctx context.Context) error {
	if len(w.buf) == 0 {
		return nil
	}
	n, err := w.tx.WritePairs(ctx, w.buf)
	if err != nil {
		return err
	}
	w.inserted += n
	w.buf = w.buf[:0]
	return nil
}
