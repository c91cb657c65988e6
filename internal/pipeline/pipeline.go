package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/spectra/internal/graph"
	"github.com/roach88/spectra/internal/matrix"
	"github.com/roach88/spectra/internal/source"
	"github.com/roach88/spectra/internal/store"
)

// DefaultBatchSize is the number of classified graphs written per
// transaction.
const DefaultBatchSize = 1000

// Store is the subset of *store.Store the pipeline writes through.
type Store interface {
	InsertGraphs(ctx context.Context, records []store.GraphRecord) (int, error)
	UpdateKind(ctx context.Context, encoding string, kind matrix.Kind, kr store.KindResult) (bool, error)
	RecordFailure(ctx context.Context, encoding string, kind matrix.Kind, message, runID string) error
	ClearFailure(ctx context.Context, encoding string, kind matrix.Kind) error
	PendingGraphs(ctx context.Context, kind matrix.Kind, n, limit int) ([]store.PendingGraph, error)
}

// Options configures a Pipeline. Zero values select defaults.
type Options struct {
	// Workers bounds concurrent classifications (default GOMAXPROCS).
	Workers int
	// BatchSize is the number of graphs per store transaction.
	BatchSize int
	// RunID is stamped on failure rows.
	RunID string
	// Logger receives progress and per-graph warnings (default slog.Default).
	Logger *slog.Logger
	// Metrics may be nil.
	Metrics *Metrics
	// OnBatch, if set, is called from the writer after each committed batch
	// with the running totals.
	OnBatch func(Summary)
}

// Summary totals one Run.
type Summary struct {
	Read         int `json:"read"`          // non-blank input lines
	Malformed    int `json:"malformed"`     // lines that did not decode
	Inserted     int `json:"inserted"`      // new rows
	Duplicates   int `json:"duplicates"`    // encodings already stored
	KindFailures int `json:"kind_failures"` // fingerprints left absent
	Ambiguous    int `json:"ambiguous"`     // near-degenerate eigenvalue gaps
	Batches      int `json:"batches"`
}

// Pipeline ingests graph encodings: decode, classify under every
// configured kind, and persist in batches.
//
// Classification runs on a bounded worker pool. A single writer owns the
// store so SQLite sees one writer at a time.
type Pipeline struct {
	store      Store
	classifier *Classifier
	workers    int
	batchSize  int
	runID      string
	log        *slog.Logger
	metrics    *Metrics
	onBatch    func(Summary)
}

// New returns a Pipeline writing to st.
func New(st Store, c *Classifier, opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		store:      st,
		classifier: c,
		workers:    opts.Workers,
		batchSize:  opts.BatchSize,
		runID:      opts.RunID,
		log:        opts.Logger.With("component", "pipeline"),
		metrics:    opts.Metrics,
		onBatch:    opts.OnBatch,
	}
}

// outcome is one input line after the worker pool: either a
// classification or a decode error.
type outcome struct {
	item source.Item
	cls  Classification
	err  error
}

// Run drains src through the pipeline. Malformed lines and per-kind solver
// failures are logged and counted, never fatal. Returns the totals so far
// together with the first store or source error, or ctx.Err() on
// cancellation. Batches committed before an error stay committed.
func (p *Pipeline) Run(ctx context.Context, src source.Source) (Summary, error) {
	var sum Summary
	results := make(chan outcome, p.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(results)
		return p.dispatch(gctx, src, results)
	})
	g.Go(func() error {
		return p.write(gctx, results, &sum)
	})

	err := g.Wait()
	p.log.Info("ingest finished",
		"read", sum.Read,
		"inserted", sum.Inserted,
		"duplicates", sum.Duplicates,
		"malformed", sum.Malformed,
		"kind_failures", sum.KindFailures,
		"ambiguous", sum.Ambiguous,
		"batches", sum.Batches)
	if err != nil {
		return sum, fmt.Errorf("ingest: %w", err)
	}
	return sum, nil
}

// dispatch reads src and classifies each item on the worker pool.
func (p *Pipeline) dispatch(ctx context.Context, src source.Source, out chan<- outcome) error {
	work, wctx := errgroup.WithContext(ctx)
	work.SetLimit(p.workers)

	for {
		item, err := src.Next(wctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Let in-flight workers observe cancellation before returning.
			if werr := work.Wait(); werr != nil && !errors.Is(werr, context.Canceled) {
				return werr
			}
			return fmt.Errorf("read source: %w", err)
		}

		work.Go(func() error {
			o := outcome{item: item}
			g, err := decode(item)
			if err != nil {
				o.err = err
			} else {
				o.cls, err = p.classifier.Classify(wctx, g)
				if err != nil {
					return err
				}
			}
			select {
			case out <- o:
				return nil
			case <-wctx.Done():
				return wctx.Err()
			}
		})
	}
	return work.Wait()
}

// decode parses one input line. Unusable input becomes a
// *matrix.ConstructionError, which is isolated to that line.
func decode(item source.Item) (*graph.Graph, error) {
	g, err := graph.Parse(item.Encoding)
	if err != nil {
		return nil, matrix.NewConstructionError(item.Encoding, err)
	}
	return g, nil
}

// write batches outcomes into the store. It is the only goroutine that
// touches sum or the store during a Run.
func (p *Pipeline) write(ctx context.Context, in <-chan outcome, sum *Summary) error {
	batch := make([]Classification, 0, p.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.flush(ctx, batch, sum); err != nil {
			return err
		}
		batch = batch[:0]
		if p.onBatch != nil {
			p.onBatch(*sum)
		}
		return nil
	}

	for o := range in {
		sum.Read++
		if o.err != nil {
			if !matrix.IsConstructionError(o.err) {
				return o.err
			}
			sum.Malformed++
			p.metrics.graphs("malformed", 1)
			p.log.Warn("skipping malformed graph",
				"line", o.item.Line,
				"encoding", o.item.Encoding,
				"error", o.err)
			continue
		}
		sum.Ambiguous += o.cls.Ambiguous
		batch = append(batch, o.cls)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return flush()
}

// flush writes one batch: insert the records, then note every kind that
// could not be computed.
func (p *Pipeline) flush(ctx context.Context, batch []Classification, sum *Summary) error {
	recs := make([]store.GraphRecord, len(batch))
	for i, c := range batch {
		recs[i] = c.Record
	}
	inserted, err := p.store.InsertGraphs(ctx, recs)
	if err != nil {
		return err
	}
	sum.Inserted += inserted
	sum.Duplicates += len(batch) - inserted
	sum.Batches++
	p.metrics.graphs("inserted", inserted)
	p.metrics.graphs("duplicate", len(batch)-inserted)
	p.metrics.batch()

	for _, c := range batch {
		if len(c.Failures) == 0 {
			continue
		}
		logFailures(p.log, c.Record.Encoding, c.Failures)
		for _, kind := range matrix.AllKinds {
			ferr, ok := c.Failures[kind]
			if !ok {
				continue
			}
			sum.KindFailures++
			err := p.store.RecordFailure(ctx, c.Record.Encoding, kind, ferr.Error(), p.runID)
			if errors.Is(err, store.ErrNotFound) {
				// A stored duplicate already carries this fingerprint.
				continue
			}
			if err != nil {
				return err
			}
		}
	}

	p.log.Debug("batch written",
		"size", len(batch),
		"inserted", inserted,
		"total_read", sum.Read)
	return nil
}
