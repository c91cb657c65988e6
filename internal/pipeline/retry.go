package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/spectra/internal/graph"
	"github.com/roach88/spectra/internal/matrix"
	"github.com/roach88/spectra/internal/store"
)

// RetrySummary totals one Retry.
type RetrySummary struct {
	Pending int `json:"pending"` // graphs found missing a fingerprint
	Filled  int `json:"filled"`  // fingerprints written
	Failed  int `json:"failed"`  // fingerprints that failed again
}

type retried struct {
	pending store.PendingGraph
	kind    matrix.Kind
	result  store.KindResult
	err     error
}

// Retry recomputes fingerprints that are absent from the store, up to
// limit graphs per kind (0 for no limit). Successes fill the missing
// columns and clear the failure row; failures bump its attempt count.
func (p *Pipeline) Retry(ctx context.Context, limit int) (RetrySummary, error) {
	var sum RetrySummary
	for _, kind := range p.classifier.Kinds() {
		pending, err := p.store.PendingGraphs(ctx, kind, 0, limit)
		if err != nil {
			return sum, fmt.Errorf("retry %s: %w", kind, err)
		}
		if len(pending) == 0 {
			continue
		}
		sum.Pending += len(pending)
		p.log.Info("retrying fingerprints", "kind", kind.String(), "pending", len(pending))

		results, err := p.recompute(ctx, kind, pending)
		if err != nil {
			return sum, fmt.Errorf("retry %s: %w", kind, err)
		}
		if err := p.applyRetries(ctx, results, &sum); err != nil {
			return sum, fmt.Errorf("retry %s: %w", kind, err)
		}
	}
	p.log.Info("retry finished", "pending", sum.Pending, "filled", sum.Filled, "failed", sum.Failed)
	return sum, nil
}

// recompute classifies pending graphs under kind on the worker pool.
func (p *Pipeline) recompute(ctx context.Context, kind matrix.Kind, pending []store.PendingGraph) ([]retried, error) {
	results := make([]retried, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, pg := range pending {
		g.Go(func() error {
			r := retried{pending: pg, kind: kind}
			parsed, err := graph.Parse(pg.Encoding)
			if err != nil {
				r.err = err
			} else {
				r.result, _, r.err = p.classifier.ClassifyKind(gctx, parsed, kind)
				if r.err != nil && gctx.Err() != nil {
					return gctx.Err()
				}
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) applyRetries(ctx context.Context, results []retried, sum *RetrySummary) error {
	for _, r := range results {
		enc := r.pending.Encoding
		if r.err != nil {
			sum.Failed++
			logFailures(p.log, enc, map[matrix.Kind]error{r.kind: r.err})
			if err := p.store.RecordFailure(ctx, enc, r.kind, r.err.Error(), p.runID); err != nil {
				return err
			}
			continue
		}
		updated, err := p.store.UpdateKind(ctx, enc, r.kind, r.result)
		if err != nil {
			return err
		}
		if err := p.store.ClearFailure(ctx, enc, r.kind); err != nil {
			return err
		}
		if updated {
			sum.Filled++
			p.metrics.graphs("retried", 1)
		}
	}
	return nil
}
