package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/spectra/internal/fingerprint"
	"github.com/roach88/spectra/internal/graph"
	"github.com/roach88/spectra/internal/matrix"
	"github.com/roach88/spectra/internal/spectrum"
	"github.com/roach88/spectra/internal/store"
)

// Classification is the outcome of classifying one graph. Record.Kinds
// holds every kind that succeeded; Failures every kind that did not.
type Classification struct {
	Record   store.GraphRecord
	Failures map[matrix.Kind]error
	// Ambiguous sums the per-kind precision ambiguity counts.
	Ambiguous int
}

// Classifier computes all requested fingerprints for a graph.
// It is safe for concurrent use.
type Classifier struct {
	extractor *spectrum.Extractor
	hasher    *fingerprint.Hasher
	kinds     []matrix.Kind
	metrics   *Metrics
}

// NewClassifier returns a Classifier for kinds (all kinds when empty).
func NewClassifier(x *spectrum.Extractor, h *fingerprint.Hasher, kinds []matrix.Kind, m *Metrics) *Classifier {
	if len(kinds) == 0 {
		kinds = matrix.AllKinds
	}
	return &Classifier{extractor: x, hasher: h, kinds: kinds, metrics: m}
}

// Kinds returns the kinds this classifier computes.
func (c *Classifier) Kinds() []matrix.Kind { return c.kinds }

// Classify builds, solves and hashes g under every configured kind. A
// failing kind is recorded in Failures and does not stop the others. Only
// context cancellation is returned as an error.
func (c *Classifier) Classify(ctx context.Context, g *graph.Graph) (Classification, error) {
	out := Classification{
		Record: store.GraphRecord{
			Encoding: g.Encoding(),
			N:        g.Order(),
			M:        g.Size(),
			Kinds:    make(map[matrix.Kind]store.KindResult, len(c.kinds)),
		},
	}
	for _, kind := range c.kinds {
		kr, ambiguous, err := c.ClassifyKind(ctx, g, kind)
		if err != nil {
			if ctx.Err() != nil {
				return Classification{}, ctx.Err()
			}
			if out.Failures == nil {
				out.Failures = make(map[matrix.Kind]error)
			}
			out.Failures[kind] = err
			continue
		}
		out.Record.Kinds[kind] = kr
		out.Ambiguous += ambiguous
	}
	return out, nil
}

// ClassifyKind computes one kind's result for g.
func (c *Classifier) ClassifyKind(ctx context.Context, g *graph.Graph, kind matrix.Kind) (store.KindResult, int, error) {
	done := c.metrics.timeKind(kind)
	defer done()

	m, err := matrix.Build(g, kind)
	if err != nil {
		c.metrics.kindFailed(kind, "construction")
		return store.KindResult{}, 0, err
	}
	s, err := c.extractor.Extract(ctx, m)
	if err != nil {
		reason := "solver"
		if spectrum.IsTimeout(err) {
			reason = "timeout"
		}
		c.metrics.kindFailed(kind, reason)
		return store.KindResult{}, 0, fmt.Errorf("classify %s: %w", g.Encoding(), err)
	}
	c.metrics.ambiguous(kind, s.Ambiguous)
	return store.KindResult{Spectrum: s, Digest: c.hasher.Digest(s)}, s.Ambiguous, nil
}

// logFailures reports per-kind failures at WARN.
func logFailures(log *slog.Logger, enc string, failures map[matrix.Kind]error) {
	for _, kind := range matrix.AllKinds {
		if err, ok := failures[kind]; ok {
			log.Warn("fingerprint not computed",
				"graph", enc,
				"kind", kind.String(),
				"timeout", spectrum.IsTimeout(err),
				"error", err)
		}
	}
}
