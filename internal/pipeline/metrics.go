package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/spectra/internal/matrix"
)

// Metrics are the pipeline's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	// Graphs counts input graphs by outcome
	// ("inserted", "duplicate", "malformed", "retried").
	Graphs *prometheus.CounterVec
	// KindFailures counts fingerprints left absent, by kind and reason
	// ("construction", "solver", "timeout").
	KindFailures *prometheus.CounterVec
	// Ambiguous counts near-degenerate eigenvalue gaps, by kind.
	Ambiguous *prometheus.CounterVec
	// Batches counts store write batches.
	Batches prometheus.Counter
	// KindDuration observes build+solve+hash time per kind.
	KindDuration *prometheus.HistogramVec
}

// NewMetrics registers the pipeline collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Graphs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spectra_pipeline_graphs_total",
			Help: "Input graphs by outcome",
		}, []string{"outcome"}),
		KindFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spectra_pipeline_kind_failures_total",
			Help: "Fingerprints that could not be computed, by kind and reason",
		}, []string{"kind", "reason"}),
		Ambiguous: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spectra_pipeline_precision_ambiguities_total",
			Help: "Adjacent eigenvalues closer than the rounding unit, by kind",
		}, []string{"kind"}),
		Batches: f.NewCounter(prometheus.CounterOpts{
			Name: "spectra_pipeline_batches_total",
			Help: "Store write batches committed",
		}),
		KindDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spectra_pipeline_kind_duration_seconds",
			Help:    "Build, solve and hash time for one graph under one kind",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 12),
		}, []string{"kind"}),
	}
}

func (m *Metrics) graphs(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Graphs.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) kindFailed(kind matrix.Kind, reason string) {
	if m == nil {
		return
	}
	m.KindFailures.WithLabelValues(kind.String(), reason).Inc()
}

func (m *Metrics) ambiguous(kind matrix.Kind, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Ambiguous.WithLabelValues(kind.String()).Add(float64(n))
}

func (m *Metrics) batch() {
	if m == nil {
		return
	}
	m.Batches.Inc()
}

func (m *Metrics) timeKind(kind matrix.Kind) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.KindDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
	}
}
