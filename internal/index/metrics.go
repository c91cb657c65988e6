package index

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the indexer's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	// Granules counts processed granules by kind and outcome
	// ("indexed", "skipped", "inconsistent", "error").
	Granules *prometheus.CounterVec
	// PairsInserted counts new mate-index rows by kind.
	PairsInserted *prometheus.CounterVec
	// GranuleDuration observes wall time per indexed granule.
	GranuleDuration prometheus.Histogram
}

// NewMetrics registers the indexer collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Granules: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spectra_index_granules_total",
			Help: "Granules processed by the indexer, by kind and outcome",
		}, []string{"kind", "outcome"}),
		PairsInserted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spectra_index_pairs_inserted_total",
			Help: "New cospectral pairs written, by kind",
		}, []string{"kind"}),
		GranuleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "spectra_index_granule_duration_seconds",
			Help:    "Time to index one (n, kind) granule",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
}

func (m *Metrics) granule(kind, outcome string) {
	if m == nil {
		return
	}
	m.Granules.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) inserted(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.PairsInserted.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) observe(seconds float64) {
	if m == nil {
		return
	}
	m.GranuleDuration.Observe(seconds)
}
