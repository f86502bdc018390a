package rotation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the rotation Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	CyclesTotal        *prometheus.CounterVec
	CandidatesRejected *prometheus.CounterVec
	ProviderFailures   *prometheus.CounterVec
	CycleDuration      prometheus.Histogram
}

// NewMetrics registers the rotation metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallify_cycles_total",
			Help: "Rotation cycles by result (success, partial, failure, cancelled)",
		}, []string{"result"}),
		CandidatesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallify_candidates_rejected_total",
			Help: "Candidates removed from the pool without being applied",
		}, []string{"reason"}),
		ProviderFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallify_provider_failures_total",
			Help: "Provider queries that contributed no results because of an error",
		}, []string{"provider"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wallify_cycle_duration_seconds",
			Help:    "Wall time of a rotation cycle",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
	}
}

func (m *Metrics) cycle(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(result).Inc()
	m.CycleDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) rejected(reason string) {
	if m == nil {
		return
	}
	m.CandidatesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) providerFailed(p Provider) {
	if m == nil {
		return
	}
	m.ProviderFailures.WithLabelValues(string(p)).Inc()
}
