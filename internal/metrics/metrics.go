package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the marketplace metrics on a private registry so tests
// can build isolated instances.
type Collector struct {
	registry       *prometheus.Registry
	leadsAllocated *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	chargesTotal   prometheus.Counter
	chargeFailures prometheus.Counter
	matchScores    prometheus.Histogram
}

// NewCollector builds a Collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	return &Collector{
		registry: registry,
		leadsAllocated: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "leads_allocated_total",
			Help: "Leads allocated to trades, by billing kind",
		}, []string{"kind"}),
		transitions: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "match_transitions_total",
			Help: "Match state transitions, by target state",
		}, []string{"to"}),
		chargesTotal: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "lead_charges_total",
			Help: "Successful lead charges",
		}),
		chargeFailures: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "lead_charge_failures_total",
			Help: "Lead charges rejected (insufficient balance or gateway failure)",
		}),
		matchScores: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "match_score_distribution",
			Help:    "Distribution of match scores",
			Buckets: []float64{0, 20, 40, 60, 80, 100},
		}),
	}
}

// RecordAllocation records one allocated lead. kind is "free" or "billable".
func (m *Collector) RecordAllocation(kind string, score int) {
	if m == nil {
		return
	}
	m.leadsAllocated.WithLabelValues(kind).Inc()
	m.matchScores.Observe(float64(score))
}

// RecordTransition records a match state transition.
func (m *Collector) RecordTransition(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}

// RecordCharge records a lead charge outcome.
func (m *Collector) RecordCharge(success bool) {
	if m == nil {
		return
	}
	if success {
		m.chargesTotal.Inc()
	} else {
		m.chargeFailures.Inc()
	}
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
