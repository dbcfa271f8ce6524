package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions      *prometheus.CounterVec
	QuotaBypassed  prometheus.Counter
	StoreErrors    prometheus.Counter
	CircuitOpen    prometheus.Gauge
	DegradedServed prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aigateway_ratelimit_decisions_total",
			Help: "Total number of limiter decisions by gate and outcome",
		}, []string{"gate", "outcome"}),
		QuotaBypassed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aigateway_ratelimit_quota_bypassed_total",
			Help: "Total number of requests that skipped the quota gate by configuration",
		}),
		StoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aigateway_ratelimit_store_errors_total",
			Help: "Total number of counter store errors surfaced to the limiter",
		}),
		CircuitOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aigateway_ratelimit_store_circuit_open",
			Help: "Shared counter store circuit state (0=closed/healthy, 1=open/fallback)",
		}),
		DegradedServed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aigateway_ratelimit_degraded_decisions_total",
			Help: "Total number of limiter decisions served from the in-memory fallback",
		}),
	}
}

func (m *Metrics) ObserveDecision(gate string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "rejected"
	}
	m.Decisions.WithLabelValues(gate, outcome).Inc()
}

func (m *Metrics) IncrementQuotaBypassed() {
	if m == nil {
		return
	}
	m.QuotaBypassed.Inc()
}

func (m *Metrics) IncrementStoreErrors() {
	if m == nil {
		return
	}
	m.StoreErrors.Inc()
}

func (m *Metrics) IncrementDegraded() {
	if m == nil {
		return
	}
	m.DegradedServed.Inc()
}

// SetCircuitOpen implements resilient.StateObserver.
func (m *Metrics) SetCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitOpen.Set(1)
	} else {
		m.CircuitOpen.Set(0)
	}
}
