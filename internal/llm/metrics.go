package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records provider call latency and outcomes.
type Metrics struct {
	CallDuration *prometheus.HistogramVec
	Calls        *prometheus.CounterVec
	JSONRecovery *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		CallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aigateway_llm_call_duration_seconds",
			Help:    "Latency of LLM provider calls",
			Buckets: []float64{.25, .5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"model", "outcome"}),
		Calls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aigateway_llm_calls_total",
			Help: "Total number of LLM provider calls by outcome",
		}, []string{"model", "outcome"}),
		JSONRecovery: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aigateway_llm_json_recovery_total",
			Help: "How provider replies were turned into JSON (direct, fenced, salvaged, failed)",
		}, []string{"method"}),
	}
}

func (m *Metrics) observeCall(model, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.CallDuration.WithLabelValues(model, outcome).Observe(d.Seconds())
	m.Calls.WithLabelValues(model, outcome).Inc()
}

func (m *Metrics) observeRecovery(method string) {
	if m == nil {
		return
	}
	m.JSONRecovery.WithLabelValues(method).Inc()
}
