package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the Kafka audit publisher.
type Metrics struct {
	Published     prometheus.Counter
	Dropped       prometheus.Counter
	PublishErrors prometheus.Counter
	Buffered      prometheus.Gauge
}

// NewMetrics creates and registers the publisher metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Published: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aigateway_audit_kafka_published_total",
			Help: "Total number of audit events written to Kafka",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aigateway_audit_kafka_dropped_total",
			Help: "Total number of audit events dropped because the buffer was full",
		}),
		PublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aigateway_audit_kafka_publish_errors_total",
			Help: "Total number of audit events that failed to publish",
		}),
		Buffered: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aigateway_audit_kafka_buffered",
			Help: "Current number of audit events waiting to be published",
		}),
	}
}

func (m *Metrics) incPublished(n int) {
	if m == nil {
		return
	}
	m.Published.Add(float64(n))
}

func (m *Metrics) incDropped() {
	if m == nil {
		return
	}
	m.Dropped.Inc()
}

func (m *Metrics) incPublishErrors(n int) {
	if m == nil {
		return
	}
	m.PublishErrors.Add(float64(n))
}

func (m *Metrics) setBuffered(n int) {
	if m == nil {
		return
	}
	m.Buffered.Set(float64(n))
}
