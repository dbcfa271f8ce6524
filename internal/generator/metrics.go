package generator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"aigateway/internal/generator/models"
)

// Metrics records generation latency and outcomes by generator.
type Metrics struct {
	Duration    *prometheus.HistogramVec
	Generations *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aigateway_generation_duration_seconds",
			Help:    "End-to-end latency of content generation, including prompt rendering and normalization",
			Buckets: []float64{.25, .5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"generator", "outcome"}),
		Generations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aigateway_generations_total",
			Help: "Total number of generation requests by generator and outcome",
		}, []string{"generator", "outcome"}),
	}
}

func (m *Metrics) observe(kind models.Kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(kind.String(), outcome).Observe(d.Seconds())
	m.Generations.WithLabelValues(kind.String(), outcome).Inc()
}
