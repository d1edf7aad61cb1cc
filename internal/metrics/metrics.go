// Package metrics provides Prometheus metrics for enrichment runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

const (
	// Namespace is the namespace for all enrichment metrics.
	Namespace = "enrichment"

	// Subsystem is the subsystem for pipeline metrics.
	Subsystem = "pipeline"
)

// Metrics holds the Prometheus collectors for enrichment runs.
type Metrics struct {
	RecordsTotal     *prometheus.CounterVec
	ErrorsTotal      *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	InFlight         prometheus.Gauge
	AITokensTotal    *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "records_total",
				Help:      "Total number of business records produced, by status",
			},
			[]string{"status"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "errors_total",
				Help:      "Total number of error report entries, by stage and kind",
			},
			[]string{"stage", "kind"},
		),
		PipelineDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "duration_seconds",
				Help:      "Time taken to process one business",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 180},
			},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "in_flight",
				Help:      "Number of businesses currently being processed",
			},
		),
		AITokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "analyzer",
				Name:      "tokens_total",
				Help:      "Total number of AI tokens consumed, by direction",
			},
			[]string{"direction"},
		),
	}
}

// ObserveRecord counts a finished record and its diagnostics.
func (m *Metrics) ObserveRecord(rec domain.BusinessRecord, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(string(rec.Status)).Inc()
	for _, e := range rec.Errors {
		m.ErrorsTotal.WithLabelValues(string(e.Stage), string(e.Kind)).Inc()
	}
	m.PipelineDuration.Observe(elapsed.Seconds())
}

// ObserveTokens adds AI token usage.
func (m *Metrics) ObserveTokens(input, output int64) {
	if m == nil {
		return
	}
	m.AITokensTotal.WithLabelValues("input").Add(float64(input))
	m.AITokensTotal.WithLabelValues("output").Add(float64(output))
}
