package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	APIErrors       *prometheus.CounterVec
}

// NewMetrics creates metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mwslabels_requests_total",
				Help: "Total number of MWS operation requests by operation, mode, and status",
			},
			[]string{"operation", "mode", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mwslabels_request_duration_seconds",
				Help:    "MWS operation duration in seconds by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		APIErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mwslabels_api_errors_total",
				Help: "Total MWS errors by operation and error code",
			},
			[]string{"operation", "code"},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, mode, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, mode, status).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records an MWS error metric.
func (m *Metrics) RecordError(operation, code string) {
	m.APIErrors.WithLabelValues(operation, code).Inc()
}
