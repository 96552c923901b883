package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusExporter exports metrics to Prometheus format.
type PrometheusExporter struct {
	collector *Collector

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec
	retries      *prometheus.CounterVec
}

// NewPrometheusExporter creates a new Prometheus exporter.
func NewPrometheusExporter(collector *Collector) *PrometheusExporter {
	return &PrometheusExporter{
		collector: collector,
		httpRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purosesu_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method"},
		),
		httpDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "purosesu_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
			},
			[]string{"route", "method"},
		),
		httpErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purosesu_http_errors_total",
				Help: "Total number of HTTP requests that failed",
			},
			[]string{"route", "method"},
		),
		retries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purosesu_retry_attempts_total",
				Help: "Total number of retries issued for transient conflicts",
			},
			[]string{"route"},
		),
	}
}

// RegisterPoolStats exposes connection-pool gauges read from sql.DBStats.
func RegisterPoolStats(db *sql.DB) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "purosesu_db_pool_open_connections",
		Help: "Open connections in the database pool",
	}, func() float64 { return float64(db.Stats().OpenConnections) })
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "purosesu_db_pool_in_use",
		Help: "Connections currently in use",
	}, func() float64 { return float64(db.Stats().InUse) })
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "purosesu_db_pool_wait_count",
		Help: "Total number of times an operation waited for a connection",
	}, func() float64 { return float64(db.Stats().WaitCount) })
}

// RecordRequest records a request in Prometheus.
func (e *PrometheusExporter) RecordRequest(route, method string) {
	e.httpRequests.WithLabelValues(route, method).Inc()
}

// RecordDuration records a duration in Prometheus.
func (e *PrometheusExporter) RecordDuration(route, method string, durationSeconds float64) {
	e.httpDuration.WithLabelValues(route, method).Observe(durationSeconds)
}

// RecordError records an error in Prometheus.
func (e *PrometheusExporter) RecordError(route, method string) {
	e.httpErrors.WithLabelValues(route, method).Inc()
}

// RecordRetry records one boundary-layer retry attempt.
func (e *PrometheusExporter) RecordRetry(route string) {
	e.retries.WithLabelValues(route).Inc()
}
