package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Document store metrics
	RegistryOperationsTotal   *prometheus.CounterVec
	RegistryOperationDuration *prometheus.HistogramVec

	// Mirror sync metrics
	SyncTotal       *prometheus.CounterVec
	SyncDuration    *prometheus.HistogramVec
	SyncRecordsLast prometheus.Gauge

	// Search metrics
	SearchesTotal  *prometheus.CounterVec
	SearchDuration prometheus.Histogram

	// Rate limit metrics
	RateLimitChecksTotal *prometheus.CounterVec

	// Usage log metrics
	UsageEventsQueued  prometheus.Gauge
	UsageEventsDropped prometheus.Gauge

	// Database metrics
	DBConnectionsActive       prometheus.Gauge
	DBConnectionsIdle         prometheus.Gauge
	DBConnectionsWaitCount    prometheus.Gauge
	DBConnectionsWaitDuration prometheus.Gauge

	// Business metrics
	DatasetsTotal prometheus.Gauge
	APIKeysActive prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corpus_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corpus_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corpus_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		// Document store metrics
		RegistryOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_registry_operations_total",
				Help: "Total number of document store operations",
			},
			[]string{"operation", "status"},
		),
		RegistryOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corpus_registry_operation_duration_seconds",
				Help:    "Document store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		// Mirror sync metrics
		SyncTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_sync_total",
				Help: "Total number of mirror sync runs",
			},
			[]string{"trigger", "status"},
		),
		SyncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corpus_sync_duration_seconds",
				Help:    "Mirror sync duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"trigger"},
		),
		SyncRecordsLast: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_sync_records_last",
				Help: "Number of records written by the most recent sync",
			},
		),

		// Search metrics
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_searches_total",
				Help: "Total number of keyword searches",
			},
			[]string{"status"},
		),
		SearchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "corpus_search_duration_seconds",
				Help:    "Keyword search duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),

		// Rate limit metrics
		RateLimitChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_ratelimit_checks_total",
				Help: "Total number of rate limit checks",
			},
			[]string{"backend", "outcome"},
		),

		// Usage log metrics
		UsageEventsQueued: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_usage_events_queued_total",
				Help: "Usage events accepted onto the recorder queue",
			},
		),
		UsageEventsDropped: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_usage_events_dropped_total",
				Help: "Usage events dropped because the recorder queue was full",
			},
		),

		// Database metrics
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_db_connections_active",
				Help: "Number of open database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBConnectionsWaitCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_db_connections_wait_count",
				Help: "Total number of connections waited for",
			},
		),
		DBConnectionsWaitDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_db_connections_wait_duration_seconds",
				Help: "Total time spent waiting for connections",
			},
		),

		// Business metrics
		DatasetsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_datasets_total",
				Help: "Total number of registered datasets",
			},
		),
		APIKeysActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_api_keys_active",
				Help: "Number of active API keys",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.RegistryOperationsTotal,
		m.RegistryOperationDuration,
		m.SyncTotal,
		m.SyncDuration,
		m.SyncRecordsLast,
		m.SearchesTotal,
		m.SearchDuration,
		m.RateLimitChecksTotal,
		m.UsageEventsQueued,
		m.UsageEventsDropped,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.DBConnectionsWaitCount,
		m.DBConnectionsWaitDuration,
		m.DatasetsTotal,
		m.APIKeysActive,
	)

	return m
}

// UpdateDBStats copies connection pool statistics into the database gauges.
func (m *Metrics) UpdateDBStats(stats sql.DBStats) {
	m.DBConnectionsActive.Set(float64(stats.OpenConnections))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
	m.DBConnectionsWaitCount.Set(float64(stats.WaitCount))
	m.DBConnectionsWaitDuration.Set(stats.WaitDuration.Seconds())
}

// UpdateUsageStats copies recorder queue counters into the usage gauges.
func (m *Metrics) UpdateUsageStats(queued, dropped int64) {
	m.UsageEventsQueued.Set(float64(queued))
	m.UsageEventsDropped.Set(float64(dropped))
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status and size
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			// Record request size
			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(r.ContentLength))
			}

			// Serve the request
			next.ServeHTTP(rw, r)

			// Record metrics
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// MetricsHandler returns the handler serving the registry in Prometheus
// exposition format, for mounting at /metrics on any router.
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
