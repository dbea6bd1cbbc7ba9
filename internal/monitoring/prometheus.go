package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"qcat/internal/database"
)

// Metrics holds all Prometheus metrics for the API process.
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec
	apiErrorsTotal       *prometheus.CounterVec

	validationStreamConns prometheus.Gauge
	validationRunsTotal   *prometheus.CounterVec
	bootstrapReplicates   prometheus.Histogram

	dbPoolMaxOpen           prometheus.Gauge
	dbPoolOpen              prometheus.Gauge
	dbPoolInUse             prometheus.Gauge
	dbPoolIdle              prometheus.Gauge
	dbPoolWaitCount         prometheus.Counter
	dbPoolWaitDuration      prometheus.Histogram
	dbPoolMaxIdleClosed     prometheus.Counter
	dbPoolMaxLifetimeClosed prometheus.Counter
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		httpRequestsInFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
			[]string{"method", "endpoint"},
		),
		apiErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_errors_total",
				Help: "Total number of API errors",
			},
			[]string{"endpoint", "error_type"},
		),
		validationStreamConns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "validation_stream_connections_active",
				Help: "Number of active validation progress websocket connections",
			},
		),
		validationRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "validation_runs_total",
				Help: "Total number of bootstrap validation runs by statistic and terminal status",
			},
			[]string{"statistic", "status"},
		),
		bootstrapReplicates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bootstrap_replicates",
				Help:    "Number of resample replicates used per completed bootstrap run",
				Buckets: []float64{100, 500, 1000, 2000, 5000, 10000, 20000},
			},
		),

		dbPoolMaxOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_pool_max_open_connections",
			Help: "Maximum number of open connections to the database",
		}),
		dbPoolOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_pool_open_connections",
			Help: "The number of established connections both in use and idle",
		}),
		dbPoolInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_pool_in_use_connections",
			Help: "The number of connections currently in use",
		}),
		dbPoolIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_pool_idle_connections",
			Help: "The number of idle connections",
		}),
		dbPoolWaitCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "db_pool_wait_count_total",
			Help: "The total number of connections waited for",
		}),
		dbPoolWaitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "db_pool_wait_duration_seconds",
			Help:    "The total time blocked waiting for a new connection",
			Buckets: prometheus.DefBuckets,
		}),
		dbPoolMaxIdleClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "db_pool_max_idle_closed_total",
			Help: "The total number of connections closed due to SetMaxIdleConns",
		}),
		dbPoolMaxLifetimeClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "db_pool_max_lifetime_closed_total",
			Help: "The total number of connections closed due to SetConnMaxLifetime",
		}),
	}

	prometheus.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpRequestsInFlight,
		m.apiErrorsTotal,
		m.validationStreamConns,
		m.validationRunsTotal,
		m.bootstrapReplicates,
		m.dbPoolMaxOpen,
		m.dbPoolOpen,
		m.dbPoolInUse,
		m.dbPoolIdle,
		m.dbPoolWaitCount,
		m.dbPoolWaitDuration,
		m.dbPoolMaxIdleClosed,
		m.dbPoolMaxLifetimeClosed,
	)

	return m
}

// MetricsMiddleware creates a Prometheus metrics middleware
func (m *Metrics) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		m.httpRequestsInFlight.WithLabelValues(c.Request.Method, path).Inc()
		defer m.httpRequestsInFlight.WithLabelValues(c.Request.Method, path).Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)

		if c.Writer.Status() >= 400 {
			errorType := "client_error"
			if c.Writer.Status() >= 500 {
				errorType = "server_error"
			}
			m.apiErrorsTotal.WithLabelValues(path, errorType).Inc()
		}
	}
}

// PrometheusHandler returns the Prometheus metrics handler
func PrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// RecordValidationRun records a completed validation run's terminal status.
func (m *Metrics) RecordValidationRun(statistic, status string) {
	m.validationRunsTotal.WithLabelValues(statistic, status).Inc()
}

// RecordBootstrapReplicates records the replicate count of a completed run.
func (m *Metrics) RecordBootstrapReplicates(b int) {
	m.bootstrapReplicates.Observe(float64(b))
}

// IncValidationStreamConnections tracks an opened progress websocket.
func (m *Metrics) IncValidationStreamConnections() {
	m.validationStreamConns.Inc()
}

// DecValidationStreamConnections tracks a closed progress websocket.
func (m *Metrics) DecValidationStreamConnections() {
	m.validationStreamConns.Dec()
}

// UpdateDatabasePoolMetrics updates database connection pool metrics
func (m *Metrics) UpdateDatabasePoolMetrics(stats *database.PoolStats) {
	m.dbPoolMaxOpen.Set(float64(stats.MaxOpenConnections))
	m.dbPoolOpen.Set(float64(stats.OpenConnections))
	m.dbPoolInUse.Set(float64(stats.InUse))
	m.dbPoolIdle.Set(float64(stats.Idle))

	if stats.WaitCount > 0 {
		m.dbPoolWaitCount.Add(float64(stats.WaitCount))
	}
	if stats.WaitDuration > 0 {
		m.dbPoolWaitDuration.Observe(stats.WaitDuration.Seconds())
	}
	if stats.MaxIdleClosed > 0 {
		m.dbPoolMaxIdleClosed.Add(float64(stats.MaxIdleClosed))
	}
	if stats.MaxLifetimeClosed > 0 {
		m.dbPoolMaxLifetimeClosed.Add(float64(stats.MaxLifetimeClosed))
	}
}
