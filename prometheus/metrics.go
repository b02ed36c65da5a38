package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/suteetoe/ekklesia/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter *prometheus.CounterVec
	AuthErrorsCounter   *prometheus.CounterVec
	ActiveSessionsGauge prometheus.Gauge

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Church metrics
	ChurchOperationsCounter *prometheus.CounterVec

	// Metric definition metrics
	MetricOperationsCounter *prometheus.CounterVec

	initOnce sync.Once
)

// InitMetrics initializes Prometheus metrics with configuration.
// Only the first call registers collectors.
func InitMetrics(config *config.Config) {
	initOnce.Do(func() {
		register(promauto.With(prometheus.DefaultRegisterer), config.Metrics.Prefix)
	})
}

func register(factory promauto.Factory, prefix string) {
	HttpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of sign-in and sign-up attempts",
		},
		[]string{"kind"},
	)

	AuthErrorsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"reason"},
	)

	ActiveSessionsGauge = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_sessions_active",
			Help: "Sessions opened minus sessions closed since process start",
		},
	)

	DbOperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	ChurchOperationsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_church_operations_total",
			Help: "Total number of church operations",
		},
		[]string{"operation"},
	)

	MetricOperationsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_metric_operations_total",
			Help: "Total number of metric definition operations",
		},
		[]string{"operation"},
	)
}

// ObserveHTTPRequest records one served request
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	if HttpRequestsTotal == nil {
		return
	}
	HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordAuthAttempt increments the attempt counter for sign-in or sign-up
func RecordAuthAttempt(kind string) {
	if AuthAttemptsCounter != nil {
		AuthAttemptsCounter.WithLabelValues(kind).Inc()
	}
}

// RecordAuthError increments the counter for authentication errors
func RecordAuthError(reason string) {
	if AuthErrorsCounter != nil {
		AuthErrorsCounter.WithLabelValues(reason).Inc()
	}
}

func SessionStarted() {
	if ActiveSessionsGauge != nil {
		ActiveSessionsGauge.Inc()
	}
}

func SessionEnded() {
	if ActiveSessionsGauge != nil {
		ActiveSessionsGauge.Dec()
	}
}

// RecordChurchOperation increments the counter for church operations
func RecordChurchOperation(operation string) {
	if ChurchOperationsCounter != nil {
		ChurchOperationsCounter.WithLabelValues(operation).Inc()
	}
}

// RecordMetricOperation increments the counter for metric definition operations
func RecordMetricOperation(operation string) {
	if MetricOperationsCounter != nil {
		MetricOperationsCounter.WithLabelValues(operation).Inc()
	}
}
