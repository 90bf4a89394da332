package observability

import (
	"context"
	"database/sql"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every custom metric exported by the api and the worker.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Account Metrics
	UserOperationsTotal *prometheus.CounterVec

	// Activity Metrics
	ActivityRecordedTotal      *prometheus.CounterVec
	ActivityProcessingDuration *prometheus.HistogramVec
	ActivityFailedTotal        *prometheus.CounterVec

	// Database Metrics
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBQueryDuration    *prometheus.HistogramVec

	// Cache (Redis) Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Queue (RabbitMQ) Metrics
	QueueMessagesPublished *prometheus.CounterVec
	QueueMessagesConsumed  *prometheus.CounterVec
	QueuePublishFailed     *prometheus.CounterVec
}

// NewMetrics registers all metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		UserOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "user_operations_total",
				Help: "Total number of account operations by outcome",
			},
			[]string{"operation", "result"}, // result: success, not_found, conflict, unauthorized, error
		),

		ActivityRecordedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "user_activity_recorded_total",
				Help: "Total number of user events processed by the worker",
			},
			[]string{"event_type", "status"},
		),

		ActivityProcessingDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "user_activity_processing_duration_seconds",
				Help:    "Duration of recording a user event in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"event_type"},
		),

		ActivityFailedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "user_activity_failed_total",
				Help: "Total number of user events that could not be recorded",
			},
			[]string{"event_type", "error_type"},
		),

		DBConnectionsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_open",
				Help: "Number of open database connections",
			},
		),

		DBConnectionsInUse: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_in_use",
				Help: "Number of database connections currently in use",
			},
		),

		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"query_type"}, // SELECT, INSERT, UPDATE
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"key_type"},
		),

		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"key_type"},
		),

		QueueMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_messages_published_total",
				Help: "Total number of messages published to the queue",
			},
			[]string{"queue_name"},
		),

		QueueMessagesConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_messages_consumed_total",
				Help: "Total number of messages consumed from the queue",
			},
			[]string{"queue_name"},
		),

		QueuePublishFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_publish_failed_total",
				Help: "Total number of messages that could not be published",
			},
			[]string{"queue_name"},
		),
	}
}

// GlobalMetrics is the process-wide instance registered on the default registry.
var GlobalMetrics *Metrics

var initOnce sync.Once

// InitMetrics initializes GlobalMetrics. Calling it more than once is a no-op.
func InitMetrics() {
	initOnce.Do(func() {
		GlobalMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
}

func (m *Metrics) ObserveUserOperation(operation, result string) {
	if m == nil {
		return
	}
	m.UserOperationsTotal.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) ObserveDBQuery(queryType string, start time.Time) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveCache(keyType string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(keyType).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(keyType).Inc()
}

func (m *Metrics) ObservePublish(queueName string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.QueuePublishFailed.WithLabelValues(queueName).Inc()
		return
	}
	m.QueueMessagesPublished.WithLabelValues(queueName).Inc()
}

// TrackDBStats copies connection pool stats into the gauges every interval
// until ctx is done.
func (m *Metrics) TrackDBStats(ctx context.Context, db *sql.DB, interval time.Duration) {
	if m == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stats := db.Stats()
		m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
		m.DBConnectionsInUse.Set(float64(stats.InUse))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Metrics) ObserveConsume(queueName string) {
	if m == nil {
		return
	}
	m.QueueMessagesConsumed.WithLabelValues(queueName).Inc()
}

// ObserveActivity records the outcome and duration of recording one event.
func (m *Metrics) ObserveActivity(eventType string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.ActivityProcessingDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
	if err != nil {
		m.ActivityRecordedTotal.WithLabelValues(eventType, "failed").Inc()
		return
	}
	m.ActivityRecordedTotal.WithLabelValues(eventType, "success").Inc()
}

func (m *Metrics) ObserveActivityFailure(eventType, errorType string) {
	if m == nil {
		return
	}
	m.ActivityFailedTotal.WithLabelValues(eventType, errorType).Inc()
}

// TrackInFlight counts a request as in flight until the returned func is called.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.HTTPRequestsInFlight.Inc()
	return m.HTTPRequestsInFlight.Dec
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}
