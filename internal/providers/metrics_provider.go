package providers

import (
	"time"
	"watchtime/internal/structures"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	UpdateApplied = "applied"
	UpdateFailed  = "failed"
	UpdateReset   = "reset"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	IncUpdates(result string)
	AddRecordedSeconds(category string, seconds int64)
	IncMigrations(shape string)
	RegisterQueueDepth(fn func() float64)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	updatesTotal        *prometheus.CounterVec
	recordedSeconds     *prometheus.CounterVec
	migrationsTotal     *prometheus.CounterVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncUpdates(result string) {
	m.updatesTotal.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) AddRecordedSeconds(category string, seconds int64) {
	if seconds <= 0 {
		return
	}
	m.recordedSeconds.WithLabelValues(category).Add(float64(seconds))
}

func (m *MetricsProvider) IncMigrations(shape string) {
	m.migrationsTotal.WithLabelValues(shape).Inc()
}

// RegisterQueueDepth exposes the aggregation queue depth. It is registered
// by the engine itself because the engine depends on this provider.
func (m *MetricsProvider) RegisterQueueDepth(fn func() float64) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "watchtime_queue_depth",
		Help: "Number of updates waiting in the aggregation queue",
	}, fn)
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "watchtime_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "watchtime_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "watchtime_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "watchtime_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "watchtime_persistence_duration_seconds",
			Help:    "Duration of store writes and snapshots in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		updatesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "watchtime_updates_total",
			Help: "Aggregation queue jobs by result",
		}, []string{"result"}),

		recordedSeconds: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "watchtime_recorded_seconds_total",
			Help: "Watch seconds merged into daily records per category",
		}, []string{"category"}),

		migrationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "watchtime_record_migrations_total",
			Help: "Legacy daily records upgraded on read, by source shape",
		}, []string{"shape"}),
	}
}

// noopMetrics is used when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncUpdates(_ string)                              {}
func (n *noopMetrics) AddRecordedSeconds(_ string, _ int64)             {}
func (n *noopMetrics) IncMigrations(_ string)                           {}
func (n *noopMetrics) RegisterQueueDepth(_ func() float64)              {}
