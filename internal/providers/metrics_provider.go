package providers

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sud/internal/services"
	"sud/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits(key string)
	IncCacheMisses(key string)
	ObservePersistenceDuration(duration time.Duration)
	IncGoalRequests(operation, outcome string)
	SetHistoryDays(count int)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	persistenceDuration prometheus.Histogram
	goalRequests        *prometheus.CounterVec
	historyDays         prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits(key string) {
	m.cacheHits.WithLabelValues(cacheSurface(key)).Inc()
}

func (m *MetricsProvider) IncCacheMisses(key string) {
	m.cacheMisses.WithLabelValues(cacheSurface(key)).Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncGoalRequests(operation, outcome string) {
	m.goalRequests.WithLabelValues(operation, outcome).Inc()
}

func (m *MetricsProvider) SetHistoryDays(count int) {
	m.historyDays.Set(float64(count))
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

// cacheSurface folds parameterized cache keys ("history:30") into their
// endpoint name so the label set stays bounded.
func cacheSurface(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

func NewMetricsProvider(conf *structures.Config, service services.UsageTimerServiceInterface) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sud_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sud_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sud_cache_hits_total",
			Help: "Cache hits by cached surface",
		}, []string{"surface"}),

		cacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sud_cache_misses_total",
			Help: "Cache misses by cached surface",
		}, []string{"surface"}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sud_persistence_duration_seconds",
			Help:    "Duration of state file writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		goalRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sud_goal_requests_total",
			Help: "Requests to the remote goal store by operation and outcome",
		}, []string{"operation", "outcome"}),

		historyDays: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sud_history_days",
			Help: "Number of days currently kept in the usage history table",
		}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sud_active_minutes",
		Help: "Committed active minutes counter",
	}, func() float64 {
		return float64(service.GetCurrentMinutes())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sud_timer_active",
		Help: "Whether the usage timer is currently accruing time",
	}, func() float64 {
		if service.IsActive() {
			return 1
		}
		return 0
	})

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "sud_minute_commits_total",
		Help: "Whole minutes committed to the counter since start",
	}, func() float64 {
		return float64(service.CommitCount())
	})

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "sud_flushes_total",
		Help: "Timer flushes triggered by hide/blur events and shutdown",
	}, func() float64 {
		return float64(service.FlushCount())
	})

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "sud_subscriber_panics_total",
		Help: "Subscriber callbacks that panicked during fan-out",
	}, func() float64 {
		return float64(service.PanicCount())
	})

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "sud_persist_failures_total",
		Help: "State snapshot writes that failed",
	}, func() float64 {
		return float64(service.PersistFailureCount())
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits(_ string)                            {}
func (n *noopMetrics) IncCacheMisses(_ string)                          {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncGoalRequests(_, _ string)                      {}
func (n *noopMetrics) SetHistoryDays(_ int)                             {}
