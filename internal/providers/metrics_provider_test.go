package providers

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"sud/internal/models"
	"sud/internal/structures"
)

// --- minimal mock for UsageTimerServiceInterface ---

type metricsTestService struct{}

func (m *metricsTestService) HandleEvent(_ models.ActivityEvent, _ time.Time) {}
func (m *metricsTestService) Tick(_ time.Time)                                {}
func (m *metricsTestService) GetCurrentMinutes() int                          { return 5 }
func (m *metricsTestService) AddMinutes(_ int)                                {}
func (m *metricsTestService) Reset()                                          {}
func (m *metricsTestService) IsActive() bool                                  { return true }
func (m *metricsTestService) LastActiveTime() time.Time                       { return time.Time{} }
func (m *metricsTestService) Subscribe(_ func(int)) func()                    { return func() {} }
func (m *metricsTestService) StreakInfo(_ time.Time) models.StreakInfo        { return models.StreakInfo{} }
func (m *metricsTestService) LoadState() error                                { return nil }
func (m *metricsTestService) RecoverGap(_ time.Time) int                      { return 0 }
func (m *metricsTestService) Persist() error                                  { return nil }
func (m *metricsTestService) Shutdown(_ time.Time) error                      { return nil }
func (m *metricsTestService) CommitCount() uint64                             { return 0 }
func (m *metricsTestService) FlushCount() uint64                              { return 0 }
func (m *metricsTestService) PanicCount() uint64                              { return 0 }
func (m *metricsTestService) PersistFailureCount() uint64                     { return 0 }

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: false},
	}
	m := NewMetricsProvider(conf, &metricsTestService{})
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	// Ensure no-op methods don't panic
	m.IncRequestsTotal("/test", 200)
	m.ObserveRequestDuration("/test", time.Millisecond)
	m.IncCacheHits("streak")
	m.IncCacheMisses("history:30")
	m.ObservePersistenceDuration(time.Millisecond)
	m.IncGoalRequests("list", "ok")
	m.SetHistoryDays(10)
}

func TestMetricsProvider_WhenEnabled(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	defer func() {
		prometheus.DefaultRegisterer = prometheus.NewRegistry()
		prometheus.DefaultGatherer = prometheus.DefaultRegisterer.(prometheus.Gatherer)
	}()

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf, &metricsTestService{})
	_, ok := m.(*MetricsProvider)
	assert.True(t, ok, "should return MetricsProvider when enabled")
}

func TestMetricsProvider_IncrementCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	defer func() {
		prometheus.DefaultRegisterer = prometheus.NewRegistry()
		prometheus.DefaultGatherer = prometheus.DefaultRegisterer.(prometheus.Gatherer)
	}()

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf, &metricsTestService{})

	// These should not panic
	m.IncRequestsTotal("/usage", 200)
	m.IncRequestsTotal("/usage", 404)
	m.ObserveRequestDuration("/usage", 5*time.Millisecond)
	m.IncCacheHits("streak")
	m.IncCacheMisses("history:30")
	m.ObservePersistenceDuration(100 * time.Millisecond)
	m.IncGoalRequests("create", "ok")
	m.IncGoalRequests("update", "conflict")
	m.SetHistoryDays(42)
}

func TestHttpStatusBucket(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, httpStatusBucket(tt.code))
	}
}
