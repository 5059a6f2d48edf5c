package testutil

import (
	"sync"
	"time"

	"sud/internal/models"
	"sud/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// HasLevel reports whether any entry of the given level was recorded.
func (m *MockLogger) HasLevel(level string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Logs {
		if e.Level == level {
			return true
		}
	}
	return false
}

// MockTimerService implements services.UsageTimerServiceInterface.
type MockTimerService struct {
	mu            sync.Mutex
	Events        []models.ActivityEvent
	TickCalls     int
	TotalMinutes  int
	Active        bool
	Added         []int
	ResetCalls    int
	Subscribers   []func(int)
	Streak        models.StreakInfo
	LastActive    time.Time
	LoadStateErr  error
	LoadCalls     int
	RecoverResult int
	RecoverCalls  int
	PersistErr    error
	PersistCalls  int
	ShutdownErr   error
	ShutdownCalls int
}

func (m *MockTimerService) HandleEvent(event models.ActivityEvent, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	m.Active = event.Resumes()
}

func (m *MockTimerService) Tick(_ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TickCalls++
}

// Ticks returns the number of Tick calls seen so far.
func (m *MockTimerService) Ticks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TickCalls
}

func (m *MockTimerService) GetCurrentMinutes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TotalMinutes
}

func (m *MockTimerService) AddMinutes(minutes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if minutes <= 0 {
		return
	}
	m.Added = append(m.Added, minutes)
	m.TotalMinutes += minutes
}

func (m *MockTimerService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetCalls++
	m.TotalMinutes = 0
}

func (m *MockTimerService) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Active
}

func (m *MockTimerService) LastActiveTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastActive
}

func (m *MockTimerService) Subscribe(fn func(totalMinutes int)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Subscribers = append(m.Subscribers, fn)
	idx := len(m.Subscribers) - 1
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.Subscribers[idx] = nil
	}
}

// Notify simulates a counter change, fanning the total out to everything
// still subscribed.
func (m *MockTimerService) Notify(total int) {
	m.mu.Lock()
	m.TotalMinutes = total
	fns := append(([]func(int))(nil), m.Subscribers...)
	m.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn(total)
		}
	}
}

func (m *MockTimerService) StreakInfo(_ time.Time) models.StreakInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Streak
}

func (m *MockTimerService) LoadState() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls++
	return m.LoadStateErr
}

func (m *MockTimerService) RecoverGap(_ time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecoverCalls++
	m.TotalMinutes += m.RecoverResult
	return m.RecoverResult
}

func (m *MockTimerService) Persist() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PersistCalls++
	return m.PersistErr
}

func (m *MockTimerService) Shutdown(_ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShutdownCalls++
	m.Active = false
	return m.ShutdownErr
}

func (m *MockTimerService) CommitCount() uint64         { return 0 }
func (m *MockTimerService) FlushCount() uint64          { return 0 }
func (m *MockTimerService) PanicCount() uint64          { return 0 }
func (m *MockTimerService) PersistFailureCount() uint64 { return 0 }

// MockPersister implements services.StatePersister backed by memory.
type MockPersister struct {
	mu      sync.Mutex
	State   *models.UsageState
	SaveErr error
	LoadErr error
	Saves   int
}

func (m *MockPersister) Save(state *models.UsageState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.State = state
	m.Saves++
	return nil
}

func (m *MockPersister) Load() (*models.UsageState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.State == nil {
		return models.NewUsageState(), nil
	}
	return m.State, nil
}

// MockMaintainer implements interfaces.MaintainerInterface.
type MockMaintainer struct {
	mu            sync.Mutex
	SeededTotal   int
	RestoreCalls  int
	RestoreErr    error
	MaintainCalls int
	FlushCalls    int
	FlushErr      error
}

func (m *MockMaintainer) Restore(totalMinutes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RestoreCalls++
	m.SeededTotal = totalMinutes
	return m.RestoreErr
}

func (m *MockMaintainer) Maintain(_ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MaintainCalls++
}

func (m *MockMaintainer) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FlushCalls++
	return m.FlushErr
}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu              sync.Mutex
	Requests        map[string]int
	CacheHitCount   int
	CacheMissCount  int
	PersistObserved int
	GoalRequests    map[string]int
	HistoryDays     int
}

func (m *MockMetrics) IncRequestsTotal(endpoint string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Requests == nil {
		m.Requests = make(map[string]int)
	}
	m.Requests[endpoint]++
}

func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}

func (m *MockMetrics) IncCacheHits(_ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHitCount++
}

func (m *MockMetrics) IncCacheMisses(_ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMissCount++
}

func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PersistObserved++
}

func (m *MockMetrics) IncGoalRequests(operation, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GoalRequests == nil {
		m.GoalRequests = make(map[string]int)
	}
	m.GoalRequests[operation+":"+outcome]++
}

func (m *MockMetrics) SetHistoryDays(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HistoryDays = count
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
	CloseCalls   int
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {
	m.CloseCalls++
}
