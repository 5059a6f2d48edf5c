package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sud/internal/models"
	"sud/internal/structures"
)

// --- local mocks ---

type memPersister struct {
	mu      sync.Mutex
	state   *models.UsageState
	saves   int
	saveErr error
	loadErr error
}

func (m *memPersister) Save(state *models.UsageState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = state
	m.saves++
	return nil
}

func (m *memPersister) Load() (*models.UsageState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.state == nil {
		return models.NewUsageState(), nil
	}
	return m.state, nil
}

func (m *memPersister) last() *models.UsageState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *memPersister) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func newTestTimer() (UsageTimerServiceInterface, *memPersister) {
	conf := &structures.Config{
		Usage: structures.UsageConfig{
			TickInterval:   7 * time.Second,
			RecoveryWindow: 24 * time.Hour,
		},
	}
	p := &memPersister{}
	return NewUsageTimerService(conf, p), p
}

var testBase = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestTimer_CommitsWholeMinutes(t *testing.T) {
	svc, p := newTestTimer()

	svc.HandleEvent(models.EventVisible, testBase)
	svc.Tick(testBase.Add(65 * time.Second))

	assert.Equal(t, 1, svc.GetCurrentMinutes())
	assert.Equal(t, uint64(1), svc.CommitCount())

	state := p.last()
	require.NotNil(t, state)
	assert.Equal(t, 1, state.ActiveMinutes())
	assert.Equal(t, 5, state.RemainderSeconds())
}

func TestTimer_TickWhileInactive(t *testing.T) {
	svc, p := newTestTimer()

	svc.Tick(testBase.Add(5 * time.Minute))

	assert.Equal(t, 0, svc.GetCurrentMinutes())
	assert.Equal(t, 0, p.saveCount())
}

func TestTimer_SubMinuteNeverCommits(t *testing.T) {
	svc, _ := newTestTimer()

	svc.HandleEvent(models.EventVisible, testBase)
	svc.Tick(testBase.Add(30 * time.Second))
	svc.Tick(testBase.Add(59 * time.Second))

	assert.Equal(t, 0, svc.GetCurrentMinutes())
}

func TestTimer_FlushPersistsRemainder(t *testing.T) {
	svc, p := newTestTimer()

	svc.HandleEvent(models.EventVisible, testBase)
	svc.Tick(testBase.Add(30 * time.Second))
	svc.HandleEvent(models.EventHidden, testBase.Add(45*time.Second))

	assert.Equal(t, 0, svc.GetCurrentMinutes())
	assert.False(t, svc.IsActive())

	state := p.last()
	require.NotNil(t, state)
	assert.Equal(t, 45, state.RemainderSeconds())
}

func TestTimer_MultiMinuteBurst(t *testing.T) {
	svc, p := newTestTimer()

	svc.HandleEvent(models.EventVisible, testBase)
	// One late tick covering 3m10s
	svc.Tick(testBase.Add(3*time.Minute + 10*time.Second))

	assert.Equal(t, 3, svc.GetCurrentMinutes())
	assert.Equal(t, uint64(3), svc.CommitCount())
	assert.Equal(t, 10, p.last().RemainderSeconds())
}

func TestTimer_ResumeIsIdempotent(t *testing.T) {
	svc, _ := newTestTimer()

	svc.HandleEvent(models.EventVisible, testBase)
	// Focus arrives 30s later, must not reset the reference
	svc.HandleEvent(models.EventFocus, testBase.Add(30*time.Second))
	svc.Tick(testBase.Add(70 * time.Second))

	assert.Equal(t, 1, svc.GetCurrentMinutes())
}

func TestTimer_FlushIsIdempotent(t *testing.T) {
	svc, _ := newTestTimer()

	svc.HandleEvent(models.EventVisible, testBase)
	svc.HandleEvent(models.EventHidden, testBase.Add(90*time.Second))
	assert.Equal(t, 1, svc.GetCurrentMinutes())

	// Second hide accrues nothing more
	svc.HandleEvent(models.EventHidden, testBase.Add(10*time.Minute))
	svc.HandleEvent(models.EventBlur, testBase.Add(20*time.Minute))
	assert.Equal(t, 1, svc.GetCurrentMinutes())
	assert.Equal(t, uint64(3), svc.FlushCount())
}

func TestTimer_HiddenStopsAccrual(t *testing.T) {
	svc, _ := newTestTimer()

	svc.HandleEvent(models.EventVisible, testBase)
	svc.HandleEvent(models.EventHidden, testBase.Add(30*time.Second))
	// Ticks while hidden must not accrue
	svc.Tick(testBase.Add(5 * time.Minute))
	svc.HandleEvent(models.EventVisible, testBase.Add(10*time.Minute))
	svc.Tick(testBase.Add(10*time.Minute + 40*time.Second))

	// 30s + 40s = 70s accrued in total
	assert.Equal(t, 1, svc.GetCurrentMinutes())
}

func TestTimer_AddMinutes(t *testing.T) {
	svc, p := newTestTimer()

	svc.AddMinutes(15)
	assert.Equal(t, 15, svc.GetCurrentMinutes())
	assert.Equal(t, 15, p.last().ActiveMinutes())

	svc.AddMinutes(0)
	svc.AddMinutes(-3)
	assert.Equal(t, 15, svc.GetCurrentMinutes())
}

func TestTimer_Reset(t *testing.T) {
	svc, p := newTestTimer()

	svc.AddMinutes(10)
	svc.Reset()

	assert.Equal(t, 0, svc.GetCurrentMinutes())
	assert.Equal(t, 0, p.last().ActiveMinutes())
	// The streak history survives a counter reset
	assert.Equal(t, 1, svc.StreakInfo(time.Now()).TotalStudyDays)
}

func TestTimer_SubscribersNotifiedInOrder(t *testing.T) {
	svc, _ := newTestTimer()

	var order []string
	svc.Subscribe(func(total int) { order = append(order, "first") })
	svc.Subscribe(func(total int) { order = append(order, "second") })
	svc.Subscribe(func(total int) { order = append(order, "third") })

	svc.AddMinutes(1)

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestTimer_SubscriberPanicIsolated(t *testing.T) {
	svc, _ := newTestTimer()

	var got []int
	svc.Subscribe(func(total int) { got = append(got, total) })
	svc.Subscribe(func(total int) { panic("bad subscriber") })
	svc.Subscribe(func(total int) { got = append(got, total*10) })

	svc.AddMinutes(2)

	assert.Equal(t, []int{2, 20}, got)
	assert.Equal(t, uint64(1), svc.PanicCount())
}

func TestTimer_Unsubscribe(t *testing.T) {
	svc, _ := newTestTimer()

	var first, second int
	unsub := svc.Subscribe(func(total int) { first = total })
	svc.Subscribe(func(total int) { second = total })

	svc.AddMinutes(1)
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)

	unsub()
	svc.AddMinutes(1)
	assert.Equal(t, 1, first, "unsubscribed callback must not fire")
	assert.Equal(t, 2, second)

	// Double unsubscribe is a no-op
	unsub()
	svc.AddMinutes(1)
	assert.Equal(t, 3, second)
}

func TestTimer_SubscriberSeesCommit(t *testing.T) {
	svc, _ := newTestTimer()

	var got []int
	svc.Subscribe(func(total int) { got = append(got, total) })

	svc.HandleEvent(models.EventVisible, testBase)
	svc.Tick(testBase.Add(2*time.Minute + 5*time.Second))

	assert.Equal(t, []int{2}, got)
}

func TestTimer_LoadState(t *testing.T) {
	svc, p := newTestTimer()

	stored := models.NewUsageState()
	stored.SetActiveMinutes(42)
	stored.SetRemainderSeconds(30)
	stored.SetLastActiveTime(testBase)
	p.state = stored

	require.NoError(t, svc.LoadState())
	assert.Equal(t, 42, svc.GetCurrentMinutes())
	assert.Equal(t, testBase.UnixMilli(), svc.LastActiveTime().UnixMilli())
	assert.False(t, svc.IsActive())
}

func TestTimer_LoadStateError(t *testing.T) {
	svc, p := newTestTimer()
	p.loadErr = errors.New("disk gone")

	assert.Error(t, svc.LoadState())
}

func TestTimer_RecoverGapWithinWindow(t *testing.T) {
	svc, p := newTestTimer()

	stored := models.NewUsageState()
	stored.SetActiveMinutes(5)
	stored.SetLastActiveTime(testBase)
	p.state = stored
	require.NoError(t, svc.LoadState())

	// Down for 10 minutes, inside the window
	recovered := svc.RecoverGap(testBase.Add(10 * time.Minute))

	assert.Equal(t, 10, recovered)
	assert.Equal(t, 15, svc.GetCurrentMinutes())
}

func TestTimer_RecoverGapRemainder(t *testing.T) {
	svc, p := newTestTimer()

	stored := models.NewUsageState()
	stored.SetLastActiveTime(testBase)
	p.state = stored
	require.NoError(t, svc.LoadState())

	recovered := svc.RecoverGap(testBase.Add(90 * time.Second))

	assert.Equal(t, 1, recovered)
	assert.Equal(t, 30, p.last().RemainderSeconds())
}

func TestTimer_RecoverGapBeyondWindow(t *testing.T) {
	svc, p := newTestTimer()

	stored := models.NewUsageState()
	stored.SetActiveMinutes(5)
	stored.SetLastActiveTime(testBase)
	p.state = stored
	require.NoError(t, svc.LoadState())

	recovered := svc.RecoverGap(testBase.Add(25 * time.Hour))

	assert.Equal(t, 0, recovered)
	assert.Equal(t, 5, svc.GetCurrentMinutes())
}

func TestTimer_RecoverGapNoHistory(t *testing.T) {
	svc, _ := newTestTimer()

	require.NoError(t, svc.LoadState())
	assert.Equal(t, 0, svc.RecoverGap(testBase))
	assert.Equal(t, 0, svc.GetCurrentMinutes())
}

func TestTimer_RecoverGapNotifiesSubscribers(t *testing.T) {
	svc, p := newTestTimer()

	stored := models.NewUsageState()
	stored.SetActiveMinutes(3)
	stored.SetLastActiveTime(testBase)
	p.state = stored
	require.NoError(t, svc.LoadState())

	var got []int
	svc.Subscribe(func(total int) { got = append(got, total) })

	svc.RecoverGap(testBase.Add(2 * time.Minute))
	assert.Equal(t, []int{5}, got)
}

func TestTimer_Shutdown(t *testing.T) {
	svc, p := newTestTimer()

	svc.HandleEvent(models.EventVisible, testBase)
	require.NoError(t, svc.Shutdown(testBase.Add(90*time.Second)))

	assert.Equal(t, 1, svc.GetCurrentMinutes())
	assert.False(t, svc.IsActive())
	assert.Equal(t, 1, p.last().ActiveMinutes())
	assert.Equal(t, 30, p.last().RemainderSeconds())
}

func TestTimer_PersistFailureCounted(t *testing.T) {
	svc, p := newTestTimer()
	p.saveErr = errors.New("disk full")

	assert.Error(t, svc.Persist())
	assert.Equal(t, uint64(1), svc.PersistFailureCount())

	// Accrual keeps working despite the failing store
	svc.HandleEvent(models.EventVisible, testBase)
	svc.Tick(testBase.Add(2 * time.Minute))
	assert.Equal(t, 2, svc.GetCurrentMinutes())
}

func TestTimer_StreakMarkedOnCommit(t *testing.T) {
	svc, _ := newTestTimer()

	svc.HandleEvent(models.EventVisible, testBase)
	svc.Tick(testBase.Add(time.Minute))

	info := svc.StreakInfo(testBase)
	assert.Equal(t, 1, info.CurrentStreak)
	assert.Equal(t, []string{"first_day"}, info.Milestones)
}

func TestTimer_ConcurrentAccess(t *testing.T) {
	svc, _ := newTestTimer()
	svc.Subscribe(func(_ int) {})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			at := testBase.Add(time.Duration(n) * time.Second)
			for j := 0; j < 100; j++ {
				svc.HandleEvent(models.EventVisible, at)
				svc.Tick(at.Add(time.Duration(j) * time.Second))
				svc.GetCurrentMinutes()
				svc.IsActive()
				svc.HandleEvent(models.EventHidden, at.Add(time.Duration(j+1)*time.Second))
			}
		}(i)
	}
	wg.Wait()
}
