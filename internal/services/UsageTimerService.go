package services

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"sud/internal/models"
	"sud/internal/structures"
)

// StatePersister loads and stores the durable usage snapshot.
type StatePersister interface {
	Save(state *models.UsageState) error
	Load() (*models.UsageState, error)
}

type UsageTimerServiceInterface interface {
	HandleEvent(event models.ActivityEvent, now time.Time)
	Tick(now time.Time)
	GetCurrentMinutes() int
	AddMinutes(minutes int)
	Reset()
	IsActive() bool
	LastActiveTime() time.Time
	Subscribe(fn func(totalMinutes int)) func()
	StreakInfo(now time.Time) models.StreakInfo
	LoadState() error
	RecoverGap(now time.Time) int
	Persist() error
	Shutdown(now time.Time) error
	CommitCount() uint64
	FlushCount() uint64
	PanicCount() uint64
	PersistFailureCount() uint64
}

type subscriber struct {
	id uint64
	fn func(totalMinutes int)
}

// UsageTimerService owns the usage counter. Time accrues between the
// resume reference and now while the timer is active; whole minutes are
// committed to the total and the sub-minute remainder stays in the
// accumulator. The committed total only ever grows, except through Reset.
//
// Subscribers are notified synchronously after every change to the total,
// in registration order, outside the state lock.
type UsageTimerService struct {
	conf  *structures.Config
	store StatePersister

	mu         sync.Mutex
	total      int
	accrued    time.Duration
	since      time.Time
	lastActive time.Time
	streak     *models.StreakRecord
	subs       []subscriber
	nextSubID  uint64

	active          atomic.Bool
	commits         atomic.Uint64
	flushes         atomic.Uint64
	panics          atomic.Uint64
	persistFailures atomic.Uint64
}

func NewUsageTimerService(conf *structures.Config, store StatePersister) UsageTimerServiceInterface {
	return &UsageTimerService{
		conf:   conf,
		store:  store,
		streak: models.NewStreakRecord(),
	}
}

// HandleEvent applies a visibility or focus signal. Resuming events set
// the accrual reference, the others flush.
func (s *UsageTimerService) HandleEvent(event models.ActivityEvent, now time.Time) {
	if event.Resumes() {
		s.resume(now)
		return
	}
	s.flush(now)
}

// resume starts accrual. A second resume while already active keeps the
// existing reference, otherwise time since the first one would be lost.
func (s *UsageTimerService) resume(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active.Load() {
		return
	}
	s.since = now
	s.lastActive = now
	s.active.Store(true)
}

// flush folds elapsed time into the accumulator, commits whole minutes,
// persists and leaves the timer inactive. Flushing an inactive timer
// accrues nothing but still persists, so repeated hide events are
// harmless.
func (s *UsageTimerService) flush(now time.Time) {
	s.mu.Lock()
	committed := 0
	if s.active.Load() {
		s.accrueLocked(now)
		committed = s.commitLocked(now)
		s.active.Store(false)
	}
	_ = s.saveLocked()
	s.flushes.Inc()
	total := s.total
	var fns []func(int)
	if committed > 0 {
		fns = s.copySubsLocked()
	}
	s.mu.Unlock()
	s.notify(fns, total)
}

// Tick advances the accumulator while the timer is active. Whole minutes
// commit and persist; the remainder stays in memory until the next flush.
func (s *UsageTimerService) Tick(now time.Time) {
	s.mu.Lock()
	if !s.active.Load() {
		s.mu.Unlock()
		return
	}
	s.accrueLocked(now)
	committed := s.commitLocked(now)
	total := s.total
	var fns []func(int)
	if committed > 0 {
		_ = s.saveLocked()
		fns = s.copySubsLocked()
	}
	s.mu.Unlock()
	s.notify(fns, total)
}

func (s *UsageTimerService) GetCurrentMinutes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// AddMinutes adds whole minutes directly to the total. Zero and negative
// amounts are ignored.
func (s *UsageTimerService) AddMinutes(minutes int) {
	if minutes <= 0 {
		return
	}
	now := time.Now()
	s.mu.Lock()
	s.total += minutes
	s.streak.MarkStudied(now)
	s.lastActive = now
	_ = s.saveLocked()
	total := s.total
	fns := s.copySubsLocked()
	s.mu.Unlock()
	s.notify(fns, total)
}

// Reset zeroes the total and the accumulator. The streak history stays,
// days already studied remain studied.
func (s *UsageTimerService) Reset() {
	s.mu.Lock()
	s.total = 0
	s.accrued = 0
	if s.active.Load() {
		s.since = time.Now()
	}
	_ = s.saveLocked()
	fns := s.copySubsLocked()
	s.mu.Unlock()
	s.notify(fns, 0)
}

func (s *UsageTimerService) IsActive() bool {
	return s.active.Load()
}

func (s *UsageTimerService) LastActiveTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Subscribe registers a callback invoked with the new total after each
// change. The returned function unregisters it; remaining subscribers
// keep their registration order.
func (s *UsageTimerService) Subscribe(fn func(totalMinutes int)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *UsageTimerService) StreakInfo(now time.Time) models.StreakInfo {
	s.mu.Lock()
	streak := s.streak
	s.mu.Unlock()
	return streak.Info(now)
}

// LoadState replaces the in-memory state with the persisted snapshot.
// Subscribers are not notified, loading is not a counter change.
func (s *UsageTimerService) LoadState() error {
	state, err := s.store.Load()
	if err != nil {
		return err
	}
	state.Normalize()
	s.mu.Lock()
	s.total = state.ActiveMinutes()
	s.accrued = time.Duration(state.RemainderSeconds()) * time.Second
	s.lastActive = state.LastActiveTime()
	s.streak = state.Streak
	s.mu.Unlock()
	return nil
}

// RecoverGap credits the downtime since the last recorded activity, when
// it falls inside the recovery window. Longer gaps are ignored entirely.
// Returns the number of minutes committed by the recovery.
func (s *UsageTimerService) RecoverGap(now time.Time) int {
	window := s.conf.Usage.RecoveryWindow
	s.mu.Lock()
	committed := 0
	if !s.lastActive.IsZero() {
		gap := now.Sub(s.lastActive)
		if gap > 0 && gap <= window {
			s.accrued += gap
			committed = s.commitLocked(now)
		}
	}
	s.lastActive = now
	_ = s.saveLocked()
	total := s.total
	var fns []func(int)
	if committed > 0 {
		fns = s.copySubsLocked()
	}
	s.mu.Unlock()
	s.notify(fns, total)
	return committed
}

// Persist writes the current snapshot without touching accrual state.
func (s *UsageTimerService) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// Shutdown performs the final flush: commits whatever accrued, stops the
// timer and persists. The error from the last write is returned so the
// caller can report it.
func (s *UsageTimerService) Shutdown(now time.Time) error {
	s.mu.Lock()
	committed := 0
	if s.active.Load() {
		s.accrueLocked(now)
		committed = s.commitLocked(now)
		s.active.Store(false)
		s.flushes.Inc()
	}
	err := s.saveLocked()
	total := s.total
	var fns []func(int)
	if committed > 0 {
		fns = s.copySubsLocked()
	}
	s.mu.Unlock()
	s.notify(fns, total)
	return err
}

func (s *UsageTimerService) CommitCount() uint64         { return s.commits.Load() }
func (s *UsageTimerService) FlushCount() uint64          { return s.flushes.Load() }
func (s *UsageTimerService) PanicCount() uint64          { return s.panics.Load() }
func (s *UsageTimerService) PersistFailureCount() uint64 { return s.persistFailures.Load() }

// accrueLocked moves elapsed time since the reference into the
// accumulator and advances the reference. Caller must hold s.mu.
func (s *UsageTimerService) accrueLocked(now time.Time) {
	elapsed := now.Sub(s.since)
	if elapsed > 0 {
		s.accrued += elapsed
	}
	s.since = now
	s.lastActive = now
}

// commitLocked moves whole minutes from the accumulator into the total
// and marks the day studied. Caller must hold s.mu.
func (s *UsageTimerService) commitLocked(now time.Time) int {
	minutes := int(s.accrued / time.Minute)
	if minutes <= 0 {
		return 0
	}
	s.accrued -= time.Duration(minutes) * time.Minute
	s.total += minutes
	s.commits.Add(uint64(minutes))
	s.streak.MarkStudied(now)
	return minutes
}

// saveLocked writes the current snapshot through the persister. Failures
// are counted, accrual never stalls on I/O. Caller must hold s.mu.
func (s *UsageTimerService) saveLocked() error {
	state := models.NewUsageState()
	state.SetActiveMinutes(s.total)
	if !s.lastActive.IsZero() {
		state.SetLastActiveTime(s.lastActive)
	}
	state.SetRemainderSeconds(int(s.accrued / time.Second))
	state.Streak = s.streak.Clone()
	if err := s.store.Save(state); err != nil {
		s.persistFailures.Inc()
		return err
	}
	return nil
}

// copySubsLocked snapshots the subscriber callbacks so notification can
// run outside the lock. Caller must hold s.mu.
func (s *UsageTimerService) copySubsLocked() []func(int) {
	if len(s.subs) == 0 {
		return nil
	}
	fns := make([]func(int), len(s.subs))
	for i, sub := range s.subs {
		fns[i] = sub.fn
	}
	return fns
}

// notify delivers the total to each callback in order. A panicking
// callback is recovered and counted so the rest still run.
func (s *UsageTimerService) notify(fns []func(int), total int) {
	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.panics.Inc()
				}
			}()
			fn(total)
		}()
	}
}
