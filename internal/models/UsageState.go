package models

import (
	"strconv"
	"time"

	"github.com/spf13/cast"
)

// Counter keys carried over from the original browser client, which kept
// them in localStorage. Values stay strings for the same reason: the file
// remains greppable and unknown keys survive round trips untouched.
const (
	KeyActiveMinutes    = "appActiveMinutes"
	KeyLastActiveTime   = "lastActiveTime"
	KeyRemainderSeconds = "activeRemainderSeconds"
)

const CurrentStateVersion = 2

// UsageState is the durable snapshot of the usage timer: the named string
// counters plus the streak bitmap.
type UsageState struct {
	Version  int               `json:"version"`
	Counters map[string]string `json:"counters"`
	Streak   *StreakRecord     `json:"streak,omitempty"`
}

func NewUsageState() *UsageState {
	return &UsageState{
		Version:  CurrentStateVersion,
		Counters: make(map[string]string),
		Streak:   NewStreakRecord(),
	}
}

// Normalize repairs a state loaded from disk: nil maps become empty,
// a missing streak becomes a fresh one, the version is brought current.
func (s *UsageState) Normalize() {
	if s.Counters == nil {
		s.Counters = make(map[string]string)
	}
	if s.Streak == nil {
		s.Streak = NewStreakRecord()
	}
	s.Version = CurrentStateVersion
}

// ActiveMinutes returns the committed minute total. Malformed or negative
// stored values read as zero.
func (s *UsageState) ActiveMinutes() int {
	v := cast.ToInt(s.Counters[KeyActiveMinutes])
	if v < 0 {
		return 0
	}
	return v
}

func (s *UsageState) SetActiveMinutes(minutes int) {
	if minutes < 0 {
		minutes = 0
	}
	s.Counters[KeyActiveMinutes] = strconv.Itoa(minutes)
}

// LastActiveTime returns the wall-clock time of the last recorded
// activity, or the zero time when absent or malformed. Stored as epoch
// milliseconds, matching what the browser clients wrote.
func (s *UsageState) LastActiveTime() time.Time {
	ms := cast.ToInt64(s.Counters[KeyLastActiveTime])
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func (s *UsageState) SetLastActiveTime(t time.Time) {
	s.Counters[KeyLastActiveTime] = strconv.FormatInt(t.UnixMilli(), 10)
}

// RemainderSeconds returns the sub-minute accumulator persisted at the
// last flush. Out-of-range values read as zero.
func (s *UsageState) RemainderSeconds() int {
	v := cast.ToInt(s.Counters[KeyRemainderSeconds])
	if v < 0 || v > 59 {
		return 0
	}
	return v
}

func (s *UsageState) SetRemainderSeconds(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	if seconds > 59 {
		seconds = 59
	}
	s.Counters[KeyRemainderSeconds] = strconv.Itoa(seconds)
}
