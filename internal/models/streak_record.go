package models

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

// Streak milestones in consecutive study days.
var streakMilestones = []struct {
	Name string
	Days int
}{
	{"first_day", 1},
	{"week_streak", 7},
	{"month_streak", 30},
	{"hundred_days", 100},
}

// StreakInfo is the streak summary served to clients.
type StreakInfo struct {
	CurrentStreak  int      `json:"current_streak"`
	LongestStreak  int      `json:"longest_streak"`
	TotalStudyDays int      `json:"total_study_days"`
	Milestones     []string `json:"milestones_achieved"`
}

// StreakRecord tracks which calendar days saw study activity. Days are
// stored as day numbers (civil date mapped to days since the Unix epoch)
// in a Roaring Bitmap, so years of history stay a few hundred bytes.
// All public methods are safe for concurrent use.
type StreakRecord struct {
	mu        sync.Mutex
	days      *roaring.Bitmap
	updatedAt time.Time
}

func NewStreakRecord() *StreakRecord {
	return &StreakRecord{days: roaring.New()}
}

// DayNumber converts a wall-clock time to its civil-date day number.
func DayNumber(t time.Time) uint32 {
	year, month, day := t.Date()
	return uint32(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// MarkStudied records activity on the day of t. Returns true when the day
// was not already marked.
func (sr *StreakRecord) MarkStudied(t time.Time) bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.updatedAt = t
	return sr.days.CheckedAdd(DayNumber(t))
}

// CurrentStreak returns the length of the consecutive run of study days
// ending today. A day with no activity yet does not break the run until
// the following day, so a run ending yesterday still counts.
func (sr *StreakRecord) CurrentStreak(now time.Time) int {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	day := DayNumber(now)
	if !sr.days.Contains(day) {
		if day == 0 || !sr.days.Contains(day-1) {
			return 0
		}
		day--
	}
	streak := 0
	for sr.days.Contains(day) {
		streak++
		if day == 0 {
			break
		}
		day--
	}
	return streak
}

// LongestStreak returns the longest consecutive run ever recorded.
func (sr *StreakRecord) LongestStreak() int {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	longest, run := 0, 0
	var prev uint32
	first := true
	it := sr.days.Iterator()
	for it.HasNext() {
		day := it.Next()
		if first || day != prev+1 {
			run = 1
		} else {
			run++
		}
		if run > longest {
			longest = run
		}
		prev = day
		first = false
	}
	return longest
}

func (sr *StreakRecord) TotalDays() int {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return int(sr.days.GetCardinality())
}

// Milestones returns the milestone names the current streak has reached.
func (sr *StreakRecord) Milestones(now time.Time) []string {
	current := sr.CurrentStreak(now)
	names := make([]string, 0, len(streakMilestones))
	for _, m := range streakMilestones {
		if current >= m.Days {
			names = append(names, m.Name)
		}
	}
	return names
}

// Info builds the streak summary as of now.
func (sr *StreakRecord) Info(now time.Time) StreakInfo {
	return StreakInfo{
		CurrentStreak:  sr.CurrentStreak(now),
		LongestStreak:  sr.LongestStreak(),
		TotalStudyDays: sr.TotalDays(),
		Milestones:     sr.Milestones(now),
	}
}

func (sr *StreakRecord) Clone() *StreakRecord {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return &StreakRecord{
		days:      sr.days.Clone(),
		updatedAt: sr.updatedAt,
	}
}

// MarshalJSON encodes the record in its binary snapshot format, base64
// wrapped so it embeds in the JSON state file.
func (sr *StreakRecord) MarshalJSON() ([]byte, error) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	var buf bytes.Buffer
	if err := writeStreakRecord(&buf, sr); err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	return []byte(`"` + encoded + `"`), nil
}

func (sr *StreakRecord) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		sr.mu.Lock()
		defer sr.mu.Unlock()
		sr.days = roaring.New()
		sr.updatedAt = time.Time{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("streak record: expected base64 string")
	}
	raw, err := base64.StdEncoding.DecodeString(string(data[1 : len(data)-1]))
	if err != nil {
		return fmt.Errorf("streak record: %w", err)
	}
	decoded, err := readStreakRecord(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("streak record: %w", err)
	}
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.days = decoded.days
	sr.updatedAt = decoded.updatedAt
	return nil
}
