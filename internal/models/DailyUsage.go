package models

import "time"

// DailyUsage is one row of the per-day usage history table.
type DailyUsage struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	Date      string    `gorm:"size:10;uniqueIndex" json:"date"`
	Minutes   int       `json:"minutes"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// DateKey formats a timestamp as the history row key.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
