package interfaces

import "time"

// MaintainerInterface is the history bookkeeping hook driven by the
// ticker: Restore seeds the commit baseline after a state load, Maintain
// runs the daily retention pass, Flush drains pending archive writes.
type MaintainerInterface interface {
	Restore(totalMinutes int) error
	Maintain(now time.Time)
	Flush() error
}
