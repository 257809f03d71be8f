package places

import "time"

// SetClock replaces the repository clock in tests.
func SetClock(r *Repository, now func() time.Time) {
	r.now = now
}
