package watcher

import "time"

// NextBusinessDay returns the next monitored date after t. Saturday is a
// teaching day here, Sunday is not, so Saturday rolls to Monday and
// every other day rolls to tomorrow.
func NextBusinessDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	if next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
