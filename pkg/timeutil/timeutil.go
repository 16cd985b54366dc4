// Package timeutil provides day arithmetic for due-date and review-date
// handling. All spaced-repetition rules in the reward engine work with whole
// calendar days, never with raw durations.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// DaysBetween returns the absolute number of whole days between two times.
// The fraction of a day is truncated, matching duration-based day counting.
func DaysBetween(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

// DaysOverdue returns the number of whole days a due date lies in the past
// relative to now. A due date in the future counts the same as an equal
// distance in the past; callers filter by IsOverdue first.
func DaysOverdue(now, dueDate time.Time) int {
	return DaysBetween(now, dueDate)
}

// DaysOverdueInclusive counts the due date itself as one overdue day:
// a content is already considered overdue on the day it is due.
func DaysOverdueInclusive(now, dueDate time.Time) int {
	return DaysOverdue(now, dueDate) + 1
}

// StartOfDay returns the start of the calendar day (00:00:00) of t,
// in t's own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameCalendarDay checks whether two times fall on the same calendar day.
// Both times are compared in the location of the first argument.
func SameCalendarDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// WithinWindow checks whether t lies within the window around now,
// in either direction.
func WithinWindow(now, t time.Time, window time.Duration) bool {
	d := now.Sub(t)
	if d < 0 {
		d = -d
	}
	return d <= window
}
