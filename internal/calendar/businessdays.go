package calendar

import (
	"fmt"
	"time"
)

// HolidaySet is a set of dates (midnight UTC) treated as non-business days
type HolidaySet map[time.Time]bool

// NewHolidaySet builds a set from date values, normalizing to midnight UTC
func NewHolidaySet(dates ...time.Time) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set[DateOf(d)] = true
	}
	return set
}

// Contains reports whether the set includes the given date
func (h HolidaySet) Contains(d time.Time) bool {
	return h[DateOf(d)]
}

// Add inserts a date into the set
func (h HolidaySet) Add(d time.Time) {
	h[DateOf(d)] = true
}

// DateOf truncates a timestamp to its UTC date (midnight)
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns 23:59:59 UTC on the given date. Deadlines expressed in
// days land at end of day so any action taken during the deadline day
// counts as on-time.
func EndOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}

// IsBusinessDay reports whether d is a weekday and not a holiday
func IsBusinessDay(d time.Time, holidays HolidaySet) bool {
	wd := d.UTC().Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !holidays.Contains(d)
}

// AddBusinessDays advances from start until n business days have elapsed,
// skipping weekends and holidays. n = 0 returns the start date unchanged.
func AddBusinessDays(start time.Time, n int, holidays HolidaySet) (time.Time, error) {
	if n < 0 {
		return time.Time{}, fmt.Errorf("business day count must not be negative: %d", n)
	}

	current := DateOf(start)
	remaining := n
	for remaining > 0 {
		current = current.AddDate(0, 0, 1)
		if IsBusinessDay(current, holidays) {
			remaining--
		}
	}
	return current, nil
}

// AddCalendarDays advances the date by n calendar days
func AddCalendarDays(start time.Time, n int) time.Time {
	return DateOf(start).AddDate(0, 0, n)
}

// AddHours advances a timestamp by n hours with no weekend or holiday
// adjustment.
func AddHours(start time.Time, n int) time.Time {
	return start.UTC().Add(time.Duration(n) * time.Hour)
}

// CountBusinessDaysBetween counts business days in (start, end], used to
// verify business-day deadline arithmetic.
func CountBusinessDaysBetween(start, end time.Time, holidays HolidaySet) int {
	count := 0
	current := DateOf(start)
	endDate := DateOf(end)
	for current.Before(endDate) {
		current = current.AddDate(0, 0, 1)
		if IsBusinessDay(current, holidays) {
			count++
		}
	}
	return count
}
