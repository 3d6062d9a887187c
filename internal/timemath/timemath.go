// Package timemath resolves wall-clock schedules into absolute instants.
// All calendar arithmetic goes through time.Date so that day offsets are
// calendar days in the location of the reference time, not 24h durations.
package timemath

import (
	"fmt"
	"time"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

const maxDayOffset = 7

// NextWeekdayOccurrence returns the first instant strictly after now that
// falls on target at the given time of day, in now's location.
func NextWeekdayOccurrence(now time.Time, tod domain.TimeOfDay, target time.Weekday) (time.Time, error) {
	y, m, d := now.Date()
	loc := now.Location()

	for offset := 0; offset <= maxDayOffset; offset++ {
		day := time.Date(y, m, d+offset, 0, 0, 0, 0, loc)
		if day.Weekday() != target {
			continue
		}

		candidate := AtTimeOfDay(day, tod)
		if offset == 0 {
			// Same weekday as today: only usable if the time is still ahead.
			if candidate.After(now) {
				return candidate, nil
			}
			continue
		}
		return candidate, nil
	}

	return time.Time{}, &domain.SchedulingError{
		Op:   "next weekday occurrence",
		Slot: domain.WeekdaySlot(target),
		Err:  fmt.Errorf("%w: target %s", domain.ErrNoMatchingWeekday, target),
	}
}

// AtTimeOfDay places tod on the calendar date of day, in day's location.
func AtTimeOfDay(day time.Time, tod domain.TimeOfDay) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, tod.Hour, tod.Minute, 0, 0, day.Location())
}

// AddCalendarDays moves t by n calendar days keeping its wall clock.
func AddCalendarDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// ResolveLocation loads an IANA zone name, falling back when it is empty or unknown.
func ResolveLocation(name string, fallback *time.Location) (*time.Location, error) {
	if fallback == nil {
		fallback = time.UTC
	}
	if name == "" {
		return fallback, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return loc, nil
}
