package occurrence

import (
	"fmt"
	"time"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/timemath"
)

const (
	trialDays      = 3
	trialEndMargin = time.Hour
)

type WeeklyOccurrence struct {
	Weekday time.Weekday
	Slot    string
	FireAt  time.Time
}

// ComputeWeeklyOccurrences resolves one future fire time per selected weekday.
// now must already be in the user's location.
func ComputeWeeklyOccurrences(d *domain.NotificationDescriptor, now time.Time) ([]WeeklyOccurrence, error) {
	if d.Recurrence.Kind != domain.RecurrenceWeekly {
		return nil, fmt.Errorf("%w: expected weekly recurrence, got %q", domain.ErrInvalidDescriptor, d.Recurrence.Kind)
	}

	days := d.Recurrence.NormalizedDays()
	out := make([]WeeklyOccurrence, 0, len(days))
	for _, day := range days {
		fireAt, err := timemath.NextWeekdayOccurrence(now, d.TimeOfDay, day)
		if err != nil {
			return nil, err
		}
		out = append(out, WeeklyOccurrence{
			Weekday: day,
			Slot:    domain.WeekdaySlot(day),
			FireAt:  fireAt,
		})
	}
	return out, nil
}

// ComputeTrialOccurrences returns the fire times of trial days 1 to 3, each on
// the calendar day that many days after now at the descriptor's time of day.
// Days past trialEnd are pulled back to one hour before it. If that leaves
// the days out of strict order, the dates are still returned together with an
// error wrapping ErrTrialWindowTooShort.
func ComputeTrialOccurrences(tod domain.TimeOfDay, now, trialEnd time.Time) ([]time.Time, []domain.ClampedOccurrenceWarning, error) {
	loc := now.Location()
	limit := trialEnd.Add(-trialEndMargin).In(loc)

	dates := make([]time.Time, 0, trialDays)
	var warnings []domain.ClampedOccurrenceWarning

	for day := 1; day <= trialDays; day++ {
		candidate := timemath.AtTimeOfDay(timemath.AddCalendarDays(now, day), tod)
		if candidate.After(trialEnd) {
			warnings = append(warnings, domain.ClampedOccurrenceWarning{
				Day:      day,
				Original: candidate,
				Clamped:  limit,
				TrialEnd: trialEnd,
			})
			candidate = limit
		}
		dates = append(dates, candidate)
	}

	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			for w := range warnings {
				if warnings[w].Day == i+1 {
					warnings[w].Misorders = true
				}
			}
			return dates, warnings, &domain.SchedulingError{
				Op:   "compute trial occurrences",
				Slot: domain.TrialSlot(i + 1),
				Err: fmt.Errorf("%w: day %d at %s is not after day %d at %s",
					domain.ErrTrialWindowTooShort,
					i+1, dates[i].Format(time.RFC3339),
					i, dates[i-1].Format(time.RFC3339),
				),
			}
		}
	}

	return dates, warnings, nil
}

// TrialOccurrence picks a single trial day out of the full trial schedule.
// An ordering failure only affects the days it actually involves.
func TrialOccurrence(d *domain.NotificationDescriptor, now, trialEnd time.Time) (time.Time, *domain.ClampedOccurrenceWarning, error) {
	if d.Recurrence.Kind != domain.RecurrenceTrial {
		return time.Time{}, nil, fmt.Errorf("%w: expected trial recurrence, got %q", domain.ErrInvalidDescriptor, d.Recurrence.Kind)
	}
	day := d.Recurrence.TrialDay
	if day < 1 || day > trialDays {
		return time.Time{}, nil, fmt.Errorf("%w: trial day %d", domain.ErrInvalidDescriptor, day)
	}

	dates, warnings, err := ComputeTrialOccurrences(d.TimeOfDay, now, trialEnd)

	var warning *domain.ClampedOccurrenceWarning
	for i := range warnings {
		if warnings[i].Day == day {
			warning = &warnings[i]
		}
	}

	if err != nil && misorderedDay(dates) <= day {
		return dates[day-1], warning, err
	}
	return dates[day-1], warning, nil
}

// misorderedDay returns the first day that is not after its predecessor.
func misorderedDay(dates []time.Time) int {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return i + 1
		}
	}
	return len(dates) + 1
}

// NextAfterFiring computes the next weekly fire time after occ fired, in the
// timezone captured when it was first scheduled.
func NextAfterFiring(occ *domain.ScheduledOccurrence, now time.Time) (time.Time, error) {
	loc := occ.Location()

	ref := occ.FireAt.In(loc)
	if n := now.In(loc); n.After(ref) {
		ref = n
	}
	next, err := timemath.NextWeekdayOccurrence(ref, occ.TimeOfDay, occ.Weekday)
	if err != nil {
		return time.Time{}, err
	}
	return next.UTC(), nil
}
