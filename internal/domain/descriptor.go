package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Category string

const (
	CategoryDiet   Category = "diet"
	CategoryTrial  Category = "trial"
	CategoryCustom Category = "custom"
)

func (c Category) String() string {
	return string(c)
}

func (c Category) Valid() bool {
	switch c {
	case CategoryDiet, CategoryTrial, CategoryCustom:
		return true
	default:
		return false
	}
}

// Title is the notification heading shown for the category.
func (c Category) Title() string {
	switch c {
	case CategoryDiet:
		return "Diet plan"
	case CategoryTrial:
		return "Your free trial"
	default:
		return "Reminder"
	}
}

// TimeOfDay is a wall-clock time interpreted in the user's timezone.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("%w: time of day %q must be HH:MM", ErrInvalidDescriptor, s)
	}

	hour, err := strconv.Atoi(hh)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: invalid hour %q", ErrInvalidDescriptor, hh)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: invalid minute %q", ErrInvalidDescriptor, mm)
	}

	tod := TimeOfDay{Hour: hour, Minute: minute}
	if err := tod.Validate(); err != nil {
		return TimeOfDay{}, err
	}
	return tod, nil
}

func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 {
		return fmt.Errorf("%w: hour %d out of range", ErrInvalidDescriptor, t.Hour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("%w: minute %d out of range", ErrInvalidDescriptor, t.Minute)
	}
	return nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

type RecurrenceKind string

const (
	RecurrenceWeekly RecurrenceKind = "weekly"
	RecurrenceTrial  RecurrenceKind = "trial"
)

// Recurrence is either a weekly day set or a single trial day offset.
// Exactly one of Days and TrialDay is meaningful, selected by Kind.
type Recurrence struct {
	Kind     RecurrenceKind `json:"kind"`
	Days     []time.Weekday `json:"days,omitempty"`
	TrialDay int            `json:"trial_day,omitempty"`
}

func Weekly(days ...time.Weekday) Recurrence {
	return Recurrence{Kind: RecurrenceWeekly, Days: normalizeDays(days)}
}

func TrialDay(day int) Recurrence {
	return Recurrence{Kind: RecurrenceTrial, TrialDay: day}
}

// Discriminator is the recurrence component of a notification identity.
// The weekly day set is excluded so that editing the days replaces the
// previous schedule instead of creating a parallel one.
func (r Recurrence) Discriminator() string {
	if r.Kind == RecurrenceTrial {
		return "trial:" + strconv.Itoa(r.TrialDay)
	}
	return string(RecurrenceWeekly)
}

func (r Recurrence) Validate() error {
	switch r.Kind {
	case RecurrenceWeekly:
		for _, d := range r.Days {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("%w: weekday %d out of range", ErrInvalidDescriptor, d)
			}
		}
		return nil
	case RecurrenceTrial:
		if r.TrialDay < 1 || r.TrialDay > 3 {
			return fmt.Errorf("%w: trial day %d must be 1, 2 or 3", ErrInvalidDescriptor, r.TrialDay)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown recurrence kind %q", ErrInvalidDescriptor, r.Kind)
	}
}

func (r Recurrence) NormalizedDays() []time.Weekday {
	return normalizeDays(r.Days)
}

// normalizeDays collapses duplicates and orders Monday through Sunday.
func normalizeDays(days []time.Weekday) []time.Weekday {
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b time.Weekday) int {
		return mondayIndex(a) - mondayIndex(b)
	})
	return out
}

func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

var weekdaySlots = map[time.Weekday]string{
	time.Monday:    "mon",
	time.Tuesday:   "tue",
	time.Wednesday: "wed",
	time.Thursday:  "thu",
	time.Friday:    "fri",
	time.Saturday:  "sat",
	time.Sunday:    "sun",
}

func WeekdaySlot(d time.Weekday) string {
	return weekdaySlots[d]
}

func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if len(key) > 3 {
		key = key[:3]
	}
	for d, slot := range weekdaySlots {
		if slot == key {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidDescriptor, s)
}

func TrialSlot(day int) string {
	return "trial-" + strconv.Itoa(day)
}

type NotificationDescriptor struct {
	SourceID   string
	UserID     string
	Message    string
	TimeOfDay  TimeOfDay
	Recurrence Recurrence
	Category   Category
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (d *NotificationDescriptor) Validate() error {
	if d.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidDescriptor)
	}
	if strings.TrimSpace(d.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidDescriptor)
	}
	if !d.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidDescriptor, d.Category)
	}
	if err := d.TimeOfDay.Validate(); err != nil {
		return err
	}
	if err := d.Recurrence.Validate(); err != nil {
		return err
	}
	if d.IsActive && d.Recurrence.Kind == RecurrenceWeekly && len(d.Recurrence.Days) == 0 {
		return fmt.Errorf("%w: active weekly notification needs at least one day", ErrInvalidDescriptor)
	}
	return nil
}

// SameContent reports whether two descriptors share the identity inputs.
func (d *NotificationDescriptor) SameContent(other *NotificationDescriptor) bool {
	return NormalizeMessage(d.Message) == NormalizeMessage(other.Message) &&
		d.TimeOfDay == other.TimeOfDay &&
		d.Recurrence.Discriminator() == other.Recurrence.Discriminator()
}

func NormalizeMessage(msg string) string {
	return strings.Join(strings.Fields(strings.ToLower(msg)), " ")
}
