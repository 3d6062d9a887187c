package domain

import "time"

type OccurrenceStatus string

const (
	StatusScheduled OccurrenceStatus = "scheduled"
	StatusSent      OccurrenceStatus = "sent"
	StatusCancelled OccurrenceStatus = "cancelled"
	StatusFailed    OccurrenceStatus = "failed"
)

func (s OccurrenceStatus) String() string {
	return string(s)
}

func (s OccurrenceStatus) Terminal() bool {
	return s != StatusScheduled
}

type Origin string

const (
	OriginLocal  Origin = "local"
	OriginServer Origin = "server"
)

func (o Origin) String() string {
	return string(o)
}

// ScheduledOccurrence is one concrete firing registered with a scheduler.
type ScheduledOccurrence struct {
	Handle       string
	DescriptorID string
	UserID       string
	Category     Category
	Slot         string
	Message      string
	FireAt       time.Time
	Timezone     string
	TimeOfDay    TimeOfDay
	Weekday      time.Weekday
	Weekly       bool
	Status       OccurrenceStatus
	Origin       Origin
	PushTokens   []string
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (o *ScheduledOccurrence) Active() bool {
	return o.Status == StatusScheduled
}

// Location resolves the timezone captured at schedule time, falling back to UTC.
func (o *ScheduledOccurrence) Location() *time.Location {
	if o.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clone returns a copy suitable for registering the next firing of the same slot.
func (o *ScheduledOccurrence) Clone() *ScheduledOccurrence {
	c := *o
	c.Handle = ""
	c.LastError = ""
	c.PushTokens = append([]string(nil), o.PushTokens...)
	return &c
}
