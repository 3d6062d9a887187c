package handler

import (
	"fmt"
	"time"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/schedulestore"
)

type DescriptorRequest struct {
	Message    string   `json:"message"`
	Time       string   `json:"time"`
	Recurrence string   `json:"recurrence"`
	Days       []string `json:"days,omitempty"`
	TrialDay   int      `json:"trial_day,omitempty"`
	Category   string   `json:"category"`
	Active     *bool    `json:"active,omitempty"`
}

type ScheduleRequest struct {
	Descriptors []DescriptorRequest `json:"descriptors"`
}

// toDomain converts the request; the user id is filled in by the service.
func (r DescriptorRequest) toDomain() (*domain.NotificationDescriptor, error) {
	tod, err := domain.ParseTimeOfDay(r.Time)
	if err != nil {
		return nil, err
	}

	var rec domain.Recurrence
	switch domain.RecurrenceKind(r.Recurrence) {
	case domain.RecurrenceWeekly, "":
		days := make([]time.Weekday, 0, len(r.Days))
		for _, s := range r.Days {
			d, err := domain.ParseWeekday(s)
			if err != nil {
				return nil, err
			}
			days = append(days, d)
		}
		rec = domain.Weekly(days...)
	case domain.RecurrenceTrial:
		rec = domain.TrialDay(r.TrialDay)
	default:
		return nil, fmt.Errorf("%w: unknown recurrence %q", domain.ErrInvalidDescriptor, r.Recurrence)
	}

	active := true
	if r.Active != nil {
		active = *r.Active
	}

	return &domain.NotificationDescriptor{
		Message:    r.Message,
		TimeOfDay:  tod,
		Recurrence: rec,
		Category:   domain.Category(r.Category),
		IsActive:   active,
	}, nil
}

type CancelResponse struct {
	CancelledCount int `json:"cancelled_count"`
}

type OccurrenceView struct {
	Slot     string    `json:"slot"`
	Origin   string    `json:"origin"`
	Handle   string    `json:"handle"`
	FireAt   time.Time `json:"fire_at"`
	Timezone string    `json:"timezone"`
	Status   string    `json:"status"`
}

type NotificationView struct {
	SourceID    string           `json:"source_id"`
	Message     string           `json:"message"`
	Time        string           `json:"time"`
	Recurrence  string           `json:"recurrence"`
	Days        []string         `json:"days,omitempty"`
	TrialDay    int              `json:"trial_day,omitempty"`
	Category    string           `json:"category"`
	Occurrences []OccurrenceView `json:"occurrences"`
}

type ListResponse struct {
	UserID        string             `json:"user_id"`
	Notifications []NotificationView `json:"notifications"`
}

func toNotificationView(a schedulestore.ActiveNotification) NotificationView {
	d := a.Descriptor
	view := NotificationView{
		SourceID:    d.SourceID,
		Message:     d.Message,
		Time:        d.TimeOfDay.String(),
		Recurrence:  string(d.Recurrence.Kind),
		TrialDay:    d.Recurrence.TrialDay,
		Category:    d.Category.String(),
		Occurrences: make([]OccurrenceView, 0, len(a.Occurrences)),
	}
	for _, day := range d.Recurrence.NormalizedDays() {
		view.Days = append(view.Days, domain.WeekdaySlot(day))
	}
	for _, occ := range a.Occurrences {
		view.Occurrences = append(view.Occurrences, OccurrenceView{
			Slot:     occ.Slot,
			Origin:   occ.Origin.String(),
			Handle:   occ.Handle,
			FireAt:   occ.FireAt,
			Timezone: occ.Timezone,
			Status:   occ.Status.String(),
		})
	}
	return view
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
