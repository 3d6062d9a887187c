package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

type descriptorFile struct {
	Descriptors []descriptorEntry `json:"descriptors"`
}

type descriptorEntry struct {
	Message    string   `json:"message"`
	Time       string   `json:"time"`
	Recurrence string   `json:"recurrence"`
	Days       []string `json:"days"`
	TrialDay   int      `json:"trial_day"`
	Category   string   `json:"category"`
	Active     *bool    `json:"active"`
}

// loadDescriptors reads the notification list the device should keep armed.
func loadDescriptors(path string) ([]*domain.NotificationDescriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptors file: %w", err)
	}

	var file descriptorFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse descriptors file: %w", err)
	}

	out := make([]*domain.NotificationDescriptor, 0, len(file.Descriptors))
	for i, e := range file.Descriptors {
		d, err := e.toDomain()
		if err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (e descriptorEntry) toDomain() (*domain.NotificationDescriptor, error) {
	tod, err := domain.ParseTimeOfDay(e.Time)
	if err != nil {
		return nil, err
	}

	var rec domain.Recurrence
	switch domain.RecurrenceKind(e.Recurrence) {
	case domain.RecurrenceTrial:
		rec = domain.TrialDay(e.TrialDay)
	case domain.RecurrenceWeekly, "":
		days := make([]time.Weekday, 0, len(e.Days))
		for _, s := range e.Days {
			day, err := domain.ParseWeekday(s)
			if err != nil {
				return nil, err
			}
			days = append(days, day)
		}
		rec = domain.Weekly(days...)
	default:
		return nil, fmt.Errorf("%w: unknown recurrence %q", domain.ErrInvalidDescriptor, e.Recurrence)
	}

	active := e.Active == nil || *e.Active

	return &domain.NotificationDescriptor{
		Message:    e.Message,
		TimeOfDay:  tod,
		Recurrence: rec,
		Category:   domain.Category(e.Category),
		IsActive:   active,
	}, nil
}
