package domain

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{name: "morning", input: "05:30", want: TimeOfDay{Hour: 5, Minute: 30}},
		{name: "midnight", input: "00:00", want: TimeOfDay{}},
		{name: "padded input", input: " 23:59 ", want: TimeOfDay{Hour: 23, Minute: 59}},
		{name: "no separator", input: "0530", wantErr: true},
		{name: "hour out of range", input: "24:00", wantErr: true},
		{name: "minute out of range", input: "12:60", wantErr: true},
		{name: "not a number", input: "ab:cd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDescriptor) {
					t.Fatalf("expected ErrInvalidDescriptor, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if got.String() != tt.want.String() {
				t.Errorf("expected string %s, got %s", tt.want.String(), got.String())
			}
		})
	}
}

func TestWeeklyNormalizesDays(t *testing.T) {
	r := Weekly(time.Sunday, time.Wednesday, time.Monday, time.Wednesday)

	want := []time.Weekday{time.Monday, time.Wednesday, time.Sunday}
	if !slices.Equal(r.Days, want) {
		t.Errorf("expected %v, got %v", want, r.Days)
	}
}

func TestRecurrenceDiscriminator(t *testing.T) {
	if Weekly(time.Monday).Discriminator() != Weekly(time.Monday, time.Wednesday).Discriminator() {
		t.Error("weekly discriminator must not depend on the day set")
	}
	if TrialDay(1).Discriminator() == TrialDay(2).Discriminator() {
		t.Error("trial days must have distinct discriminators")
	}
	if Weekly(time.Monday).Discriminator() == TrialDay(1).Discriminator() {
		t.Error("weekly and trial must have distinct discriminators")
	}
}

func TestNotificationDescriptorValidate(t *testing.T) {
	base := func() *NotificationDescriptor {
		return &NotificationDescriptor{
			UserID:     "user-1",
			Message:    "Drink water",
			TimeOfDay:  TimeOfDay{Hour: 8},
			Recurrence: Weekly(time.Monday),
			Category:   CategoryDiet,
			IsActive:   true,
		}
	}

	tests := []struct {
		name    string
		mutate  func(d *NotificationDescriptor)
		wantErr bool
	}{
		{name: "valid weekly", mutate: func(d *NotificationDescriptor) {}},
		{name: "valid trial", mutate: func(d *NotificationDescriptor) {
			d.Recurrence = TrialDay(3)
			d.Category = CategoryTrial
		}},
		{name: "inactive weekly without days", mutate: func(d *NotificationDescriptor) {
			d.IsActive = false
			d.Recurrence = Weekly()
		}},
		{name: "active weekly without days", mutate: func(d *NotificationDescriptor) {
			d.Recurrence = Weekly()
		}, wantErr: true},
		{name: "missing user", mutate: func(d *NotificationDescriptor) { d.UserID = "" }, wantErr: true},
		{name: "blank message", mutate: func(d *NotificationDescriptor) { d.Message = "  " }, wantErr: true},
		{name: "unknown category", mutate: func(d *NotificationDescriptor) { d.Category = "promo" }, wantErr: true},
		{name: "trial day out of range", mutate: func(d *NotificationDescriptor) { d.Recurrence = TrialDay(4) }, wantErr: true},
		{name: "bad time", mutate: func(d *NotificationDescriptor) { d.TimeOfDay = TimeOfDay{Hour: 25} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base()
			tt.mutate(d)

			err := d.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeMessage(t *testing.T) {
	if got := NormalizeMessage("  Drink   WATER\tnow "); got != "drink water now" {
		t.Errorf("unexpected normalized message %q", got)
	}
}

func TestParseWeekday(t *testing.T) {
	for _, in := range []string{"Mon", "monday", " MON "} {
		d, err := ParseWeekday(in)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", in, err)
		}
		if d != time.Monday {
			t.Errorf("expected Monday for %q, got %v", in, d)
		}
	}

	if _, err := ParseWeekday("funday"); err == nil {
		t.Error("expected error for unknown weekday")
	}
}
