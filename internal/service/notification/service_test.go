package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/infra/repository"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/scheduler/server"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/schedulestore"
)

func newTestService(t *testing.T, ctrl *gomock.Controller, now time.Time) (*Service, *domain.MockProfileProvider, domain.NotificationRepository) {
	t.Helper()

	clock := func() time.Time { return now }
	repo := repository.NewMemoryRepository()

	sched, err := server.New(repo, 1)
	if err != nil {
		t.Fatalf("failed to create server scheduler: %v", err)
	}
	sched.WithClock(clock)

	store := schedulestore.New(repo, sched).WithClock(clock)
	profiles := domain.NewMockProfileProvider(ctrl)

	svc := NewService(store, profiles, nil, Config{Concurrency: 4}).WithClock(clock)
	return svc, profiles, repo
}

func weeklyDescriptor(msg string, hour, minute int, category domain.Category, days ...time.Weekday) *domain.NotificationDescriptor {
	return &domain.NotificationDescriptor{
		Message:    msg,
		TimeOfDay:  domain.TimeOfDay{Hour: hour, Minute: minute},
		Recurrence: domain.Weekly(days...),
		Category:   category,
		IsActive:   true,
	}
}

func TestScheduleWeeklyInUserTimezone(t *testing.T) {
	ctrl := gomock.NewController(t)
	// Monday 16:00 in Tokyo
	now := time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC)
	svc, profiles, _ := newTestService(t, ctrl, now)

	profiles.EXPECT().GetProfile(gomock.Any(), "user-1").Return(&domain.UserProfile{
		UserID:     "user-1",
		Timezone:   "Asia/Tokyo",
		PushTokens: []string{"token-a"},
	}, nil)

	result, err := svc.Schedule(context.Background(), "user-1", []*domain.NotificationDescriptor{
		weeklyDescriptor("Log breakfast", 8, 30, domain.CategoryDiet, time.Monday, time.Wednesday),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Summary != "1 of 1 notifications scheduled successfully" {
		t.Errorf("unexpected summary %q", result.Summary)
	}
	if result.Timezone != "Asia/Tokyo" {
		t.Errorf("expected Asia/Tokyo, got %s", result.Timezone)
	}

	item := result.Results[0]
	if !item.Success || item.SourceID == "" {
		t.Fatalf("unexpected item %+v", item)
	}
	if len(item.Slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(item.Slots))
	}

	tokyo, _ := time.LoadLocation("Asia/Tokyo")
	want := map[string]time.Time{
		"mon": time.Date(2024, 1, 22, 8, 30, 0, 0, tokyo),
		"wed": time.Date(2024, 1, 17, 8, 30, 0, 0, tokyo),
	}
	for _, slot := range item.Slots {
		if !slot.FireAt.Equal(want[slot.Slot]) {
			t.Errorf("slot %s: expected %s, got %s", slot.Slot, want[slot.Slot], slot.FireAt)
		}
		if slot.Origin != domain.OriginServer.String() {
			t.Errorf("unexpected origin %s", slot.Origin)
		}
	}
}

func TestScheduleTrialClampedToTrialEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	// Friday 23:50
	now := time.Date(2024, 1, 19, 23, 50, 0, 0, time.UTC)
	svc, profiles, _ := newTestService(t, ctrl, now)

	trialEnd := time.Date(2024, 1, 21, 10, 0, 0, 0, time.UTC)
	profiles.EXPECT().GetProfile(gomock.Any(), "user-1").Return(&domain.UserProfile{
		UserID:       "user-1",
		Timezone:     "UTC",
		TrialEndDate: &trialEnd,
	}, nil)

	result, err := svc.Schedule(context.Background(), "user-1", []*domain.NotificationDescriptor{{
		Message:    "Your trial is almost over",
		TimeOfDay:  domain.TimeOfDay{Hour: 20, Minute: 0},
		Recurrence: domain.TrialDay(2),
		Category:   domain.CategoryTrial,
		IsActive:   true,
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	item := result.Results[0]
	if !item.Success {
		t.Fatalf("expected success, got %q", item.Error)
	}
	if len(item.Warnings) != 1 {
		t.Errorf("expected a clamp warning, got %v", item.Warnings)
	}
	want := time.Date(2024, 1, 21, 9, 0, 0, 0, time.UTC)
	if len(item.Slots) != 1 || !item.Slots[0].FireAt.Equal(want) {
		t.Errorf("expected single slot at %s, got %+v", want, item.Slots)
	}
	if item.Slots[0].Slot != "trial-2" {
		t.Errorf("unexpected slot %s", item.Slots[0].Slot)
	}
}

func TestSchedulePartialFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	now := time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC)
	svc, profiles, _ := newTestService(t, ctrl, now)

	profiles.EXPECT().GetProfile(gomock.Any(), "user-1").Return(&domain.UserProfile{
		UserID:   "user-1",
		Timezone: "Mars/Olympus",
	}, nil)

	result, err := svc.Schedule(context.Background(), "user-1", []*domain.NotificationDescriptor{
		weeklyDescriptor("Weigh in", 7, 0, domain.CategoryDiet, time.Tuesday),
		{
			Message:    "Trial tip",
			TimeOfDay:  domain.TimeOfDay{Hour: 9, Minute: 0},
			Recurrence: domain.TrialDay(1),
			Category:   domain.CategoryTrial,
			IsActive:   true,
		},
		weeklyDescriptor("   ", 7, 0, domain.CategoryCustom, time.Tuesday),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Timezone != "UTC" {
		t.Errorf("expected fallback to UTC, got %s", result.Timezone)
	}
	if result.Summary != "1 of 3 notifications scheduled successfully" {
		t.Errorf("unexpected summary %q", result.Summary)
	}
	if !result.Results[0].Success {
		t.Errorf("expected weekly to succeed, got %q", result.Results[0].Error)
	}
	if result.Results[1].Success || result.Results[1].Error == "" {
		t.Errorf("expected trial without end date to fail, got %+v", result.Results[1])
	}
	if result.Results[2].Success {
		t.Errorf("expected blank message to fail")
	}
}

func TestScheduleProfileErrors(t *testing.T) {
	tests := []struct {
		name        string
		descriptors []*domain.NotificationDescriptor
		profileErr  error
		wantErr     error
	}{
		{
			name:        "profile not found",
			descriptors: []*domain.NotificationDescriptor{weeklyDescriptor("Lunch", 12, 0, domain.CategoryDiet, time.Friday)},
			profileErr:  domain.ErrProfileNotFound,
			wantErr:     domain.ErrProfileNotFound,
		},
		{
			name:    "empty batch",
			wantErr: ErrEmptyBatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, profiles, _ := newTestService(t, ctrl, time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC))

			if tt.profileErr != nil {
				profiles.EXPECT().GetProfile(gomock.Any(), "user-1").Return(nil, tt.profileErr)
			}

			_, err := svc.Schedule(context.Background(), "user-1", tt.descriptors)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestScheduleInactiveCancelsExisting(t *testing.T) {
	ctrl := gomock.NewController(t)
	now := time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC)
	svc, profiles, repo := newTestService(t, ctrl, now)

	profiles.EXPECT().GetProfile(gomock.Any(), "user-1").Return(&domain.UserProfile{
		UserID:     "user-1",
		Timezone:   "UTC",
		PushTokens: []string{"token-a"},
	}, nil).Times(2)

	ctx := context.Background()
	if _, err := svc.Schedule(ctx, "user-1", []*domain.NotificationDescriptor{
		weeklyDescriptor("Dinner", 19, 0, domain.CategoryDiet, time.Monday, time.Thursday),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inactive := weeklyDescriptor("Dinner", 19, 0, domain.CategoryDiet, time.Monday, time.Thursday)
	inactive.IsActive = false

	result, err := svc.Schedule(ctx, "user-1", []*domain.NotificationDescriptor{inactive})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	item := result.Results[0]
	if !item.Success || item.Cancelled != 2 || len(item.Slots) != 0 {
		t.Errorf("unexpected item %+v", item)
	}

	occs, err := repo.ListOccurrences(ctx, "user-1", item.SourceID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, occ := range occs {
		if occ.Active() {
			t.Errorf("expected no active occurrence, found %s", occ.Slot)
		}
	}
}

func TestCancelByTypeLeavesOtherCategories(t *testing.T) {
	ctrl := gomock.NewController(t)
	now := time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC)
	svc, profiles, _ := newTestService(t, ctrl, now)

	profiles.EXPECT().GetProfile(gomock.Any(), "user-1").Return(&domain.UserProfile{
		UserID:   "user-1",
		Timezone: "UTC",
	}, nil)

	ctx := context.Background()
	if _, err := svc.Schedule(ctx, "user-1", []*domain.NotificationDescriptor{
		weeklyDescriptor("Log breakfast", 8, 0, domain.CategoryDiet, time.Monday),
		weeklyDescriptor("Call mom", 18, 0, domain.CategoryCustom, time.Sunday),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := svc.CancelByType(ctx, "user-1", domain.CategoryDiet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 cancelled, got %d", n)
	}

	active, err := svc.ListActive(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 1 || active[0].Descriptor.Category != domain.CategoryCustom {
		t.Fatalf("expected only the custom notification, got %+v", active)
	}

	if _, err := svc.CancelByType(ctx, "user-1", domain.Category("bogus")); !errors.Is(err, domain.ErrInvalidDescriptor) {
		t.Errorf("expected ErrInvalidDescriptor, got %v", err)
	}

	n, err = svc.CancelAll(ctx, "user-1")
	if err != nil || n != 1 {
		t.Errorf("expected 1 cancelled, got %d, %v", n, err)
	}
}

func TestRescheduleIntoShortTrialCancelsStaleOccurrence(t *testing.T) {
	ctrl := gomock.NewController(t)
	// Friday 23:50
	now := time.Date(2024, 1, 19, 23, 50, 0, 0, time.UTC)
	svc, profiles, repo := newTestService(t, ctrl, now)

	longTrial := time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)
	shortTrial := time.Date(2024, 1, 21, 10, 0, 0, 0, time.UTC)
	gomock.InOrder(
		profiles.EXPECT().GetProfile(gomock.Any(), "user-1").Return(&domain.UserProfile{
			UserID: "user-1", Timezone: "UTC", TrialEndDate: &longTrial,
		}, nil),
		profiles.EXPECT().GetProfile(gomock.Any(), "user-1").Return(&domain.UserProfile{
			UserID: "user-1", Timezone: "UTC", TrialEndDate: &shortTrial,
		}, nil),
	)

	dayThree := func() *domain.NotificationDescriptor {
		return &domain.NotificationDescriptor{
			Message:    "Last day of your trial",
			TimeOfDay:  domain.TimeOfDay{Hour: 9, Minute: 30},
			Recurrence: domain.TrialDay(3),
			Category:   domain.CategoryTrial,
			IsActive:   true,
		}
	}

	ctx := context.Background()
	first, err := svc.Schedule(ctx, "user-1", []*domain.NotificationDescriptor{dayThree()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Results[0].Success {
		t.Fatalf("expected first schedule to succeed, got %q", first.Results[0].Error)
	}

	// Day 3 clamps to Sunday 09:00, before day 2 at Sunday 09:30.
	second, err := svc.Schedule(ctx, "user-1", []*domain.NotificationDescriptor{dayThree()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	item := second.Results[0]
	if item.Success {
		t.Fatalf("expected misordered trial day to fail")
	}
	if item.Cancelled != 1 {
		t.Errorf("expected the earlier occurrence to be cancelled, got %d", item.Cancelled)
	}

	occs, err := repo.ListOccurrences(ctx, "user-1", item.SourceID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, occ := range occs {
		if occ.Active() {
			t.Errorf("occurrence %s at %s still active after trial end %s", occ.Slot, occ.FireAt, shortTrial)
		}
	}
}

func TestScheduleRejectsDuplicateIdentityInBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	now := time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC)
	svc, profiles, _ := newTestService(t, ctrl, now)

	profiles.EXPECT().GetProfile(gomock.Any(), "user-1").Return(&domain.UserProfile{
		UserID:   "user-1",
		Timezone: "UTC",
	}, nil)

	ctx := context.Background()
	result, err := svc.Schedule(ctx, "user-1", []*domain.NotificationDescriptor{
		weeklyDescriptor("Drink water", 8, 0, domain.CategoryDiet, time.Monday),
		weeklyDescriptor("Drink water", 8, 0, domain.CategoryDiet, time.Wednesday),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Summary != "1 of 2 notifications scheduled successfully" {
		t.Errorf("unexpected summary %q", result.Summary)
	}
	if !result.Results[0].Success {
		t.Errorf("expected first descriptor to be scheduled, got %q", result.Results[0].Error)
	}
	dup := result.Results[1]
	if dup.Success || dup.Index != 1 || dup.SourceID != result.Results[0].SourceID {
		t.Errorf("expected duplicate to fail with the shared identity, got %+v", dup)
	}

	active, err := svc.ListActive(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 1 || len(active[0].Occurrences) != 1 || active[0].Occurrences[0].Slot != "mon" {
		t.Errorf("expected only the monday occurrence, got %+v", active)
	}
}
