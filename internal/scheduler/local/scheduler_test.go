package local

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

var testNow = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func newTestOccurrence(fireAt time.Time) *domain.ScheduledOccurrence {
	return &domain.ScheduledOccurrence{
		DescriptorID: "source-1",
		UserID:       "user-1",
		Category:     domain.CategoryDiet,
		Slot:         "wed",
		Message:      "Breakfast: oatmeal",
		FireAt:       fireAt,
		Timezone:     "Asia/Tokyo",
		TimeOfDay:    domain.TimeOfDay{Hour: 8, Minute: 0},
		Weekday:      time.Wednesday,
		Weekly:       true,
		Status:       domain.StatusScheduled,
		Origin:       domain.OriginLocal,
	}
}

func TestSchedulerRegister(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := NewMockHost(ctrl)

	occ := newTestOccurrence(testNow.Add(48 * time.Hour))

	host.EXPECT().SupportsWeeklyRepeat().Return(false).AnyTimes()
	host.EXPECT().ScheduleAt(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req HostRequest) (string, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected host call to carry a deadline")
			}
			if !req.FireAt.Equal(occ.FireAt) {
				t.Errorf("expected fire at %s, got %s", occ.FireAt, req.FireAt)
			}
			if req.RepeatWeekly {
				t.Error("expected no native repeat when host lacks support")
			}
			if req.Title != "Diet plan" || req.Body != occ.Message {
				t.Errorf("unexpected content %q / %q", req.Title, req.Body)
			}
			if req.Data[DataSourceID] != "source-1" || req.Data[DataSlot] != "wed" {
				t.Errorf("unexpected data %v", req.Data)
			}
			return "host-1", nil
		})

	s := New(host, Config{}).WithClock(func() time.Time { return testNow })

	handle, err := s.Register(context.Background(), occ)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handle != "host-1" {
		t.Errorf("expected host-1, got %s", handle)
	}
}

func TestSchedulerRegisterNativeRepeat(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := NewMockHost(ctrl)

	host.EXPECT().SupportsWeeklyRepeat().Return(true).AnyTimes()
	host.EXPECT().ScheduleAt(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req HostRequest) (string, error) {
			if !req.RepeatWeekly {
				t.Error("expected native weekly repeat")
			}
			return "host-2", nil
		})

	s := New(host, Config{}).WithClock(func() time.Time { return testNow })
	if !s.SupportsNativeWeeklyRepeat() {
		t.Error("expected native weekly repeat support")
	}
	if _, err := s.Register(context.Background(), newTestOccurrence(testNow.Add(time.Hour))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSchedulerRegisterRejectsPastFireTime(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := NewMockHost(ctrl)

	s := New(host, Config{}).WithClock(func() time.Time { return testNow })

	_, err := s.Register(context.Background(), newTestOccurrence(testNow))
	if !errors.Is(err, domain.ErrInvalidFireTime) {
		t.Fatalf("expected ErrInvalidFireTime, got %v", err)
	}

	var schedErr *domain.SchedulingError
	if !errors.As(err, &schedErr) || schedErr.Slot != "wed" {
		t.Errorf("expected SchedulingError for slot wed, got %v", err)
	}
}

func TestSchedulerRegisterTimeoutIsNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := NewMockHost(ctrl)

	host.EXPECT().SupportsWeeklyRepeat().Return(false).AnyTimes()
	host.EXPECT().ScheduleAt(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ HostRequest) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}).Times(1)

	s := New(host, Config{CallTimeout: 20 * time.Millisecond}).
		WithClock(func() time.Time { return testNow })

	_, err := s.Register(context.Background(), newTestOccurrence(testNow.Add(time.Hour)))
	if !errors.Is(err, domain.ErrHostUnavailable) {
		t.Fatalf("expected ErrHostUnavailable, got %v", err)
	}
}

func TestSchedulerRegisterPermissionDenied(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := NewMockHost(ctrl)

	host.EXPECT().SupportsWeeklyRepeat().Return(false).AnyTimes()
	host.EXPECT().ScheduleAt(gomock.Any(), gomock.Any()).Return("", domain.ErrPermissionDenied)

	s := New(host, Config{}).WithClock(func() time.Time { return testNow })

	_, err := s.Register(context.Background(), newTestOccurrence(testNow.Add(time.Hour)))
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestSchedulerCancel(t *testing.T) {
	tests := []struct {
		name    string
		handle  string
		hostErr error
		expect  bool
		wantErr bool
	}{
		{name: "known handle", handle: "host-1", expect: true},
		{name: "unknown handle is a no-op", handle: "host-gone", hostErr: ErrHostNotFound, expect: true},
		{name: "empty handle skips host", handle: ""},
		{name: "host failure surfaces", handle: "host-1", hostErr: errors.New("boom"), expect: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			host := NewMockHost(ctrl)
			if tt.expect {
				host.EXPECT().Cancel(gomock.Any(), tt.handle).Return(tt.hostErr)
			}

			occ := newTestOccurrence(testNow.Add(time.Hour))
			occ.Handle = tt.handle

			err := New(host, Config{}).Cancel(context.Background(), occ)
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSchedulerRateLimitHonoursContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := NewMockHost(ctrl)

	host.EXPECT().SupportsWeeklyRepeat().Return(false).AnyTimes()
	host.EXPECT().ScheduleAt(gomock.Any(), gomock.Any()).Return("host-1", nil).Times(1)

	s := New(host, Config{RatePerSecond: 0.001, Burst: 1}).
		WithClock(func() time.Time { return testNow })

	if _, err := s.Register(context.Background(), newTestOccurrence(testNow.Add(time.Hour))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := s.Register(ctx, newTestOccurrence(testNow.Add(time.Hour))); err == nil {
		t.Error("expected rate limiter to give up when the context ends")
	}
}
