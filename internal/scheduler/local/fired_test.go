package local

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/infra/repository"
)

type fakeRearmer struct {
	calls []*domain.ScheduledOccurrence
	err   error
}

func (f *fakeRearmer) Rearm(_ context.Context, fired *domain.ScheduledOccurrence) (*domain.ScheduledOccurrence, error) {
	f.calls = append(f.calls, fired)
	if f.err != nil {
		return nil, f.err
	}
	next := fired.Clone()
	next.Handle = "host-next"
	next.FireAt = fired.FireAt.AddDate(0, 0, 7)
	return next, nil
}

func seedOccurrence(t *testing.T, repo domain.NotificationRepository, handle string, weekly bool) *domain.ScheduledOccurrence {
	t.Helper()

	occ := newTestOccurrence(testNow.Add(-time.Minute))
	occ.Handle = handle
	occ.Weekly = weekly
	if err := repo.SaveOccurrence(context.Background(), occ); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return occ
}

func TestFiredHandlerMarksSentAndRearms(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	rearmer := &fakeRearmer{}
	seedOccurrence(t, repo, "host-1", true)

	h := NewFiredHandler(repo, rearmer)
	if err := h.OnFired(ctx, Fired{ID: "host-1", FiredAt: testNow}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetOccurrence(ctx, "host-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.StatusSent {
		t.Errorf("expected sent, got %s", got.Status)
	}
	if len(rearmer.calls) != 1 {
		t.Fatalf("expected one re-arm, got %d", len(rearmer.calls))
	}

	// A duplicate firing report does not re-arm twice.
	if err := h.OnFired(ctx, Fired{ID: "host-1", FiredAt: testNow}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rearmer.calls) != 1 {
		t.Errorf("expected re-arm to stay at one call, got %d", len(rearmer.calls))
	}
}

func TestFiredHandlerOneShotIsNotRearmed(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	rearmer := &fakeRearmer{}
	seedOccurrence(t, repo, "host-trial", false)

	if err := NewFiredHandler(repo, rearmer).OnFired(ctx, Fired{ID: "host-trial", FiredAt: testNow}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rearmer.calls) != 0 {
		t.Errorf("expected no re-arm, got %d", len(rearmer.calls))
	}
}

func TestFiredHandlerNativeRepeatAdvancesRecord(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	rearmer := &fakeRearmer{}
	occ := seedOccurrence(t, repo, "host-native", true)

	if err := NewFiredHandler(repo, rearmer).OnFired(ctx, Fired{ID: "host-native", FiredAt: testNow, RepeatWeekly: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetOccurrence(ctx, "host-native")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.StatusScheduled {
		t.Errorf("expected record to stay scheduled, got %s", got.Status)
	}
	if !got.FireAt.After(testNow) || got.FireAt.Sub(testNow) > 7*24*time.Hour {
		t.Errorf("expected next fire within a week of %s, got %s", testNow, got.FireAt)
	}
	if got.FireAt.In(occ.Location()).Weekday() != time.Wednesday {
		t.Errorf("expected wednesday in captured zone, got %s", got.FireAt.In(occ.Location()).Weekday())
	}
	if len(rearmer.calls) != 0 {
		t.Errorf("expected no store re-arm for native repeats, got %d", len(rearmer.calls))
	}
}

func TestFiredHandlerUnknownHandle(t *testing.T) {
	repo := repository.NewMemoryRepository()
	if err := NewFiredHandler(repo, &fakeRearmer{}).OnFired(context.Background(), Fired{ID: "nobody"}); err != nil {
		t.Errorf("expected untracked firing to be ignored, got %v", err)
	}
}

func TestFiredHandlerRearmFailure(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	rearmer := &fakeRearmer{err: domain.ErrHostUnavailable}
	seedOccurrence(t, repo, "host-1", true)

	err := NewFiredHandler(repo, rearmer).OnFired(ctx, Fired{ID: "host-1", FiredAt: testNow})
	if !errors.Is(err, domain.ErrHostUnavailable) {
		t.Errorf("expected ErrHostUnavailable, got %v", err)
	}

	got, _ := repo.GetOccurrence(ctx, "host-1")
	if got.Status != domain.StatusSent {
		t.Errorf("expected fired record to stay sent, got %s", got.Status)
	}
}
