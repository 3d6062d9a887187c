package local

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recordingTray struct {
	mu    sync.Mutex
	shown []TrayNotification
}

func (r *recordingTray) Show(_ context.Context, n TrayNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, n)
	return nil
}

type recordingListener struct {
	fired []Fired
}

func (r *recordingListener) OnFired(_ context.Context, f Fired) error {
	r.fired = append(r.fired, f)
	return nil
}

func openTestHost(t *testing.T, tray Tray, native bool) *SQLiteHost {
	t.Helper()

	host, err := OpenSQLiteHost(context.Background(), filepath.Join(t.TempDir(), "host.db"), tray, native)
	if err != nil {
		t.Fatalf("failed to open host: %v", err)
	}
	t.Cleanup(func() { _ = host.Close() })
	return host
}

func TestSQLiteHostScheduleAndCancel(t *testing.T) {
	ctx := context.Background()
	host := openTestHost(t, &recordingTray{}, false)

	id, err := host.ScheduleAt(ctx, HostRequest{
		Title:  "Diet plan",
		Body:   "Lunch: salad",
		FireAt: testNow.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n, _ := host.Pending(ctx); n != 1 {
		t.Errorf("expected 1 pending, got %d", n)
	}

	if err := host.Cancel(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := host.Cancel(ctx, id); !errors.Is(err, ErrHostNotFound) {
		t.Errorf("expected ErrHostNotFound on second cancel, got %v", err)
	}
	if n, _ := host.Pending(ctx); n != 0 {
		t.Errorf("expected 0 pending, got %d", n)
	}
}

func TestSQLiteHostSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "host.db")

	host, err := OpenSQLiteHost(ctx, path, nil, false)
	if err != nil {
		t.Fatalf("failed to open host: %v", err)
	}
	if _, err := host.ScheduleAt(ctx, HostRequest{Title: "t", Body: "b", FireAt: testNow.Add(time.Hour)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := host.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reopened, err := OpenSQLiteHost(ctx, path, nil, false)
	if err != nil {
		t.Fatalf("failed to reopen host: %v", err)
	}
	defer reopened.Close()

	if n, _ := reopened.Pending(ctx); n != 1 {
		t.Errorf("expected pending notification to survive restart, got %d", n)
	}
}

func TestUpgradeSchemaRecordsVersion(t *testing.T) {
	ctx := context.Background()
	host := openTestHost(t, nil, false)

	steps, err := schemaSteps()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	latest := steps[len(steps)-1].version

	version, err := schemaVersion(ctx, host.db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != latest {
		t.Errorf("expected schema version %d, got %d", latest, version)
	}

	from, to, err := upgradeSchema(ctx, host.db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != latest || to != latest {
		t.Errorf("expected nothing to apply at version %d, got %d -> %d", latest, from, to)
	}
}

func TestSQLiteHostFireDueOneShot(t *testing.T) {
	ctx := context.Background()
	tray := &recordingTray{}
	listener := &recordingListener{}
	host := openTestHost(t, tray, false)

	dueID, err := host.ScheduleAt(ctx, HostRequest{
		Title:  "Your free trial",
		Body:   "Day 1",
		FireAt: testNow.Add(-time.Minute),
		Data:   map[string]string{DataSlot: "trial-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := host.ScheduleAt(ctx, HostRequest{Title: "later", Body: "b", FireAt: testNow.Add(time.Hour)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := host.FireDue(ctx, testNow, listener)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 || len(tray.shown) != 1 || tray.shown[0].ID != dueID {
		t.Fatalf("expected only the due notification shown, got %d / %+v", n, tray.shown)
	}
	if tray.shown[0].Data[DataSlot] != "trial-1" {
		t.Errorf("expected data to round trip, got %v", tray.shown[0].Data)
	}
	if len(listener.fired) != 1 || listener.fired[0].RepeatWeekly {
		t.Errorf("unexpected firing reports %+v", listener.fired)
	}

	if pending, _ := host.Pending(ctx); pending != 1 {
		t.Errorf("expected fired one-shot removed, got %d pending", pending)
	}

	// Nothing left due.
	if n, _ := host.FireDue(ctx, testNow, listener); n != 0 {
		t.Errorf("expected nothing due on second poll, got %d", n)
	}
}

func TestSQLiteHostNativeWeeklyRepeat(t *testing.T) {
	ctx := context.Background()
	tray := &recordingTray{}
	host := openTestHost(t, tray, true)

	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// Sunday before the spring DST change, 07:00 local.
	fireAt := time.Date(2024, 3, 24, 7, 0, 0, 0, berlin)
	now := fireAt.Add(time.Minute)

	if _, err := host.ScheduleAt(ctx, HostRequest{
		Title:        "Diet plan",
		Body:         "Weigh in",
		FireAt:       fireAt,
		Timezone:     "Europe/Berlin",
		RepeatWeekly: true,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	listener := &recordingListener{}
	if n, err := host.FireDue(ctx, now, listener); err != nil || n != 1 {
		t.Fatalf("expected one firing, got %d, %v", n, err)
	}
	if len(listener.fired) != 1 || !listener.fired[0].RepeatWeekly {
		t.Errorf("expected repeating firing report, got %+v", listener.fired)
	}

	if pending, _ := host.Pending(ctx); pending != 1 {
		t.Fatalf("expected repeating notification to stay pending, got %d", pending)
	}

	next := fireAt.AddDate(0, 0, 7)
	if n, _ := host.FireDue(ctx, next.Add(-time.Second), listener); n != 0 {
		t.Errorf("expected nothing due before next week, got %d", n)
	}
	if n, _ := host.FireDue(ctx, next, listener); n != 1 {
		t.Errorf("expected firing at 07:00 local after DST change, got %d", n)
	}
}

func TestNextWeeklyFireSkipsMissedWeeks(t *testing.T) {
	fireAt := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)

	got := nextWeeklyFire(fireAt, "", now)
	want := time.Date(2024, 1, 22, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestSQLiteHostReset(t *testing.T) {
	ctx := context.Background()
	host := openTestHost(t, &recordingTray{}, false)

	for i := 0; i < 3; i++ {
		if _, err := host.ScheduleAt(ctx, HostRequest{Title: "Reminder", FireAt: testNow.Add(time.Duration(i+1) * time.Hour)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	n, err := host.Reset(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 removed, got %d", n)
	}
	if pending, _ := host.Pending(ctx); pending != 0 {
		t.Errorf("expected nothing pending, got %d", pending)
	}
}
