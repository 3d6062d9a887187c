package local

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/timemath"
)

const defaultPollInterval = 15 * time.Second

// Schema files are named NNN_description.sql; NNN is the version they bring
// the database to, tracked in PRAGMA user_version.
//
//go:embed migrations/*.sql
var schemaFS embed.FS

// SQLiteHost persists pending notifications with absolute fire times so they
// survive restarts, and fires them to a Tray from a poll loop.
type SQLiteHost struct {
	db     *sql.DB
	tray   Tray
	native bool
	now    func() time.Time
}

type pendingRow struct {
	id           string
	title        string
	body         string
	fireAt       int64
	timezone     string
	repeatWeekly bool
	data         string
}

// OpenSQLiteHost opens (or creates) the host database at path. When native
// is set, weekly requests repeat inside the host instead of being re-armed.
func OpenSQLiteHost(ctx context.Context, path string, tray Tray, native bool) (*SQLiteHost, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	from, to, err := upgradeSchema(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("upgrade schema: %w", err)
	}
	if to > from {
		slog.InfoContext(ctx, "host schema upgraded",
			slog.String("path", path),
			slog.Int("from_version", from),
			slog.Int("to_version", to),
		)
	}

	if tray == nil {
		tray = LogTray{}
	}

	return &SQLiteHost{db: db, tray: tray, native: native, now: time.Now}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

type schemaStep struct {
	version int
	name    string
}

func schemaSteps() ([]schemaStep, error) {
	entries, err := fs.ReadDir(schemaFS, "migrations")
	if err != nil {
		return nil, err
	}

	steps := make([]schemaStep, 0, len(entries))
	for _, e := range entries {
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if e.IsDir() || !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("schema file %s: %w", e.Name(), err)
		}
		steps = append(steps, schemaStep{version: version, name: e.Name()})
	}
	slices.SortFunc(steps, func(a, b schemaStep) int { return a.version - b.version })
	return steps, nil
}

func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// upgradeSchema applies the schema files newer than the stored version, each
// in its own transaction together with the version bump.
func upgradeSchema(ctx context.Context, db *sql.DB) (from, to int, err error) {
	from, err = schemaVersion(ctx, db)
	if err != nil {
		return 0, 0, fmt.Errorf("read schema version: %w", err)
	}

	steps, err := schemaSteps()
	if err != nil {
		return from, from, err
	}

	to = from
	for _, step := range steps {
		if step.version <= to {
			continue
		}
		ddl, err := fs.ReadFile(schemaFS, "migrations/"+step.name)
		if err != nil {
			return from, to, err
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return from, to, err
		}
		if _, err := tx.ExecContext(ctx, string(ddl)); err != nil {
			_ = tx.Rollback()
			return from, to, fmt.Errorf("apply %s: %w", step.name, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", step.version)); err != nil {
			_ = tx.Rollback()
			return from, to, fmt.Errorf("record version %d: %w", step.version, err)
		}
		if err := tx.Commit(); err != nil {
			return from, to, err
		}
		to = step.version
	}
	return from, to, nil
}

func (h *SQLiteHost) WithClock(now func() time.Time) *SQLiteHost {
	h.now = now
	return h
}

func (h *SQLiteHost) Close() error {
	return h.db.Close()
}

func (h *SQLiteHost) SupportsWeeklyRepeat() bool {
	return h.native
}

func (h *SQLiteHost) ScheduleAt(ctx context.Context, req HostRequest) (string, error) {
	data, err := json.Marshal(req.Data)
	if err != nil {
		return "", fmt.Errorf("encode notification data: %w", err)
	}

	id := uuid.NewString()
	_, err = h.db.ExecContext(ctx, `
		INSERT INTO pending_notifications (id, title, body, fire_at, timezone, repeat_weekly, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, req.Title, req.Body, req.FireAt.UTC().UnixMilli(), req.Timezone,
		boolToInt(req.RepeatWeekly && h.native), string(data), h.now().UTC().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("insert pending notification: %w", err)
	}
	return id, nil
}

func (h *SQLiteHost) Cancel(ctx context.Context, id string) error {
	res, err := h.db.ExecContext(ctx, `DELETE FROM pending_notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pending notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrHostNotFound
	}
	return nil
}

// Pending returns the number of notifications waiting to fire.
func (h *SQLiteHost) Pending(ctx context.Context) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_notifications`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Reset removes every pending notification and returns how many were dropped.
func (h *SQLiteHost) Reset(ctx context.Context) (int, error) {
	res, err := h.db.ExecContext(ctx, `DELETE FROM pending_notifications`)
	if err != nil {
		return 0, fmt.Errorf("clear pending notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// FireDue shows every notification due at now. One-shot rows are removed;
// repeating rows move forward by whole weeks in their stored timezone.
func (h *SQLiteHost) FireDue(ctx context.Context, now time.Time, listener FiredListener) (int, error) {
	rows, err := h.dueRows(ctx, now)
	if err != nil {
		return 0, err
	}

	fired := 0
	for _, row := range rows {
		var data map[string]string
		if err := json.Unmarshal([]byte(row.data), &data); err != nil {
			slog.WarnContext(ctx, "pending notification has unreadable data",
				slog.String("id", row.id),
				slog.String("error", err.Error()),
			)
		}

		if err := h.tray.Show(ctx, TrayNotification{ID: row.id, Title: row.title, Body: row.body, Data: data}); err != nil {
			slog.WarnContext(ctx, "tray rejected notification",
				slog.String("id", row.id),
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := h.settle(ctx, row, now); err != nil {
			return fired, err
		}
		fired++

		if listener == nil {
			continue
		}
		if err := listener.OnFired(ctx, Fired{
			ID:           row.id,
			FiredAt:      now,
			RepeatWeekly: row.repeatWeekly,
			Data:         data,
		}); err != nil {
			slog.WarnContext(ctx, "fired listener failed",
				slog.String("id", row.id),
				slog.String("error", err.Error()),
			)
		}
	}
	return fired, nil
}

func (h *SQLiteHost) dueRows(ctx context.Context, now time.Time) ([]pendingRow, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, title, body, fire_at, timezone, repeat_weekly, data
		FROM pending_notifications
		WHERE fire_at <= ?
		ORDER BY fire_at`, now.UTC().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query due notifications: %w", err)
	}
	defer rows.Close()

	var out []pendingRow
	for rows.Next() {
		var r pendingRow
		var repeat int
		if err := rows.Scan(&r.id, &r.title, &r.body, &r.fireAt, &r.timezone, &repeat, &r.data); err != nil {
			return nil, err
		}
		r.repeatWeekly = repeat == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

func (h *SQLiteHost) settle(ctx context.Context, row pendingRow, now time.Time) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if row.repeatWeekly {
		next := nextWeeklyFire(time.UnixMilli(row.fireAt), row.timezone, now)
		if _, err := tx.ExecContext(ctx, `UPDATE pending_notifications SET fire_at = ? WHERE id = ?`, next.UnixMilli(), row.id); err != nil {
			return fmt.Errorf("advance repeating notification: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_notifications WHERE id = ?`, row.id); err != nil {
			return fmt.Errorf("remove fired notification: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO delivery_log (pending_id, title, fired_at) VALUES (?, ?, ?)`,
		row.id, row.title, now.UTC().UnixMilli()); err != nil {
		return fmt.Errorf("log delivery: %w", err)
	}

	return tx.Commit()
}

// nextWeeklyFire steps fireAt forward by seven calendar days in tz until it
// is after now, keeping the wall clock across DST changes.
func nextWeeklyFire(fireAt time.Time, tz string, now time.Time) time.Time {
	loc, err := timemath.ResolveLocation(tz, time.UTC)
	if err != nil {
		loc = time.UTC
	}
	next := fireAt.In(loc)
	for !next.After(now) {
		next = timemath.AddCalendarDays(next, 7)
	}
	return next.UTC()
}

// Run polls for due notifications until ctx is cancelled.
func (h *SQLiteHost) Run(ctx context.Context, interval time.Duration, listener FiredListener) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := h.FireDue(ctx, h.now(), listener); err != nil && !errors.Is(err, context.Canceled) {
			slog.ErrorContext(ctx, "failed to fire due notifications",
				slog.String("event", "host.poll.fail"),
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-ctx.Done():
			slog.Info("notification host stopping")
			return
		case <-ticker.C:
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
