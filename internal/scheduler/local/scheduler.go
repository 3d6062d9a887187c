package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

const (
	DefaultCallTimeout   = 5 * time.Second
	DefaultRatePerSecond = 20
	DefaultBurst         = 5

	DataSourceID = "source_id"
	DataUserID   = "user_id"
	DataSlot     = "slot"
	DataCategory = "category"
)

type Config struct {
	CallTimeout   time.Duration
	RatePerSecond float64
	Burst         int
}

// Scheduler registers occurrences with the device notification host.
// Every host call is bounded by CallTimeout and never retried.
type Scheduler struct {
	host    Host
	timeout time.Duration
	limiter *rate.Limiter
	now     func() time.Time
}

func New(host Host, cfg Config) *Scheduler {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultRatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}

	return &Scheduler{
		host:    host,
		timeout: cfg.CallTimeout,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		now:     time.Now,
	}
}

func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

func (s *Scheduler) Origin() domain.Origin {
	return domain.OriginLocal
}

func (s *Scheduler) SupportsNativeWeeklyRepeat() bool {
	return s.host.SupportsWeeklyRepeat()
}

func (s *Scheduler) Register(ctx context.Context, occ *domain.ScheduledOccurrence) (string, error) {
	if !occ.FireAt.After(s.now()) {
		return "", &domain.SchedulingError{
			Op:       "register local",
			SourceID: occ.DescriptorID,
			Slot:     occ.Slot,
			Err:      domain.ErrInvalidFireTime,
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("host rate limit wait: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id, err := s.host.ScheduleAt(callCtx, HostRequest{
		Title:        occ.Category.Title(),
		Body:         occ.Message,
		FireAt:       occ.FireAt,
		Timezone:     occ.Timezone,
		RepeatWeekly: occ.Weekly && s.host.SupportsWeeklyRepeat(),
		Data: map[string]string{
			DataSourceID: occ.DescriptorID,
			DataUserID:   occ.UserID,
			DataSlot:     occ.Slot,
			DataCategory: occ.Category.String(),
		},
	})
	if err != nil {
		return "", &domain.SchedulingError{
			Op:       "register local",
			SourceID: occ.DescriptorID,
			Slot:     occ.Slot,
			Err:      s.hostError(callCtx, err),
		}
	}

	return id, nil
}

// Cancel removes the pending host notification. Unknown ids are a no-op.
func (s *Scheduler) Cancel(ctx context.Context, occ *domain.ScheduledOccurrence) error {
	if occ.Handle == "" {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.host.Cancel(callCtx, occ.Handle)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrHostNotFound) {
		slog.DebugContext(ctx, "host notification already gone",
			slog.String("handle", occ.Handle),
			slog.String("source_id", occ.DescriptorID),
		)
		return nil
	}
	return s.hostError(callCtx, err)
}

func (s *Scheduler) hostError(callCtx context.Context, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: host call timed out after %s", domain.ErrHostUnavailable, s.timeout)
	}
	return err
}
