package schedulestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/occurrence"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/scheduler"
)

const (
	reasonSuperseded = "superseded"
	reasonCancelled  = "cancelled"
)

// PlannedOccurrence is a computed fire time waiting to be registered.
type PlannedOccurrence struct {
	Slot    string
	Weekday time.Weekday
	FireAt  time.Time
	Weekly  bool
}

type UpsertRequest struct {
	Descriptor  *domain.NotificationDescriptor
	Occurrences []PlannedOccurrence
	Timezone    string
	PushTokens  []string
}

type UpsertResult struct {
	SourceID   string
	Registered []*domain.ScheduledOccurrence
	Cancelled  int
	Errors     []error
}

// Err joins the per-slot failures, or returns nil if every slot succeeded.
func (r *UpsertResult) Err() error {
	return errors.Join(r.Errors...)
}

type ActiveNotification struct {
	Descriptor  *domain.NotificationDescriptor
	Occurrences []*domain.ScheduledOccurrence
}

// Origins lists the origins that currently hold an active occurrence.
func (a ActiveNotification) Origins() []domain.Origin {
	var out []domain.Origin
	for _, occ := range a.Occurrences {
		if !slices.Contains(out, occ.Origin) {
			out = append(out, occ.Origin)
		}
	}
	return out
}

// Store maps notification identities to the occurrences registered for them
// on each scheduler it serves.
type Store struct {
	repo       domain.NotificationRepository
	schedulers []scheduler.Scheduler
	locks      *keyedMutex
	now        func() time.Time
}

func New(repo domain.NotificationRepository, schedulers ...scheduler.Scheduler) *Store {
	return &Store{
		repo:       repo,
		schedulers: schedulers,
		locks:      newKeyedMutex(),
		now:        time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Repository() domain.NotificationRepository {
	return s.repo
}

// Upsert replaces whatever is registered for the descriptor's identity with
// req.Occurrences. For each origin every active occurrence is cancelled
// before any new one is registered; if a cancel fails that origin is left
// without new registrations.
func (s *Store) Upsert(ctx context.Context, req UpsertRequest) (*UpsertResult, error) {
	d := req.Descriptor
	if d == nil {
		return nil, domain.ErrInvalidDescriptor
	}

	sourceID := IdentityOf(d)
	d.SourceID = sourceID

	unlock := s.locks.Lock(identityKey(d.UserID, sourceID))
	defer unlock()

	now := s.now().UTC()

	existing, err := s.repo.GetDescriptor(ctx, d.UserID, sourceID)
	switch {
	case err == nil:
		if !existing.SameContent(d) {
			collision := &domain.IdentityCollisionError{
				SourceID: sourceID,
				Existing: existing.Message,
				Incoming: d.Message,
			}
			slog.ErrorContext(ctx, "notification identity collision",
				slog.String("source_id", sourceID),
				slog.String("user_id", d.UserID),
				slog.String("error", collision.Error()),
			)
			return nil, collision
		}
		d.CreatedAt = existing.CreatedAt
	case errors.Is(err, domain.ErrDescriptorNotFound):
		d.CreatedAt = now
	default:
		return nil, fmt.Errorf("failed to load descriptor: %w", err)
	}
	d.UpdatedAt = now

	if err := s.repo.SaveDescriptor(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save descriptor: %w", err)
	}

	current, err := s.repo.ListOccurrences(ctx, d.UserID, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}

	result := &UpsertResult{SourceID: sourceID}

	for _, sched := range s.schedulers {
		origin := sched.Origin()

		cancelled, err := s.cancelActive(ctx, sched, current, reasonSuperseded)
		result.Cancelled += cancelled
		if err != nil {
			result.Errors = append(result.Errors, &domain.SchedulingError{
				Op:       "cancel previous " + origin.String(),
				SourceID: sourceID,
				Err:      err,
			})
			continue
		}

		if !d.IsActive {
			continue
		}

		for _, planned := range req.Occurrences {
			occ := &domain.ScheduledOccurrence{
				DescriptorID: sourceID,
				UserID:       d.UserID,
				Category:     d.Category,
				Slot:         planned.Slot,
				Message:      d.Message,
				FireAt:       planned.FireAt.UTC(),
				Timezone:     req.Timezone,
				TimeOfDay:    d.TimeOfDay,
				Weekday:      planned.Weekday,
				Weekly:       planned.Weekly,
				Status:       domain.StatusScheduled,
				Origin:       origin,
				PushTokens:   slices.Clone(req.PushTokens),
				CreatedAt:    now,
				UpdatedAt:    now,
			}

			if err := s.register(ctx, sched, occ); err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			result.Registered = append(result.Registered, occ)
		}
	}

	slog.DebugContext(ctx, "notification upserted",
		slog.String("source_id", sourceID),
		slog.String("user_id", d.UserID),
		slog.Int("registered", len(result.Registered)),
		slog.Int("cancelled", result.Cancelled),
		slog.Int("failed", len(result.Errors)),
	)

	return result, nil
}

func (s *Store) register(ctx context.Context, sched scheduler.Scheduler, occ *domain.ScheduledOccurrence) error {
	handle, err := sched.Register(ctx, occ)
	if err != nil {
		return wrapScheduling("register "+sched.Origin().String(), occ, err)
	}
	occ.Handle = handle

	if err := s.repo.SaveOccurrence(ctx, occ); err != nil {
		// The host holds a registration nothing tracks; take it back.
		if cancelErr := sched.Cancel(ctx, occ); cancelErr != nil {
			slog.WarnContext(ctx, "failed to roll back untracked registration",
				slog.String("handle", handle),
				slog.String("error", cancelErr.Error()),
			)
		}
		return wrapScheduling("save "+sched.Origin().String(), occ, err)
	}
	return nil
}

func wrapScheduling(op string, occ *domain.ScheduledOccurrence, err error) error {
	var schedErr *domain.SchedulingError
	if errors.As(err, &schedErr) {
		if schedErr.SourceID == "" {
			schedErr.SourceID = occ.DescriptorID
		}
		if schedErr.Slot == "" {
			schedErr.Slot = occ.Slot
		}
		return schedErr
	}
	return &domain.SchedulingError{
		Op:       op,
		SourceID: occ.DescriptorID,
		Slot:     occ.Slot,
		Err:      err,
	}
}

// cancelActive cancels the active occurrences in occs that belong to
// sched's origin. It stops at the first scheduler failure.
func (s *Store) cancelActive(ctx context.Context, sched scheduler.Scheduler, occs []*domain.ScheduledOccurrence, reason string) (int, error) {
	cancelled := 0
	for _, occ := range occs {
		if occ.Origin != sched.Origin() || !occ.Active() {
			continue
		}

		if err := sched.Cancel(ctx, occ); err != nil {
			return cancelled, fmt.Errorf("failed to cancel %s: %w", occ.Handle, err)
		}

		ok, err := s.repo.UpdateStatus(ctx, occ.Handle, domain.StatusScheduled, domain.StatusCancelled, reason)
		if err != nil {
			if errors.Is(err, domain.ErrOccurrenceNotFound) {
				slog.DebugContext(ctx, "cancelled occurrence no longer stored",
					slog.String("handle", occ.Handle),
				)
				continue
			}
			return cancelled, fmt.Errorf("failed to mark %s cancelled: %w", occ.Handle, err)
		}
		if ok {
			occ.Status = domain.StatusCancelled
			cancelled++
		}
	}
	return cancelled, nil
}

// CancelByIdentity cancels every active occurrence of the identity on each
// origin this store serves and marks the descriptor inactive.
func (s *Store) CancelByIdentity(ctx context.Context, userID, sourceID string) (int, error) {
	unlock := s.locks.Lock(identityKey(userID, sourceID))
	defer unlock()

	return s.cancelIdentityLocked(ctx, userID, sourceID)
}

func (s *Store) cancelIdentityLocked(ctx context.Context, userID, sourceID string) (int, error) {
	occs, err := s.repo.ListOccurrences(ctx, userID, sourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to list occurrences: %w", err)
	}

	var errs []error
	total := 0
	for _, sched := range s.schedulers {
		n, err := s.cancelActive(ctx, sched, occs, reasonCancelled)
		total += n
		if err != nil {
			errs = append(errs, &domain.SchedulingError{
				Op:       "cancel " + sched.Origin().String(),
				SourceID: sourceID,
				Err:      err,
			})
		}
	}

	d, err := s.repo.GetDescriptor(ctx, userID, sourceID)
	switch {
	case err == nil:
		if d.IsActive && len(errs) == 0 {
			d.IsActive = false
			d.UpdatedAt = s.now().UTC()
			if err := s.repo.SaveDescriptor(ctx, d); err != nil {
				errs = append(errs, fmt.Errorf("failed to deactivate descriptor %s: %w", sourceID, err))
			}
		}
	case errors.Is(err, domain.ErrDescriptorNotFound):
		slog.DebugContext(ctx, "cancel for unknown descriptor",
			slog.String("source_id", sourceID),
			slog.String("user_id", userID),
		)
	default:
		errs = append(errs, fmt.Errorf("failed to load descriptor %s: %w", sourceID, err))
	}

	return total, errors.Join(errs...)
}

// CancelByType cancels every notification of the given category for the
// user. Failures are collected and the remaining identities still processed.
func (s *Store) CancelByType(ctx context.Context, userID string, category domain.Category) (int, error) {
	return s.cancelMatching(ctx, userID, func(d *domain.NotificationDescriptor) bool {
		return d.Category == category
	})
}

func (s *Store) CancelAll(ctx context.Context, userID string) (int, error) {
	return s.cancelMatching(ctx, userID, func(*domain.NotificationDescriptor) bool {
		return true
	})
}

func (s *Store) cancelMatching(ctx context.Context, userID string, match func(*domain.NotificationDescriptor) bool) (int, error) {
	descriptors, err := s.repo.ListDescriptors(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list descriptors: %w", err)
	}

	var errs []error
	total := 0
	for _, d := range descriptors {
		if !match(d) {
			continue
		}
		n, err := s.CancelByIdentity(ctx, userID, d.SourceID)
		total += n
		if err != nil {
			slog.WarnContext(ctx, "failed to cancel notification",
				slog.String("source_id", d.SourceID),
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// ListActive returns the user's active descriptors with their active occurrences.
func (s *Store) ListActive(ctx context.Context, userID string) ([]ActiveNotification, error) {
	descriptors, err := s.repo.ListDescriptors(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list descriptors: %w", err)
	}

	out := make([]ActiveNotification, 0, len(descriptors))
	for _, d := range descriptors {
		if !d.IsActive {
			continue
		}

		occs, err := s.repo.ListOccurrences(ctx, userID, d.SourceID)
		if err != nil {
			return nil, fmt.Errorf("failed to list occurrences: %w", err)
		}

		active := make([]*domain.ScheduledOccurrence, 0, len(occs))
		for _, occ := range occs {
			if occ.Active() {
				active = append(active, occ)
			}
		}
		slices.SortFunc(active, func(a, b *domain.ScheduledOccurrence) int {
			return a.FireAt.Compare(b.FireAt)
		})

		out = append(out, ActiveNotification{Descriptor: d, Occurrences: active})
	}
	return out, nil
}

// Rearm registers the next weekly firing after fired. It does nothing when
// the descriptor was deactivated or edited, or when the slot already has
// an active occurrence on that origin.
func (s *Store) Rearm(ctx context.Context, fired *domain.ScheduledOccurrence) (*domain.ScheduledOccurrence, error) {
	if !fired.Weekly {
		return nil, nil
	}

	sched := s.schedulerFor(fired.Origin)
	if sched == nil {
		slog.DebugContext(ctx, "no scheduler for origin, skipping re-arm",
			slog.String("origin", fired.Origin.String()),
			slog.String("handle", fired.Handle),
		)
		return nil, nil
	}

	unlock := s.locks.Lock(identityKey(fired.UserID, fired.DescriptorID))
	defer unlock()

	d, err := s.repo.GetDescriptor(ctx, fired.UserID, fired.DescriptorID)
	if err != nil {
		if errors.Is(err, domain.ErrDescriptorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load descriptor: %w", err)
	}
	if !d.IsActive || d.TimeOfDay != fired.TimeOfDay || !slices.Contains(d.Recurrence.Days, fired.Weekday) {
		return nil, nil
	}

	occs, err := s.repo.ListOccurrences(ctx, fired.UserID, fired.DescriptorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}
	for _, occ := range occs {
		if occ.Handle != fired.Handle && occ.Origin == fired.Origin && occ.Slot == fired.Slot && occ.Active() {
			return nil, nil
		}
	}

	now := s.now().UTC()
	next, err := occurrence.NextAfterFiring(fired, now)
	if err != nil {
		return nil, wrapScheduling("rearm", fired, err)
	}

	occ := fired.Clone()
	occ.FireAt = next
	occ.Status = domain.StatusScheduled
	occ.CreatedAt = now
	occ.UpdatedAt = now

	if err := s.register(ctx, sched, occ); err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "weekly occurrence re-armed",
		slog.String("source_id", occ.DescriptorID),
		slog.String("slot", occ.Slot),
		slog.String("origin", occ.Origin.String()),
		slog.Time("fire_at", occ.FireAt),
	)
	return occ, nil
}

func (s *Store) schedulerFor(origin domain.Origin) scheduler.Scheduler {
	for _, sched := range s.schedulers {
		if sched.Origin() == origin {
			return sched
		}
	}
	return nil
}

func identityKey(userID, sourceID string) string {
	return userID + "/" + sourceID
}
