package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/observability/metrics"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/observability/tracing"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/occurrence"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/schedulestore"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/timemath"
)

const DefaultConcurrency = 8

type Config struct {
	Concurrency     int
	DefaultLocation *time.Location
}

type Service struct {
	store      *schedulestore.Store
	profiles   domain.ProfileProvider
	metrics    *metrics.SchedulerMetrics
	limit      int
	defaultLoc *time.Location
	now        func() time.Time
}

func NewService(
	store *schedulestore.Store,
	profiles domain.ProfileProvider,
	schedulerMetrics *metrics.SchedulerMetrics,
	cfg Config,
) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.DefaultLocation == nil {
		cfg.DefaultLocation = time.UTC
	}
	return &Service{
		store:      store,
		profiles:   profiles,
		metrics:    schedulerMetrics,
		limit:      cfg.Concurrency,
		defaultLoc: cfg.DefaultLocation,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Schedule computes and registers every descriptor for userID. Per-descriptor
// failures are reported in the result; the returned error is reserved for
// failures that prevent scheduling anything.
func (s *Service) Schedule(ctx context.Context, userID string, descriptors []*domain.NotificationDescriptor) (result *BatchResult, err error) {
	ctx, span := tracing.StartScheduleBatchSpan(ctx, userID, len(descriptors))
	defer func() {
		scheduled := 0
		if result != nil {
			scheduled = result.ScheduledCount
		}
		tracing.RecordBatchResult(span, scheduled, len(descriptors), err)
		span.End()
	}()

	if len(descriptors) == 0 {
		return nil, ErrEmptyBatch
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch user profile",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to fetch profile for %s: %w", userID, err)
	}

	loc, locErr := timemath.ResolveLocation(profile.Timezone, s.defaultLoc)
	if locErr != nil {
		slog.WarnContext(ctx, "unknown user timezone, using default",
			slog.String("user_id", userID),
			slog.String("timezone", profile.Timezone),
			slog.String("default", s.defaultLoc.String()),
		)
	}

	result = &BatchResult{
		UserID:   userID,
		Timezone: loc.String(),
		Results:  make([]ResultItem, len(descriptors)),
	}

	// now is captured once so every descriptor in the batch shares it.
	now := s.now().In(loc)

	duplicates := s.rejectDuplicates(ctx, userID, descriptors, result)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, d := range descriptors {
		if duplicates[i] {
			continue
		}
		g.Go(func() error {
			result.Results[i] = s.scheduleOne(gctx, i, userID, d, profile, loc, now)
			return nil
		})
	}
	_ = g.Wait()

	result.summarize()

	slog.InfoContext(ctx, "notification batch scheduled",
		slog.String("user_id", userID),
		slog.String("timezone", result.Timezone),
		slog.Int("total_count", result.TotalCount),
		slog.Int("scheduled_count", result.ScheduledCount),
		slog.Int("failed_count", result.FailedCount),
	)

	return result, nil
}

// rejectDuplicates fails every descriptor whose identity was already claimed
// by an earlier one in the batch. Weekly identities ignore the day set.
func (s *Service) rejectDuplicates(ctx context.Context, userID string, descriptors []*domain.NotificationDescriptor, result *BatchResult) map[int]bool {
	first := make(map[string]int, len(descriptors))
	duplicates := make(map[int]bool)

	for i, d := range descriptors {
		if d == nil || d.Validate() != nil {
			continue
		}
		sourceID := schedulestore.IdentityOf(d)
		j, seen := first[sourceID]
		if !seen {
			first[sourceID] = i
			continue
		}

		duplicates[i] = true
		err := fmt.Errorf("%w: same identity as item %d", ErrDuplicateInBatch, j)
		result.Results[i] = ResultItem{
			Index:    i,
			SourceID: sourceID,
			Category: d.Category,
			Active:   d.IsActive,
			Error:    err.Error(),
		}
		slog.WarnContext(ctx, "notification not scheduled",
			slog.String("user_id", userID),
			slog.String("source_id", sourceID),
			slog.Int("index", i),
			slog.String("error", err.Error()),
		)
	}

	return duplicates
}

func (s *Service) scheduleOne(
	ctx context.Context,
	index int,
	userID string,
	d *domain.NotificationDescriptor,
	profile *domain.UserProfile,
	loc *time.Location,
	now time.Time,
) ResultItem {
	item := ResultItem{Index: index}
	if d == nil {
		item.Error = domain.ErrInvalidDescriptor.Error()
		return item
	}

	d.UserID = userID
	item.Category = d.Category
	item.Active = d.IsActive

	fail := func(err error) ResultItem {
		item.Error = err.Error()
		slog.WarnContext(ctx, "notification not scheduled",
			slog.String("user_id", userID),
			slog.String("source_id", item.SourceID),
			slog.String("category", d.Category.String()),
			slog.String("error", err.Error()),
		)
		return item
	}

	if err := d.Validate(); err != nil {
		return fail(err)
	}
	item.SourceID = schedulestore.IdentityOf(d)

	ctx, span := tracing.StartUpsertSpan(ctx, item.SourceID, d.Recurrence.Discriminator())
	defer span.End()

	var planned []schedulestore.PlannedOccurrence
	if d.IsActive {
		var warning *domain.ClampedOccurrenceWarning
		var err error
		planned, warning, err = s.plan(d, profile, now)
		if warning != nil {
			item.Warnings = append(item.Warnings, warning.String())
			s.metrics.RecordClamped(ctx, warning.Misorders)
			slog.WarnContext(ctx, "trial occurrence clamped",
				slog.String("source_id", item.SourceID),
				slog.String("warning", warning.String()),
			)
		}
		if err != nil {
			tracing.RecordError(span, err)
			item.Cancelled = s.cancelSuperseded(ctx, d, loc, profile)
			return fail(err)
		}
	}

	res, err := s.store.Upsert(ctx, schedulestore.UpsertRequest{
		Descriptor:  d,
		Occurrences: planned,
		Timezone:    loc.String(),
		PushTokens:  profile.PushTokens,
	})
	if err != nil {
		tracing.RecordError(span, err)
		return fail(err)
	}

	item.Cancelled = res.Cancelled
	s.metrics.RecordCancelled(ctx, "superseded", res.Cancelled)

	perOrigin := make(map[domain.Origin]int)
	for _, occ := range res.Registered {
		perOrigin[occ.Origin]++
		item.Slots = append(item.Slots, ScheduledSlot{
			Slot:   occ.Slot,
			Origin: occ.Origin.String(),
			Handle: occ.Handle,
			FireAt: occ.FireAt,
		})
	}
	for origin, count := range perOrigin {
		s.metrics.RecordRegistered(ctx, origin.String(), d.Category.String(), count)
	}

	if err := res.Err(); err != nil {
		tracing.RecordError(span, err)
		return fail(err)
	}

	item.Success = true
	return item
}

// cancelSuperseded withdraws occurrences an earlier schedule of d registered
// when no new ones can be planned.
func (s *Service) cancelSuperseded(ctx context.Context, d *domain.NotificationDescriptor, loc *time.Location, profile *domain.UserProfile) int {
	res, err := s.store.Upsert(ctx, schedulestore.UpsertRequest{
		Descriptor: d,
		Timezone:   loc.String(),
		PushTokens: profile.PushTokens,
	})
	if err == nil {
		err = res.Err()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to cancel superseded occurrences",
			slog.String("source_id", d.SourceID),
			slog.String("user_id", d.UserID),
			slog.String("error", err.Error()),
		)
	}
	if res == nil {
		return 0
	}

	s.metrics.RecordCancelled(ctx, "superseded", res.Cancelled)
	return res.Cancelled
}

// plan turns an active descriptor into fire times in the user's timezone.
func (s *Service) plan(d *domain.NotificationDescriptor, profile *domain.UserProfile, now time.Time) ([]schedulestore.PlannedOccurrence, *domain.ClampedOccurrenceWarning, error) {
	switch d.Recurrence.Kind {
	case domain.RecurrenceWeekly:
		weekly, err := occurrence.ComputeWeeklyOccurrences(d, now)
		if err != nil {
			return nil, nil, err
		}
		planned := make([]schedulestore.PlannedOccurrence, 0, len(weekly))
		for _, w := range weekly {
			planned = append(planned, schedulestore.PlannedOccurrence{
				Slot:    w.Slot,
				Weekday: w.Weekday,
				FireAt:  w.FireAt,
				Weekly:  true,
			})
		}
		return planned, nil, nil

	case domain.RecurrenceTrial:
		if profile.TrialEndDate == nil {
			return nil, nil, &domain.SchedulingError{
				Op:   "compute trial occurrence",
				Slot: domain.TrialSlot(d.Recurrence.TrialDay),
				Err:  ErrTrialEndUnknown,
			}
		}
		fireAt, warning, err := occurrence.TrialOccurrence(d, now, *profile.TrialEndDate)
		if err != nil {
			return nil, warning, err
		}
		return []schedulestore.PlannedOccurrence{{
			Slot:    domain.TrialSlot(d.Recurrence.TrialDay),
			Weekday: fireAt.Weekday(),
			FireAt:  fireAt,
		}}, warning, nil
	}

	return nil, nil, fmt.Errorf("%w: unknown recurrence %q", domain.ErrInvalidDescriptor, d.Recurrence.Kind)
}

func (s *Service) CancelByIdentity(ctx context.Context, userID, sourceID string) (int, error) {
	n, err := s.store.CancelByIdentity(ctx, userID, sourceID)
	s.logCancel(ctx, "identity", userID, n, err, slog.String("source_id", sourceID))
	return n, err
}

func (s *Service) CancelByType(ctx context.Context, userID string, category domain.Category) (int, error) {
	if !category.Valid() {
		return 0, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidDescriptor, category)
	}
	n, err := s.store.CancelByType(ctx, userID, category)
	s.logCancel(ctx, "category", userID, n, err, slog.String("category", category.String()))
	return n, err
}

func (s *Service) CancelAll(ctx context.Context, userID string) (int, error) {
	n, err := s.store.CancelAll(ctx, userID)
	s.logCancel(ctx, "all", userID, n, err)
	return n, err
}

func (s *Service) logCancel(ctx context.Context, scope, userID string, n int, err error, attrs ...slog.Attr) {
	s.metrics.RecordCancelled(ctx, scope, n)

	args := []any{
		slog.String("scope", scope),
		slog.String("user_id", userID),
		slog.Int("cancelled_count", n),
	}
	for _, a := range attrs {
		args = append(args, a)
	}

	if err != nil {
		args = append(args, slog.String("error", err.Error()))
		slog.ErrorContext(ctx, "failed to cancel notifications", args...)
		return
	}
	slog.InfoContext(ctx, "notifications cancelled", args...)
}

func (s *Service) ListActive(ctx context.Context, userID string) ([]schedulestore.ActiveNotification, error) {
	return s.store.ListActive(ctx, userID)
}
