package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/observability/metrics"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/observability/tracing"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/scheduler"
)

const (
	DefaultSweepInterval    = time.Minute
	DefaultSweepBatchSize   = 500
	DefaultSweepConcurrency = 16

	statusSkipped domain.OccurrenceStatus = "skipped"
)

type SweeperConfig struct {
	Interval    time.Duration
	BatchSize   int
	Concurrency int
}

type SweepResult struct {
	SweepID string `json:"sweep_id"`
	Due     int    `json:"due_count"`
	Claimed int    `json:"claimed_count"`
	Sent    int    `json:"sent_count"`
	Failed  int    `json:"failed_count"`
	Skipped int    `json:"skipped_count"`
	Rearmed int    `json:"rearmed_count"`
}

// Sweeper delivers due server-side occurrences. Each record is claimed with a
// scheduled→sent transition before the transport is called, so overlapping
// sweeps (or replicas) never deliver the same record twice.
type Sweeper struct {
	repo      domain.NotificationRepository
	transport domain.PushTransport
	rearmer   scheduler.Rearmer
	recorder  domain.DeliveryRecorder
	metrics   *metrics.SchedulerMetrics
	cfg       SweeperConfig
	now       func() time.Time
}

type SweeperOption func(*Sweeper)

func WithRecorder(recorder domain.DeliveryRecorder) SweeperOption {
	return func(s *Sweeper) { s.recorder = recorder }
}

func WithMetrics(m *metrics.SchedulerMetrics) SweeperOption {
	return func(s *Sweeper) { s.metrics = m }
}

func WithSweepClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) { s.now = now }
}

func NewSweeper(
	repo domain.NotificationRepository,
	transport domain.PushTransport,
	rearmer scheduler.Rearmer,
	cfg SweeperConfig,
	opts ...SweeperOption,
) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultSweepBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultSweepConcurrency
	}

	s := &Sweeper{
		repo:      repo,
		transport: transport,
		rearmer:   rearmer,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	slog.Info("sweeper started",
		slog.Duration("interval", s.cfg.Interval),
		slog.Int("batch_size", s.cfg.BatchSize),
		slog.Int("concurrency", s.cfg.Concurrency),
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopping")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "sweep failed",
					slog.String("event", "sweep.fail"),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Sweep delivers every record due now, up to the batch size.
func (s *Sweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	started := s.now().UTC()
	result := &SweepResult{SweepID: uuid.NewString()}

	ctx, span := tracing.StartSweepSpan(ctx, started, s.cfg.BatchSize)
	defer span.End()

	due, err := s.repo.ListDue(ctx, started, s.cfg.BatchSize)
	if err != nil {
		err = fmt.Errorf("failed to list due occurrences: %w", err)
		tracing.RecordSweepResult(span, 0, 0, 0, err)
		return nil, err
	}
	result.Due = len(due)

	var (
		mu         sync.Mutex
		deliveries = make([]domain.DeliveryRecord, 0, len(due))
	)

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	for _, occ := range due {
		g.Go(func() error {
			record, claimed, rearmed := s.deliver(ctx, result.SweepID, occ)

			mu.Lock()
			defer mu.Unlock()
			deliveries = append(deliveries, record)
			if claimed {
				result.Claimed++
			}
			if rearmed {
				result.Rearmed++
			}
			switch record.Status {
			case domain.StatusSent:
				result.Sent++
			case domain.StatusFailed:
				result.Failed++
			default:
				result.Skipped++
			}
			return nil
		})
	}
	_ = g.Wait()

	duration := s.now().UTC().Sub(started)
	s.metrics.RecordSweep(ctx, result.Due, duration)
	tracing.RecordSweepResult(span, result.Due, result.Sent, result.Failed, nil)

	if s.recorder != nil && result.Due > 0 {
		sweep := domain.SweepRecord{
			SweepID:   result.SweepID,
			StartedAt: started,
			Duration:  duration,
			Due:       result.Due,
			Claimed:   result.Claimed,
			Sent:      result.Sent,
			Failed:    result.Failed,
			Skipped:   result.Skipped,
			Rearmed:   result.Rearmed,
		}
		if err := s.recorder.RecordSweep(ctx, sweep, deliveries); err != nil {
			slog.WarnContext(ctx, "failed to record sweep",
				slog.String("sweep_id", result.SweepID),
				slog.String("error", err.Error()),
			)
		}
	}

	if result.Due > 0 {
		slog.InfoContext(ctx, "sweep completed",
			slog.String("sweep_id", result.SweepID),
			slog.Int("due", result.Due),
			slog.Int("sent", result.Sent),
			slog.Int("failed", result.Failed),
			slog.Int("skipped", result.Skipped),
			slog.Int("rearmed", result.Rearmed),
		)
	}

	return result, nil
}

func (s *Sweeper) deliver(ctx context.Context, sweepID string, occ *domain.ScheduledOccurrence) (domain.DeliveryRecord, bool, bool) {
	ctx, span := tracing.StartDeliverySpan(ctx, occ.Handle, occ.Slot)
	defer span.End()

	record := domain.DeliveryRecord{
		SweepID:  sweepID,
		Handle:   occ.Handle,
		UserID:   occ.UserID,
		Category: occ.Category,
		Slot:     occ.Slot,
		FireAt:   occ.FireAt,
		Status:   statusSkipped,
	}

	ok, err := s.repo.UpdateStatus(ctx, occ.Handle, domain.StatusScheduled, domain.StatusSent, "")
	if err != nil {
		if !errors.Is(err, domain.ErrOccurrenceNotFound) {
			slog.WarnContext(ctx, "failed to claim occurrence",
				slog.String("handle", occ.Handle),
				slog.String("error", err.Error()),
			)
			record.Error = err.Error()
		}
		tracing.RecordError(span, err)
		return record, false, false
	}
	if !ok {
		// cancelled or claimed by a concurrent sweep
		return record, false, false
	}

	record.Status = domain.StatusSent
	if sendErr := s.send(ctx, occ); sendErr != nil {
		record.Status = domain.StatusFailed
		record.Error = sendErr.Error()

		slog.WarnContext(ctx, "push delivery failed",
			slog.String("handle", occ.Handle),
			slog.String("source_id", occ.DescriptorID),
			slog.String("slot", occ.Slot),
			slog.String("error", sendErr.Error()),
		)
		if _, err := s.repo.UpdateStatus(ctx, occ.Handle, domain.StatusSent, domain.StatusFailed, sendErr.Error()); err != nil {
			slog.ErrorContext(ctx, "failed to record delivery failure",
				slog.String("event", "sweep.record_failure.fail"),
				slog.String("handle", occ.Handle),
				slog.String("error", err.Error()),
			)
		}
		tracing.RecordError(span, sendErr)
	} else {
		tracing.RecordError(span, nil)
	}
	s.metrics.RecordDelivery(ctx, occ.Category.String(), record.Status.String())

	rearmed := false
	if occ.Weekly && s.rearmer != nil {
		occ.Status = record.Status
		next, err := s.rearmer.Rearm(ctx, occ)
		if err != nil {
			slog.WarnContext(ctx, "failed to re-arm weekly occurrence",
				slog.String("handle", occ.Handle),
				slog.String("source_id", occ.DescriptorID),
				slog.String("slot", occ.Slot),
				slog.String("error", err.Error()),
			)
		}
		rearmed = next != nil
	}

	return record, true, rearmed
}

// send tries every token on the record. Delivery counts as sent when at
// least one token accepted the message.
func (s *Sweeper) send(ctx context.Context, occ *domain.ScheduledOccurrence) error {
	if len(occ.PushTokens) == 0 {
		return &domain.TransportError{Handle: occ.Handle, Err: domain.ErrNoPushToken}
	}

	msg := domain.PushMessage{
		Title: occ.Category.Title(),
		Body:  occ.Message,
		Data: map[string]string{
			"handle":    occ.Handle,
			"source_id": occ.DescriptorID,
			"slot":      occ.Slot,
			"category":  occ.Category.String(),
		},
	}

	var (
		errs      []error
		failedTok string
	)
	for _, token := range occ.PushTokens {
		msg.Token = token
		if err := s.transport.Send(ctx, msg); err != nil {
			if failedTok == "" {
				failedTok = token
			}
			errs = append(errs, err)
		}
	}

	if len(errs) == len(occ.PushTokens) {
		return &domain.TransportError{Handle: occ.Handle, Token: failedTok, Err: errors.Join(errs...)}
	}
	return nil
}
