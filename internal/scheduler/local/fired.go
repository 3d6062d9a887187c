package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/occurrence"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/scheduler"
)

// FiredHandler keeps stored records in step with what the host delivered.
type FiredHandler struct {
	repo    domain.NotificationRepository
	rearmer scheduler.Rearmer
}

func NewFiredHandler(repo domain.NotificationRepository, rearmer scheduler.Rearmer) *FiredHandler {
	return &FiredHandler{repo: repo, rearmer: rearmer}
}

// OnFired marks the occurrence sent and arms the next weekly firing. When the
// host repeats natively the record stays scheduled with its next fire time.
func (h *FiredHandler) OnFired(ctx context.Context, fired Fired) error {
	occ, err := h.repo.GetOccurrence(ctx, fired.ID)
	if err != nil {
		if errors.Is(err, domain.ErrOccurrenceNotFound) {
			slog.DebugContext(ctx, "fired notification is not tracked",
				slog.String("handle", fired.ID),
			)
			return nil
		}
		return fmt.Errorf("failed to load fired occurrence: %w", err)
	}
	if !occ.Active() {
		return nil
	}

	if fired.RepeatWeekly && occ.Weekly {
		next, err := occurrence.NextAfterFiring(occ, fired.FiredAt)
		if err != nil {
			return err
		}
		occ.FireAt = next
		occ.UpdatedAt = time.Now().UTC()
		if err := h.repo.SaveOccurrence(ctx, occ); err != nil {
			return fmt.Errorf("failed to advance repeating occurrence: %w", err)
		}
		return nil
	}

	ok, err := h.repo.UpdateStatus(ctx, occ.Handle, domain.StatusScheduled, domain.StatusSent, "")
	if err != nil {
		return fmt.Errorf("failed to mark occurrence sent: %w", err)
	}
	if !ok {
		return nil
	}
	occ.Status = domain.StatusSent

	if !occ.Weekly || h.rearmer == nil {
		return nil
	}

	next, err := h.rearmer.Rearm(ctx, occ)
	if err != nil {
		slog.WarnContext(ctx, "failed to re-arm weekly notification",
			slog.String("handle", occ.Handle),
			slog.String("source_id", occ.DescriptorID),
			slog.String("slot", occ.Slot),
			slog.String("error", err.Error()),
		)
		return err
	}
	if next != nil {
		slog.InfoContext(ctx, "weekly notification re-armed",
			slog.String("source_id", next.DescriptorID),
			slog.String("slot", next.Slot),
			slog.Time("fire_at", next.FireAt),
		)
	}
	return nil
}
