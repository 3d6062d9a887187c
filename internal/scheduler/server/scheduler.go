package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

const handlePrefix = "srv-"

// Scheduler hands out handles for persisted server-side occurrences. The
// record itself is the registration; the Sweeper delivers it when due.
type Scheduler struct {
	repo domain.NotificationRepository
	node *snowflake.Node
	now  func() time.Time
}

func New(repo domain.NotificationRepository, nodeID int64) (*Scheduler, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", nodeID, err)
	}

	return &Scheduler{
		repo: repo,
		node: node,
		now:  time.Now,
	}, nil
}

func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

func (s *Scheduler) Origin() domain.Origin {
	return domain.OriginServer
}

func (s *Scheduler) SupportsNativeWeeklyRepeat() bool {
	return false
}

func (s *Scheduler) Register(_ context.Context, occ *domain.ScheduledOccurrence) (string, error) {
	if !occ.FireAt.After(s.now()) {
		return "", &domain.SchedulingError{
			Op:       "register server",
			SourceID: occ.DescriptorID,
			Slot:     occ.Slot,
			Err:      domain.ErrInvalidFireTime,
		}
	}

	return handlePrefix + s.node.Generate().String(), nil
}

// Cancel has nothing to disarm beyond the record; the caller's
// scheduled→cancelled transition races the sweeper's claim and only one wins.
func (s *Scheduler) Cancel(ctx context.Context, occ *domain.ScheduledOccurrence) error {
	if occ.Handle == "" {
		return nil
	}

	current, err := s.repo.GetOccurrence(ctx, occ.Handle)
	if err != nil {
		if errors.Is(err, domain.ErrOccurrenceNotFound) {
			slog.DebugContext(ctx, "server occurrence already gone",
				slog.String("handle", occ.Handle),
			)
			return nil
		}
		return fmt.Errorf("failed to load occurrence %s: %w", occ.Handle, err)
	}

	if !current.Active() {
		slog.DebugContext(ctx, "server occurrence no longer scheduled",
			slog.String("handle", occ.Handle),
			slog.String("status", current.Status.String()),
		)
	}
	return nil
}
