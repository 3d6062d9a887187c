package scheduler

import (
	"context"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

//go:generate mockgen -source=scheduler.go -destination=scheduler_mock.go -package=scheduler

// Scheduler registers occurrences with one delivery host.
type Scheduler interface {
	Origin() domain.Origin
	// Register arms occ and returns the host handle for it.
	Register(ctx context.Context, occ *domain.ScheduledOccurrence) (string, error)
	// Cancel disarms occ. Unknown handles are not an error.
	Cancel(ctx context.Context, occ *domain.ScheduledOccurrence) error
	SupportsNativeWeeklyRepeat() bool
}

// Rearmer schedules the next firing of a weekly occurrence that just fired.
type Rearmer interface {
	Rearm(ctx context.Context, fired *domain.ScheduledOccurrence) (*domain.ScheduledOccurrence, error)
}
