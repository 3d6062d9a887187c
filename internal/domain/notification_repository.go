package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=notification_repository.go -destination=notification_repository_mock.go -package=domain

type NotificationRepository interface {
	SaveDescriptor(ctx context.Context, d *NotificationDescriptor) error
	GetDescriptor(ctx context.Context, userID, sourceID string) (*NotificationDescriptor, error)
	ListDescriptors(ctx context.Context, userID string) ([]*NotificationDescriptor, error)
	DeleteDescriptor(ctx context.Context, userID, sourceID string) error

	SaveOccurrence(ctx context.Context, occ *ScheduledOccurrence) error
	GetOccurrence(ctx context.Context, handle string) (*ScheduledOccurrence, error)
	ListOccurrences(ctx context.Context, userID, sourceID string) ([]*ScheduledOccurrence, error)
	// UpdateStatus moves an occurrence from one status to another only if it
	// is still in the expected status. It reports whether the transition won.
	UpdateStatus(ctx context.Context, handle string, from, to OccurrenceStatus, reason string) (bool, error)
	// ListDue returns server-origin occurrences still scheduled with FireAt <= now.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*ScheduledOccurrence, error)
}
