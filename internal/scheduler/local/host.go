package local

import (
	"context"
	"errors"
	"time"
)

//go:generate mockgen -source=host.go -destination=host_mock.go -package=local

var ErrHostNotFound = errors.New("host notification not found")

// HostRequest is a calendar trigger for the device notification subsystem.
type HostRequest struct {
	Title        string
	Body         string
	FireAt       time.Time
	Timezone     string
	RepeatWeekly bool
	Data         map[string]string
}

// Host is the device notification subsystem.
type Host interface {
	ScheduleAt(ctx context.Context, req HostRequest) (string, error)
	// Cancel returns ErrHostNotFound for ids the host does not know.
	Cancel(ctx context.Context, id string) error
	SupportsWeeklyRepeat() bool
}

// Fired is reported by a host when a pending notification was shown.
type Fired struct {
	ID           string
	FiredAt      time.Time
	RepeatWeekly bool
	Data         map[string]string
}

// FiredListener receives host firings.
type FiredListener interface {
	OnFired(ctx context.Context, fired Fired) error
}
