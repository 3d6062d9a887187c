package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrDescriptorNotFound  = errors.New("notification descriptor not found")
	ErrOccurrenceNotFound  = errors.New("scheduled occurrence not found")
	ErrInvalidDescriptor   = errors.New("invalid notification descriptor")
	ErrInvalidFireTime     = errors.New("fire time is not in the future")
	ErrPermissionDenied    = errors.New("notification permission denied")
	ErrHostUnavailable     = errors.New("notification host unavailable")
	ErrNoMatchingWeekday   = errors.New("no matching weekday within a week")
	ErrTrialWindowTooShort = errors.New("trial window too short for strictly increasing occurrences")
	ErrNoPushToken         = errors.New("no push token registered")
)

// SchedulingError reports that a single occurrence could not be computed or registered.
type SchedulingError struct {
	Op       string
	SourceID string
	Slot     string
	Err      error
}

func (e *SchedulingError) Error() string {
	msg := "scheduling failed"
	if e.Op != "" {
		msg = e.Op + " failed"
	}
	if e.SourceID != "" {
		msg += fmt.Sprintf(" for %s", e.SourceID)
	}
	if e.Slot != "" {
		msg += fmt.Sprintf(" (%s)", e.Slot)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchedulingError) Unwrap() error {
	return e.Err
}

// IdentityCollisionError means two descriptors with different content
// produced the same source id.
type IdentityCollisionError struct {
	SourceID string
	Existing string
	Incoming string
}

func (e *IdentityCollisionError) Error() string {
	return fmt.Sprintf("identity collision for %s: stored %q, incoming %q", e.SourceID, e.Existing, e.Incoming)
}

// ClampedOccurrenceWarning is returned alongside a valid result when a trial
// occurrence was moved back inside the trial window.
type ClampedOccurrenceWarning struct {
	Day       int
	Original  time.Time
	Clamped   time.Time
	TrialEnd  time.Time
	Misorders bool
}

func (w ClampedOccurrenceWarning) String() string {
	return fmt.Sprintf("trial day %d clamped from %s to %s (trial ends %s)",
		w.Day,
		w.Original.Format(time.RFC3339),
		w.Clamped.Format(time.RFC3339),
		w.TrialEnd.Format(time.RFC3339),
	)
}

// TransportError is a push delivery failure. It is recorded on the
// occurrence and never retried automatically.
type TransportError struct {
	Handle string
	Token  string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("push delivery failed for %s: %v", e.Handle, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
