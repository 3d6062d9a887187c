package domain

import (
	"context"
	"time"
)

type SweepRecord struct {
	SweepID   string
	StartedAt time.Time
	Duration  time.Duration
	Due       int
	Claimed   int
	Sent      int
	Failed    int
	Skipped   int
	Rearmed   int
}

type DeliveryRecord struct {
	SweepID  string
	Handle   string
	UserID   string
	Category Category
	Slot     string
	FireAt   time.Time
	Status   OccurrenceStatus
	Error    string
}

type DeliveryRecorder interface {
	RecordSweep(ctx context.Context, sweep SweepRecord, deliveries []DeliveryRecord) error
	Close() error
}
