package deliveryrecorder

import (
	"context"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

type noopRecorder struct{}

func NewNoopRecorder() domain.DeliveryRecorder {
	return &noopRecorder{}
}

func (n *noopRecorder) RecordSweep(_ context.Context, _ domain.SweepRecord, _ []domain.DeliveryRecord) error {
	return nil
}

func (n *noopRecorder) Close() error {
	return nil
}
