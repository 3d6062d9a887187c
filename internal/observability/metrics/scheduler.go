package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	schedulerMeterName = "notification.scheduler"
)

type SchedulerMetrics struct {
	occurrencesRegistered metric.Int64Counter
	occurrencesCancelled  metric.Int64Counter
	clampedOccurrences    metric.Int64Counter
	deliveries            metric.Int64Counter
	sweepDuration         metric.Float64Histogram
	sweepDue              metric.Int64Histogram
}

func NewSchedulerMetrics() (*SchedulerMetrics, error) {
	meter := otel.Meter(schedulerMeterName)

	occurrencesRegistered, err := meter.Int64Counter(
		"notification_occurrences_registered_total",
		metric.WithDescription("Occurrences registered with a scheduler"),
		metric.WithUnit("{occurrence}"),
	)
	if err != nil {
		return nil, err
	}

	occurrencesCancelled, err := meter.Int64Counter(
		"notification_occurrences_cancelled_total",
		metric.WithDescription("Occurrences cancelled"),
		metric.WithUnit("{occurrence}"),
	)
	if err != nil {
		return nil, err
	}

	clampedOccurrences, err := meter.Int64Counter(
		"notification_trial_clamped_total",
		metric.WithDescription("Trial occurrences moved back inside the trial window"),
		metric.WithUnit("{occurrence}"),
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := meter.Int64Counter(
		"notification_deliveries_total",
		metric.WithDescription("Server-side delivery attempts by outcome"),
		metric.WithUnit("{delivery}"),
	)
	if err != nil {
		return nil, err
	}

	sweepDuration, err := meter.Float64Histogram(
		"notification_sweep_duration_seconds",
		metric.WithDescription("Time spent in one due-record sweep"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
		),
	)
	if err != nil {
		return nil, err
	}

	sweepDue, err := meter.Int64Histogram(
		"notification_sweep_due_records",
		metric.WithDescription("Due records found per sweep"),
		metric.WithUnit("{record}"),
		metric.WithExplicitBucketBoundaries(
			0, 1, 5, 10, 50, 100, 500, 1000,
		),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerMetrics{
		occurrencesRegistered: occurrencesRegistered,
		occurrencesCancelled:  occurrencesCancelled,
		clampedOccurrences:    clampedOccurrences,
		deliveries:            deliveries,
		sweepDuration:         sweepDuration,
		sweepDue:              sweepDue,
	}, nil
}

func (m *SchedulerMetrics) RecordRegistered(ctx context.Context, origin, category string, count int) {
	if m == nil || count == 0 {
		return
	}
	attrs := appendLoadtestLabels(ctx, []attribute.KeyValue{
		attribute.String("origin", origin),
		attribute.String("category", category),
	})
	m.occurrencesRegistered.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

func (m *SchedulerMetrics) RecordCancelled(ctx context.Context, reason string, count int) {
	if m == nil || count == 0 {
		return
	}
	attrs := appendLoadtestLabels(ctx, []attribute.KeyValue{
		attribute.String("reason", reason),
	})
	m.occurrencesCancelled.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

func (m *SchedulerMetrics) RecordClamped(ctx context.Context, misordered bool) {
	if m == nil {
		return
	}
	m.clampedOccurrences.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("misordered", misordered),
	))
}

func (m *SchedulerMetrics) RecordDelivery(ctx context.Context, category, outcome string) {
	if m == nil {
		return
	}
	attrs := appendLoadtestLabels(ctx, []attribute.KeyValue{
		attribute.String("category", category),
		attribute.String("outcome", outcome),
	})
	m.deliveries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *SchedulerMetrics) RecordSweep(ctx context.Context, due int, duration time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Record(ctx, duration.Seconds())
	m.sweepDue.Record(ctx, int64(due))
}
