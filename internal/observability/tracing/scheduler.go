package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const schedulerTracerName = "github.com/KasumiMercury/dietfit-notification-scheduler/internal/scheduler"

func SchedulerTracer() trace.Tracer {
	return otel.Tracer(schedulerTracerName)
}

func StartScheduleBatchSpan(ctx context.Context, userID string, descriptors int) (context.Context, trace.Span) {
	return SchedulerTracer().Start(ctx, "notification.schedule_batch",
		trace.WithAttributes(
			attribute.String("user_id", userID),
			attribute.Int("batch.size", descriptors),
		),
	)
}

func StartUpsertSpan(ctx context.Context, sourceID, recurrence string) (context.Context, trace.Span) {
	return SchedulerTracer().Start(ctx, "notification.upsert",
		trace.WithAttributes(
			attribute.String("source_id", sourceID),
			attribute.String("recurrence", recurrence),
		),
	)
}

func StartSweepSpan(ctx context.Context, now time.Time, limit int) (context.Context, trace.Span) {
	return SchedulerTracer().Start(ctx, "notification.sweep",
		trace.WithAttributes(
			attribute.String("sweep.now", now.Format(time.RFC3339)),
			attribute.Int("sweep.limit", limit),
		),
	)
}

func StartDeliverySpan(ctx context.Context, handle, slot string) (context.Context, trace.Span) {
	return SchedulerTracer().Start(ctx, "notification.deliver",
		trace.WithAttributes(
			attribute.String("handle", handle),
			attribute.String("slot", slot),
		),
	)
}

func StartExternalAPISpan(ctx context.Context, operation, url string) (context.Context, trace.Span) {
	return SchedulerTracer().Start(ctx, "notification.external_api."+operation,
		trace.WithAttributes(
			attribute.String("url", url),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func RecordBatchResult(span trace.Span, scheduled, total int, err error) {
	span.SetAttributes(
		attribute.Int("batch.scheduled", scheduled),
		attribute.Int("batch.total", total),
	)
	recordStatus(span, err)
}

func RecordSweepResult(span trace.Span, due, sent, failed int, err error) {
	span.SetAttributes(
		attribute.Int("sweep.due", due),
		attribute.Int("sweep.sent", sent),
		attribute.Int("sweep.failed", failed),
	)
	recordStatus(span, err)
}

func RecordError(span trace.Span, err error) {
	recordStatus(span, err)
}

func recordStatus(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
