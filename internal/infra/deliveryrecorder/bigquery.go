//go:build gcloud

package deliveryrecorder

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

type bigQueryRecord struct {
	RecordedAt time.Time `bigquery:"recorded_at"`
	SweepID    string    `bigquery:"sweep_id"`
	Handle     string    `bigquery:"handle"`
	UserID     string    `bigquery:"user_id"`
	Category   string    `bigquery:"category"`
	Slot       string    `bigquery:"slot"`
	FireAt     time.Time `bigquery:"fire_at"`
	Status     string    `bigquery:"status"`
	Error      string    `bigquery:"error"`
	LatenessMS int64     `bigquery:"lateness_ms"`
}

type bigQueryRecorder struct {
	client   *bigquery.Client
	inserter *bigquery.Inserter
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.DeliveryRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "delivery result recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.BigQueryProjectID == "" {
		slog.WarnContext(ctx, "BigQuery project ID not configured, delivery result recording disabled")
		return NewNoopRecorder(), nil
	}

	client, err := bigquery.NewClient(ctx, cfg.BigQueryProjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create BigQuery client, delivery result recording disabled",
			slog.String("error", err.Error()),
			slog.String("project_id", cfg.BigQueryProjectID),
		)
		return NewNoopRecorder(), nil
	}

	inserter := client.Dataset(cfg.BigQueryDataset).Table(cfg.BigQueryTable).Inserter()

	slog.InfoContext(ctx, "delivery result recorder initialized",
		slog.String("type", "bigquery"),
		slog.String("project_id", cfg.BigQueryProjectID),
		slog.String("dataset", cfg.BigQueryDataset),
		slog.String("table", cfg.BigQueryTable),
	)

	return &bigQueryRecorder{
		client:   client,
		inserter: inserter,
	}, nil
}

func (r *bigQueryRecorder) RecordSweep(ctx context.Context, sweep domain.SweepRecord, deliveries []domain.DeliveryRecord) error {
	if len(deliveries) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]*bigQueryRecord, 0, len(deliveries))
	for _, d := range deliveries {
		rows = append(rows, &bigQueryRecord{
			RecordedAt: now,
			SweepID:    sweep.SweepID,
			Handle:     d.Handle,
			UserID:     d.UserID,
			Category:   d.Category.String(),
			Slot:       d.Slot,
			FireAt:     d.FireAt,
			Status:     d.Status.String(),
			Error:      d.Error,
			LatenessMS: sweep.StartedAt.Sub(d.FireAt).Milliseconds(),
		})
	}

	if err := r.inserter.Put(ctx, rows); err != nil {
		slog.WarnContext(ctx, "failed to insert delivery results to BigQuery",
			slog.String("error", err.Error()),
			slog.Int("record_count", len(rows)),
		)
	}
	return nil
}

func (r *bigQueryRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
