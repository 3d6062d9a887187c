//go:build !gcloud

package deliveryrecorder

import (
	"context"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

type influxDBRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.DeliveryRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "delivery result recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.InfluxDBToken == "" || cfg.InfluxDBOrg == "" {
		slog.WarnContext(ctx, "InfluxDB token or org not configured, delivery result recording disabled",
			slog.String("url", cfg.InfluxDBURL),
		)
		return NewNoopRecorder(), nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)
	writeAPI := client.WriteAPIBlocking(cfg.InfluxDBOrg, cfg.InfluxDBBucket)

	slog.InfoContext(ctx, "delivery result recorder initialized",
		slog.String("type", "influxdb"),
		slog.String("url", cfg.InfluxDBURL),
		slog.String("bucket", cfg.InfluxDBBucket),
	)

	return &influxDBRecorder{
		client:   client,
		writeAPI: writeAPI,
	}, nil
}

func (r *influxDBRecorder) RecordSweep(ctx context.Context, sweep domain.SweepRecord, deliveries []domain.DeliveryRecord) error {
	points := make([]*write.Point, 0, len(deliveries)+1)
	points = append(points, sweepPoint(sweep))
	for _, d := range deliveries {
		points = append(points, deliveryPoint(sweep, d))
	}

	if err := r.writeAPI.WritePoint(ctx, points...); err != nil {
		slog.WarnContext(ctx, "failed to write sweep results to InfluxDB",
			slog.String("error", err.Error()),
			slog.String("sweep_id", sweep.SweepID),
			slog.Int("delivery_count", len(deliveries)),
		)
	}
	return nil
}

func sweepPoint(sweep domain.SweepRecord) *write.Point {
	return influxdb2.NewPoint(
		"notification_sweep",
		map[string]string{
			"sweep_id": sweep.SweepID,
		},
		map[string]any{
			"due":         sweep.Due,
			"claimed":     sweep.Claimed,
			"sent":        sweep.Sent,
			"failed":      sweep.Failed,
			"skipped":     sweep.Skipped,
			"rearmed":     sweep.Rearmed,
			"duration_ms": sweep.Duration.Milliseconds(),
		},
		sweep.StartedAt,
	)
}

func deliveryPoint(sweep domain.SweepRecord, d domain.DeliveryRecord) *write.Point {
	return influxdb2.NewPoint(
		"notification_delivery",
		map[string]string{
			"category": d.Category.String(),
			"slot":     d.Slot,
			"status":   d.Status.String(),
		},
		map[string]any{
			"handle":      d.Handle,
			"user_id":     d.UserID,
			"error":       d.Error,
			"lateness_ms": sweep.StartedAt.Sub(d.FireAt).Milliseconds(),
			"fire_unix":   d.FireAt.Unix(),
		},
		sweep.StartedAt,
	)
}

func (r *influxDBRecorder) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}
