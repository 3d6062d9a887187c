//go:build gcloud

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/config"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/infra/push"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/observability"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/observability/logging"
)

func initTransport(ctx context.Context, cfg *config.TransportConfig) (domain.PushTransport, func() error, error) {
	return push.NewTransport(ctx, push.Config{
		ProjectID:  cfg.GCloudProjectID,
		LocationID: cfg.GCloudLocationID,
		QueueID:    cfg.GCloudQueueID,
		TargetURL:  cfg.GCloudTargetURL,
		Timeout:    cfg.Timeout,
	})
}

func initObservability(ctx context.Context, level slog.Level) (*observability.Resources, error) {
	serviceName := os.Getenv("K_SERVICE")
	if serviceName == "" {
		serviceName = "notification-scheduler"
	}

	env := logging.EnvProd
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = os.Getenv("GCLOUD_PROJECT_ID")
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:     serviceName,
			Version:  Version,
			Revision: os.Getenv("K_REVISION"),
		},
		Environment:   env,
		GCPProjectID:  projectID,
		SamplingRate:  1.0,
		DefaultModule: moduleName,
		LogLevel:      level,
	})
}
