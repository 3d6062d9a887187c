//go:build !gcloud

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
		ExpoPushURL: cfg.ExpoPushURL,
		AccessToken: cfg.ExpoAccessToken,
		Timeout:     cfg.Timeout,
	})
}

func initObservability(ctx context.Context, level slog.Level) (*observability.Resources, error) {
	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "notification-scheduler"
	}

	env := logging.EnvDev
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:     serviceName,
			Version:  Version,
			Revision: "",
		},
		Environment:   env,
		GCPProjectID:  "",
		SamplingRate:  1.0,
		DefaultModule: moduleName,
		LogLevel:      level,
	})
}
