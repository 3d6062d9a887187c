// Command agent keeps a device's diet notifications armed on its local
// notification host. It schedules from a descriptors file, shows due
// notifications and re-arms weekly ones after they fire.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/config"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/infra/profile"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/infra/repository"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/observability/logging"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/scheduler/local"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/schedulestore"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/service/notification"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/timemath"
)

// Version is set via ldflags at build time
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, scheduleCfg, err := config.LoadAgentConfig()
	if err != nil {
		slog.Error("failed to load agent configuration", slog.String("error", err.Error()))
		return 1
	}

	slog.SetDefault(slog.New(logging.NewHandler(logging.HandlerConfig{
		Writer:      os.Stdout,
		Level:       logging.ParseLevel(cfg.LogLevel),
		Service:     logging.ServiceInfo{Name: "notification-agent", Version: Version},
		Environment: logging.EnvDev,
		Module:      logging.Module("notification-agent"),
	})))

	trialEnd, err := cfg.TrialEndTime()
	if err != nil {
		slog.Error("invalid agent configuration", slog.String("error", err.Error()))
		return 1
	}

	loc, err := timemath.ResolveLocation(cfg.Timezone, nil)
	if err != nil {
		slog.Error("unknown device timezone",
			slog.String("timezone", cfg.Timezone),
			slog.String("error", err.Error()),
		)
		return 1
	}

	descriptors, err := loadDescriptors(cfg.DescriptorsFile)
	if err != nil {
		slog.Error("failed to load descriptors", slog.String("error", err.Error()))
		return 1
	}

	host, err := local.OpenSQLiteHost(ctx, cfg.DBPath, local.LogTray{}, cfg.NativeRepeat)
	if err != nil {
		slog.Error("failed to open notification host", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := host.Close(); err != nil {
			slog.Warn("failed to close notification host", slog.String("error", err.Error()))
		}
	}()

	// The identity map lives in memory, so registrations left by a previous
	// run are untracked and get replaced.
	dropped, err := host.Reset(ctx)
	if err != nil {
		slog.Error("failed to reset notification host", slog.String("error", err.Error()))
		return 1
	}
	if dropped > 0 {
		slog.Info("cleared notifications from previous run", slog.Int("dropped_count", dropped))
	}

	repo := repository.NewMemoryRepository()
	localScheduler := local.New(host, local.Config{
		CallTimeout:   scheduleCfg.HostCallTimeout,
		RatePerSecond: scheduleCfg.HostRatePerSecond,
		Burst:         scheduleCfg.HostBurst,
	})
	store := schedulestore.New(repo, localScheduler)

	svc := notification.NewService(
		store,
		profile.NewStaticProvider(loc.String(), trialEnd),
		nil,
		notification.Config{
			Concurrency:     scheduleCfg.Concurrency,
			DefaultLocation: loc,
		},
	)

	result, err := svc.Schedule(ctx, cfg.UserID, descriptors)
	if err != nil {
		slog.Error("failed to schedule notifications", slog.String("error", err.Error()))
		return 1
	}
	for _, item := range result.Results {
		if !item.Success {
			slog.Warn("notification not armed",
				slog.Int("index", item.Index),
				slog.String("source_id", item.SourceID),
				slog.String("error", item.Error),
			)
		}
	}
	slog.Info(result.Summary,
		slog.String("timezone", result.Timezone),
		slog.Bool("native_repeat", host.SupportsWeeklyRepeat()),
	)

	host.Run(ctx, cfg.PollInterval, local.NewFiredHandler(repo, store))

	slog.Info("agent exited properly")
	return 0
}
