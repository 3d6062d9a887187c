package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/config"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/handler"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/health"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/infra/billing"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/infra/deliveryrecorder"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/infra/profile"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/infra/repository"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/observability/logging"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/observability/metrics"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/observability/middleware"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/scheduler/server"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/schedulestore"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/service/notification"
)

// Version is set via ldflags at build time
var Version = "dev"

const moduleName = logging.Module("notification-scheduler")

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	obs, err := initObservability(ctx, logging.ParseLevel(cfg.Server.LogLevel))
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.SetDefault(obs.Logger())

	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	if err := cfg.Transport.Validate(); err != nil {
		slog.Error("transport configuration error", slog.String("error", err.Error()))
		return 1
	}

	defaultLoc, err := time.LoadLocation(cfg.Server.DefaultTimezone)
	if err != nil {
		slog.Error("failed to load default timezone", slog.String("error", err.Error()))
		return 1
	}

	httpMetrics, err := metrics.NewHTTPMetrics()
	if err != nil {
		slog.Error("failed to initialize HTTP metrics", slog.String("error", err.Error()))
		return 1
	}

	schedulerMetrics, err := metrics.NewSchedulerMetrics()
	if err != nil {
		slog.Error("failed to initialize scheduler metrics", slog.String("error", err.Error()))
		return 1
	}

	// Delivery results go to InfluxDB locally and BigQuery on gcloud
	recorderCfg, err := deliveryrecorder.LoadConfig()
	if err != nil {
		slog.Error("failed to load delivery recorder configuration", slog.String("error", err.Error()))
		return 1
	}
	recorder, err := deliveryrecorder.NewRecorder(ctx, recorderCfg)
	if err != nil {
		slog.Error("failed to initialize delivery recorder", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			slog.Warn("failed to close delivery recorder", slog.String("error", err.Error()))
		}
	}()

	healthChecker := health.NewChecker(Version)

	var redisClient *redis.Client
	if cfg.Storage.Backend == config.StorageRedis {
		redisClient, err = connectRedis(ctx, cfg.Redis)
		if err != nil {
			return 1
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				slog.Warn("failed to close redis client", slog.String("error", err.Error()))
			}
		}()
		healthChecker.WithCheck("redis", health.RedisCheck(redisClient))
	}

	backend, err := repository.Open(ctx, repository.OpenOptions{
		Backend:     cfg.Storage.Backend,
		RedisClient: redisClient,
		PostgresDSN: cfg.Storage.PostgresDSN,
	})
	if err != nil {
		slog.Error("failed to open notification repository",
			slog.String("event", "repository.open.fail"),
			slog.String("backend", cfg.Storage.Backend),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Warn("failed to close repository", slog.String("error", err.Error()))
		}
	}()
	if backend.DB != nil {
		healthChecker.WithCheck("postgres", health.PostgresCheck(backend.DB))
	}
	if backend.Name == repository.BackendMemory {
		slog.Warn("using in-memory repository, scheduled notifications will not survive a restart")
	}

	repo := backend.Repository

	serverScheduler, err := server.New(repo, cfg.Snowflake.NodeID)
	if err != nil {
		slog.Error("failed to initialize server scheduler", slog.String("error", err.Error()))
		return 1
	}

	store := schedulestore.New(repo, serverScheduler)

	notificationService := notification.NewService(
		store,
		profile.NewClient(cfg.Profile.ServiceURL),
		schedulerMetrics,
		notification.Config{
			Concurrency:     cfg.Schedule.Concurrency,
			DefaultLocation: defaultLoc,
		},
	)

	transport, transportCleanup, err := initTransport(ctx, cfg.Transport)
	if err != nil {
		slog.Error("failed to initialize push transport", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := transportCleanup(); err != nil {
			slog.Error("push transport cleanup error", slog.String("error", err.Error()))
		}
	}()

	sweeper := server.NewSweeper(repo, transport, store,
		server.SweeperConfig{
			Interval:    cfg.Sweep.Interval,
			BatchSize:   cfg.Sweep.BatchSize,
			Concurrency: cfg.Sweep.Concurrency,
		},
		server.WithRecorder(recorder),
		server.WithMetrics(schedulerMetrics),
	)
	go sweeper.Run(ctx)

	consumer, err := billing.NewConsumer(billing.ConsumerConfig{
		URL:      cfg.Billing.RabbitMQURL,
		Exchange: cfg.Billing.Exchange,
		Queue:    cfg.Billing.Queue,
	}, billing.NewHandler(notificationService))
	if err != nil {
		slog.Error("failed to connect billing consumer",
			slog.String("event", "billing.connect.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}
	if consumer != nil {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("failed to start billing consumer", slog.String("error", err.Error()))
			return 1
		}
		healthChecker.WithCheck("billing", consumer.Check)
		defer func() {
			if err := consumer.Close(); err != nil {
				slog.Warn("failed to close billing consumer", slog.String("error", err.Error()))
			}
		}()
	}

	// Setup router with observability middleware
	r := gin.New()
	r.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths:   []string{"/health", "/health/live", "/health/ready", "/metrics"},
		Module:      moduleName,
		TracerName:  "github.com/KasumiMercury/dietfit-notification-scheduler/internal/observability/middleware",
		HTTPMetrics: httpMetrics,
	}))
	r.Use(middleware.PanicRecoveryGin())

	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())

	r.POST("/sweep", handler.NewSweepHandler(sweeper).HandleSweep)
	handler.NewNotificationHandler(notificationService).RegisterRoutes(r.Group("/api/v1"))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("storage_backend", backend.Name),
			slog.String("default_timezone", defaultLoc.String()),
			slog.Duration("sweep_interval", cfg.Sweep.Interval),
			slog.Int("sweep_concurrency", cfg.Sweep.Concurrency),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		slog.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}

func connectRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	if err := redisotel.InstrumentTracing(client); err != nil {
		slog.Error("failed to instrument redis tracing",
			slog.String("event", "redis.otel.tracing.fail"),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if err := redisotel.InstrumentMetrics(client); err != nil {
		slog.Error("failed to instrument redis metrics",
			slog.String("event", "redis.otel.metrics.fail"),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect redis",
			slog.String("event", "redis.connect.fail"),
			slog.String("error", err.Error()),
		)
		_ = client.Close()
		return nil, err
	}

	slog.Info("redis connected", slog.String("addr", cfg.Addr))
	return client, nil
}
