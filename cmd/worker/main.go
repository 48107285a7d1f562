package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghuser/notekeeper/pkg/cache"
	"github.com/ghuser/notekeeper/pkg/config"
	"github.com/ghuser/notekeeper/pkg/database"
	"github.com/ghuser/notekeeper/pkg/events"
	"github.com/ghuser/notekeeper/pkg/logger"
	"github.com/ghuser/notekeeper/pkg/storage"
	"github.com/ghuser/notekeeper/pkg/telemetry"
	pkgworkflows "github.com/ghuser/notekeeper/pkg/workflows"
	"github.com/ghuser/notekeeper/services/note/application/subscribers"
	"github.com/ghuser/notekeeper/services/note/application/workflows"
	"github.com/ghuser/notekeeper/services/note/infrastructure/persistence/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	if err := run(cfg, log); err != nil {
		log.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup otel: %w", err)
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("sentry disabled", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.DefinitionDatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	eventBus, err := events.Open(cfg.DefinitionDatabaseURL, log, events.Options{
		ConsumerGroup: cfg.ServiceName + "-worker",
	})
	if err != nil {
		return fmt.Errorf("open event bus: %w", err)
	}
	// Close waits up to 30s for in-flight handlers.
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close() //nolint:errcheck

	store, err := storage.NewMinioStore(cfg, cache.NewURLCache(redisClient, cfg.MinioBucket), log)
	if err != nil {
		return fmt.Errorf("setup asset storage: %w", err)
	}

	// Without Temporal deleted notes keep their stored image.
	var purge subscribers.PurgeStarter
	temporal, err := pkgworkflows.Dial(ctx, pkgworkflows.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		TaskQueue: cfg.TemporalTaskQueue,
	}, log)
	if err != nil {
		log.Warn("temporal unavailable, asset purge disabled", "error", err)
	} else {
		defer temporal.Close()

		w := temporal.NewWorker()
		w.RegisterWorkflow(workflows.PurgeNoteAsset)
		w.RegisterActivity(&workflows.AssetActivities{
			Assets: store,
			Notes:  postgres.NewNoteRepository(pool, nil),
			Log:    log,
		})
		if err := w.Start(); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
		defer w.Stop()

		purge = func(ctx context.Context, in workflows.PurgeAssetInput) error {
			return workflows.StartPurge(ctx, temporal.Client(), temporal.TaskQueue(), in)
		}
	}

	handlers := subscribers.New(cache.NewNoteCache(redisClient), purge, log)
	if err := handlers.Register(ctx, eventBus); err != nil {
		return fmt.Errorf("register subscribers: %w", err)
	}

	log.Info("worker running", "consumer_group", cfg.ServiceName+"-worker")
	<-ctx.Done()
	log.Info("worker shutting down")
	return nil
}
