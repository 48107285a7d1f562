package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghuser/notekeeper/pkg/cache"
	"github.com/ghuser/notekeeper/pkg/config"
	"github.com/ghuser/notekeeper/pkg/logger"
	"github.com/ghuser/notekeeper/pkg/storage"
	"github.com/ghuser/notekeeper/pkg/telemetry"
	"github.com/ghuser/notekeeper/services/note/client"
	"github.com/ghuser/notekeeper/services/note/client/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	strategy, err := client.ParseStrategy(cfg.CreateStrategy)
	if err != nil {
		return err
	}

	// Records go to stderr; stdout carries the note table.
	log := logger.NewText(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics and traces are only worth exporting when a collector is configured.
	if cfg.OtelEndpoint != "" {
		otelShutdown, _, err := telemetry.Setup(ctx, cfg)
		if err != nil {
			return fmt.Errorf("setup otel: %w", err)
		}
		defer otelShutdown(context.Background()) //nolint:errcheck
	}

	var urls storage.URLCache
	if cfg.NotesURLCache {
		rc, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("url cache unavailable, resolving images directly", "error", err)
		} else {
			defer rc.Close() //nolint:errcheck
			urls = cache.NewURLCache(rc, cfg.MinioBucket)
		}
	}

	store, err := storage.NewMinioStore(cfg, urls, log)
	if err != nil {
		return err
	}

	records := client.NewHTTPRecordService(cfg.NotesAPIURL, cfg.NotesSessionCookie, client.NewHTTPClient(cfg.NotesTimeout))
	metrics, err := telemetry.NewSyncMetrics(nil)
	if err != nil {
		return err
	}

	factory := func(_ context.Context, opts ...client.Option) (*client.Controller, error) {
		base := []client.Option{
			client.WithStrategy(strategy),
			client.WithAssetStorage(store),
			client.WithMetrics(metrics),
		}
		return client.NewController(records, log, append(base, opts...)...), nil
	}

	return cli.NewRootCmd(factory).ExecuteContext(ctx)
}
