package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/ghuser/notekeeper/docs/swagger"
	"github.com/ghuser/notekeeper/pkg/app"
	"github.com/ghuser/notekeeper/pkg/auth"
	"github.com/ghuser/notekeeper/pkg/cache"
	"github.com/ghuser/notekeeper/pkg/config"
	"github.com/ghuser/notekeeper/pkg/database"
	"github.com/ghuser/notekeeper/pkg/events"
	"github.com/ghuser/notekeeper/pkg/httpx"
	"github.com/ghuser/notekeeper/pkg/logger"
	"github.com/ghuser/notekeeper/pkg/storage"
	"github.com/ghuser/notekeeper/pkg/telemetry"
	noteApi "github.com/ghuser/notekeeper/services/note/application/api"
)

// @title					Notekeeper API
// @version				1.0
// @description			Notes with optional images. Images are stored by key in an S3-compatible bucket.
// @license.name			MIT
// @license.url			https://opensource.org/licenses/MIT
// @host					localhost:8080
// @BasePath				/api
// @schemes				http https
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
		log.Error("api stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup otel: %w", err)
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	// Crash reporting is optional.
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("sentry disabled", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.DefinitionDatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	eventBus, err := events.Open(cfg.DefinitionDatabaseURL, log, events.Options{Outbox: true})
	if err != nil {
		return fmt.Errorf("open event bus: %w", err)
	}
	defer eventBus.Close() //nolint:errcheck
	if err := eventBus.StartOutboxRelay(ctx); err != nil {
		return fmt.Errorf("start outbox relay: %w", err)
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close() //nolint:errcheck

	store, err := storage.NewMinioStore(cfg, cache.NewURLCache(redisClient, cfg.MinioBucket), log)
	if err != nil {
		return fmt.Errorf("setup asset storage: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", cfg.MinioBucket, err)
	}

	sessions := auth.NewSessionStore(
		redisClient.Client(),
		[]byte(cfg.SessionAuthKey),
		[]byte(cfg.SessionEncryptionKey),
		cfg.Environment == config.EnvProduction,
	)

	a := &app.Application{
		Config:       cfg,
		Db:           pool,
		Logger:       log,
		EventBus:     eventBus,
		Redis:        redisClient,
		Storage:      store,
		SessionStore: sessions,
	}

	r := httpx.NewRouter(httpx.ServerConfig{
		IsDevelopment:      cfg.Environment == config.EnvDevelopment,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.HTTPRateLimit,
		Recover:            logger.Recovery(log),
		Sentry:             telemetry.SentryMiddleware(),
		Trace:              otelhttp.NewMiddleware(cfg.ServiceName),
		Log:                logger.Middleware(log),
	})
	r.Get("/health", httpx.HealthHandler(httpx.HealthChecks{
		"database":  pool,
		"redis":     redisClient,
		"event_bus": eventBus,
		"storage":   store,
	}))
	r.Get("/metrics", metricsHandler.ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Route("/api", func(r chi.Router) {
		r.Use(ownerMiddleware(cfg, sessions, log))
		registerRoutes(r, a)
	})

	log.Info("api starting", "env", cfg.Environment, "auth_required", cfg.AuthRequired)
	return httpx.Serve(ctx, httpx.NewServer(cfg.HTTPAddr, r), log)
}

// ownerMiddleware scopes /api requests to the session owner, or to the static
// development owner when AUTH_REQUIRED is false.
func ownerMiddleware(cfg *config.Config, store *auth.SessionStore, log logger.Logger) func(http.Handler) http.Handler {
	if cfg.AuthRequired {
		return auth.RequireAuth(store, log)
	}
	log.Warn("authentication disabled, all requests use the default owner", "owner_id", cfg.DefaultOwnerID)
	return auth.StaticOwner(cfg.OwnerID())
}

// registerRoutes mounts all service routes under /api.
func registerRoutes(r chi.Router, a *app.Application) {
	noteApi.NoteRoutes(r, a)
}
