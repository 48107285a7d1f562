package app

import (
	"github.com/gorilla/sessions"

	"github.com/ghuser/notekeeper/pkg/cache"
	"github.com/ghuser/notekeeper/pkg/config"
	"github.com/ghuser/notekeeper/pkg/database"
	"github.com/ghuser/notekeeper/pkg/events"
	"github.com/ghuser/notekeeper/pkg/logger"
	"github.com/ghuser/notekeeper/pkg/storage"
)

// Application holds shared infrastructure dependencies for all services.
// Pass to every bounded context's route registration (api.NoteRoutes) during
// server initialization.
//
// Logging: app.Logger is backed by a trace-aware handler; use slog's context methods
// and trace_id, span_id, and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "note created", "note_id", id)
//	app.Logger.ErrorContext(ctx, "failed to save", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config       *config.Config
	Db           *database.Database
	Logger       logger.Logger
	EventBus     *events.EventBus
	Redis        *cache.RedisClient // nil disables the note read cache
	Storage      *storage.MinioStore
	SessionStore sessions.Store // Redis-backed session store; nil in worker process
}
