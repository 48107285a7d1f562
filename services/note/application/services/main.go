package services

import (
	"github.com/ghuser/notekeeper/pkg/app"
	"github.com/ghuser/notekeeper/pkg/cache"
	"github.com/ghuser/notekeeper/services/note/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Note *NoteService
}

// New wires all note application services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	repo := postgres.NewNoteRepository(a.Db, a.EventBus)
	var noteCache NoteCache
	if a.Redis != nil {
		noteCache = cache.NewNoteCache(a.Redis)
	}
	return &Services{
		Note: NewNoteService(repo, noteCache, a.Logger),
	}
}
