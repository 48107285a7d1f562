package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/notekeeper/pkg/app"
	"github.com/ghuser/notekeeper/services/note/application/handlers"
	appsvcs "github.com/ghuser/notekeeper/services/note/application/services"
)

// NoteRoutes registers note endpoints on the provided chi router.
func NoteRoutes(r chi.Router, a *app.Application) {
	Mount(r, appsvcs.New(a))
}

// Mount registers note endpoints backed by svcs.
func Mount(r chi.Router, svcs *appsvcs.Services) {
	r.Route("/note", func(r chi.Router) {
		r.Post("/", handlers.NewPostNoteHandler(svcs).Execute)
		r.Get("/", handlers.NewListNotesHandler(svcs).Execute)
		r.Get("/{id}", handlers.NewGetNoteHandler(svcs).Execute)
		r.Put("/{id}", handlers.NewPutNoteHandler(svcs).Execute)
		r.Delete("/{id}", handlers.NewDeleteNoteHandler(svcs).Execute)
	})
}
