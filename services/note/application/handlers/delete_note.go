package handlers

import (
	"net/http"

	"github.com/ghuser/notekeeper/pkg/errhttp"
	"github.com/ghuser/notekeeper/pkg/httpx"
	appsvcs "github.com/ghuser/notekeeper/services/note/application/services"
)

// DeleteNoteHandler handles DELETE /note/{id} requests.
type DeleteNoteHandler struct {
	svc *appsvcs.Services
}

// NewDeleteNoteHandler returns a DeleteNoteHandler backed by the given services.
func NewDeleteNoteHandler(svc *appsvcs.Services) *DeleteNoteHandler {
	return &DeleteNoteHandler{svc: svc}
}

// Execute deletes a note. Its stored image is purged asynchronously by the worker.
//
//	@Summary		Delete note
//	@Tags			notes
//	@Param			id	path	string	true	"Note ID"	format(uuid)
//	@Success		204
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/note/{id} [delete]
func (h *DeleteNoteHandler) Execute(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := noteIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.svc.Note.Delete(r.Context(), ownerID, id); err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.NoContent(w)
}
