package handlers

import (
	"net/http"

	"github.com/ghuser/notekeeper/pkg/errhttp"
	"github.com/ghuser/notekeeper/pkg/httpx"
	appsvcs "github.com/ghuser/notekeeper/services/note/application/services"
)

// GetNoteHandler handles GET /note/{id} requests.
type GetNoteHandler struct {
	svc *appsvcs.Services
}

// NewGetNoteHandler returns a GetNoteHandler backed by the given services.
func NewGetNoteHandler(svc *appsvcs.Services) *GetNoteHandler {
	return &GetNoteHandler{svc: svc}
}

// Execute returns one note.
//
//	@Summary		Get note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note ID"	format(uuid)
//	@Success		200	{object}	NoteResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/note/{id} [get]
func (h *GetNoteHandler) Execute(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := noteIDFromRequest(w, r)
	if !ok {
		return
	}

	note, err := h.svc.Note.GetByID(r.Context(), ownerID, id)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(note))
}
