package handlers

import (
	"net/http"

	"github.com/ghuser/notekeeper/pkg/errhttp"
	"github.com/ghuser/notekeeper/pkg/httpx"
	appsvcs "github.com/ghuser/notekeeper/services/note/application/services"
)

// ListNotesHandler handles GET /note requests.
type ListNotesHandler struct {
	svc *appsvcs.Services
}

// NewListNotesHandler returns a ListNotesHandler backed by the given services.
func NewListNotesHandler(svc *appsvcs.Services) *ListNotesHandler {
	return &ListNotesHandler{svc: svc}
}

// Execute lists every note of the caller.
//
//	@Summary		List notes
//	@Description	Returns all notes of the caller in insertion order
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	ListNotesResponse
//	@Failure		401	{object}	ErrorResponse
//	@Router			/note [get]
func (h *ListNotesHandler) Execute(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	notes, err := h.svc.Note.List(r.Context(), ownerID)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	resp := ListNotesResponse{Notes: make([]NoteResponse, 0, len(notes))}
	for _, n := range notes {
		resp.Notes = append(resp.Notes, toResponse(n))
	}
	httpx.JSON(w, http.StatusOK, resp)
}
