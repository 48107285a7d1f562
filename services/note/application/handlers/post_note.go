package handlers

import (
	"net/http"

	"github.com/ghuser/notekeeper/pkg/errhttp"
	"github.com/ghuser/notekeeper/pkg/httpx"
	pkgvalidator "github.com/ghuser/notekeeper/pkg/validator"
	appsvcs "github.com/ghuser/notekeeper/services/note/application/services"
)

// PostNoteHandler handles POST /note requests.
type PostNoteHandler struct {
	svc *appsvcs.Services
}

// NewPostNoteHandler returns a PostNoteHandler backed by the given services.
func NewPostNoteHandler(svc *appsvcs.Services) *PostNoteHandler {
	return &PostNoteHandler{svc: svc}
}

// Execute creates a new note.
//
//	@Summary		Create note
//	@Description	Creates a note owned by the caller. image_key references an object already or soon to be uploaded to the asset store.
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			request	body		NoteRequest	true	"Note fields"
//	@Success		201		{object}	NoteResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/note [post]
func (h *PostNoteHandler) Execute(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	req, ok := pkgvalidator.ValidateRequest[NoteRequest](w, r)
	if !ok {
		return
	}

	note, err := h.svc.Note.Create(r.Context(), ownerID, req.input())
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toResponse(note))
}
