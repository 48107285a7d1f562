package handlers

import (
	"net/http"

	"github.com/ghuser/notekeeper/pkg/errhttp"
	"github.com/ghuser/notekeeper/pkg/httpx"
	pkgvalidator "github.com/ghuser/notekeeper/pkg/validator"
	appsvcs "github.com/ghuser/notekeeper/services/note/application/services"
)

// PutNoteHandler handles PUT /note/{id} requests.
type PutNoteHandler struct {
	svc *appsvcs.Services
}

// NewPutNoteHandler returns a PutNoteHandler backed by the given services.
func NewPutNoteHandler(svc *appsvcs.Services) *PutNoteHandler {
	return &PutNoteHandler{svc: svc}
}

// Execute overwrites every field of a note.
//
//	@Summary		Update note
//	@Description	Replaces name, description and image_key of an existing note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Note ID"	format(uuid)
//	@Param			request	body		NoteRequest	true	"Note fields"
//	@Success		200		{object}	NoteResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/note/{id} [put]
func (h *PutNoteHandler) Execute(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := noteIDFromRequest(w, r)
	if !ok {
		return
	}

	req, ok := pkgvalidator.ValidateRequest[NoteRequest](w, r)
	if !ok {
		return
	}

	note, err := h.svc.Note.Update(r.Context(), ownerID, id, req.input())
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(note))
}
