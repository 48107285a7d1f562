package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/notekeeper/pkg/auth"
	"github.com/ghuser/notekeeper/pkg/httpx"
	pkgvalidator "github.com/ghuser/notekeeper/pkg/validator"
	appsvcs "github.com/ghuser/notekeeper/services/note/application/services"
	notedomain "github.com/ghuser/notekeeper/services/note/domain"
	"github.com/ghuser/notekeeper/services/note/domain/models"
	domainsvcs "github.com/ghuser/notekeeper/services/note/domain/services"
)

// NoteRequest is the request body for POST /note and PUT /note/{id}.
// PUT overwrites every field, so an omitted image_key clears the image.
type NoteRequest struct {
	Name        string `json:"name"        validate:"required,notblank,max=255"   example:"Groceries"`
	Description string `json:"description" validate:"required,notblank,max=4096"  example:"milk, eggs, bread"`
	ImageKey    string `json:"image_key"   validate:"omitempty,max=512,imagekey"  example:"groceries.png"`
} // @name NoteRequest

func init() {
	if err := pkgvalidator.RegisterString("imagekey", func(s string) bool {
		return domainsvcs.ValidateImageKey(models.ImageKey(s)) == nil
	}); err != nil {
		panic(err)
	}
}

func (r *NoteRequest) input() appsvcs.NoteInput {
	return appsvcs.NoteInput{Name: r.Name, Description: r.Description, ImageKey: r.ImageKey}
}

// NoteResponse is a single note.
type NoteResponse struct {
	ID          uuid.UUID `json:"id"                  example:"123e4567-e89b-12d3-a456-426614174000"`
	OwnerID     uuid.UUID `json:"owner_id"            example:"550e8400-e29b-41d4-a716-446655440000"`
	Name        string    `json:"name"                example:"Groceries"`
	Description string    `json:"description"         example:"milk, eggs, bread"`
	ImageKey    string    `json:"image_key,omitempty" example:"groceries.png"`
	CreatedAt   time.Time `json:"created_at"          example:"2024-01-15T10:30:00Z"`
	UpdatedAt   time.Time `json:"updated_at"          example:"2024-01-15T10:30:00Z"`
} // @name NoteResponse

// ListNotesResponse is returned by GET /note in insertion order.
type ListNotesResponse struct {
	Notes []NoteResponse `json:"notes"`
} // @name ListNotesResponse

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"note not found"`
} // @name ErrorResponse

func toResponse(n *models.Note) NoteResponse {
	return NoteResponse{
		ID:          n.ID,
		OwnerID:     n.OwnerID,
		Name:        n.Name.String(),
		Description: n.Description.String(),
		ImageKey:    n.ImageKey.String(),
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

// ownerFromRequest writes 401 and returns false when no owner is attached.
func ownerFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ownerID, err := auth.OwnerIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return uuid.Nil, false
	}
	return ownerID, true
}

// noteIDFromRequest writes 404 for ids that cannot name a note.
func noteIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSON(w, http.StatusNotFound, ErrorResponse{Error: notedomain.ErrNoteNotFound.Error()})
		return uuid.Nil, false
	}
	return id, true
}
