package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/notekeeper/services/note/domain/models"
)

// NoteRepository is the persistence interface for the Note aggregate.
// The domain layer owns this interface; infrastructure implements it.
type NoteRepository interface {
	Save(ctx context.Context, note *models.Note) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Note, error)

	// FindByOwnerID returns every note of the owner in insertion order.
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Note, error)

	// Update overwrites all mutable fields of an existing Note.
	// Returns ErrNoteNotFound when no row matched.
	Update(ctx context.Context, note *models.Note) error

	// Delete removes a note by ID scoped to the given owner.
	// Returns ErrNoteNotFound when no row matched.
	Delete(ctx context.Context, note *models.Note) error
}
