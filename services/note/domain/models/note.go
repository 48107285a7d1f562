package models

import (
	"time"

	"github.com/google/uuid"
)

// Note is the core aggregate for this bounded context.
type Note struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID // tenant scope, always filter by this in queries
	Name        NoteName
	Description NoteDescription
	ImageKey    ImageKey
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewNote constructs a Note aggregate with a generated ID and current timestamps.
func NewNote(ownerID uuid.UUID, name NoteName, description NoteDescription, image ImageKey) (*Note, error) {
	now := timestamp()
	return &Note{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		ImageKey:    image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Overwrite replaces every mutable field and bumps UpdatedAt.
// ID, OwnerID and CreatedAt never change after creation.
func (n *Note) Overwrite(name NoteName, description NoteDescription, image ImageKey) {
	n.Name = name
	n.Description = description
	n.ImageKey = image
	n.UpdatedAt = timestamp()
}

// timestamp returns the current time at the precision Postgres stores.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
