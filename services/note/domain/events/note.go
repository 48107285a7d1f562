package events

import (
	"time"

	"github.com/google/uuid"
)

// Watermill topics published by the note repository through the outbox.
const (
	TopicNoteCreated = "note.created"
	TopicNoteUpdated = "note.updated"
	TopicNoteDeleted = "note.deleted"
)

// NoteEvent is the payload shared by all note topics. Consumers subscribe via
// EventBus.Subscribe(ctx, events.TopicNoteCreated, ...).
type NoteEvent struct {
	EventID     uuid.UUID `json:"event_id"` // Unique publish-time identifier for deduplication
	Version     int       `json:"version"`  // Schema version; increment on breaking changes
	NoteID      uuid.UUID `json:"note_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageKey    string    `json:"image_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	OccurredAt  time.Time `json:"occurred_at"` // updated_at of the note for created and updated events
}
