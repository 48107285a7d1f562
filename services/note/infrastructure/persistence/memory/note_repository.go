// Package memory is an in-process NoteRepository for tests and local runs
// without Postgres. It publishes no events.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	notedomain "github.com/ghuser/notekeeper/services/note/domain"
	"github.com/ghuser/notekeeper/services/note/domain/models"
)

// NoteRepository keeps notes in insertion order.
type NoteRepository struct {
	mu    sync.RWMutex
	notes []models.Note
}

// NewNoteRepository returns an empty repository.
func NewNoteRepository() *NoteRepository {
	return &NoteRepository{}
}

func (r *NoteRepository) Save(_ context.Context, note *models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexLocked(note.OwnerID, note.ID) >= 0 {
		return notedomain.ErrNoteAlreadyExists
	}
	r.notes = append(r.notes, *note)
	return nil
}

func (r *NoteRepository) GetByID(_ context.Context, ownerID, id uuid.UUID) (*models.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexLocked(ownerID, id)
	if i < 0 {
		return nil, notedomain.ErrNoteNotFound
	}
	n := r.notes[i]
	return &n, nil
}

func (r *NoteRepository) FindByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*models.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Note, 0)
	for i := range r.notes {
		if r.notes[i].OwnerID == ownerID {
			n := r.notes[i]
			out = append(out, &n)
		}
	}
	return out, nil
}

func (r *NoteRepository) Update(_ context.Context, note *models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(note.OwnerID, note.ID)
	if i < 0 {
		return notedomain.ErrNoteNotFound
	}
	r.notes[i] = *note
	return nil
}

func (r *NoteRepository) Delete(_ context.Context, note *models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(note.OwnerID, note.ID)
	if i < 0 {
		return notedomain.ErrNoteNotFound
	}
	r.notes = append(r.notes[:i], r.notes[i+1:]...)
	return nil
}

// ImageKeyInUse reports whether any stored note references key.
func (r *NoteRepository) ImageKeyInUse(_ context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.notes {
		if r.notes[i].ImageKey.String() == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *NoteRepository) indexLocked(ownerID, id uuid.UUID) int {
	for i := range r.notes {
		if r.notes[i].ID == id && r.notes[i].OwnerID == ownerID {
			return i
		}
	}
	return -1
}
