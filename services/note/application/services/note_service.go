package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgcache "github.com/ghuser/notekeeper/pkg/cache"
	"github.com/ghuser/notekeeper/pkg/logger"
	notedomain "github.com/ghuser/notekeeper/services/note/domain"
	"github.com/ghuser/notekeeper/services/note/domain/models"
	"github.com/ghuser/notekeeper/services/note/domain/repositories"
	domainsvcs "github.com/ghuser/notekeeper/services/note/domain/services"
)

// NoteCache is the read-model cache used by NoteService. *pkgcache.NoteCache
// satisfies it; Get returns redis.Nil on a miss. SetIfNewer never replaces a
// newer version or a deleted note, and Delete leaves a tombstone.
type NoteCache interface {
	Get(ctx context.Context, ownerID, noteID uuid.UUID) (*pkgcache.CachedNote, error)
	SetIfNewer(ctx context.Context, note *pkgcache.CachedNote) (bool, error)
	Delete(ctx context.Context, ownerID, noteID uuid.UUID) error
}

// NoteInput carries the writable fields of a note. Update overwrites all of them.
type NoteInput struct {
	Name        string
	Description string
	ImageKey    string
}

// NoteService orchestrates the note lifecycle.
// Event publishing is handled by the repository layer (outbox pattern).
// Reads by ID are served from Redis cache when available.
type NoteService struct {
	repo  repositories.NoteRepository
	cache NoteCache // optional
	log   logger.Logger
}

// NewNoteService returns a NoteService wired with the given repository and cache.
// cache may be nil.
func NewNoteService(repo repositories.NoteRepository, noteCache NoteCache, log logger.Logger) *NoteService {
	return &NoteService{repo: repo, cache: noteCache, log: log}
}

// Create validates and persists a Note. The repository publishes note.created.
func (s *NoteService) Create(ctx context.Context, ownerID uuid.UUID, in NoteInput) (*models.Note, error) {
	name, desc, image, err := parseInput(in)
	if err != nil {
		return nil, err
	}

	note, err := models.NewNote(ownerID, name, desc, image)
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	if err := domainsvcs.ValidateNote(note); err != nil {
		return nil, fmt.Errorf("%w: %w", notedomain.ErrInvalidNote, err)
	}

	if err := s.repo.Save(ctx, note); err != nil {
		return nil, fmt.Errorf("save note: %w", err)
	}

	return note, nil
}

// GetByID retrieves a Note using a read-through cache pattern:
//  1. Check Redis cache first.
//  2. On cache miss (or cache error), query Postgres.
//  3. Fill the cache with the Postgres result unless an update or delete
//     that finished meanwhile already holds the entry.
func (s *NoteService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Note, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, ownerID, id); err == nil {
			return fromCache(cached), nil
		} else if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "note cache read failed, falling back to postgres",
				"note_id", id, "error", err)
		}
	}

	note, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}

	s.fill(ctx, note)
	return note, nil
}

// List returns every note of the owner in insertion order. Lists always come
// from Postgres so a refresh after a write sees that write.
func (s *NoteService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Note, error) {
	notes, err := s.repo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// Update overwrites every writable field of an existing note. The repository
// publishes note.updated. Returns ErrNoteNotFound if no matching note exists.
func (s *NoteService) Update(ctx context.Context, ownerID, id uuid.UUID, in NoteInput) (*models.Note, error) {
	name, desc, image, err := parseInput(in)
	if err != nil {
		return nil, err
	}

	note, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}

	note.Overwrite(name, desc, image)
	if err := domainsvcs.ValidateNote(note); err != nil {
		return nil, fmt.Errorf("%w: %w", notedomain.ErrInvalidNote, err)
	}

	if err := s.repo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	s.fill(ctx, note)
	return note, nil
}

// Delete removes a note by ID scoped to the given owner. The repository
// publishes note.deleted with the note's image key.
// Returns ErrNoteNotFound if no matching note exists.
func (s *NoteService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	note, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("get note: %w", err)
	}
	if err := s.repo.Delete(ctx, note); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	s.evict(ctx, ownerID, id)
	return nil
}

func (s *NoteService) fill(ctx context.Context, note *models.Note) {
	if s.cache == nil {
		return
	}
	written, err := s.cache.SetIfNewer(ctx, ToCache(note))
	if err != nil {
		s.log.WarnContext(ctx, "note cache fill failed", "note_id", note.ID, "error", err)
		return
	}
	if !written {
		s.log.DebugContext(ctx, "note cache holds a newer entry", "note_id", note.ID)
	}
}

func (s *NoteService) evict(ctx context.Context, ownerID, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, ownerID, id); err != nil {
		s.log.WarnContext(ctx, "note cache evict failed", "note_id", id, "error", err)
	}
}

func parseInput(in NoteInput) (models.NoteName, models.NoteDescription, models.ImageKey, error) {
	name, err := models.NewNoteName(in.Name)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %w", notedomain.ErrInvalidNote, err)
	}
	desc, err := models.NewNoteDescription(in.Description)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %w", notedomain.ErrInvalidNote, err)
	}
	image, err := models.NewImageKey(in.ImageKey)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %w", notedomain.ErrInvalidNote, err)
	}
	return name, desc, image, nil
}

// ToCache maps a Note to its cached read model.
func ToCache(n *models.Note) *pkgcache.CachedNote {
	return &pkgcache.CachedNote{
		ID:          n.ID,
		OwnerID:     n.OwnerID,
		Name:        n.Name.String(),
		Description: n.Description.String(),
		ImageKey:    n.ImageKey.String(),
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func fromCache(c *pkgcache.CachedNote) *models.Note {
	return &models.Note{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		Name:        models.NoteName(c.Name),
		Description: models.NoteDescription(c.Description),
		ImageKey:    models.ImageKey(c.ImageKey),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
