package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/notekeeper/pkg/database"
	"github.com/ghuser/notekeeper/pkg/events"
	notedomain "github.com/ghuser/notekeeper/services/note/domain"
	domainevents "github.com/ghuser/notekeeper/services/note/domain/events"
	"github.com/ghuser/notekeeper/services/note/domain/models"
	"github.com/ghuser/notekeeper/services/note/infrastructure/persistence/postgres/db"
)

const pgUniqueViolation = "23505"

// NoteRepository implements repositories.NoteRepository against PostgreSQL.
type NoteRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewNoteRepository returns a NoteRepository backed by the given connection pool
// and event bus. Every mutation publishes its NoteEvent inside the same transaction.
func NewNoteRepository(database *database.Database, bus *events.EventBus) *NoteRepository {
	return &NoteRepository{db: database, bus: bus}
}

// Save persists a new Note and publishes note.created.
// Returns ErrNoteAlreadyExists on unique constraint violations.
func (r *NoteRepository) Save(ctx context.Context, note *models.Note) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		if err := q.InsertNote(ctx, db.InsertNoteParams{
			ID:          note.ID,
			OwnerID:     note.OwnerID,
			Name:        note.Name.String(),
			Description: note.Description.String(),
			ImageKey:    note.ImageKey.String(),
			CreatedAt:   note.CreatedAt,
			UpdatedAt:   note.UpdatedAt,
		}); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return notedomain.ErrNoteAlreadyExists
			}
			return fmt.Errorf("insert note: %w", err)
		}
		return r.publish(ctx, tx, domainevents.TopicNoteCreated, note, note.UpdatedAt)
	})
}

// GetByID retrieves a Note by ID scoped to the given owner. Returns ErrNoteNotFound if not found.
func (r *NoteRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Note, error) {
	q := db.New(r.db.DB())
	row, err := q.GetNoteByID(ctx, db.GetNoteByIDParams{ID: id, OwnerID: ownerID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notedomain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("query note: %w", err)
	}
	return rowToNote(row), nil
}

// FindByOwnerID retrieves every note for the owner ordered by creation.
func (r *NoteRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Note, error) {
	q := db.New(r.db.DB())
	rows, err := q.FindNotesByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}

	notes := make([]*models.Note, len(rows))
	for i, row := range rows {
		notes[i] = rowToNote(row)
	}
	return notes, nil
}

// Update overwrites name, description and image key, then publishes note.updated.
func (r *NoteRepository) Update(ctx context.Context, note *models.Note) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		n, err := q.UpdateNote(ctx, db.UpdateNoteParams{
			ID:          note.ID,
			OwnerID:     note.OwnerID,
			Name:        note.Name.String(),
			Description: note.Description.String(),
			ImageKey:    note.ImageKey.String(),
			UpdatedAt:   note.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("update note: %w", err)
		}
		if n == 0 {
			return notedomain.ErrNoteNotFound
		}
		return r.publish(ctx, tx, domainevents.TopicNoteUpdated, note, note.UpdatedAt)
	})
}

// Delete removes a note and publishes note.deleted carrying its image key so
// the worker can purge the stored asset.
func (r *NoteRepository) Delete(ctx context.Context, note *models.Note) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		n, err := q.DeleteNote(ctx, db.DeleteNoteParams{ID: note.ID, OwnerID: note.OwnerID})
		if err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		if n == 0 {
			return notedomain.ErrNoteNotFound
		}
		return r.publish(ctx, tx, domainevents.TopicNoteDeleted, note, time.Now().UTC())
	})
}

// ImageKeyInUse reports whether any note of any owner still references key.
func (r *NoteRepository) ImageKeyInUse(ctx context.Context, key string) (bool, error) {
	n, err := db.New(r.db.DB()).CountNotesByImageKey(ctx, key)
	if err != nil {
		return false, fmt.Errorf("count notes by image key: %w", err)
	}
	return n > 0, nil
}

func (r *NoteRepository) publish(ctx context.Context, tx *sql.Tx, topic string, note *models.Note, at time.Time) error {
	if r.bus == nil {
		return nil
	}
	event := domainevents.NoteEvent{
		EventID:     uuid.New(),
		Version:     1,
		NoteID:      note.ID,
		OwnerID:     note.OwnerID,
		Name:        note.Name.String(),
		Description: note.Description.String(),
		ImageKey:    note.ImageKey.String(),
		CreatedAt:   note.CreatedAt,
		OccurredAt:  at,
	}
	msg, err := events.NewJSONMessage(event.EventID.String(), event.Version, event)
	if err != nil {
		return fmt.Errorf("build event: %w", err)
	}
	events.InjectTrace(ctx, msg)
	p, err := r.bus.NewTxPublisher(tx)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	if err := p.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// rowToNote maps a db.NoteNote to a domain models.Note.
func rowToNote(row db.NoteNote) *models.Note {
	return &models.Note{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Name:        models.NoteName(row.Name),
		Description: models.NoteDescription(row.Description),
		ImageKey:    models.ImageKey(row.ImageKey),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
