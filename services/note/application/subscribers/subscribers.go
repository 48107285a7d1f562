// Package subscribers consumes note events in the worker process.
package subscribers

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	pkgcache "github.com/ghuser/notekeeper/pkg/cache"
	"github.com/ghuser/notekeeper/pkg/events"
	"github.com/ghuser/notekeeper/pkg/logger"
	"github.com/ghuser/notekeeper/services/note/application/workflows"
	noteevents "github.com/ghuser/notekeeper/services/note/domain/events"
)

// NoteCache is the subset of *pkgcache.NoteCache the handlers write to.
// SetIfNewer must refuse older versions and deleted notes, since topics are
// consumed independently and events of one note can arrive out of order.
type NoteCache interface {
	SetIfNewer(ctx context.Context, note *pkgcache.CachedNote) (bool, error)
	Delete(ctx context.Context, ownerID, noteID uuid.UUID) error
}

// Subscriber is satisfied by *events.EventBus.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler events.Handler) (<-chan error, error)
}

// PurgeStarter schedules removal of a deleted note's image.
type PurgeStarter func(ctx context.Context, in workflows.PurgeAssetInput) error

// Handlers reacts to note.created, note.updated and note.deleted.
// Every handler is idempotent; the event bus redelivers on failure.
type Handlers struct {
	cache NoteCache    // optional
	purge PurgeStarter // optional
	log   logger.Logger
}

// New returns Handlers. cache and purge may be nil; the matching side effect
// is then skipped.
func New(cache NoteCache, purge PurgeStarter, log logger.Logger) *Handlers {
	return &Handlers{cache: cache, purge: purge, log: log}
}

// Register subscribes every handler and drains subscriber errors in the
// background until ctx is done.
func (h *Handlers) Register(ctx context.Context, bus Subscriber) error {
	routes := []struct {
		topic   string
		handler events.Handler
	}{
		{noteevents.TopicNoteCreated, h.NoteCreated},
		{noteevents.TopicNoteUpdated, h.NoteUpdated},
		{noteevents.TopicNoteDeleted, h.NoteDeleted},
	}

	topics := make([]string, 0, len(routes))
	for _, rt := range routes {
		errCh, err := bus.Subscribe(ctx, rt.topic, rt.handler)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", rt.topic, err)
		}
		go func(topic string) {
			for err := range errCh {
				h.log.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
			}
		}(rt.topic)
		topics = append(topics, rt.topic)
	}

	h.log.Info("event subscribers registered", "topics", topics)
	return nil
}

// NoteCreated warms the read-model cache so the first GetByID is a hit.
// Cache warming is best-effort and never fails the handler.
func (h *Handlers) NoteCreated(ctx context.Context, msg *message.Message) error {
	return h.refresh(ctx, msg, noteevents.TopicNoteCreated)
}

// NoteUpdated writes the new version of the note to the cache.
func (h *Handlers) NoteUpdated(ctx context.Context, msg *message.Message) error {
	return h.refresh(ctx, msg, noteevents.TopicNoteUpdated)
}

// refresh caches the note carried by evt unless the cache already holds a
// newer version or the note was deleted.
func (h *Handlers) refresh(ctx context.Context, msg *message.Message, topic string) error {
	var evt noteevents.NoteEvent
	if err := events.DecodeJSON(msg, &evt); err != nil {
		return err
	}
	if h.cache == nil {
		return nil
	}

	written, err := h.cache.SetIfNewer(ctx, &pkgcache.CachedNote{
		ID:          evt.NoteID,
		OwnerID:     evt.OwnerID,
		Name:        evt.Name,
		Description: evt.Description,
		ImageKey:    evt.ImageKey,
		CreatedAt:   evt.CreatedAt,
		UpdatedAt:   evt.OccurredAt,
	})
	if err != nil {
		h.log.WarnContext(ctx, "cache write failed", "topic", topic, "note_id", evt.NoteID, "error", err)
		return nil
	}
	if !written {
		h.log.DebugContext(ctx, "cache holds a newer entry", "topic", topic, "note_id", evt.NoteID)
		return nil
	}
	h.log.InfoContext(ctx, "cache warmed", "topic", topic, "note_id", evt.NoteID, "owner_id", evt.OwnerID)
	return nil
}

// NoteDeleted replaces the cached note with a tombstone and schedules purging
// of its image.
// A failure to schedule the purge is returned so the event is redelivered.
func (h *Handlers) NoteDeleted(ctx context.Context, msg *message.Message) error {
	var evt noteevents.NoteEvent
	if err := events.DecodeJSON(msg, &evt); err != nil {
		return err
	}
	h.evict(ctx, evt)

	if evt.ImageKey == "" {
		return nil
	}
	if h.purge == nil {
		h.log.WarnContext(ctx, "asset purge disabled, object left in storage",
			"note_id", evt.NoteID, "image_key", evt.ImageKey)
		return nil
	}
	if err := h.purge(ctx, workflows.PurgeAssetInput{NoteID: evt.NoteID, ImageKey: evt.ImageKey}); err != nil {
		return fmt.Errorf("schedule asset purge for note %s: %w", evt.NoteID, err)
	}
	h.log.InfoContext(ctx, "asset purge scheduled", "note_id", evt.NoteID, "image_key", evt.ImageKey)
	return nil
}

func (h *Handlers) evict(ctx context.Context, evt noteevents.NoteEvent) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Delete(ctx, evt.OwnerID, evt.NoteID); err != nil {
		h.log.WarnContext(ctx, "cache evict failed", "note_id", evt.NoteID, "error", err)
	}
}
