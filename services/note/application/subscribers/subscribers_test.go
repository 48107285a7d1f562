package subscribers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgcache "github.com/ghuser/notekeeper/pkg/cache"
	"github.com/ghuser/notekeeper/pkg/events"
	"github.com/ghuser/notekeeper/pkg/logger"
	"github.com/ghuser/notekeeper/services/note/application/services"
	"github.com/ghuser/notekeeper/services/note/application/workflows"
	notedomain "github.com/ghuser/notekeeper/services/note/domain"
	noteevents "github.com/ghuser/notekeeper/services/note/domain/events"
	"github.com/ghuser/notekeeper/services/note/infrastructure/persistence/memory"
)

// fakeCache applies the version and tombstone rules of *pkgcache.NoteCache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*pkgcache.CachedNote
	gone    map[uuid.UUID]bool
	deleted []uuid.UUID
	err     error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: map[uuid.UUID]*pkgcache.CachedNote{},
		gone:    map[uuid.UUID]bool{},
	}
}

func (f *fakeCache) Get(_ context.Context, _, noteID uuid.UUID) (*pkgcache.CachedNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.entries[noteID]
	if !ok {
		return nil, redis.Nil
	}
	return n, nil
}

func (f *fakeCache) SetIfNewer(_ context.Context, n *pkgcache.CachedNote) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.gone[n.ID] {
		return false, nil
	}
	if cur, ok := f.entries[n.ID]; ok && pkgcache.NoteVersion(cur.UpdatedAt) >= pkgcache.NoteVersion(n.UpdatedAt) {
		return false, nil
	}
	f.entries[n.ID] = n
	return true, nil
}

func (f *fakeCache) Delete(_ context.Context, _, noteID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, noteID)
	if f.err != nil {
		return f.err
	}
	delete(f.entries, noteID)
	f.gone[noteID] = true
	return nil
}

func newEventMessage(t *testing.T, evt noteevents.NoteEvent) *message.Message {
	t.Helper()
	msg, err := events.NewJSONMessage(evt.EventID.String(), evt.Version, evt)
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	return msg
}

func sampleEvent(imageKey string) noteevents.NoteEvent {
	return noteevents.NoteEvent{
		EventID:     uuid.New(),
		Version:     1,
		NoteID:      uuid.New(),
		OwnerID:     uuid.New(),
		Name:        "A",
		Description: "B",
		ImageKey:    imageKey,
		CreatedAt:   time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
		OccurredAt:  time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestNoteCreated_WarmsCache(t *testing.T) {
	cache := newFakeCache()
	h := New(cache, nil, logger.Discard())
	evt := sampleEvent("a.png")

	if err := h.NoteCreated(context.Background(), newEventMessage(t, evt)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := cache.entries[evt.NoteID]
	if !ok {
		t.Fatal("expected the note in cache")
	}
	if got.OwnerID != evt.OwnerID || got.ImageKey != "a.png" || !got.CreatedAt.Equal(evt.CreatedAt) || !got.UpdatedAt.Equal(evt.OccurredAt) {
		t.Fatalf("unexpected cached note %+v", got)
	}
}

func TestNoteCreated_CacheFailureIsNotFatal(t *testing.T) {
	cache := newFakeCache()
	cache.err = errors.New("redis down")
	h := New(cache, nil, logger.Discard())
	if err := h.NoteCreated(context.Background(), newEventMessage(t, sampleEvent(""))); err != nil {
		t.Fatalf("cache failure must not fail the handler, got %v", err)
	}
}

func TestHandlers_RejectMalformedPayload(t *testing.T) {
	h := New(newFakeCache(), nil, logger.Discard())
	msg := message.NewMessage("1", []byte(`{"note_id":`))
	for name, fn := range map[string]events.Handler{
		"created": h.NoteCreated,
		"updated": h.NoteUpdated,
		"deleted": h.NoteDeleted,
	} {
		if err := fn(context.Background(), msg); err == nil {
			t.Errorf("%s: expected decode error", name)
		}
	}
}

func TestNoteCreated_AfterServiceDeleteIsNotServed(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc := services.NewNoteService(memory.NewNoteRepository(), cache, logger.Discard())
	h := New(cache, nil, logger.Discard())

	owner := uuid.New()
	note, err := svc.Create(ctx, owner, services.NoteInput{Name: "A", Description: "B"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	created := noteevents.NoteEvent{
		EventID:     uuid.New(),
		Version:     1,
		NoteID:      note.ID,
		OwnerID:     owner,
		Name:        "A",
		Description: "B",
		CreatedAt:   note.CreatedAt,
		OccurredAt:  note.UpdatedAt,
	}
	if err := svc.Delete(ctx, owner, note.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if err := h.NoteCreated(ctx, newEventMessage(t, created)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, err := svc.GetByID(ctx, owner, note.ID); !errors.Is(err, notedomain.ErrNoteNotFound) {
		t.Fatalf("deleted note served after late note.created: %+v err=%v", got, err)
	}
}

func TestNoteUpdated_WritesNewerVersion(t *testing.T) {
	cache := newFakeCache()
	h := New(cache, nil, logger.Discard())
	created := sampleEvent("")
	updated := created
	updated.Name = "A2"
	updated.OccurredAt = created.OccurredAt.Add(time.Minute)

	for _, m := range []struct {
		fn  events.Handler
		evt noteevents.NoteEvent
	}{
		{h.NoteCreated, created},
		{h.NoteUpdated, updated},
	} {
		if err := m.fn(context.Background(), newEventMessage(t, m.evt)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := cache.entries[created.NoteID]; got == nil || got.Name != "A2" {
		t.Fatalf("expected updated note in cache, got %+v", got)
	}
}

func TestHandlers_OutOfOrderEventsKeepCacheCurrent(t *testing.T) {
	base := sampleEvent("")
	updated := base
	updated.Name = "A2"
	updated.OccurredAt = base.OccurredAt.Add(time.Minute)
	deleted := base
	deleted.OccurredAt = base.OccurredAt.Add(2 * time.Minute)

	type step struct {
		topic string
		evt   noteevents.NoteEvent
	}
	tests := []struct {
		name     string
		steps    []step
		wantName string // empty: the note must not be cached
	}{
		{
			name:  "created after deleted",
			steps: []step{{noteevents.TopicNoteDeleted, deleted}, {noteevents.TopicNoteCreated, base}},
		},
		{
			name:  "updated after deleted",
			steps: []step{{noteevents.TopicNoteCreated, base}, {noteevents.TopicNoteDeleted, deleted}, {noteevents.TopicNoteUpdated, updated}},
		},
		{
			name:     "created after updated",
			steps:    []step{{noteevents.TopicNoteUpdated, updated}, {noteevents.TopicNoteCreated, base}},
			wantName: "A2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newFakeCache()
			h := New(cache, nil, logger.Discard())
			handlers := map[string]events.Handler{
				noteevents.TopicNoteCreated: h.NoteCreated,
				noteevents.TopicNoteUpdated: h.NoteUpdated,
				noteevents.TopicNoteDeleted: h.NoteDeleted,
			}
			for _, st := range tt.steps {
				if err := handlers[st.topic](context.Background(), newEventMessage(t, st.evt)); err != nil {
					t.Fatalf("%s: %v", st.topic, err)
				}
			}

			got, ok := cache.entries[base.NoteID]
			if tt.wantName == "" {
				if ok {
					t.Fatalf("deleted note must not be cached, got %+v", got)
				}
				return
			}
			if !ok || got.Name != tt.wantName {
				t.Fatalf("expected cached name %q, got %+v", tt.wantName, got)
			}
		})
	}
}

func TestNoteDeleted_SchedulesPurge(t *testing.T) {
	cache := newFakeCache()
	var got []workflows.PurgeAssetInput
	purge := func(_ context.Context, in workflows.PurgeAssetInput) error {
		got = append(got, in)
		return nil
	}
	h := New(cache, purge, logger.Discard())
	evt := sampleEvent("cat.png")

	if err := h.NoteDeleted(context.Background(), newEventMessage(t, evt)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.deleted) != 1 {
		t.Fatalf("expected cache eviction, got %v", cache.deleted)
	}
	if len(got) != 1 || got[0].NoteID != evt.NoteID || got[0].ImageKey != "cat.png" {
		t.Fatalf("unexpected purge inputs %+v", got)
	}
}

func TestNoteDeleted_NoImageSkipsPurge(t *testing.T) {
	called := false
	purge := func(context.Context, workflows.PurgeAssetInput) error {
		called = true
		return nil
	}
	h := New(nil, purge, logger.Discard())

	if err := h.NoteDeleted(context.Background(), newEventMessage(t, sampleEvent(""))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatal("purge must not run for notes without an image")
	}
}

func TestNoteDeleted_PurgeFailureIsRetried(t *testing.T) {
	purge := func(context.Context, workflows.PurgeAssetInput) error {
		return errors.New("temporal unavailable")
	}
	h := New(nil, purge, logger.Discard())

	if err := h.NoteDeleted(context.Background(), newEventMessage(t, sampleEvent("cat.png"))); err == nil {
		t.Fatal("expected error so the event is redelivered")
	}
}

type fakeBus struct {
	topics []string
	err    error
}

func (b *fakeBus) Subscribe(_ context.Context, topic string, _ events.Handler) (<-chan error, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.topics = append(b.topics, topic)
	ch := make(chan error)
	close(ch)
	return ch, nil
}

func TestRegister_SubscribesAllTopics(t *testing.T) {
	bus := &fakeBus{}
	if err := New(nil, nil, logger.Discard()).Register(context.Background(), bus); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{noteevents.TopicNoteCreated, noteevents.TopicNoteUpdated, noteevents.TopicNoteDeleted}
	if len(bus.topics) != len(want) {
		t.Fatalf("expected %v, got %v", want, bus.topics)
	}
	for i := range want {
		if bus.topics[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, bus.topics)
		}
	}
}

func TestRegister_PropagatesSubscribeError(t *testing.T) {
	bus := &fakeBus{err: errors.New("no db")}
	if err := New(nil, nil, logger.Discard()).Register(context.Background(), bus); err == nil {
		t.Fatal("expected error")
	}
}
