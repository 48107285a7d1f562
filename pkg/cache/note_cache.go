package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// NoteCacheTTL is the time-to-live for cached notes.
	NoteCacheTTL = 24 * time.Hour

	noteCacheKeyPrefix = "note"
)

// CachedNote is the denormalized read model stored in Redis as a hash.
type CachedNote struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageKey    string    `json:"image_key"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NoteCache provides structured read/write operations for note cache entries.
// Keys are scoped by ownerID to prevent cross-tenant data leakage.
// Key format: "note:{ownerID}:{noteID}"
type NoteCache struct {
	client *RedisClient
}

// NewNoteCache creates a new NoteCache backed by the given RedisClient.
func NewNoteCache(r *RedisClient) *NoteCache {
	return &NoteCache{client: r}
}

// setIfNewerScript replaces the hash only when the key holds no tombstone and
// no version at or above ARGV[1]. Returns 1 when written.
//
// KEYS[1] note key; ARGV[1] version; ARGV[2] ttl seconds; ARGV[3..] field/value pairs.
var setIfNewerScript = redis.NewScript(`
local cur = redis.call('HMGET', KEYS[1], 'deleted', 'version')
if cur[1] then
	return 0
end
if cur[2] and tonumber(cur[2]) >= tonumber(ARGV[1]) then
	return 0
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'version', ARGV[1], unpack(ARGV, 3))
redis.call('EXPIRE', KEYS[1], ARGV[2])
return 1
`)

// Get retrieves a cached note by owner + note ID.
// Returns redis.Nil error when the key does not exist, has expired or holds a
// deletion tombstone.
func (c *NoteCache) Get(ctx context.Context, ownerID, noteID uuid.UUID) (*CachedNote, error) {
	vals, err := c.client.Client().HGetAll(ctx, noteKey(ownerID, noteID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 || vals["deleted"] != "" {
		return nil, redis.Nil
	}
	return decodeNote(vals)
}

// SetIfNewer writes note unless the cache already holds the same or a newer
// version of it (by UpdatedAt), or the note was deleted. Reports whether the
// entry was written.
func (c *NoteCache) SetIfNewer(ctx context.Context, note *CachedNote) (bool, error) {
	args := append([]any{NoteVersion(note.UpdatedAt), int64(NoteCacheTTL / time.Second)}, encodeNote(note)...)
	n, err := setIfNewerScript.Run(ctx, c.client.Client(), []string{noteKey(note.OwnerID, note.ID)}, args...).Int()
	if err != nil {
		return false, fmt.Errorf("cache set: %w", err)
	}
	return n == 1, nil
}

// Delete replaces a cached note with a tombstone that lives as long as a
// regular entry. Get reports the tombstone as a miss and SetIfNewer refuses to
// overwrite it.
func (c *NoteCache) Delete(ctx context.Context, ownerID, noteID uuid.UUID) error {
	key := noteKey(ownerID, noteID)
	pipe := c.client.Client().TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, "deleted", "1")
	pipe.Expire(ctx, key, NoteCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// NoteVersion is the cache version of a note updated at t. Postgres keeps
// microseconds, so finer precision would make equal rows compare unequal.
func NoteVersion(t time.Time) int64 {
	return t.UnixMicro()
}

// noteKey builds the Redis key: "note:{ownerID}:{noteID}"
func noteKey(ownerID, noteID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", noteCacheKeyPrefix, ownerID, noteID)
}

func encodeNote(n *CachedNote) []any {
	return []any{
		"id", n.ID.String(),
		"owner_id", n.OwnerID.String(),
		"name", n.Name,
		"description", n.Description,
		"image_key", n.ImageKey,
		"created_at", n.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at", n.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decodeNote(vals map[string]string) (*CachedNote, error) {
	id, err := uuid.Parse(vals["id"])
	if err != nil {
		return nil, fmt.Errorf("cache parse id: %w", err)
	}
	oid, err := uuid.Parse(vals["owner_id"])
	if err != nil {
		return nil, fmt.Errorf("cache parse owner_id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, vals["created_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, vals["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse updated_at: %w", err)
	}

	return &CachedNote{
		ID:          id,
		OwnerID:     oid,
		Name:        vals["name"],
		Description: vals["description"],
		ImageKey:    vals["image_key"],
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}
