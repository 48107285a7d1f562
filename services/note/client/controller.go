package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ghuser/notekeeper/pkg/logger"
	"github.com/ghuser/notekeeper/pkg/telemetry"
)

// Strategy selects how Create updates the local list.
type Strategy string

const (
	// StrategyPessimistic creates remotely first and refreshes the list on
	// success. A failed create leaves the list untouched.
	StrategyPessimistic Strategy = "pessimistic"

	// StrategyOptimistic appends the draft locally before the remote call.
	// A failed create is not rolled back: the entry stays until the next Load
	// replaces the list.
	StrategyOptimistic Strategy = "optimistic"
)

// ParseStrategy maps a CREATE_STRATEGY value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyPessimistic, StrategyOptimistic:
		return Strategy(s), nil
	case "":
		return StrategyPessimistic, nil
	default:
		return "", fmt.Errorf("unknown create strategy %q", s)
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithAssetStorage enables image resolution in Load and CreateWithAsset.
func WithAssetStorage(a AssetStorage) Option {
	return func(c *Controller) { c.assets = a }
}

// WithStrategy sets the create strategy. The default is StrategyPessimistic.
func WithStrategy(s Strategy) Option {
	return func(c *Controller) { c.strategy = s }
}

// WithMetrics records operation counts and latency.
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// Controller owns the visible record list and the edit draft.
//
// Operations that fail their local preconditions (empty name or description,
// nothing in edit) are silent no-ops: they return nil without calling the
// record service. Remote failures are logged and returned; none is fatal.
//
// Mutations are not serialized against each other. Every remote call runs
// without holding the state lock, and whichever Load finishes last decides
// the visible list.
type Controller struct {
	records  RecordService
	assets   AssetStorage
	strategy Strategy
	log      logger.Logger
	metrics  *telemetry.SyncMetrics

	mu      sync.Mutex
	list    []Record
	draft   Record
	editing bool
}

// NewController returns a Controller over the given record service.
func NewController(records RecordService, log logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		records:  records,
		strategy: StrategyPessimistic,
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Strategy returns the create strategy in use.
func (c *Controller) Strategy() Strategy {
	return c.strategy
}

// Records returns a copy of the visible list.
func (c *Controller) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.list))
	copy(out, c.list)
	return out
}

// Draft returns the current form values.
func (c *Controller) Draft() Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Editing reports whether the draft belongs to an existing record.
func (c *Controller) Editing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing
}

// Load replaces the visible list with the remote list. Image keys are
// resolved to URLs one record at a time; a record whose image cannot be
// resolved is kept with an empty ImageURL. On a list failure the visible list
// is left as it was.
func (c *Controller) Load(ctx context.Context) error {
	start := time.Now()

	recs, err := c.records.List(ctx)
	if err != nil {
		c.log.ErrorContext(ctx, "notes: load failed", "error", err)
		c.metrics.Record(ctx, "load", telemetry.OutcomeError, start)
		return fmt.Errorf("load notes: %w", err)
	}

	for i := range recs {
		recs[i].ImageURL = c.resolveImage(ctx, recs[i])
	}

	c.mu.Lock()
	c.list = recs
	c.mu.Unlock()

	c.metrics.Record(ctx, "load", telemetry.OutcomeOK, start)
	return nil
}

func (c *Controller) resolveImage(ctx context.Context, r Record) string {
	if r.ImageKey == "" || c.assets == nil {
		return ""
	}
	url, err := c.assets.ResolveURL(ctx, r.ImageKey)
	if err != nil {
		c.log.WarnContext(ctx, "notes: image unresolved",
			"note_id", r.ID,
			"image_key", r.ImageKey,
			"error", err,
		)
		return ""
	}
	return url
}

// SetField sets one draft field. Values are not validated here; Create and
// Update check them. Unknown fields are ignored.
func (c *Controller) SetField(field Field, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch field {
	case FieldName:
		c.draft.Name = value
	case FieldDescription:
		c.draft.Description = value
	case FieldImageKey:
		c.draft.ImageKey = value
	default:
		c.log.Debug("notes: unknown draft field", "field", string(field))
	}
}

// BeginEdit loads r into the draft and enters edit mode. Any unsaved draft is
// discarded without warning.
func (c *Controller) BeginEdit(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = r
	c.draft.ImageURL = ""
	c.editing = true
}

// Create submits the draft as a new record using the configured strategy.
// The draft is cleared once the record is accepted (optimistic: before the
// remote call).
func (c *Controller) Create(ctx context.Context) error {
	_, err := c.create(ctx, "")
	return err
}

// CreateWithAsset creates the draft as a record whose image key is derived
// from asset.Name, then uploads the asset bytes under that key in the
// background. Record creation does not wait for the upload.
//
// The returned channel delivers the upload result once and is then closed.
// When no upload was started (precondition no-op or failed create) it is
// closed without a value.
func (c *Controller) CreateWithAsset(ctx context.Context, asset Asset) (<-chan error, error) {
	done := make(chan error, 1)

	if c.assets == nil {
		close(done)
		return done, ErrNoAssetStorage
	}
	key := AssetKey(asset.Name)
	if key == "" {
		close(done)
		return done, fmt.Errorf("%w: no file name in %q", ErrInvalidAsset, asset.Name)
	}

	created, err := c.create(ctx, key)
	if !created {
		close(done)
		return done, err
	}

	// The upload outlives the triggering call; it keeps ctx values but not
	// its cancellation.
	uploadCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		start := time.Now()
		if err := c.assets.Upload(uploadCtx, key, asset.Body, asset.Size); err != nil {
			c.log.ErrorContext(uploadCtx, "notes: image upload failed", "image_key", key, "error", err)
			c.metrics.Record(uploadCtx, "upload", telemetry.OutcomeError, start)
			done <- fmt.Errorf("upload %s: %w", key, err)
			return
		}
		c.log.InfoContext(uploadCtx, "notes: image uploaded", "image_key", key)
		c.metrics.Record(uploadCtx, "upload", telemetry.OutcomeOK, start)
		done <- nil
	}()

	return done, err
}

// create reports whether the remote create succeeded. imageKey, when set,
// replaces the draft's image key.
func (c *Controller) create(ctx context.Context, imageKey string) (bool, error) {
	start := time.Now()

	c.mu.Lock()
	rec := c.draft
	if imageKey != "" {
		rec.ImageKey = imageKey
	}
	if rec.Name == "" || rec.Description == "" {
		c.mu.Unlock()
		c.log.DebugContext(ctx, "notes: create skipped, name and description are required")
		c.metrics.Record(ctx, "create", telemetry.OutcomeSkipped, start)
		return false, nil
	}
	rec.ID = ""
	rec.ImageURL = ""
	if c.strategy == StrategyOptimistic {
		c.list = append(c.list, rec)
		c.resetDraftLocked()
	}
	c.mu.Unlock()

	created, err := c.records.Create(ctx, rec.Fields())
	if err != nil {
		c.log.ErrorContext(ctx, "notes: create failed",
			"strategy", string(c.strategy),
			"name", rec.Name,
			"error", err,
		)
		c.metrics.Record(ctx, "create", telemetry.OutcomeError, start)
		return false, fmt.Errorf("create note: %w", err)
	}
	c.log.InfoContext(ctx, "notes: created", "note_id", created.ID, "strategy", string(c.strategy))
	c.metrics.Record(ctx, "create", telemetry.OutcomeOK, start)

	if c.strategy == StrategyOptimistic {
		return true, nil
	}

	c.mu.Lock()
	c.resetDraftLocked()
	c.mu.Unlock()

	if err := c.Load(ctx); err != nil {
		return true, fmt.Errorf("refresh after create: %w", err)
	}
	return true, nil
}

// Update writes every draft field to the record being edited. It is a no-op
// unless edit mode is on, the draft has an ID and both required fields are
// set. On failure edit mode stays on so the draft can be resubmitted.
func (c *Controller) Update(ctx context.Context) error {
	start := time.Now()

	c.mu.Lock()
	rec := c.draft
	editing := c.editing
	c.mu.Unlock()

	if !editing || rec.ID == "" || rec.Name == "" || rec.Description == "" {
		c.log.DebugContext(ctx, "notes: update skipped",
			"editing", editing,
			"note_id", rec.ID,
		)
		c.metrics.Record(ctx, "update", telemetry.OutcomeSkipped, start)
		return nil
	}

	if err := c.records.Update(ctx, rec.ID, rec.Fields()); err != nil {
		c.log.ErrorContext(ctx, "notes: update failed", "note_id", rec.ID, "error", err)
		c.metrics.Record(ctx, "update", telemetry.OutcomeError, start)
		return fmt.Errorf("update note %s: %w", rec.ID, err)
	}
	c.log.InfoContext(ctx, "notes: updated", "note_id", rec.ID)
	c.metrics.Record(ctx, "update", telemetry.OutcomeOK, start)

	c.mu.Lock()
	c.resetDraftLocked()
	c.mu.Unlock()

	if err := c.Load(ctx); err != nil {
		return fmt.Errorf("refresh after update: %w", err)
	}
	return nil
}

// Remove deletes the record with the given id and refreshes the list. There
// is no confirmation step. On failure the visible list is unchanged.
func (c *Controller) Remove(ctx context.Context, id string) error {
	start := time.Now()

	if id == "" {
		c.log.DebugContext(ctx, "notes: remove skipped, empty id")
		c.metrics.Record(ctx, "remove", telemetry.OutcomeSkipped, start)
		return nil
	}

	if err := c.records.Delete(ctx, id); err != nil {
		c.log.ErrorContext(ctx, "notes: remove failed", "note_id", id, "error", err)
		c.metrics.Record(ctx, "remove", telemetry.OutcomeError, start)
		return fmt.Errorf("remove note %s: %w", id, err)
	}
	c.log.InfoContext(ctx, "notes: removed", "note_id", id)
	c.metrics.Record(ctx, "remove", telemetry.OutcomeOK, start)

	if err := c.Load(ctx); err != nil {
		return fmt.Errorf("refresh after remove: %w", err)
	}
	return nil
}

// resetDraftLocked clears the draft and leaves edit mode. c.mu must be held.
func (c *Controller) resetDraftLocked() {
	c.draft = Record{}
	c.editing = false
}
