// Package workflows holds the Temporal workflows of the note service.
package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/ghuser/notekeeper/pkg/logger"
)

// PurgeAssetInput identifies the stored object of a deleted note.
type PurgeAssetInput struct {
	NoteID   uuid.UUID `json:"note_id"`
	ImageKey string    `json:"image_key"`
}

// AssetRemover deletes stored objects. *storage.MinioStore satisfies it.
type AssetRemover interface {
	Remove(ctx context.Context, key string) error
}

// ImageKeyChecker reports whether a live note still references an image key.
type ImageKeyChecker interface {
	ImageKeyInUse(ctx context.Context, key string) (bool, error)
}

// AssetActivities are registered on the worker as a struct so both
// activities share their dependencies.
type AssetActivities struct {
	Assets AssetRemover
	Notes  ImageKeyChecker
	Log    logger.Logger
}

// ImageKeyInUse is the activity form of ImageKeyChecker.ImageKeyInUse.
func (a *AssetActivities) ImageKeyInUse(ctx context.Context, key string) (bool, error) {
	return a.Notes.ImageKeyInUse(ctx, key)
}

// RemoveAsset deletes the object stored under key. A missing object is not an
// error. The reference check is repeated right before removal since a note
// reusing the key may have been created after the workflow's own check.
func (a *AssetActivities) RemoveAsset(ctx context.Context, key string) error {
	info := activity.GetInfo(ctx)
	inUse, err := a.Notes.ImageKeyInUse(ctx, key)
	if err != nil {
		return fmt.Errorf("check asset %s: %w", key, err)
	}
	if inUse {
		a.Log.InfoContext(ctx, "asset referenced again, keeping it", "image_key", key)
		return nil
	}
	if err := a.Assets.Remove(ctx, key); err != nil {
		a.Log.WarnContext(ctx, "asset removal failed",
			"image_key", key,
			"attempt", info.Attempt,
			"error", err,
		)
		return fmt.Errorf("remove asset %s: %w", key, err)
	}
	a.Log.InfoContext(ctx, "asset removed", "image_key", key)
	return nil
}

// PurgeNoteAsset removes the image of a deleted note unless another note
// still references the same key.
func PurgeNoteAsset(ctx workflow.Context, in PurgeAssetInput) error {
	if in.ImageKey == "" {
		return nil
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	})

	var a *AssetActivities
	var inUse bool
	if err := workflow.ExecuteActivity(ctx, a.ImageKeyInUse, in.ImageKey).Get(ctx, &inUse); err != nil {
		return err
	}
	if inUse {
		workflow.GetLogger(ctx).Info("asset still referenced, keeping it", "image_key", in.ImageKey)
		return nil
	}
	return workflow.ExecuteActivity(ctx, a.RemoveAsset, in.ImageKey).Get(ctx, nil)
}

// PurgeWorkflowID is stable per note so a redelivered note.deleted event
// joins the existing run instead of starting a second one.
func PurgeWorkflowID(noteID uuid.UUID) string {
	return "purge-note-asset-" + noteID.String()
}

// StartPurge schedules PurgeNoteAsset on taskQueue.
func StartPurge(ctx context.Context, c client.Client, taskQueue string, in PurgeAssetInput) error {
	opts := client.StartWorkflowOptions{
		ID:        PurgeWorkflowID(in.NoteID),
		TaskQueue: taskQueue,
	}
	if _, err := c.ExecuteWorkflow(ctx, opts, PurgeNoteAsset, in); err != nil {
		return fmt.Errorf("start purge workflow: %w", err)
	}
	return nil
}
