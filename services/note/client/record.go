// Package client keeps an in-memory list of notes consistent with the notes
// API across create, update and delete. Presentation layers (the notes CLI)
// drive a Controller and render from its state.
package client

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrTransport reports that the record service could not be reached or failed
// with a server error. Check with errors.Is.
var ErrTransport = errors.New("record service unavailable")

// ErrInvalidAsset is returned by CreateWithAsset when no image key can be
// derived from the asset name.
var ErrInvalidAsset = errors.New("invalid asset")

// ErrNoAssetStorage is returned by CreateWithAsset on a controller built
// without asset storage.
var ErrNoAssetStorage = errors.New("asset storage not configured")

// Record is the client view of a note.
type Record struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageKey    string `json:"image_key,omitempty"`

	// ImageURL is filled by Load from ImageKey. Never sent to the record service.
	ImageURL string `json:"-"`
}

// Fields returns the writable field set of r.
func (r Record) Fields() Fields {
	return Fields{Name: r.Name, Description: r.Description, ImageKey: r.ImageKey}
}

// Fields is the payload of a create or update call.
type Fields struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageKey    string `json:"image_key,omitempty"`
}

// Field names accepted by Controller.SetField.
type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldImageKey    Field = "image_key"
)

// RecordService is the remote record store. Implementations wrap failures so
// that errors.Is matches ErrTransport, domain.ErrInvalidNote or
// domain.ErrNoteNotFound.
type RecordService interface {
	List(ctx context.Context) ([]Record, error)
	Create(ctx context.Context, fields Fields) (Record, error)
	Update(ctx context.Context, id string, fields Fields) error
	Delete(ctx context.Context, id string) error
}

// AssetStorage stores image bytes and resolves keys to fetchable URLs.
// ResolveURL fails with domain.ErrAssetNotFound while no object exists under key.
type AssetStorage interface {
	ResolveURL(ctx context.Context, key string) (string, error)
	Upload(ctx context.Context, key string, body io.Reader, size int64) error
}

// Asset is an image attached to a new record. Size may be -1 when unknown.
type Asset struct {
	Name string
	Body io.Reader
	Size int64
}

// AssetKey derives the storage key for an asset: the base name of its path.
// Returns "" when the name has no usable base.
func AssetKey(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}
