package models

import "fmt"

const (
	minNameLength        = 1
	maxNameLength        = 255
	minDescriptionLength = 1
	maxDescriptionLength = 4096
	maxImageKeyLength    = 512
)

// NoteName is a value object representing a valid note title.
// Encapsulates validation rules: 1 <= len(name) <= 255.
type NoteName string

// NewNoteName constructs a valid NoteName or returns an error if constraints are violated.
func NewNoteName(s string) (NoteName, error) {
	if len(s) < minNameLength {
		return "", fmt.Errorf("note name must be at least %d character", minNameLength)
	}
	if len(s) > maxNameLength {
		return "", fmt.Errorf("note name must not exceed %d characters", maxNameLength)
	}
	return NoteName(s), nil
}

// String returns the underlying string value.
func (n NoteName) String() string {
	return string(n)
}

// NoteDescription is the free-text body of a note: 1 <= len <= 4096.
type NoteDescription string

// NewNoteDescription constructs a valid NoteDescription.
func NewNoteDescription(s string) (NoteDescription, error) {
	if len(s) < minDescriptionLength {
		return "", fmt.Errorf("note description must be at least %d character", minDescriptionLength)
	}
	if len(s) > maxDescriptionLength {
		return "", fmt.Errorf("note description must not exceed %d characters", maxDescriptionLength)
	}
	return NoteDescription(s), nil
}

func (d NoteDescription) String() string {
	return string(d)
}

// ImageKey references an object in the asset store. Empty means no image.
// It is a storage key, never a URL.
type ImageKey string

// NewImageKey validates an optional object key.
func NewImageKey(s string) (ImageKey, error) {
	if len(s) > maxImageKeyLength {
		return "", fmt.Errorf("image key must not exceed %d characters", maxImageKeyLength)
	}
	return ImageKey(s), nil
}

func (k ImageKey) String() string {
	return string(k)
}

// IsZero reports whether no image is attached.
func (k ImageKey) IsZero() bool {
	return k == ""
}
