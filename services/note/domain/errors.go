package domain

import "errors"

// Sentinel errors for the note domain. Use errors.Is() to check these.
var (
	// ErrNoteNotFound indicates the requested note does not exist.
	ErrNoteNotFound = errors.New("note not found")

	// ErrNoteAlreadyExists indicates a note with the same unique constraint already exists.
	ErrNoteAlreadyExists = errors.New("note already exists")

	// ErrInvalidNote indicates a note field violates domain constraints.
	ErrInvalidNote = errors.New("invalid note")

	// ErrAssetNotFound indicates no stored object exists under the requested image key.
	ErrAssetNotFound = errors.New("asset not found")
)
