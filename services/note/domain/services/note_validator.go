// Package services contains stateless domain services for the note bounded context.
// Domain services enforce business rules that operate purely on domain types
// and have zero external dependencies beyond stdlib and the domain layer.
package services

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/ghuser/notekeeper/services/note/domain/models"
)

// ValidateName enforces business rules for NoteName beyond the length bounds
// enforced by the NoteName constructor.
//
// Business rules:
//   - Must not be only whitespace characters
//   - No control characters (Unicode category Cc)
func ValidateName(name models.NoteName) error {
	s := name.String()

	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("note name must not be only whitespace")
	}

	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("note name must not contain control characters")
		}
	}

	return nil
}

// ValidateDescription rejects whitespace-only bodies. Newlines and tabs are
// allowed since descriptions are rendered with wrapping preserved.
func ValidateDescription(desc models.NoteDescription) error {
	if strings.TrimSpace(desc.String()) == "" {
		return fmt.Errorf("note description must not be only whitespace")
	}
	return nil
}

// ValidateImageKey accepts an empty key or a clean relative object key.
func ValidateImageKey(key models.ImageKey) error {
	if key.IsZero() {
		return nil
	}
	s := key.String()
	if strings.HasPrefix(s, "/") || path.Clean(s) != s || strings.HasPrefix(s, "..") {
		return fmt.Errorf("image key %q must be a clean relative key", s)
	}
	if strings.Contains(s, "://") {
		return fmt.Errorf("image key must be a storage key, not a URL")
	}
	return nil
}

// ValidateNote performs cross-field validation on a fully-constructed Note
// aggregate before it is persisted.
func ValidateNote(note *models.Note) error {
	if note == nil {
		return fmt.Errorf("note cannot be nil")
	}

	if err := ValidateName(note.Name); err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}

	if err := ValidateDescription(note.Description); err != nil {
		return fmt.Errorf("invalid description: %w", err)
	}

	if err := ValidateImageKey(note.ImageKey); err != nil {
		return fmt.Errorf("invalid image key: %w", err)
	}

	if note.OwnerID == uuid.Nil {
		return fmt.Errorf("owner_id must be set")
	}

	if note.ID == uuid.Nil {
		return fmt.Errorf("id must be set")
	}

	return nil
}
