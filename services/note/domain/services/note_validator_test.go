package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/ghuser/notekeeper/services/note/domain/models"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   models.NoteName
		wantErr bool
	}{
		{"valid name", "Shopping list", false},
		{"valid with punctuation", "Todo #1: call Bob!", false},
		{"only whitespace", "   ", true},
		{"tab character (control)", "Name\tName", true},
		{"newline character (control)", "Name\nName", true},
		{"null byte (control)", "Name\x00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateName(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	if err := ValidateDescription("line one\nline two"); err != nil {
		t.Fatalf("multi-line description must be valid: %v", err)
	}
	if err := ValidateDescription(" \n\t "); err == nil {
		t.Fatal("expected error for whitespace-only description")
	}
}

func TestValidateImageKey(t *testing.T) {
	tests := []struct {
		name    string
		input   models.ImageKey
		wantErr bool
	}{
		{"empty", "", false},
		{"file name", "cat.png", false},
		{"nested key", "owner/cat.png", false},
		{"absolute", "/etc/passwd", true},
		{"parent traversal", "../cat.png", true},
		{"unclean", "a//b.png", true},
		{"url", "https://x/y.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateImageKey(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNote(t *testing.T) {
	valid := func() *models.Note {
		return &models.Note{ID: uuid.New(), OwnerID: uuid.New(), Name: "A", Description: "B"}
	}

	t.Run("nil note returns error", func(t *testing.T) {
		if err := ValidateNote(nil); err == nil {
			t.Fatal("expected error for nil note")
		}
	})

	t.Run("valid note returns nil", func(t *testing.T) {
		if err := ValidateNote(valid()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("zero OwnerID returns error", func(t *testing.T) {
		n := valid()
		n.OwnerID = uuid.Nil
		if err := ValidateNote(n); err == nil {
			t.Fatal("expected error for zero OwnerID")
		}
	})

	t.Run("zero ID returns error", func(t *testing.T) {
		n := valid()
		n.ID = uuid.Nil
		if err := ValidateNote(n); err == nil {
			t.Fatal("expected error for zero ID")
		}
	})

	t.Run("whitespace description propagates error", func(t *testing.T) {
		n := valid()
		n.Description = "  "
		if err := ValidateNote(n); err == nil {
			t.Fatal("expected error for whitespace description")
		}
	})

	t.Run("bad image key propagates error", func(t *testing.T) {
		n := valid()
		n.ImageKey = "../x.png"
		if err := ValidateNote(n); err == nil {
			t.Fatal("expected error for traversal key")
		}
	})
}
