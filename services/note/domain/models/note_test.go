package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewNote(t *testing.T) {
	ownerID := uuid.New()

	t.Run("populates fields", func(t *testing.T) {
		before := time.Now().UTC().Truncate(time.Microsecond)
		n, err := NewNote(ownerID, "A", "B", "a.png")
		after := time.Now().UTC()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.ID == uuid.Nil {
			t.Fatal("expected non-zero ID")
		}
		if n.OwnerID != ownerID {
			t.Fatalf("expected OwnerID %v, got %v", ownerID, n.OwnerID)
		}
		if n.Name != "A" || n.Description != "B" || n.ImageKey != "a.png" {
			t.Fatalf("unexpected fields: %+v", n)
		}
		if n.CreatedAt.Before(before) || n.CreatedAt.After(after) {
			t.Fatalf("CreatedAt %v not between %v and %v", n.CreatedAt, before, after)
		}
		if !n.UpdatedAt.Equal(n.CreatedAt) {
			t.Fatal("UpdatedAt must equal CreatedAt for a new note")
		}
		if n.CreatedAt.Nanosecond()%1000 != 0 {
			t.Fatalf("timestamps must be stored at microsecond precision, got %v", n.CreatedAt)
		}
	})

	t.Run("generates unique IDs", func(t *testing.T) {
		n1, _ := NewNote(ownerID, "A", "B", "")
		n2, _ := NewNote(ownerID, "A", "B", "")
		if n1.ID == n2.ID {
			t.Fatal("expected unique IDs")
		}
	})
}

func TestNote_Overwrite(t *testing.T) {
	n, _ := NewNote(uuid.New(), "A", "B", "a.png")
	id, owner, created := n.ID, n.OwnerID, n.CreatedAt

	n.Overwrite("C", "D", "")

	if n.Name != "C" || n.Description != "D" || !n.ImageKey.IsZero() {
		t.Fatalf("fields not overwritten: %+v", n)
	}
	if n.ID != id || n.OwnerID != owner || !n.CreatedAt.Equal(created) {
		t.Fatal("identity fields must not change")
	}
	if n.UpdatedAt.Before(created) {
		t.Fatal("UpdatedAt must not go backwards")
	}
}
