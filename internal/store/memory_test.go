package store

import (
	"context"
	"errors"
	"testing"

	"github.com/lucaferrini/tpascore/internal/scoring"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	m := scoring.NewMatch("Ann", "Bob", scoring.Nine)
	if err := s.Save(ctx, m); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != m {
		t.Fatal("Get must return the saved instance")
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id error = %v", err)
	}

	if err := s.Delete(ctx, m.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatal("deleted match must be gone")
	}
	if err := s.Delete(ctx, m.ID); err != nil {
		t.Fatal("double delete must not error")
	}
}
