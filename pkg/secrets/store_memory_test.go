package secrets

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("retrieve missing returns ErrNotFound", func(t *testing.T) {
		s := NewMemoryStore()
		_, err := s.Retrieve(ctx, "nope")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Retrieve() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("store then retrieve", func(t *testing.T) {
		s := NewMemoryStore()
		if err := s.Store("ref", []byte("hunter2")); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
		got, err := s.Retrieve(ctx, "ref")
		if err != nil {
			t.Fatalf("Retrieve() error = %v", err)
		}
		if string(got) != "hunter2" {
			t.Errorf("Retrieve() = %q, want %q", got, "hunter2")
		}
	})

	t.Run("retrieved copy is independent", func(t *testing.T) {
		s := NewMemoryStore()
		if err := s.Store("ref", []byte("abc")); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
		got, _ := s.Retrieve(ctx, "ref")
		got[0] = 'x'
		again, _ := s.Retrieve(ctx, "ref")
		if string(again) != "abc" {
			t.Errorf("stored secret mutated through retrieved copy: %q", again)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := NewMemoryStore()
		if err := s.Store("ref", []byte("abc")); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
		if err := s.Delete("ref"); err != nil {
			t.Errorf("Delete() error = %v", err)
		}
		if err := s.Delete("ref"); err != nil {
			t.Errorf("second Delete() error = %v", err)
		}
		if _, err := s.Retrieve(ctx, "ref"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Retrieve() after delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := NewMemoryStore()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := s.Retrieve(cctx, "ref"); !errors.Is(err, context.Canceled) {
			t.Errorf("Retrieve() error = %v, want context.Canceled", err)
		}
	})
}
