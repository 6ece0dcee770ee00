// Package storetest provides contract tests for [certs.Store]
// implementations.
package storetest

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/imamik/estopo/internal/certs"
)

// Factory creates a fresh [certs.Store] for each test invocation.
type Factory func(t *testing.T) certs.Store

// Run exercises the [certs.Store] contract.
func Run(t *testing.T, factory Factory) {
	t.Run("LoadNotFound", func(t *testing.T) {
		store := factory(t)
		_, err := store.Load(context.Background(), "missing")
		if !errors.Is(err, certs.ErrNotFound) {
			t.Fatalf("Load: got %v, want ErrNotFound", err)
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()
		data := []byte("identity: logs\ngeneration: 1\n")

		if err := store.Save(ctx, "logs", data); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := store.Load(ctx, "logs")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("Load = %q, want %q", got, data)
		}
	})

	t.Run("SaveIsWriteOnce", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()

		if err := store.Save(ctx, "logs", []byte("first")); err != nil {
			t.Fatalf("first Save: %v", err)
		}
		err := store.Save(ctx, "logs", []byte("second"))
		if !errors.Is(err, certs.ErrAlreadyExists) {
			t.Fatalf("second Save: got %v, want ErrAlreadyExists", err)
		}

		got, err := store.Load(ctx, "logs")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if string(got) != "first" {
			t.Errorf("Load = %q, want first write to survive", got)
		}
	})

	t.Run("ReplaceOverwrites", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()

		if err := store.Save(ctx, "logs", []byte("generation: 1")); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := store.Replace(ctx, "logs", []byte("generation: 2")); err != nil {
			t.Fatalf("Replace: %v", err)
		}
		got, err := store.Load(ctx, "logs")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if string(got) != "generation: 2" {
			t.Errorf("Load = %q, want replaced bundle", got)
		}
	})

	t.Run("ReplaceCreatesMissing", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()

		if err := store.Replace(ctx, "logs", []byte("fresh")); err != nil {
			t.Fatalf("Replace: %v", err)
		}
		got, err := store.Load(ctx, "logs")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if string(got) != "fresh" {
			t.Errorf("Load = %q, want fresh", got)
		}
	})

	t.Run("IdentitiesAreIndependent", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()

		if err := store.Save(ctx, "logs", []byte("a")); err != nil {
			t.Fatalf("Save logs: %v", err)
		}
		if err := store.Save(ctx, "metrics", []byte("b")); err != nil {
			t.Fatalf("Save metrics: %v", err)
		}
		got, err := store.Load(ctx, "metrics")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if string(got) != "b" {
			t.Errorf("Load = %q, want b", got)
		}
	})

	t.Run("ConcurrentSaveHasOneWinner", func(t *testing.T) {
		store := factory(t)
		ctx := context.Background()

		const writers = 8
		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := store.Save(ctx, "logs", []byte{byte('a' + i)})
				switch {
				case err == nil:
					wins.Add(1)
				case !errors.Is(err, certs.ErrAlreadyExists):
					t.Errorf("Save: unexpected error %v", err)
				}
			}()
		}
		wg.Wait()

		if n := wins.Load(); n != 1 {
			t.Fatalf("got %d successful saves, want exactly 1", n)
		}
	})
}
