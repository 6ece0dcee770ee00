package certs

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Store persists encoded bundles keyed by cluster identity.
//
// Load returns ErrNotFound when nothing is stored. Save is write-once and
// returns ErrAlreadyExists when a bundle is already present. Replace
// overwrites unconditionally and is only used for rotation and for adding
// leaves to an existing bundle.
type Store interface {
	Load(ctx context.Context, identity string) ([]byte, error)
	Save(ctx context.Context, identity string, data []byte) error
	Replace(ctx context.Context, identity string, data []byte) error
}

// overlayStore reads through to base and keeps every write in memory.
type overlayStore struct {
	base  Store
	mu    sync.Mutex
	local map[string][]byte
}

func newOverlayStore(base Store) *overlayStore {
	return &overlayStore{base: base, local: make(map[string][]byte)}
}

func (s *overlayStore) Load(ctx context.Context, identity string) ([]byte, error) {
	s.mu.Lock()
	data, ok := s.local[identity]
	s.mu.Unlock()
	if ok {
		return append([]byte(nil), data...), nil
	}
	return s.base.Load(ctx, identity)
}

func (s *overlayStore) Save(ctx context.Context, identity string, data []byte) error {
	_, err := s.Load(ctx, identity)
	switch {
	case err == nil:
		return fmt.Errorf("bundle %q: %w", identity, ErrAlreadyExists)
	case !errors.Is(err, ErrNotFound):
		return err
	}
	return s.Replace(ctx, identity, data)
}

func (s *overlayStore) Replace(_ context.Context, identity string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local[identity] = append([]byte(nil), data...)
	return nil
}
