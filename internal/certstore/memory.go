package certstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/imamik/estopo/internal/certs"
)

// MemoryStore keeps bundles in process memory. Bundles do not outlive the
// process, so it is only used in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	bundles map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bundles: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, identity string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.bundles[identity]
	if !ok {
		return nil, fmt.Errorf("bundle %q: %w", identity, certs.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Save(_ context.Context, identity string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bundles[identity]; ok {
		return fmt.Errorf("bundle %q: %w", identity, certs.ErrAlreadyExists)
	}
	s.bundles[identity] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, identity string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[identity] = append([]byte(nil), data...)
	return nil
}
