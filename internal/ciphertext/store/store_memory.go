package store

import (
	"context"
	"sync"

	"finwell/internal/ciphertext"
	id "finwell/pkg/domain"
	"finwell/pkg/platform/sentinel"
)

// InMemory keeps blobs in a map; used for tests and single-process runs.
type InMemory struct {
	mu    sync.RWMutex
	blobs map[id.Handle][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{blobs: make(map[id.Handle][]byte)}
}

func (s *InMemory) Put(_ context.Context, blob []byte) (id.Handle, error) {
	handle := ciphertext.HandleOf(blob)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[handle]; !ok {
		s.blobs[handle] = append([]byte(nil), blob...)
	}
	return handle, nil
}

func (s *InMemory) Get(_ context.Context, handle id.Handle) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[handle]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (s *InMemory) Has(_ context.Context, handle id.Handle) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[handle]
	return ok, nil
}
