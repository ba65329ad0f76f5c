package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"finwell/internal/audit"
)

// InMemory keeps the trail in insertion order.
type InMemory struct {
	mu      sync.RWMutex
	entries []audit.Entry
	seen    map[uuid.UUID]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{seen: make(map[uuid.UUID]struct{})}
}

func (s *InMemory) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[entry.ID]; ok {
		return nil
	}
	s.seen[entry.ID] = struct{}{}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemory) List(_ context.Context, q audit.Query) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Entry
	for _, e := range s.entries {
		if matches(e, q) {
			out = append(out, e)
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out, nil
}

func matches(e audit.Entry, q audit.Query) bool {
	if !q.RecordID.IsNil() && e.Event.RecordID != q.RecordID {
		return false
	}
	if q.Owner != nil && (e.Event.Owner == nil || *e.Event.Owner != *q.Owner) {
		return false
	}
	return true
}
