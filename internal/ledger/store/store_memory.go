package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"finwell/internal/ledger"
	id "finwell/pkg/domain"
	"finwell/pkg/platform/sentinel"
)

// InMemory keeps live records in a map and remembers retired ids.
type InMemory struct {
	mu      sync.Mutex
	live    map[id.RequestID]ledger.Record
	retired map[id.RequestID]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{
		live:    make(map[id.RequestID]ledger.Record),
		retired: make(map[id.RequestID]struct{}),
	}
}

func (s *InMemory) Insert(_ context.Context, rec ledger.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live[rec.RequestID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if _, ok := s.retired[rec.RequestID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.live[rec.RequestID] = rec
	return nil
}

func (s *InMemory) Get(_ context.Context, requestID id.RequestID) (*ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.live[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

func (s *InMemory) Retire(_ context.Context, requestID id.RequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live[requestID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.live, requestID)
	s.retired[requestID] = struct{}{}
	return nil
}

func (s *InMemory) Pending(_ context.Context) ([]ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.Record, 0, len(s.live))
	for _, rec := range s.live {
		out = append(out, rec)
	}
	sortByRequestID(out)
	return out, nil
}

func (s *InMemory) RetireBefore(_ context.Context, cutoff time.Time) ([]ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Record
	for requestID, rec := range s.live {
		if rec.RegisteredAt.Before(cutoff) {
			delete(s.live, requestID)
			s.retired[requestID] = struct{}{}
			out = append(out, rec)
		}
	}
	sortByRequestID(out)
	return out, nil
}

func sortByRequestID(recs []ledger.Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].RequestID < recs[j].RequestID })
}
