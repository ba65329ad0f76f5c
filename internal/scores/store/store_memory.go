package store

import (
	"context"
	"maps"
	"sync"
	"time"

	"finwell/internal/ledger"
	"finwell/internal/scores"
	id "finwell/pkg/domain"
	"finwell/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	scores map[id.Identity]*scores.WellnessScore
}

func NewInMemory() *InMemory {
	return &InMemory{scores: make(map[id.Identity]*scores.WellnessScore)}
}

func (s *InMemory) Submit(_ context.Context, sub scores.Submission, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[sub.Owner] = &scores.WellnessScore{
		Owner:        sub.Owner,
		Financial:    sub.Financial,
		Risk:         sub.Risk,
		Improvement:  sub.Improvement,
		SourceRecord: sub.SourceRecord,
		CalculatedAt: now,
		Revealed:     map[ledger.Field]int64{},
	}
	return nil
}

func (s *InMemory) HasScore(_ context.Context, owner id.Identity) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scores[owner].Present(), nil
}

func (s *InMemory) Get(_ context.Context, owner id.Identity) (*scores.WellnessScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.scores[owner]
	if !ok || !score.Present() {
		return nil, sentinel.ErrNotFound
	}
	cp := *score
	cp.Revealed = maps.Clone(score.Revealed)
	return &cp, nil
}

// RecordReveal stores value for field only while the field still holds handle.
func (s *InMemory) RecordReveal(_ context.Context, owner id.Identity, field ledger.Field, handle id.Handle, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	score, ok := s.scores[owner]
	if !ok || !score.Present() {
		return sentinel.ErrNotFound
	}
	if current, ok := score.Handle(field); !ok || current != handle {
		return sentinel.ErrInvalidState
	}
	score.Revealed[field] = value
	return nil
}
