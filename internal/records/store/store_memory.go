package store

import (
	"context"
	"sync"
	"time"

	"finwell/internal/records"
	id "finwell/pkg/domain"
	"finwell/pkg/platform/sentinel"
)

// InMemory keeps records in a slice indexed by id-1. The mutex makes the
// reveal flip a compare-and-set.
type InMemory struct {
	mu       sync.RWMutex
	records  []records.EncryptedRecord
	revealed []records.RevealedRecord
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) AllocateAndStore(_ context.Context, owner id.Identity, income, expenses, savings id.Handle, now time.Time) (id.RecordID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recordID := id.RecordID(len(s.records) + 1)
	s.records = append(s.records, records.EncryptedRecord{
		ID:          recordID,
		Owner:       owner,
		Income:      income,
		Expenses:    expenses,
		Savings:     savings,
		SubmittedAt: now,
	})
	s.revealed = append(s.revealed, records.RevealedRecord{ID: recordID})
	return recordID, nil
}

func (s *InMemory) index(recordID id.RecordID) (int, bool) {
	if recordID == 0 || uint64(recordID) > uint64(len(s.records)) {
		return 0, false
	}
	return int(recordID) - 1, true
}

func (s *InMemory) Get(_ context.Context, recordID id.RecordID) (*records.EncryptedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index(recordID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rec := s.records[i]
	return &rec, nil
}

func (s *InMemory) GetRevealed(_ context.Context, recordID id.RecordID) (*records.RevealedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index(recordID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rev := s.revealed[i]
	return &rev, nil
}

func (s *InMemory) Reveal(_ context.Context, recordID id.RecordID, figures records.Figures, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index(recordID)
	if !ok {
		return sentinel.ErrNotFound
	}
	if s.revealed[i].Revealed {
		return sentinel.ErrAlreadyUsed
	}
	at := now
	s.revealed[i] = records.RevealedRecord{
		ID:         recordID,
		Income:     figures.Income,
		Expenses:   figures.Expenses,
		Savings:    figures.Savings,
		Revealed:   true,
		RevealedAt: &at,
	}
	return nil
}

func (s *InMemory) ListByOwner(_ context.Context, owner id.Identity) ([]*records.EncryptedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*records.EncryptedRecord
	for i := range s.records {
		if s.records[i].Owner == owner {
			rec := s.records[i]
			out = append(out, &rec)
		}
	}
	return out, nil
}

func (s *InMemory) RevealedMany(_ context.Context, ids []id.RecordID) (map[id.RecordID]*records.RevealedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.RecordID]*records.RevealedRecord, len(ids))
	for _, recordID := range ids {
		if i, ok := s.index(recordID); ok {
			rev := s.revealed[i]
			out[recordID] = &rev
		}
	}
	return out, nil
}
