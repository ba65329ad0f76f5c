//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"finwell/internal/records"
	"finwell/internal/records/store"
	id "finwell/pkg/domain"
	"finwell/pkg/platform/sentinel"
	"finwell/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "revealed_records", "encrypted_records")
	s.Require().NoError(err)
}

var owner = id.Identity{0x01, 0x02}

func (s *PostgresStoreSuite) allocate() id.RecordID {
	recordID, err := s.store.AllocateAndStore(context.Background(), owner, id.Handle{1}, id.Handle{2}, id.Handle{3}, time.Now().UTC())
	s.Require().NoError(err)
	return recordID
}

func (s *PostgresStoreSuite) TestSequentialIDsStartAtOne() {
	s.Equal(id.RecordID(1), s.allocate())
	s.Equal(id.RecordID(2), s.allocate())
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	recordID := s.allocate()

	rec, err := s.store.Get(ctx, recordID)
	s.Require().NoError(err)
	s.Equal(owner, rec.Owner)
	s.Equal(id.Handle{2}, rec.Expenses)

	rev, err := s.store.GetRevealed(ctx, recordID)
	s.Require().NoError(err)
	s.False(rev.Revealed)
	s.Nil(rev.RevealedAt)

	_, err = s.store.Get(ctx, 999)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

// TestConcurrentRevealHasOneWinner verifies the conditional UPDATE lets
// exactly one completion through.
func (s *PostgresStoreSuite) TestConcurrentRevealHasOneWinner() {
	ctx := context.Background()
	recordID := s.allocate()

	const goroutines = 20
	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(v int64) {
			defer wg.Done()
			err := s.store.Reveal(ctx, recordID, records.Figures{Income: v, Expenses: 50, Savings: 20}, time.Now())
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				conflicts.Add(1)
			}
		}(int64(i))
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())

	err := s.store.Reveal(ctx, 12345, records.Figures{}, time.Now())
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresStoreSuite) TestListByOwnerAndRevealedMany() {
	ctx := context.Background()
	first := s.allocate()
	second := s.allocate()
	s.Require().NoError(s.store.Reveal(ctx, second, records.Figures{Income: 1}, time.Now()))

	recs, err := s.store.ListByOwner(ctx, owner)
	s.Require().NoError(err)
	s.Len(recs, 2)

	revealed, err := s.store.RevealedMany(ctx, []id.RecordID{first, second, 77})
	s.Require().NoError(err)
	s.Len(revealed, 2)
	s.True(revealed[second].Revealed)
	s.Equal(int64(1), revealed[second].Income)
}
