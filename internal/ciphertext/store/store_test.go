package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"finwell/internal/ciphertext"
	"finwell/internal/ciphertext/store"
	id "finwell/pkg/domain"
	"finwell/pkg/platform/sentinel"
)

// StoreSuite runs the same contract against every Store implementation.
type StoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) ciphertext.Store
	store    ciphertext.Store
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func(*testing.T) ciphertext.Store {
		return store.NewInMemory()
	}})
}

func TestBadgerStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func(t *testing.T) ciphertext.Store {
		s, err := store.OpenBadger("")
		if err != nil {
			t.Fatalf("open badger: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	}})
}

func (s *StoreSuite) SetupTest() {
	s.store = s.newStore(s.T())
}

func (s *StoreSuite) TestPutGet() {
	ctx := context.Background()
	blob := []byte{0x01, 0x02, 0x03}

	handle, err := s.store.Put(ctx, blob)
	s.Require().NoError(err)
	s.Equal(ciphertext.HandleOf(blob), handle)

	got, err := s.store.Get(ctx, handle)
	s.Require().NoError(err)
	s.Equal(blob, got)

	s.Run("returned bytes are a copy", func() {
		got[0] = 0xff
		again, err := s.store.Get(ctx, handle)
		s.Require().NoError(err)
		s.Equal(byte(0x01), again[0])
	})
}

func (s *StoreSuite) TestPutIsIdempotent() {
	ctx := context.Background()
	first, err := s.store.Put(ctx, []byte("same"))
	s.Require().NoError(err)
	second, err := s.store.Put(ctx, []byte("same"))
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *StoreSuite) TestMissingHandle() {
	ctx := context.Background()
	missing := id.Handle{0xde, 0xad}

	_, err := s.store.Get(ctx, missing)
	s.True(errors.Is(err, sentinel.ErrNotFound))

	ok, err := s.store.Has(ctx, missing)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *StoreSuite) TestHas() {
	ctx := context.Background()
	handle, err := s.store.Put(ctx, []byte("present"))
	s.Require().NoError(err)

	ok, err := s.store.Has(ctx, handle)
	s.Require().NoError(err)
	s.True(ok)
}
