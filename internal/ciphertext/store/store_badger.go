package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"finwell/internal/ciphertext"
	id "finwell/pkg/domain"
	"finwell/pkg/platform/sentinel"
)

var keyPrefix = []byte("ct/")

// BadgerStore persists blobs in an embedded Badger key-value store.
// Blobs are content addressed, so writes are idempotent.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a store under dir. An empty dir runs Badger
// fully in memory.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadger wraps an already opened database.
func NewBadger(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func key(handle id.Handle) []byte {
	return append(append([]byte(nil), keyPrefix...), handle.Bytes()...)
}

func (s *BadgerStore) Put(_ context.Context, blob []byte) (id.Handle, error) {
	handle := ciphertext.HandleOf(blob)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(handle), blob)
	})
	if err != nil {
		return id.Handle{}, fmt.Errorf("put ciphertext: %w", err)
	}
	return handle, nil
}

func (s *BadgerStore) Get(_ context.Context, handle id.Handle) ([]byte, error) {
	var blob []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(handle))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ciphertext: %w", err)
	}
	return blob, nil
}

func (s *BadgerStore) Has(_ context.Context, handle id.Handle) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(handle))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check ciphertext: %w", err)
	}
	return true, nil
}

// RunGC reclaims value log space; safe to call periodically.
func (s *BadgerStore) RunGC() error {
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
		return nil
	}
	return err
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var (
	_ ciphertext.Store = (*BadgerStore)(nil)
	_ ciphertext.Store = (*InMemory)(nil)
)
