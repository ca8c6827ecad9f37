package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore persists records in an embedded BadgerDB, relying on entry TTLs
// for expiry. Useful for single-node deployments without Redis.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(path string) (*BadgerStore, error) {
	const op = "session.NewBadgerStore"

	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) set(key string, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), []byte(time.Now().UTC().Format(time.RFC3339))).
			WithTTL(retention(ttl))
		return txn.SetEntry(entry)
	})
}

func (s *BadgerStore) exists(key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (s *BadgerStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	const op = "session.BadgerStore.Revoke"

	if err := s.set(revokedKey(token), ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *BadgerStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	const op = "session.BadgerStore.IsRevoked"

	ok, err := s.exists(revokedKey(token))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return ok, nil
}

func (s *BadgerStore) OpenSession(ctx context.Context, email string, ttl time.Duration) error {
	const op = "session.BadgerStore.OpenSession"

	if err := s.set(markerKey(email), ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *BadgerStore) CloseSession(ctx context.Context, email string) (bool, error) {
	const op = "session.BadgerStore.CloseSession"

	var existed bool
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(markerKey(email))

		_, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		existed = true
		return txn.Delete(key)
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return existed, nil
}

func (s *BadgerStore) HasSession(ctx context.Context, email string) (bool, error) {
	const op = "session.BadgerStore.HasSession"

	ok, err := s.exists(markerKey(email))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return ok, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
