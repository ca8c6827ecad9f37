// Package session keeps the two records that outlive a token's signature
// check: the revocation ledger of logged-out tokens and the registry of
// active session markers per account email.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

var ErrClosed = errors.New("session store closed")

// Ledger records revoked tokens until their natural expiry.
type Ledger interface {
	// Revoke stores token; revoking the same token twice is not an error.
	// A non-positive ttl keeps the record until the backend's default retention.
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Registry tracks one active session marker per account email.
type Registry interface {
	OpenSession(ctx context.Context, email string, ttl time.Duration) error
	// CloseSession removes the marker and reports whether one existed.
	CloseSession(ctx context.Context, email string) (bool, error)
	HasSession(ctx context.Context, email string) (bool, error)
}

// Store bundles both records on one backend.
type Store interface {
	Ledger
	Registry
	io.Closer
}

// defaultRetention bounds records stored without a ttl.
const defaultRetention = 7 * 24 * time.Hour

func retention(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return defaultRetention
	}

	return ttl
}

func revokedKey(token string) string {
	return "revoked:token:" + token
}

func markerKey(email string) string {
	return "session:active:" + email
}

type Options struct {
	Backend    string
	BadgerPath string
	RedisAddr  string
	RedisPass  string
	RedisDB    int
}

// New builds the store selected by opts.Backend.
func New(ctx context.Context, opts Options) (Store, error) {
	const op = "session.New"

	switch opts.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendRedis:
		st, err := NewRedisStore(ctx, opts.RedisAddr, opts.RedisPass, opts.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return st, nil
	case BackendBadger:
		st, err := NewBadgerStore(opts.BadgerPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%s: unknown backend %q", op, opts.Backend)
	}
}
