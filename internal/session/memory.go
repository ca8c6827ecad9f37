package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. Entries are lost on restart,
// so it is meant for local runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	markers map[string]time.Time
	closed  bool
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		revoked: make(map[string]time.Time),
		markers: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.revoked[token] = s.now().Add(retention(ttl))
	s.pruneLocked()

	return nil
}

func (s *MemoryStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}

	expires, ok := s.revoked[token]
	if !ok {
		return false, nil
	}

	return s.now().Before(expires), nil
}

func (s *MemoryStore) OpenSession(ctx context.Context, email string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.markers[email] = s.now().Add(retention(ttl))

	return nil
}

func (s *MemoryStore) CloseSession(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}

	expires, ok := s.markers[email]
	delete(s.markers, email)

	return ok && s.now().Before(expires), nil
}

func (s *MemoryStore) HasSession(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}

	expires, ok := s.markers[email]

	return ok && s.now().Before(expires), nil
}

// pruneLocked drops expired revocations. Caller holds s.mu.
func (s *MemoryStore) pruneLocked() {
	now := s.now()
	for token, expires := range s.revoked {
		if !now.Before(expires) {
			delete(s.revoked, token)
		}
	}
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}
