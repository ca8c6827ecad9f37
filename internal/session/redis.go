package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps revoked tokens and session markers as expiring keys, so
// revocations disappear once the token could no longer verify anyway.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	const op = "session.NewRedisStore"

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisStore{client: client}, nil
}

func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	const op = "session.RedisStore.Revoke"

	if err := s.client.Set(ctx, revokedKey(token), "1", retention(ttl)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *RedisStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	const op = "session.RedisStore.IsRevoked"

	n, err := s.client.Exists(ctx, revokedKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

func (s *RedisStore) OpenSession(ctx context.Context, email string, ttl time.Duration) error {
	const op = "session.RedisStore.OpenSession"

	opened := time.Now().UTC().Format(time.RFC3339)
	if err := s.client.Set(ctx, markerKey(email), opened, retention(ttl)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *RedisStore) CloseSession(ctx context.Context, email string) (bool, error) {
	const op = "session.RedisStore.CloseSession"

	n, err := s.client.Del(ctx, markerKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

func (s *RedisStore) HasSession(ctx context.Context, email string) (bool, error) {
	const op = "session.RedisStore.HasSession"

	n, err := s.client.Exists(ctx, markerKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
