package persistence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRevocationStore keeps revoked tokens in a Redis set so every replica
// sees the same revocations.
type RedisRevocationStore struct {
	client *redis.Client
	key    string
}

// NewRedisRevocationStore builds a store writing to the set named key.
func NewRedisRevocationStore(r *Redis, key string) *RedisRevocationStore {
	return &RedisRevocationStore{client: r.Client, key: key}
}

// Revoke adds token to the set. Re-adding is a no-op.
func (s *RedisRevocationStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.SAdd(ctx, s.key, token).Err(); err != nil {
		return fmt.Errorf("redis revoke: %w", err)
	}
	return nil
}

// IsRevoked reports set membership.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	revoked, err := s.client.SIsMember(ctx, s.key, token).Result()
	if err != nil {
		return false, fmt.Errorf("redis revocation lookup: %w", err)
	}
	return revoked, nil
}
