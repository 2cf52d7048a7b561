package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces the inventory adjustment ledger in redis
const DefaultKeyPrefix = "supplier-service:inventory-adjustment:"

// RedisIdempotencyStore implements IdempotencyStore on redis so every
// instance of the service shares one ledger
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisIdempotencyStore wraps an existing client. The store owns the
// client afterwards and closes it on Close.
func NewRedisIdempotencyStore(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisIdempotencyStore{client: client, keyPrefix: keyPrefix}
}

// MarkProcessed sets the key with SET NX EX, so two instances racing on the
// same key see exactly one true
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, shared.NewDependencyUnavailableError("redis", fmt.Errorf("mark %s: %w", key, err))
	}
	return ok, nil
}

// IsProcessed reports whether the key exists
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, shared.NewDependencyUnavailableError("redis", fmt.Errorf("lookup %s: %w", key, err))
	}
	return n > 0, nil
}

// Close closes the redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
