package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-settlement/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

var _ ports.CooldownStore = (*CooldownStore)(nil)

// CooldownStore implements ports.CooldownStore using Redis SET NX.
type CooldownStore struct {
	client goredis.UniversalClient
	prefix string
}

// NewCooldownStore creates a new Redis-backed cooldown store.
func NewCooldownStore(client goredis.UniversalClient) *CooldownStore {
	return &CooldownStore{
		client: client,
		prefix: "cooldown:",
	}
}

// Acquire atomically starts a cooldown for key if none is active.
// Returns true if the caller may proceed, false while a cooldown is running.
func (s *CooldownStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	result, err := s.client.SetArgs(ctx, s.prefix+key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis cooldown acquire: %w", err)
	}
	return result == "OK", nil
}

// Release ends a cooldown early, e.g. when the guarded action failed.
func (s *CooldownStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis cooldown release: %w", err)
	}
	return nil
}
