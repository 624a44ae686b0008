package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wallet-settlement/internal/core/domain"
	"wallet-settlement/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

const idempotencyPrefix = "settle:idem:"

var _ ports.IdempotencyCache = (*IdempotencyCache)(nil)

// IdempotencyCache stores settled payments as JSON under "<payer>:<key>".
// PostgreSQL stays authoritative; entries only save a round trip on replay.
type IdempotencyCache struct {
	client goredis.UniversalClient
}

func NewIdempotencyCache(client goredis.UniversalClient) *IdempotencyCache {
	return &IdempotencyCache{client: client}
}

// Get returns the payment cached under key, or nil on a miss. An entry that
// no longer decodes is dropped and reported as an error.
func (c *IdempotencyCache) Get(ctx context.Context, key string) (*domain.Payment, error) {
	raw, err := c.client.Get(ctx, idempotencyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis idempotency get: %w", err)
	}

	var payment domain.Payment
	if err := json.Unmarshal(raw, &payment); err != nil {
		_ = c.client.Del(ctx, idempotencyPrefix+key).Err()
		return nil, fmt.Errorf("decode cached payment %q: %w", key, err)
	}
	return &payment, nil
}

func (c *IdempotencyCache) Set(ctx context.Context, key string, payment *domain.Payment, ttl time.Duration) error {
	raw, err := json.Marshal(payment)
	if err != nil {
		return fmt.Errorf("encode payment %d: %w", payment.ID, err)
	}
	if err := c.client.Set(ctx, idempotencyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis idempotency set: %w", err)
	}
	return nil
}
