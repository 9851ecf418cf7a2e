package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const (
	pendingMarker = "pending"
	pendingTTL    = 2 * time.Minute
	completedTTL  = 24 * time.Hour
)

// Keys tracks idempotency keys for checkout.
type Keys interface {
	// Begin claims key for customerID. When the key already belongs to a
	// finished checkout it returns that order id and started=false. A key
	// claimed by a checkout still in flight yields domain.ErrCheckoutInProgress.
	Begin(ctx context.Context, customerID, key string) (orderID string, started bool, err error)
	Complete(ctx context.Context, customerID, key, orderID string) error
	// Abandon releases a claim so a failed checkout can be retried.
	Abandon(ctx context.Context, customerID, key string) error
}

// RedisKeys stores keys in Redis. An in-flight claim expires after
// pendingTTL so a crashed request cannot hold a key forever.
type RedisKeys struct {
	client redis.Cmdable
}

func NewRedisKeys(client redis.Cmdable) *RedisKeys {
	return &RedisKeys{client: client}
}

func (k *RedisKeys) Begin(ctx context.Context, customerID, key string) (string, bool, error) {
	redisKey := idempotencyKey(customerID, key)

	// A completed key can expire between SETNX and GET; one retry covers it.
	for range 2 {
		claimed, err := k.client.SetNX(ctx, redisKey, pendingMarker, pendingTTL).Result()
		if err != nil {
			return "", false, fmt.Errorf("redis setnx failed: %w", err)
		}
		if claimed {
			return "", true, nil
		}

		value, err := k.client.Get(ctx, redisKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("redis get failed: %w", err)
		}
		if value == pendingMarker {
			return "", false, domain.ErrCheckoutInProgress
		}
		return value, false, nil
	}

	return "", false, domain.ErrCheckoutInProgress
}

func (k *RedisKeys) Complete(ctx context.Context, customerID, key, orderID string) error {
	if err := k.client.Set(ctx, idempotencyKey(customerID, key), orderID, completedTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (k *RedisKeys) Abandon(ctx context.Context, customerID, key string) error {
	if err := k.client.Del(ctx, idempotencyKey(customerID, key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func idempotencyKey(customerID, key string) string {
	return fmt.Sprintf("checkout:idempotency:%s:%s", customerID, key)
}
