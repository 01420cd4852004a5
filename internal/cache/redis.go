package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/fjod/easycart/domain"
	"github.com/redis/go-redis/v9"
)

// invalidationHold is how long Set refuses to repopulate a cart after Delete. A reader that
// loaded the cart before a write and stores it after the write's Delete is turned away.
const invalidationHold = 5 * time.Second

// setUnlessInvalidated writes KEYS[1] unless the invalidation marker KEYS[2] is present.
var setUnlessInvalidated = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
		hold:    invalidationHold,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
	hold    time.Duration
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	key := cacheKey(userID)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err2 := json.Unmarshal(data, &cart); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err2)
	}

	return &cart, nil
}

// Set stores the cart with a TTL of baseTTL plus up to five minutes of jitter, so entries
// written together do not expire together. Within the hold after a Delete it stores nothing.
func (r *RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	key := cacheKey(userID)
	jsonCart, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	jitter := time.Duration(rand.IntN(5)) * time.Minute
	ttl := r.baseTTL + jitter
	keys := []string{key, invalidatedKey(userID)}
	if err := setUnlessInvalidated.Run(ctx, r.client, keys, jsonCart, ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, invalidatedKey(userID), 1, r.hold)
		pipe.Del(ctx, cacheKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

func invalidatedKey(userID string) string {
	return fmt.Sprintf("cart:%s:invalidated", userID)
}
