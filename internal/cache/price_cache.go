package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PriceCache holds recently scraped store prices so repeated lookups within
// the TTL do not re-hit the external source. Only real fetch results are
// cached; synthetic fallback prices are not.
type PriceCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewPriceCache creates a PriceCache on top of a Redis client.
func NewPriceCache(redis *RedisClient, ttl time.Duration) *PriceCache {
	return &PriceCache{redis: redis, ttl: ttl}
}

// key: price:{store}:{lowercased product name}
func (c *PriceCache) key(store, productName string) string {
	return fmt.Sprintf("price:%s:%s", strings.ToLower(store), strings.ToLower(productName))
}

// Get returns a cached price if present. A miss or a Redis error both read as
// "not cached" so the oracle simply fetches through.
func (c *PriceCache) Get(ctx context.Context, store, productName string) (float64, bool) {
	raw, err := c.redis.Get(ctx, c.key(store, productName))
	if err != nil {
		return 0, false
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// Set stores a fetched price with the configured TTL.
func (c *PriceCache) Set(ctx context.Context, store, productName string, price float64) error {
	return c.redis.Set(ctx, c.key(store, productName), strconv.FormatFloat(price, 'f', 2, 64), c.ttl)
}
