package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores short-lived read models in redis under "<prefix>:<namespace>:<key>".
type Cache struct {
	rdb    redis.UniversalClient
	prefix string
}

func New(rdb redis.UniversalClient, prefix string) *Cache {
	return &Cache{rdb: rdb, prefix: strings.TrimSuffix(prefix, ":")}
}

func (c *Cache) key(namespace, k string) string {
	if c.prefix == "" {
		return namespace + ":" + k
	}
	return c.prefix + ":" + namespace + ":" + k
}

func (c *Cache) Set(ctx context.Context, namespace, k string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.key(namespace, k), value, ttl).Err()
}

// Get returns redis.Nil on a miss.
func (c *Cache) Get(ctx context.Context, namespace, k string) (string, error) {
	return c.rdb.Get(ctx, c.key(namespace, k)).Result()
}

func (c *Cache) Delete(ctx context.Context, namespace, k string) error {
	return c.rdb.Del(ctx, c.key(namespace, k)).Err()
}
