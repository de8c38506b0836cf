package usecase

import (
	"context"
	"time"

	"banking-service/internal/domain"

	"github.com/google/uuid"
)

// EventPublisher receives committed transactions. Publishing is best effort and never
// changes the outcome of the operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, evt *domain.TransactionEvent) error
}

// Cache is a namespaced string cache. Any Get error is treated as a miss.
type Cache interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, namespace, key string) error
}

const (
	accountsCacheNamespace = "accounts"
	accountsCacheAllKey    = "all"
	accountsCacheGenKey    = "generation"
	accountsCacheTTL       = 5 * time.Minute
)

// accountListKey is the list entry for the current generation. A list read before an
// invalidation lands under the old generation and is never served.
func accountListKey(ctx context.Context, c Cache) string {
	gen, err := c.Get(ctx, accountsCacheNamespace, accountsCacheGenKey)
	if err != nil || gen == "" {
		gen = "0"
	}
	return accountsCacheAllKey + ":" + gen
}

func invalidateAccountList(ctx context.Context, c Cache) error {
	if c == nil {
		return nil
	}
	return c.Set(ctx, accountsCacheNamespace, accountsCacheGenKey, uuid.NewString(), 0)
}
