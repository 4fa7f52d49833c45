// Package redis provides a read-through cache in front of the lease
// repository. Routing consults the lease on every accepted message, so
// the hot path must not pay a database round trip per record; a short
// TTL keeps lease churn visible within seconds.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vasu241267/s-panel/internal/relay/domain"
	"github.com/vasu241267/s-panel/internal/relay/repository"
)

// noLeaseSentinel marks a cached negative lookup so unleased numbers
// do not hammer the database either.
const noLeaseSentinel = "none"

// CachedLeaseRepository decorates a LeaseRepository with Redis
// caching. Cache failures degrade to the inner repository and are
// logged at debug level; a lease lookup never fails because the cache
// is down.
type CachedLeaseRepository struct {
	inner  repository.LeaseRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedLeaseRepository wraps inner with a TTL cache.
func NewCachedLeaseRepository(inner repository.LeaseRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedLeaseRepository {
	return &CachedLeaseRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "lease_cache"),
	}
}

func leaseKey(number string) string {
	return "relay:lease:" + number
}

// CurrentLeaseholder implements repository.LeaseRepository.
func (c *CachedLeaseRepository) CurrentLeaseholder(ctx context.Context, number string) (*domain.LeaseAssignment, error) {
	key := leaseKey(number)

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if cached == noLeaseSentinel {
			return nil, nil
		}
		var lease domain.LeaseAssignment
		if jsonErr := json.Unmarshal([]byte(cached), &lease); jsonErr == nil {
			return &lease, nil
		}
		// Corrupt entry: fall through to the source of truth.
		c.logger.DebugContext(ctx, "discarding corrupt cache entry", "key", key)
	case errors.Is(err, redis.Nil):
		// Miss.
	default:
		c.logger.DebugContext(ctx, "lease cache read failed", "error", err)
	}

	lease, err := c.inner.CurrentLeaseholder(ctx, number)
	if err != nil {
		return nil, err
	}

	value := noLeaseSentinel
	if lease != nil {
		if encoded, jsonErr := json.Marshal(lease); jsonErr == nil {
			value = string(encoded)
		}
	}
	if setErr := c.client.Set(ctx, key, value, c.ttl).Err(); setErr != nil {
		c.logger.DebugContext(ctx, "lease cache write failed", "error", setErr)
	}
	return lease, nil
}
