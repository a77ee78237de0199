package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultTTL is how long cached responses live.
const DefaultTTL = 1800 * time.Second

const keyPrefix = "rag:response:"

// ResponseCache caches completed query responses keyed by a fingerprint of
// the normalized query text. When disabled (Redis unreachable or caching
// turned off) every operation is a no-op: the cache never fails a request.
//
// Two concurrent requests with the same fingerprint may both miss and both
// compute; the later Set simply overwrites. That duplication is accepted,
// there is no per-fingerprint locking.
type ResponseCache struct {
	redis   *RedisClient
	ttl     time.Duration
	enabled bool
	logger  *logrus.Logger
}

// NewResponseCache creates a response cache. A nil Redis client disables
// caching.
func NewResponseCache(client *RedisClient, ttl time.Duration, logger *logrus.Logger) *ResponseCache {
	if logger == nil {
		logger = logrus.New()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	enabled := client != nil
	if enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := client.Ping(ctx); err != nil {
			logger.WithError(err).Warn("Redis unreachable, response cache disabled")
			enabled = false
		}
	}

	return &ResponseCache{
		redis:   client,
		ttl:     ttl,
		enabled: enabled,
		logger:  logger,
	}
}

// Enabled reports whether the cache is active.
func (c *ResponseCache) Enabled() bool {
	return c != nil && c.enabled
}

// Fingerprint derives the cache key from the query text: md5 of the
// trimmed, lowercased text. Queries differing only in surrounding
// whitespace or letter case share an entry.
func Fingerprint(queryText string) string {
	normalized := strings.ToLower(strings.TrimSpace(queryText))
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Get looks up a cached response for the query text, unmarshalling it into
// dest. Returns false on a miss or when the cache is disabled. Lookup
// errors are logged and reported as misses.
func (c *ResponseCache) Get(ctx context.Context, queryText string, dest interface{}) bool {
	if !c.Enabled() {
		return false
	}

	key := keyPrefix + Fingerprint(queryText)
	err := c.redis.Get(ctx, key, dest)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("key", key).Warn("Response cache lookup failed")
		}
		return false
	}
	return true
}

// Set stores a response under the query's fingerprint. Errors are logged,
// never returned: a failed cache write must not fail the request.
func (c *ResponseCache) Set(ctx context.Context, queryText string, value interface{}) {
	if !c.Enabled() {
		return
	}

	key := keyPrefix + Fingerprint(queryText)
	if err := c.redis.Set(ctx, key, value, c.ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Response cache write failed")
	}
}

// Delete removes the cached response for a query text.
func (c *ResponseCache) Delete(ctx context.Context, queryText string) {
	if !c.Enabled() {
		return
	}

	key := keyPrefix + Fingerprint(queryText)
	if err := c.redis.Delete(ctx, key); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Response cache delete failed")
	}
}
