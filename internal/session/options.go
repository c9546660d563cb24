package session

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an idle session survives
const DefaultTTL = 24 * time.Hour

// StoreOption is a functional option for configuring a session store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	ttl             time.Duration
	cleanupInterval time.Duration
	redisClient     *redis.Client
	keyPrefix       string
}

// WithTTL sets how long a session lives after its last read or write.
func WithTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.ttl = ttl
	}
}

// WithCleanupInterval sets how often the memory store sweeps expired sessions.
func WithCleanupInterval(d time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.cleanupInterval = d
	}
}

// WithRedisClient sets the Redis client for the Redis store.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithKeyPrefix sets the Redis key prefix, "session:" by default.
func WithKeyPrefix(prefix string) StoreOption {
	return func(c *storeConfig) {
		c.keyPrefix = prefix
	}
}
