package session

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StoreType represents the type of session store.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

// NewStore creates a new Store based on the given type.
// For Redis, requires WithRedisClient option.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{
		ttl:       DefaultTTL,
		keyPrefix: "session:",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.ttl <= 0 {
		cfg.ttl = DefaultTTL
	}

	switch storeType {
	case StoreTypeMemory:
		interval := cfg.cleanupInterval
		if interval <= 0 {
			interval = cfg.ttl / 4
			if interval < time.Second {
				interval = time.Second
			}
		}
		return newMemoryStore(cfg.ttl, interval), nil

	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return &redisStore{
			client: cfg.redisClient,
			ttl:    cfg.ttl,
			prefix: cfg.keyPrefix,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStoreType, storeType)
	}
}

// NewRedisClient parses a redis:// URL into a client
func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}
