package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"realtychat/internal/model"
)

// redisStore implements Store on Redis string keys with a TTL.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func (s *redisStore) key(id string) string {
	return s.prefix + id
}

// Get implements Store.
func (s *redisStore) Get(ctx context.Context, id string) (*model.SessionState, error) {
	key := s.key(id)
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var state model.SessionState
	if err := json.Unmarshal(val, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	// Refresh TTL on read
	_ = s.client.Expire(ctx, key, s.ttl).Err()

	return &state, nil
}

// Save implements Store.
func (s *redisStore) Save(ctx context.Context, state *model.SessionState) error {
	if state == nil || state.ID == "" {
		return ErrInvalidID
	}
	now := time.Now()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	state.UpdatedAt = now

	val, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(state.ID), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *redisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *redisStore) Close() error {
	return s.client.Close()
}
