package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"realtychat/internal/model"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// memoryStore keeps serialized states in a map. A janitor goroutine drops
// expired entries until Close.
type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func newMemoryStore(ttl, interval time.Duration) *memoryStore {
	s := &memoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	s.wg.Add(1)
	go s.janitor(interval)
	return s
}

func (s *memoryStore) janitor(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *memoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, e := range s.sessions {
		if !now.Before(e.expires) {
			delete(s.sessions, id)
		}
	}
}

// Get implements Store.
func (s *memoryStore) Get(ctx context.Context, id string) (*model.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		return nil, ErrClosed
	}

	e, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	now := s.now()
	if !now.Before(e.expires) {
		delete(s.sessions, id)
		return nil, nil
	}

	var state model.SessionState
	if err := json.Unmarshal(e.data, &state); err != nil {
		return nil, err
	}
	// sliding expiry, same as the redis driver
	e.expires = now.Add(s.ttl)
	s.sessions[id] = e
	return &state, nil
}

// Save implements Store.
func (s *memoryStore) Save(ctx context.Context, state *model.SessionState) error {
	if state == nil || state.ID == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		return ErrClosed
	}

	now := s.now()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	state.UpdatedAt = now

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.sessions[state.ID] = memoryEntry{data: data, expires: now.Add(s.ttl)}
	return nil
}

// Delete implements Store.
func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Close implements Store. It stops the janitor and waits for it to exit.
func (s *memoryStore) Close() error {
	s.once.Do(func() {
		close(s.stop)
		s.wg.Wait()
		s.mu.Lock()
		s.sessions = nil
		s.mu.Unlock()
	})
	return nil
}

// Len returns the number of live entries, expired ones not yet swept included
func (s *memoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
