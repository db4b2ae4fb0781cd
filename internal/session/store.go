package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talk2dom/web/internal/backend"
)

// Store caches backend users by account ID.
type Store interface {
	Get(ctx context.Context, accountID string) (backend.User, bool, error)
	Set(ctx context.Context, accountID string, user backend.User) error
	Delete(ctx context.Context, accountID string) error
}

const keyPrefix = "talk2dom:session:user:"

// RedisStore keeps users in Redis as JSON with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Get returns the cached user, or false when there is none.
func (s *RedisStore) Get(ctx context.Context, accountID string) (backend.User, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+accountID).Bytes()
	if errors.Is(err, redis.Nil) {
		return backend.User{}, false, nil
	}
	if err != nil {
		return backend.User{}, false, fmt.Errorf("reading session user: %w", err)
	}

	var u backend.User
	if err := json.Unmarshal(raw, &u); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set.
		return backend.User{}, false, nil
	}
	return u, true, nil
}

// Set caches a user.
func (s *RedisStore) Set(ctx context.Context, accountID string, user backend.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding session user: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+accountID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing session user: %w", err)
	}
	return nil
}

// Delete drops a cached user.
func (s *RedisStore) Delete(ctx context.Context, accountID string) error {
	if err := s.client.Del(ctx, keyPrefix+accountID).Err(); err != nil {
		return fmt.Errorf("deleting session user: %w", err)
	}
	return nil
}

// MemoryStore is a process-local Store used when no Redis is configured.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	user    backend.User
	expires time.Time
}

// NewMemoryStore creates a MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

// Get returns the cached user, or false when there is none or it expired.
func (s *MemoryStore) Get(_ context.Context, accountID string) (backend.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[accountID]
	if !ok {
		return backend.User{}, false, nil
	}
	if s.ttl > 0 && !s.now().Before(e.expires) {
		delete(s.entries, accountID)
		return backend.User{}, false, nil
	}
	return e.user, true, nil
}

// Set caches a user.
func (s *MemoryStore) Set(_ context.Context, accountID string, user backend.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[accountID] = memoryEntry{user: user, expires: s.now().Add(s.ttl)}
	return nil
}

// Sweep drops every entry expired at now and returns how many it removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of entries held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Delete drops a cached user.
func (s *MemoryStore) Delete(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, accountID)
	return nil
}
