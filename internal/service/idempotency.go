package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore maps checkout idempotency keys to the order they produced
// so a double-submitted checkout returns the existing order instead of
// creating a second one. Implementations must be safe for concurrent use.
type IdempotencyStore interface {
	// Get returns the order ID recorded for the key, or "" if unknown.
	Get(ctx context.Context, key string) (string, error)
	// Set records the order ID for the key.
	Set(ctx context.Context, key, orderID string) error
}

// RedisIdempotencyStore stores idempotency keys in Redis with a TTL, so keys
// are shared across instances and expire on their own.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIdempotencyStore creates a Redis-backed idempotency store.
func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) key(key string) string {
	return "checkout:idempotency:" + key
}

// Get returns the order ID recorded for the key, or "" if unknown.
func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

// Set records the order ID for the key with the configured TTL.
func (s *RedisIdempotencyStore) Set(ctx context.Context, key, orderID string) error {
	return s.client.Set(ctx, s.key(key), orderID, s.ttl).Err()
}

// MemoryIdempotencyStore is an in-memory implementation suitable for tests
// and single-instance development. Entries expire lazily on access.
type MemoryIdempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

type memoryEntry struct {
	orderID string
	addedAt time.Time
}

// NewMemoryIdempotencyStore creates an in-memory idempotency store.
func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

// Get returns the order ID recorded for the key, or "" if unknown or expired.
func (s *MemoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	entry, exists := s.entries[key]
	s.mu.RUnlock()

	if !exists {
		return "", nil
	}

	if time.Since(entry.addedAt) > s.ttl {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return "", nil
	}

	return entry.orderID, nil
}

// Set records the order ID for the key with the current timestamp.
func (s *MemoryIdempotencyStore) Set(_ context.Context, key, orderID string) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{orderID: orderID, addedAt: time.Now()}
	s.mu.Unlock()
	return nil
}
