package careauth

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Well-known session-derived cache names. Integrators may register caches
// under any name; these are the domains the platform client populates.
const (
	// CacheOrganization is an exported constant or variable used by the careauth client engine.
	CacheOrganization = "organization"
	// CacheCaregivers is an exported constant or variable used by the careauth client engine.
	CacheCaregivers = "caregivers"
	// CachePatients is an exported constant or variable used by the careauth client engine.
	CachePatients = "patients"
)

// SessionCache is any cached domain whose contents derive from the current
// session. Every registered cache is cleared unconditionally during
// teardown; local state never outlives a user-initiated logout.
type SessionCache interface {
	Name() string
	Clear(ctx context.Context) error
}

// MemoryCache defines a public type used by careauth APIs.
//
// MemoryCache instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MemoryCache struct {
	name    string
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryCache describes the newmemorycache operation and its observable behavior.
//
// NewMemoryCache may return an error when input validation, dependency calls, or security checks fail.
// NewMemoryCache does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMemoryCache(name string) *MemoryCache {
	return &MemoryCache{
		name:    name,
		entries: make(map[string][]byte),
	}
}

// Name describes the name operation and its observable behavior.
//
// Name may return an error when input validation, dependency calls, or security checks fail.
// Name does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *MemoryCache) Name() string { return c.name }

// Put describes the put operation and its observable behavior.
//
// Put may return an error when input validation, dependency calls, or security checks fail.
// Put does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *MemoryCache) Put(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]byte(nil), value...)
	return nil
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation, dependency calls, or security checks fail.
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), value...), true
}

// Len describes the len operation and its observable behavior.
//
// Len may return an error when input validation, dependency calls, or security checks fail.
// Len does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear describes the clear operation and its observable behavior.
//
// Clear may return an error when input validation, dependency calls, or security checks fail.
// Clear does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	return nil
}

// RedisCache stores one cached domain as a single Redis hash so clearing
// is one DEL, idempotent and atomic.
type RedisCache struct {
	name   string
	key    string
	client *redis.Client
}

// NewRedisCache describes the newrediscache operation and its observable behavior.
//
// NewRedisCache may return an error when input validation, dependency calls, or security checks fail.
// NewRedisCache does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewRedisCache(client *redis.Client, prefix, name string) *RedisCache {
	if prefix == "" {
		prefix = "cac"
	}
	return &RedisCache{
		name:   name,
		key:    prefix + ":" + name,
		client: client,
	}
}

// Name describes the name operation and its observable behavior.
//
// Name may return an error when input validation, dependency calls, or security checks fail.
// Name does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *RedisCache) Name() string { return c.name }

// Put describes the put operation and its observable behavior.
//
// Put may return an error when input validation, dependency calls, or security checks fail.
// Put does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *RedisCache) Put(ctx context.Context, key string, value []byte) error {
	if err := c.client.HSet(ctx, c.key, key, value).Err(); err != nil {
		return fmt.Errorf("careauth: cache put: %w", err)
	}
	return nil
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation, dependency calls, or security checks fail.
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.client.HGet(ctx, c.key, key).Bytes()
	if err != nil {
		return nil, false
	}
	return value, true
}

// Clear describes the clear operation and its observable behavior.
//
// Clear may return an error when input validation, dependency calls, or security checks fail.
// Clear does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *RedisCache) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("careauth: cache clear: %w", err)
	}
	return nil
}
