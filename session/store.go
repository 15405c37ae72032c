package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is an exported constant or variable used by the careauth client engine.
var ErrNotFound = errors.New("session record not found")

// ErrCorrupt is an exported constant or variable used by the careauth client engine.
var ErrCorrupt = errors.New("session record corrupt")

// ErrRedisUnavailable is an exported constant or variable used by the careauth client engine.
var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultTTL = 30 * 24 * time.Hour

// Store persists session records in Redis, keyed by device ID. One device
// holds at most one record; Save replaces, Clear is idempotent.
type Store struct {
	redis  *redis.Client
	prefix string
}

// NewStore describes the newstore operation and its observable behavior.
//
// NewStore may return an error when input validation, dependency calls, or security checks fail.
// NewStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "cas"
	}
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Store) key(deviceID string) string {
	return s.prefix + ":" + deviceID
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Save(ctx context.Context, deviceID string, sess *Session) error {
	if !sess.Complete() {
		return errors.New("refusing to persist partial session")
	}

	encoded, err := Encode(sess)
	if err != nil {
		return err
	}

	ttl := defaultTTL
	if sess.RefreshExpiresAt > 0 {
		until := time.Until(time.Unix(sess.RefreshExpiresAt, 0))
		if until <= 0 {
			return errors.New("refusing to persist expired session")
		}
		ttl = until
	}

	if err := s.redis.Set(ctx, s.key(deviceID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Load describes the load operation and its observable behavior.
//
// Load may return an error when input validation, dependency calls, or security checks fail.
// Load does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Load(ctx context.Context, deviceID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(deviceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !sess.Complete() {
		return nil, ErrCorrupt
	}
	return sess, nil
}

// Clear describes the clear operation and its observable behavior.
//
// Clear may return an error when input validation, dependency calls, or security checks fail.
// Clear does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Clear(ctx context.Context, deviceID string) error {
	if err := s.redis.Del(ctx, s.key(deviceID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
