// Package cache defines the key/value cache used for capability tokens and
// translation dictionaries.
package cache

import (
	"context"
	"time"
)

// Type represents the type of cache.
type Type string

const (
	// TypeRedis represents a Redis cache.
	TypeRedis Type = "redis"
	// TypeMemory runs an in-process Redis. Development only: tokens and
	// dictionaries are lost on restart.
	TypeMemory Type = "memory"
)

// Client defines the cache operations the service relies on.
type Client interface {
	// Get retrieves a value by key. Returns nil if the key does not exist.
	// Reading a key never extends its TTL.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. If ttl is 0, the client's default TTL is used.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// DeletePattern removes all keys matching the given glob pattern.
	// Returns the number of keys deleted.
	DeletePattern(ctx context.Context, pattern string) (int64, error)

	// Ping checks if the cache connection is alive.
	Ping(ctx context.Context) error

	// Close closes the cache connection.
	Close() error
}
