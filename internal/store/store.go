// Package store defines the key-value storage interface and implementations.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a key is absent or has expired.
var ErrNotFound = errors.New("store: key not found")

// ErrUnavailable wraps failures to reach the store or execute a command.
// Callers decide whether to fail open or closed; nothing in this package
// retries on its own.
var ErrUnavailable = errors.New("store: unavailable")

// Store is the contract the rate limiter and session manager depend on.
// All durable state lives behind it; implementations must be safe for
// concurrent use and SlideWindow must execute as one atomic unit.
type Store interface {
	// SlideWindow atomically, against a sorted-set key:
	// removes members with score < cutoff, counts the remaining members,
	// adds member at score, and resets the key's TTL. It returns the count
	// measured before the add.
	SlideWindow(ctx context.Context, key string, cutoff int64, member string, score int64, ttl time.Duration) (int64, error)

	// Get returns the string value at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// SetEx writes value at key with the given TTL.
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error

	// CountKeys returns the number of live keys with the given prefix.
	// The result is approximate under concurrent expiry.
	CountKeys(ctx context.Context, prefix string) (int64, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}
