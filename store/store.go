// Package store provides a process-wide key-value cache with TTL-based
// expiry. Call sites depend on the Store interface so a distributed
// implementation can be swapped in without touching them.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("store: key not found")

// Store is a key-value cache. A zero or negative ttl on Set means the
// entry never expires.
type Store interface {
	Get(key string) (any, error)
	Set(key string, value any, ttl time.Duration) error
	Delete(key string) error
	Close() error
}
