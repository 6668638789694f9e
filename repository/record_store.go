package repository

import (
	"context"
	"time"
)

// RecordStore is the key-value backend every service reads and writes.
// Transport failures are returned as *models.BackendError; values of the
// wrong shape are reported as models.ErrDecode.
type RecordStore interface {
	// Get returns the string stored at key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string) error
	SetWithExpiry(ctx context.Context, key string, value string, ttl time.Duration) error
	// Replace overwrites the value at key and keeps its remaining expiry, if any.
	Replace(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	ListAppend(ctx context.Context, key string, value string) error
	// ListRange returns every element of the list at key in insertion order.
	ListRange(ctx context.Context, key string) ([]string, error)
	Ping(ctx context.Context) error
}

// Locker grants a named lock to a single caller until ttl elapses.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
