package cache

import (
	"context"
	"time"
)

// Expiration sentinels accepted by Store.Set.
const (
	// DefaultExpiration uses the store's configured default expiration.
	DefaultExpiration time.Duration = 0

	// NoExpiration stores the entry without a deadline. Any negative
	// duration is treated the same way.
	NoExpiration time.Duration = -1
)

// Store is the storage engine contract shared by TTLStore and LRUStore.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use; every
// operation is linearized under a single per-instance lock.
// - Context: accepted for telemetry only; operations never block on it.
// - Errors: Get and Delete return ErrCacheMiss for absent (or expired)
// keys. Flush never fails.
// - Ownership: the store owns stored values. With deep copy enabled, Set
// stores an independent copy and Get returns an independent copy.
type Store interface {
	// Get returns the value stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (any, error)

	// Set inserts or overwrites key. ttl is interpreted by stores that
	// support expiration and ignored by the others.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes key, or returns ErrCacheMiss if it is absent.
	Delete(ctx context.Context, key string) error

	// Flush removes every entry.
	Flush(ctx context.Context)

	// Len returns the number of resident entries.
	Len() int

	// Stats returns the store's always-on statistics.
	Stats() *Stats
}

// Store operation names passed to a Recorder.
const (
	OpHit        = "hit"
	OpMiss       = "miss"
	OpSet        = "set"
	OpDelete     = "delete"
	OpEviction   = "eviction"
	OpExpiration = "expiration"
	OpFlush      = "flush"
)

// Recorder receives store operation events for external metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Record is called with the store lock held and must return quickly
// without calling back into the store.
type Recorder interface {
	Record(ctx context.Context, store string, op string)
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, string, string) {}
