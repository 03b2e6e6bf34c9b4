package cache

import (
	"context"
	"sync"
	"time"
)

// TTLStore is a map-backed store with per-entry expiration.
//
// Expiration is enforced lazily: an expired entry is removed when Get
// observes it, or by an explicit Purge. There is no background goroutine,
// so expired entries that are never read again stay resident until Purge
// or Flush. Use LRUStore when a hard bound on entries is required.
type TTLStore struct {
	mu      sync.Mutex
	entries map[string]ttlEntry
	opts    storeOptions
	stats   *Stats
}

type ttlEntry struct {
	value     any
	expiresAt time.Time // zero means never
}

// expired reports whether the deadline is set and strictly before now.
func (e ttlEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && e.expiresAt.Before(now)
}

// NewTTLStore creates an empty TTL store. Entries never expire unless
// WithExpiration or a per-call ttl says otherwise.
func NewTTLStore(opts ...StoreOption) *TTLStore {
	return &TTLStore{
		entries: make(map[string]ttlEntry),
		opts:    applyStoreOptions("ttl", opts),
		stats:   NewStats(),
	}
}

// Get returns the value for key. An expired entry is deleted and reported
// as ErrCacheMiss.
func (c *TTLStore) Get(ctx context.Context, key string) (any, error) {
	value, err := c.lookup(ctx, key)
	if err != nil || !c.opts.deepCopy {
		return value, err
	}
	return deepCopy(value)
}

func (c *TTLStore) lookup(ctx context.Context, key string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.record(ctx, OpMiss)
		return nil, ErrCacheMiss
	}

	if entry.expired(c.opts.now()) {
		delete(c.entries, key)
		c.stats.updateSize(len(c.entries))
		c.record(ctx, OpExpiration)
		c.record(ctx, OpMiss)
		return nil, ErrCacheMiss
	}

	c.record(ctx, OpHit)
	return entry.value, nil
}

// Set stores value under key. ttl of DefaultExpiration uses the store
// default; a negative ttl (NoExpiration) stores the entry without deadline.
func (c *TTLStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.opts.deepCopy {
		copied, err := deepCopy(value)
		if err != nil {
			return err
		}
		value = copied
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = ttlEntry{value: value, expiresAt: c.deadline(ttl)}
	c.stats.updateSize(len(c.entries))
	c.record(ctx, OpSet)
	return nil
}

// deadline converts a relative ttl into an absolute instant, or the zero
// time for entries that never expire. Must be called with mu held.
func (c *TTLStore) deadline(ttl time.Duration) time.Time {
	if ttl == DefaultExpiration {
		ttl = c.opts.expiration
	}
	if ttl <= 0 {
		return time.Time{}
	}
	return c.opts.now().Add(ttl)
}

// Delete removes key. Returns ErrCacheMiss if key is not resident.
func (c *TTLStore) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return ErrCacheMiss
	}
	delete(c.entries, key)
	c.stats.updateSize(len(c.entries))
	c.record(ctx, OpDelete)
	return nil
}

// Flush removes all entries.
func (c *TTLStore) Flush(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.stats.updateSize(0)
	c.record(ctx, OpFlush)
}

// Purge removes every expired entry and returns how many were removed.
func (c *TTLStore) Purge(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.now()
	removed := 0
	for key, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, key)
			c.record(ctx, OpExpiration)
			removed++
		}
	}
	c.stats.updateSize(len(c.entries))
	return removed
}

// Len returns the number of resident entries, including expired entries
// that have not been observed yet.
func (c *TTLStore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the store statistics.
func (c *TTLStore) Stats() *Stats {
	return c.stats
}

func (c *TTLStore) record(ctx context.Context, op string) {
	c.stats.record(op)
	c.opts.recorder.Record(ctx, c.opts.name, op)
}

// Ensure TTLStore implements Store
var _ Store = (*TTLStore)(nil)
