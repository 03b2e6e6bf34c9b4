package cache

import "time"

// StoreOption configures a TTLStore or LRUStore.
type StoreOption func(*storeOptions)

// EvictCallback is called after an entry is evicted for capacity.
type EvictCallback func(key string, value any)

type storeOptions struct {
	name       string
	deepCopy   bool
	expiration time.Duration
	now        func() time.Time
	recorder   Recorder
	onEvict    EvictCallback
}

// WithName sets the store name reported to the Recorder.
func WithName(name string) StoreOption {
	return func(o *storeOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithDeepCopy makes Set store, and Get return, independent deep copies.
func WithDeepCopy(enabled bool) StoreOption {
	return func(o *storeOptions) {
		o.deepCopy = enabled
	}
}

// WithExpiration sets the default expiration used when Set is called with
// DefaultExpiration. Ignored by LRUStore.
func WithExpiration(d time.Duration) StoreOption {
	return func(o *storeOptions) {
		o.expiration = d
	}
}

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRecorder forwards store operations to r.
func WithRecorder(r Recorder) StoreOption {
	return func(o *storeOptions) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithOnEvict registers a callback for capacity evictions. It runs after
// the store lock is released. Ignored by TTLStore.
func WithOnEvict(fn EvictCallback) StoreOption {
	return func(o *storeOptions) {
		o.onEvict = fn
	}
}

func applyStoreOptions(defaultName string, opts []StoreOption) storeOptions {
	o := storeOptions{
		name:       defaultName,
		expiration: NoExpiration,
		now:        time.Now,
		recorder:   noopRecorder{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
