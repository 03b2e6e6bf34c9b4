package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/memocache/cache"
)

// DefaultMinRequests is the lookup count a store needs before its hit
// ratio is judged.
const DefaultMinRequests = 100

// StoreCheckerConfig configures a StoreChecker.
type StoreCheckerConfig struct {
	// MinHitRatio is the hit ratio under which the store is degraded.
	// Must be in [0, 1]. Zero disables the check.
	MinHitRatio float64

	// MinRequests is the number of lookups required before MinHitRatio
	// applies. Default: 100.
	MinRequests int64

	// MaxEntries is the entry count above which a store without a
	// capacity is unhealthy. Zero disables the check.
	MaxEntries int
}

// Validate checks the configuration ranges.
func (c StoreCheckerConfig) Validate() error {
	if c.MinHitRatio < 0 || c.MinHitRatio > 1 {
		return fmt.Errorf("%w: min hit ratio %v not in [0, 1]", ErrInvalidConfig, c.MinHitRatio)
	}
	if c.MinRequests < 0 {
		return fmt.Errorf("%w: min requests %d is negative", ErrInvalidConfig, c.MinRequests)
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("%w: max entries %d is negative", ErrInvalidConfig, c.MaxEntries)
	}
	return nil
}

// capped is implemented by stores with a fixed capacity.
type capped interface {
	Cap() int
}

// StoreChecker reports the health of a cache.Store.
type StoreChecker struct {
	name   string
	store  cache.Store
	config StoreCheckerConfig
}

// NewStoreChecker creates a checker for store.
func NewStoreChecker(name string, store cache.Store, config StoreCheckerConfig) (*StoreChecker, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.MinRequests == 0 {
		config.MinRequests = DefaultMinRequests
	}
	return &StoreChecker{name: name, store: store, config: config}, nil
}

// Name returns the checker name.
func (c *StoreChecker) Name() string {
	return c.name
}

// Check inspects the store's size and hit ratio.
func (c *StoreChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	stats := c.store.Stats()
	size := c.store.Len()
	ratio := stats.HitRatio()
	lookups := stats.Hits() + stats.Misses()

	details := map[string]any{
		"size":        size,
		"peak_size":   stats.PeakSize(),
		"hits":        stats.Hits(),
		"misses":      stats.Misses(),
		"hit_ratio":   ratio,
		"evictions":   stats.Evictions(),
		"expirations": stats.Expirations(),
	}

	if s, ok := c.store.(capped); ok {
		capacity := s.Cap()
		details["capacity"] = capacity
		if size > capacity {
			return Unhealthy(
				fmt.Sprintf("store size %d exceeds capacity %d", size, capacity),
				ErrCheckFailed,
			).WithDetails(details)
		}
	} else if c.config.MaxEntries > 0 {
		details["max_entries"] = c.config.MaxEntries
		if size > c.config.MaxEntries {
			return Unhealthy(
				fmt.Sprintf("store holds %d entries, limit %d", size, c.config.MaxEntries),
				ErrCheckFailed,
			).WithDetails(details)
		}
	}

	if c.config.MinHitRatio > 0 && lookups >= c.config.MinRequests && ratio < c.config.MinHitRatio {
		return Degraded(
			fmt.Sprintf("hit ratio %.1f%% below %.1f%%", ratio*100, c.config.MinHitRatio*100),
		).WithDetails(details)
	}

	return Healthy(fmt.Sprintf("%d entries, hit ratio %.1f%%", size, ratio*100)).WithDetails(details)
}
