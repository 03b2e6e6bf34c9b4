package health

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonwraymond/memocache/cache"
)

func lookups(t *testing.T, s cache.Store, hits, misses int) {
	t.Helper()
	ctx := context.Background()
	if err := s.Set(ctx, "hot", 1, cache.DefaultExpiration); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	for range hits {
		_, _ = s.Get(ctx, "hot")
	}
	for i := range misses {
		_, _ = s.Get(ctx, fmt.Sprintf("cold-%d", i))
	}
}

func TestNewStoreChecker_Errors(t *testing.T) {
	lru, _ := cache.NewLRUStore(4)

	tests := []struct {
		name   string
		store  cache.Store
		config StoreCheckerConfig
		want   error
	}{
		{"nil store", nil, StoreCheckerConfig{}, ErrNilStore},
		{"ratio above one", lru, StoreCheckerConfig{MinHitRatio: 1.5}, ErrInvalidConfig},
		{"negative ratio", lru, StoreCheckerConfig{MinHitRatio: -0.1}, ErrInvalidConfig},
		{"negative requests", lru, StoreCheckerConfig{MinRequests: -1}, ErrInvalidConfig},
		{"negative entries", lru, StoreCheckerConfig{MaxEntries: -1}, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStoreChecker("s", tt.store, tt.config)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewStoreChecker() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStoreChecker_DefaultMinRequests(t *testing.T) {
	c, err := NewStoreChecker("s", cache.NewTTLStore(), StoreCheckerConfig{})
	if err != nil {
		t.Fatalf("NewStoreChecker() error = %v", err)
	}
	if c.config.MinRequests != DefaultMinRequests {
		t.Errorf("MinRequests = %d, want %d", c.config.MinRequests, DefaultMinRequests)
	}
	if c.Name() != "s" {
		t.Errorf("Name() = %q, want s", c.Name())
	}
}

func TestStoreChecker_HealthyLRU(t *testing.T) {
	store, _ := cache.NewLRUStore(8)
	lookups(t, store, 3, 1)

	c, _ := NewStoreChecker("users", store, StoreCheckerConfig{MinHitRatio: 0.5, MinRequests: 4})
	result := c.Check(context.Background())

	if result.Status != StatusHealthy {
		t.Fatalf("Status = %v (%s), want healthy", result.Status, result.Message)
	}
	want := map[string]any{
		"size":      1,
		"capacity":  8,
		"hits":      int64(3),
		"misses":    int64(1),
		"hit_ratio": 0.75,
	}
	for k, v := range want {
		if result.Details[k] != v {
			t.Errorf("Details[%s] = %v (%T), want %v (%T)", k, result.Details[k], result.Details[k], v, v)
		}
	}
}

func TestStoreChecker_DegradedHitRatio(t *testing.T) {
	store, _ := cache.NewLRUStore(8)
	lookups(t, store, 1, 9)

	c, _ := NewStoreChecker("users", store, StoreCheckerConfig{MinHitRatio: 0.5, MinRequests: 10})
	result := c.Check(context.Background())

	if result.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded", result.Status)
	}
}

func TestStoreChecker_HitRatioIgnoredBelowMinRequests(t *testing.T) {
	store, _ := cache.NewLRUStore(8)
	lookups(t, store, 0, 5)

	c, _ := NewStoreChecker("users", store, StoreCheckerConfig{MinHitRatio: 0.5})
	result := c.Check(context.Background())

	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy with only 5 lookups", result.Status)
	}
}

func TestStoreChecker_TTLMaxEntries(t *testing.T) {
	store := cache.NewTTLStore(cache.WithExpiration(time.Hour))
	ctx := context.Background()
	for i := range 5 {
		_ = store.Set(ctx, fmt.Sprintf("k%d", i), i, cache.DefaultExpiration)
	}

	tests := []struct {
		name       string
		maxEntries int
		want       Status
	}{
		{"unbounded", 0, StatusHealthy},
		{"at limit", 5, StatusHealthy},
		{"over limit", 4, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := NewStoreChecker("sessions", store, StoreCheckerConfig{MaxEntries: tt.maxEntries})
			result := c.Check(ctx)
			if result.Status != tt.want {
				t.Errorf("Status = %v (%s), want %v", result.Status, result.Message, tt.want)
			}
			if tt.want == StatusUnhealthy && !errors.Is(result.Error, ErrCheckFailed) {
				t.Errorf("Error = %v, want %v", result.Error, ErrCheckFailed)
			}
		})
	}
}

// oversizedStore reports more entries than its capacity.
type oversizedStore struct {
	*cache.LRUStore
}

func (oversizedStore) Len() int { return 10 }
func (oversizedStore) Cap() int { return 2 }

func TestStoreChecker_SizeOverCapacity(t *testing.T) {
	lru, _ := cache.NewLRUStore(2)
	c, _ := NewStoreChecker("broken", oversizedStore{lru}, StoreCheckerConfig{})

	result := c.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", result.Status)
	}
}

func TestStoreChecker_CancelledContext(t *testing.T) {
	store, _ := cache.NewLRUStore(2)
	c, _ := NewStoreChecker("users", store, StoreCheckerConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := c.Check(ctx)
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", result.Status)
	}
	if !errors.Is(result.Error, context.Canceled) {
		t.Errorf("Error = %v, want context.Canceled", result.Error)
	}
}

func TestStoreChecker_InAggregator(t *testing.T) {
	users, _ := cache.NewLRUStore(4)
	sessions := cache.NewTTLStore()
	ctx := context.Background()
	for i := range 3 {
		_ = sessions.Set(ctx, fmt.Sprintf("s%d", i), i, cache.DefaultExpiration)
	}

	agg := NewAggregator()
	uc, _ := NewStoreChecker("users", users, StoreCheckerConfig{})
	sc, _ := NewStoreChecker("sessions", sessions, StoreCheckerConfig{MaxEntries: 2})
	_ = agg.Register(uc)
	_ = agg.Register(sc)

	report := agg.CheckAll(ctx)
	if report.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", report.Status)
	}
	if report.Checks["users"].Status != StatusHealthy {
		t.Errorf("users = %v, want healthy", report.Checks["users"].Status)
	}
}
