package cache

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
)

func TestStats_HitRatio(t *testing.T) {
	s := NewStats()
	if s.HitRatio() != 0 {
		t.Errorf("HitRatio() with no lookups = %f, want 0", s.HitRatio())
	}

	for range 3 {
		s.record(OpHit)
	}
	s.record(OpMiss)
	if got := s.HitRatio(); got != 0.75 {
		t.Errorf("HitRatio() = %f, want 0.75", got)
	}
}

func TestStats_UnknownOpIgnored(t *testing.T) {
	s := NewStats()
	s.record("bogus")
	if s.Summary() != (StatsSummary{}) {
		t.Errorf("Summary() = %+v, want zero", s.Summary())
	}
}

func TestStats_PeakSizeConcurrent(t *testing.T) {
	s := NewStats()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.updateSize(i)
		}()
	}
	wg.Wait()

	if s.PeakSize() != 49 {
		t.Errorf("PeakSize() = %d, want 49", s.PeakSize())
	}
}

func TestStats_SummaryJSON(t *testing.T) {
	c, _ := NewLRUStore(1)
	ctx := context.Background()
	_ = c.Set(ctx, "a", 1, DefaultExpiration)
	_ = c.Set(ctx, "b", 2, DefaultExpiration)
	_, _ = c.Get(ctx, "b")
	_, _ = c.Get(ctx, "a")

	data, err := json.Marshal(c.Stats().Summary())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got map[string]float64
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := map[string]float64{
		"hits":      1,
		"misses":    1,
		"sets":      2,
		"evictions": 1,
		"size":      1,
		"peak_size": 1,
		"hit_ratio": 0.5,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
	if c.Stats().Uptime() <= 0 {
		t.Error("Uptime() should be positive")
	}
}
