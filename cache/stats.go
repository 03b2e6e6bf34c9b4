package cache

import (
	"sync/atomic"
	"time"
)

// Stats tracks store activity. Counters are always collected and are safe
// for concurrent use.
type Stats struct {
	hits        atomic.Int64
	misses      atomic.Int64
	sets        atomic.Int64
	deletes     atomic.Int64
	evictions   atomic.Int64
	expirations atomic.Int64
	flushes     atomic.Int64
	size        atomic.Int64
	peak        atomic.Int64
	start       time.Time
}

// NewStats creates an empty statistics tracker.
func NewStats() *Stats {
	return &Stats{start: time.Now()}
}

func (s *Stats) record(op string) {
	switch op {
	case OpHit:
		s.hits.Add(1)
	case OpMiss:
		s.misses.Add(1)
	case OpSet:
		s.sets.Add(1)
	case OpDelete:
		s.deletes.Add(1)
	case OpEviction:
		s.evictions.Add(1)
	case OpExpiration:
		s.expirations.Add(1)
	case OpFlush:
		s.flushes.Add(1)
	}
}

func (s *Stats) updateSize(n int) {
	size := int64(n)
	s.size.Store(size)
	for {
		peak := s.peak.Load()
		if size <= peak || s.peak.CompareAndSwap(peak, size) {
			return
		}
	}
}

// Hits returns the number of successful lookups.
func (s *Stats) Hits() int64 { return s.hits.Load() }

// Misses returns the number of lookups that returned ErrCacheMiss.
func (s *Stats) Misses() int64 { return s.misses.Load() }

// Sets returns the number of Set calls.
func (s *Stats) Sets() int64 { return s.sets.Load() }

// Deletes returns the number of successful explicit deletes.
func (s *Stats) Deletes() int64 { return s.deletes.Load() }

// Evictions returns the number of capacity evictions.
func (s *Stats) Evictions() int64 { return s.evictions.Load() }

// Expirations returns the number of entries removed because they expired.
func (s *Stats) Expirations() int64 { return s.expirations.Load() }

// Flushes returns the number of Flush calls.
func (s *Stats) Flushes() int64 { return s.flushes.Load() }

// Size returns the entry count after the most recent mutation.
func (s *Stats) Size() int64 { return s.size.Load() }

// PeakSize returns the largest entry count observed.
func (s *Stats) PeakSize() int64 { return s.peak.Load() }

// HitRatio returns hits / (hits + misses), or 0 with no lookups.
func (s *Stats) HitRatio() float64 {
	hits := s.Hits()
	total := hits + s.Misses()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Uptime returns how long the store has existed.
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.start)
}

// StatsSummary is a point-in-time snapshot of Stats.
type StatsSummary struct {
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Sets        int64   `json:"sets"`
	Deletes     int64   `json:"deletes"`
	Evictions   int64   `json:"evictions"`
	Expirations int64   `json:"expirations"`
	Flushes     int64   `json:"flushes"`
	Size        int64   `json:"size"`
	PeakSize    int64   `json:"peak_size"`
	HitRatio    float64 `json:"hit_ratio"`
}

// Summary returns a snapshot of all counters.
func (s *Stats) Summary() StatsSummary {
	return StatsSummary{
		Hits:        s.Hits(),
		Misses:      s.Misses(),
		Sets:        s.Sets(),
		Deletes:     s.Deletes(),
		Evictions:   s.Evictions(),
		Expirations: s.Expirations(),
		Flushes:     s.Flushes(),
		Size:        s.Size(),
		PeakSize:    s.PeakSize(),
		HitRatio:    s.HitRatio(),
	}
}
