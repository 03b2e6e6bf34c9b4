package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewBulkhead_Defaults(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{})
	if got := b.Metrics().MaxConcurrent; got != 10 {
		t.Errorf("MaxConcurrent = %d, want 10", got)
	}
}

func TestBulkhead_LimitsConcurrency(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 3, MaxWait: time.Second})

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.Execute(context.Background(), func(context.Context) error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("Execute() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if peak.Load() > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak.Load())
	}
	m := b.Metrics()
	if m.Active != 0 || m.Available != 3 {
		t.Errorf("Metrics() = %+v, want idle", m)
	}
	if m.MaxActive > 3 || m.MaxActive < 1 {
		t.Errorf("MaxActive = %d", m.MaxActive)
	}
}

// holdSlots fills b and returns a func releasing the slots.
func holdSlots(t *testing.T, b *Bulkhead, n int) func() {
	t.Helper()
	for range n {
		if err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
	}
	return func() {
		for range n {
			b.Release()
		}
	}
}

func TestBulkhead_RejectsImmediatelyWhenFull(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})
	release := holdSlots(t, b, 1)
	defer release()

	err := b.Execute(context.Background(), succeed)
	if !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("Execute() error = %v, want %v", err, ErrBulkheadFull)
	}
	if got := b.Metrics().Rejected; got != 1 {
		t.Errorf("Rejected = %d, want 1", got)
	}
}

func TestBulkhead_WaitsForSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Second})
	release := holdSlots(t, b, 1)

	go func() {
		time.Sleep(20 * time.Millisecond)
		release()
	}()

	if err := b.Execute(context.Background(), succeed); err != nil {
		t.Errorf("Execute() error = %v, want a slot after release", err)
	}
}

func TestBulkhead_MaxWaitExpires(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})
	release := holdSlots(t, b, 1)
	defer release()

	err := b.Execute(context.Background(), succeed)
	if !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("Execute() error = %v, want %v", err, ErrBulkheadFull)
	}
}

func TestBulkhead_ContextCancelledWhileWaiting(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Minute})
	release := holdSlots(t, b, 1)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := b.Execute(ctx, succeed)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Execute() error = %v, want context.DeadlineExceeded", err)
	}
	if got := b.Metrics().Rejected; got != 0 {
		t.Errorf("Rejected = %d, want 0 for caller cancellation", got)
	}
}
