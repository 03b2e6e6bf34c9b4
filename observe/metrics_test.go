package observe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMeter(t testing.TB) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func collect(t testing.TB, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

// sumByAttr totals an int64 sum metric for data points carrying key=value.
func sumByAttr(t testing.TB, rm metricdata.ResourceMetrics, name, key, value string) int64 {
	t.Helper()
	found := findMetric(rm, name)
	if found == nil {
		return 0
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestMetrics_TotalByOutcome(t *testing.T) {
	reader, mp := newTestMeter(t)
	m, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("newMetrics() error = %v", err)
	}

	meta := FuncMeta{Namespace: "geo", Name: "lookup"}
	ctx := context.Background()
	m.RecordCall(ctx, meta, OutcomeMiss, time.Millisecond, nil)
	m.RecordCall(ctx, meta, OutcomeHit, time.Millisecond, nil)
	m.RecordCall(ctx, meta, OutcomeHit, time.Millisecond, nil)

	rm := collect(t, reader)
	if got := sumByAttr(t, rm, "memo.call.total", "memo.outcome", "hit"); got != 2 {
		t.Errorf("hit total = %d, want 2", got)
	}
	if got := sumByAttr(t, rm, "memo.call.total", "memo.outcome", "miss"); got != 1 {
		t.Errorf("miss total = %d, want 1", got)
	}
	if got := sumByAttr(t, rm, "memo.call.total", "func.id", "geo.lookup"); got != 3 {
		t.Errorf("func total = %d, want 3", got)
	}
}

func TestMetrics_ErrorCounter(t *testing.T) {
	reader, mp := newTestMeter(t)
	m, _ := newMetrics(mp.Meter("test"))

	meta := FuncMeta{Name: "lookup"}
	m.RecordCall(context.Background(), meta, OutcomeMiss, time.Millisecond, nil)
	if findMetric(collect(t, reader), "memo.call.errors") != nil {
		t.Error("memo.call.errors should not be recorded on success")
	}

	m.RecordCall(context.Background(), meta, OutcomeError, time.Millisecond, errors.New("boom"))
	if got := sumByAttr(t, collect(t, reader), "memo.call.errors", "func.name", "lookup"); got != 1 {
		t.Errorf("errors = %d, want 1", got)
	}
}

func TestMetrics_DurationHistogramRecords(t *testing.T) {
	reader, mp := newTestMeter(t)
	m, _ := newMetrics(mp.Meter("test"))

	m.RecordCall(context.Background(), FuncMeta{Name: "lookup"}, OutcomeMiss, 50*time.Millisecond, nil)

	found := findMetric(collect(t, reader), "memo.call.duration_ms")
	if found == nil {
		t.Fatal("memo.call.duration_ms metric not found")
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("expected 1 data point, got %d", len(hist.DataPoints))
	}
	if got := hist.DataPoints[0].Sum; got != 50 {
		t.Errorf("duration sum = %f, want 50", got)
	}
}

func TestMetrics_ConcurrentRecording(t *testing.T) {
	reader, mp := newTestMeter(t)
	m, _ := newMetrics(mp.Meter("test"))

	const numGoroutines = 100
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for range numGoroutines {
		go func() {
			defer wg.Done()
			m.RecordCall(context.Background(), FuncMeta{Name: "lookup"}, OutcomeHit, time.Millisecond, nil)
		}()
	}
	wg.Wait()

	if got := sumByAttr(t, collect(t, reader), "memo.call.total", "memo.outcome", "hit"); got != numGoroutines {
		t.Errorf("total = %d, want %d", got, numGoroutines)
	}
}

func TestStoreMetrics_Record(t *testing.T) {
	reader, mp := newTestMeter(t)
	sm, err := NewStoreMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewStoreMetrics() error = %v", err)
	}

	ctx := context.Background()
	sm.Record(ctx, "lru", "hit")
	sm.Record(ctx, "lru", "eviction")
	sm.Record(ctx, "ttl", "hit")
	sm.Record(ctx, "ttl", "expiration")

	rm := collect(t, reader)
	if got := sumByAttr(t, rm, "memo.store.ops", "cache.op", "hit"); got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
	if got := sumByAttr(t, rm, "memo.store.ops", "cache.store", "ttl"); got != 2 {
		t.Errorf("ttl ops = %d, want 2", got)
	}
	if got := sumByAttr(t, rm, "memo.store.ops", "cache.op", "eviction"); got != 1 {
		t.Errorf("evictions = %d, want 1", got)
	}
}

// findMetric searches for a metric by name in ResourceMetrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}
