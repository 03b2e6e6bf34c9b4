package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records memoized-call metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records one memoized call with its outcome and duration.
	RecordCall(ctx context.Context, meta FuncMeta, outcome Outcome, duration time.Duration, err error)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"memo.call.total",
		metric.WithDescription("Total number of memoized calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"memo.call.errors",
		metric.WithDescription("Total number of failed memoized calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"memo.call.duration_ms",
		metric.WithDescription("Memoized call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

func (m *metricsImpl) RecordCall(ctx context.Context, meta FuncMeta, outcome Outcome, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("func.id", meta.FuncID()),
		attribute.String("func.name", meta.Name),
	}
	if meta.Namespace != "" {
		attrs = append(attrs, attribute.String("func.namespace", meta.Namespace))
	}

	m.totalCount.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("memo.outcome", string(outcome)))...))
	if err != nil {
		m.errorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, metric.WithAttributes(attrs...))
}

type noopMetrics struct{}

func (noopMetrics) RecordCall(context.Context, FuncMeta, Outcome, time.Duration, error) {}

// StoreMetrics counts store operations (hits, misses, evictions and so on).
// It satisfies the cache package's Recorder interface.
type StoreMetrics struct {
	ops metric.Int64Counter
}

// NewStoreMetrics creates store operation counters on meter.
func NewStoreMetrics(meter metric.Meter) (*StoreMetrics, error) {
	ops, err := meter.Int64Counter(
		"memo.store.ops",
		metric.WithDescription("Cache store operations by store and kind"),
		metric.WithUnit("{op}"),
	)
	if err != nil {
		return nil, err
	}
	return &StoreMetrics{ops: ops}, nil
}

// Record increments the counter for one store operation.
func (s *StoreMetrics) Record(ctx context.Context, store, op string) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.store", store),
		attribute.String("cache.op", op),
	))
}
