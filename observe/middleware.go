package observe

import (
	"context"
	"time"
)

// CallFunc is the signature Middleware wraps: one memoized call that reports
// how it was served.
type CallFunc func(ctx context.Context, meta FuncMeta) (Outcome, error)

// Middleware wraps memoized calls with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe CallFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped function are recorded and propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps fn with tracing, metrics and logging.
func (m *Middleware) Wrap(fn CallFunc) CallFunc {
	return func(ctx context.Context, meta FuncMeta) (Outcome, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		outcome, err := fn(ctx, meta)
		if err != nil {
			outcome = OutcomeError
		}
		duration := time.Since(start)

		m.tracer.EndSpan(span, outcome, err)
		m.metrics.RecordCall(ctx, meta, outcome, duration, err)

		log := m.logger.WithFunc(meta)
		fields := []Field{
			{Key: "outcome", Value: string(outcome)},
			{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
		}
		switch {
		case err != nil:
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			log.Error(ctx, "memoized call failed", fields...)
		case outcome == OutcomeHit:
			log.Debug(ctx, "memoized call served from cache", fields...)
		default:
			log.Info(ctx, "memoized call computed", fields...)
		}

		return outcome, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(newTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
