package resilience

import (
	"context"
	"time"
)

// Executor composes the resilience patterns around one operation. It
// satisfies cache.Runner.
type Executor struct {
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	circuitBreaker *CircuitBreaker
	retry          *Retry
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an Executor. With no options it calls the operation
// directly.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithRateLimiter limits how often the operation starts.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead limits how many operations run at once.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithCircuitBreaker fails fast while the operation keeps failing.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRetry repeats failed attempts.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithTimeout bounds each attempt by d.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: d})
	}
}

// WithTimeoutConfig bounds each attempt with t.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) {
		e.timeout = t
	}
}

// Execute runs op through the configured patterns, outermost first:
// rate limiter, bulkhead, circuit breaker, retry, timeout. The circuit
// breaker therefore sees one outcome per Execute, after retries, and the
// timeout applies to each attempt.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	run := op

	if e.timeout != nil {
		run = wrap(run, e.timeout.Execute)
	}
	if e.retry != nil {
		run = wrap(run, e.retry.Execute)
	}
	if e.circuitBreaker != nil {
		run = wrap(run, e.circuitBreaker.Execute)
	}
	if e.bulkhead != nil {
		run = wrap(run, e.bulkhead.Execute)
	}
	if e.rateLimiter != nil {
		run = wrap(run, e.rateLimiter.Execute)
	}

	return run(ctx)
}

type operation = func(context.Context) error

func wrap(inner operation, with func(context.Context, operation) error) operation {
	return func(ctx context.Context) error {
		return with(ctx, inner)
	}
}
