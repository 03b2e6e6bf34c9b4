package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// BackoffStrategy selects how the delay grows between attempts.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay by Multiplier each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear adds InitialDelay each attempt.
	BackoffLinear
	// BackoffConstant waits InitialDelay between every attempt.
	BackoffConstant
)

// jitterFactor is the randomization applied to exponential delays when
// Jitter is set.
const jitterFactor = 0.25

// RetryConfig configures a Retry.
type RetryConfig struct {
	// MaxAttempts counts the first call. Default: 3.
	MaxAttempts int

	// InitialDelay is the delay before the second attempt. Default: 100ms.
	InitialDelay time.Duration

	// MaxDelay caps the delay between attempts. Default: 30s.
	MaxDelay time.Duration

	// Multiplier grows exponential delays. Default: 2.0.
	Multiplier float64

	// Strategy defaults to BackoffExponential.
	Strategy BackoffStrategy

	// Jitter randomizes exponential delays by ±25%.
	Jitter bool

	// RetryIf reports whether err is worth another attempt. Default: any
	// error except context cancellation.
	RetryIf func(err error) bool

	// OnRetry is called before each wait with the attempt that failed.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry repeats an operation until it succeeds or attempts run out.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a Retry, filling unset fields with defaults.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.MaxDelay < config.InitialDelay {
		config.MaxDelay = config.InitialDelay
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = retryable
	}
	return &Retry{config: config}
}

func retryable(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// Execute calls op until it returns nil, RetryIf rejects its error, the
// attempts are used up or ctx ends. The last error from op is returned
// unchanged; a cancelled ctx returns its cause.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := op(ctx)
		if err != nil && !r.config.RetryIf(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(r.newBackOff()),
		backoff.WithMaxTries(uint(r.config.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, delay time.Duration) {
			if r.config.OnRetry != nil {
				r.config.OnRetry(attempt, err, delay)
			}
		}),
	)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Unwrap()
	}
	return err
}

func (r *Retry) newBackOff() backoff.BackOff {
	switch r.config.Strategy {
	case BackoffConstant:
		return backoff.NewConstantBackOff(r.config.InitialDelay)
	case BackoffLinear:
		return &linearBackOff{step: r.config.InitialDelay, max: r.config.MaxDelay}
	default:
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = r.config.InitialDelay
		b.MaxInterval = r.config.MaxDelay
		b.Multiplier = r.config.Multiplier
		b.RandomizationFactor = 0
		if r.config.Jitter {
			b.RandomizationFactor = jitterFactor
		}
		return b
	}
}

// Config returns the effective configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

// linearBackOff waits step, 2*step, 3*step, ... capped at max.
type linearBackOff struct {
	step time.Duration
	max  time.Duration
	n    int64
}

func (b *linearBackOff) Reset() { b.n = 0 }

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return min(b.step*time.Duration(b.n), b.max)
}
