package resilience

import (
	"context"
	"time"
)

// DefaultTimeout is used when TimeoutConfig.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// TimeoutConfig configures a Timeout.
type TimeoutConfig struct {
	// Timeout bounds one call. Default: 30s.
	Timeout time.Duration
}

// Timeout bounds how long one call may run.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a Timeout.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Timeout{config: config}
}

// Execute runs op with a deadline. When the deadline passes first, Execute
// returns ErrTimeout without waiting for op, which sees its ctx cancelled.
// Cancellation of the parent ctx returns the parent's cause. A failure
// reported after the deadline is replaced by ErrTimeout.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeoutCause(ctx, t.config.Timeout, ErrTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		if err != nil && ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return err
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// Config returns the effective configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// ExecuteWithTimeout runs op bounded by timeout.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	return NewTimeout(TimeoutConfig{Timeout: timeout}).Execute(ctx, op)
}
