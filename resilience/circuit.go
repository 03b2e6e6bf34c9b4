package resilience

import (
	"context"
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects every call with ErrCircuitOpen.
	StateOpen
	// StateHalfOpen lets a limited number of probe calls through.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the
	// circuit. Default: 5.
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before probing.
	// Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is the number of concurrent probes allowed while
	// half-open. Default: 1.
	HalfOpenMaxRequests int

	// IsFailure reports whether err counts against the circuit. Default:
	// any non-nil error.
	IsFailure func(err error) bool

	// OnStateChange is called after every transition, outside the lock.
	OnStateChange func(from, to State)

	// Now replaces time.Now.
	Now func() time.Time
}

// CircuitBreaker stops calling a failing function for a while.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu       sync.Mutex
	state    State
	failures int
	probes   int
	openedAt time.Time
	rejected int64
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &CircuitBreaker{config: config}
}

// transition records a state change to report once the lock is released.
type transition struct {
	from, to State
}

func (cb *CircuitBreaker) notify(changes []transition) {
	if cb.config.OnStateChange == nil {
		return
	}
	for _, c := range changes {
		cb.config.OnStateChange(c.from, c.to)
	}
}

// Execute calls op unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	changes, err := cb.admit()
	cb.notify(changes)
	if err != nil {
		return err
	}

	err = op(ctx)
	cb.notify(cb.record(err))
	return err
}

func (cb *CircuitBreaker) admit() ([]transition, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	changes := cb.advanceLocked(nil)
	switch cb.state {
	case StateOpen:
		cb.rejected++
		return changes, ErrCircuitOpen
	case StateHalfOpen:
		if cb.probes >= cb.config.HalfOpenMaxRequests {
			cb.rejected++
			return changes, ErrCircuitOpen
		}
		cb.probes++
	}
	return changes, nil
}

func (cb *CircuitBreaker) record(err error) []transition {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := cb.config.IsFailure(err)
	switch cb.state {
	case StateClosed:
		if !failed {
			cb.failures = 0
			return nil
		}
		cb.failures++
		if cb.failures >= cb.config.MaxFailures {
			return cb.setLocked(StateOpen, nil)
		}
	case StateHalfOpen:
		cb.probes--
		if failed {
			return cb.setLocked(StateOpen, nil)
		}
		return cb.setLocked(StateClosed, nil)
	}
	return nil
}

// advanceLocked moves an open circuit to half-open once ResetTimeout has
// passed.
func (cb *CircuitBreaker) advanceLocked(changes []transition) []transition {
	if cb.state == StateOpen && cb.config.Now().Sub(cb.openedAt) >= cb.config.ResetTimeout {
		return cb.setLocked(StateHalfOpen, changes)
	}
	return changes
}

func (cb *CircuitBreaker) setLocked(to State, changes []transition) []transition {
	from := cb.state
	if from == to {
		return changes
	}
	cb.state = to
	switch to {
	case StateOpen:
		cb.openedAt = cb.config.Now()
		cb.probes = 0
	case StateHalfOpen:
		cb.probes = 0
	case StateClosed:
		cb.failures = 0
		cb.probes = 0
	}
	return append(changes, transition{from: from, to: to})
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	changes := cb.advanceLocked(nil)
	state := cb.state
	cb.mu.Unlock()

	cb.notify(changes)
	return state
}

// Reset closes the circuit and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	changes := cb.setLocked(StateClosed, nil)
	cb.failures = 0
	cb.mu.Unlock()

	cb.notify(changes)
}

// CircuitBreakerMetrics is a snapshot of a CircuitBreaker.
type CircuitBreakerMetrics struct {
	State    State
	Failures int
	Rejected int64
	OpenedAt time.Time
}

// Metrics returns a snapshot of the breaker.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	changes := cb.advanceLocked(nil)
	m := CircuitBreakerMetrics{
		State:    cb.state,
		Failures: cb.failures,
		Rejected: cb.rejected,
		OpenedAt: cb.openedAt,
	}
	cb.mu.Unlock()

	cb.notify(changes)
	return m
}
