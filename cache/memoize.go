package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/memocache/observe"
)

// Func is the signature of a memoizable function.
type Func[R any] func(ctx context.Context, args Args) (R, error)

// Runner executes the recomputation on a cache miss. A
// *resilience.Executor satisfies it.
type Runner interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

// Option configures a Memoizer.
type Option[R any] func(*Memoizer[R])

// WithEscapeCacheIf skips storing results for which pred returns true.
// Such results are returned to the caller but recomputed on every call.
func WithEscapeCacheIf[R any](pred func(R) bool) Option[R] {
	return func(m *Memoizer[R]) {
		m.escapeIf = pred
	}
}

// WithTTL sets the ttl passed to Store.Set for every stored result.
func WithTTL[R any](ttl time.Duration) Option[R] {
	return func(m *Memoizer[R]) {
		m.ttl = ttl
	}
}

// WithLogger sets the logger used for non-fatal store failures.
func WithLogger[R any](logger observe.Logger) Option[R] {
	return func(m *Memoizer[R]) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithObserver records a span, metrics and a log line for every call.
func WithObserver[R any](obs observe.Observer, meta observe.FuncMeta) Option[R] {
	return func(m *Memoizer[R]) {
		m.observer = obs
		m.meta = meta
	}
}

// WithRunner routes recomputation through r, typically a resilience
// executor adding timeouts and retries.
func WithRunner[R any](r Runner) Option[R] {
	return func(m *Memoizer[R]) {
		m.runner = r
	}
}

// WithSingleFlight collapses concurrent misses on the same key into one
// computation. Without it, concurrent misses each compute and the last
// Set wins.
func WithSingleFlight[R any]() Option[R] {
	return func(m *Memoizer[R]) {
		m.group = &singleflight.Group{}
	}
}

// Memoizer caches the results of one function.
//
// Contract:
// - Concurrency: Call is safe for concurrent use. The function runs
// outside the store lock.
// - Errors: key derivation errors and function errors are returned
// unchanged; function errors are never cached.
type Memoizer[R any] struct {
	fn       Func[R]
	keyer    Keyer
	store    Store
	escapeIf func(R) bool
	ttl      time.Duration
	runner   Runner
	group    *singleflight.Group
	logger   observe.Logger
	observer observe.Observer
	meta     observe.FuncMeta
	mw       *observe.Middleware
}

type computed[R any] struct {
	value   R
	outcome observe.Outcome
}

// New binds fn to keyer and store. It registers sig with keyer.
func New[R any](fn Func[R], sig Signature, keyer Keyer, store Store, opts ...Option[R]) (*Memoizer[R], error) {
	if fn == nil {
		return nil, ErrNilFunc
	}
	if keyer == nil {
		return nil, ErrNilKeyer
	}
	if store == nil {
		return nil, ErrNilStore
	}

	m := &Memoizer[R]{
		fn:    fn,
		keyer: keyer,
		store: store,
		ttl:   DefaultExpiration,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if err := keyer.Register(sig); err != nil {
		return nil, err
	}

	if m.observer != nil {
		mw, err := observe.MiddlewareFromObserver(m.observer)
		if err != nil {
			return nil, fmt.Errorf("cache: observer middleware: %w", err)
		}
		m.mw = mw
		if m.logger == nil {
			m.logger = m.observer.Logger().WithFunc(m.meta)
		}
	}
	if m.logger == nil {
		m.logger = observe.NopLogger()
	}

	return m, nil
}

// NewLRU memoizes fn in a new LRUStore keyed by template.
func NewLRU[R any](fn Func[R], sig Signature, template []string, capacity int, deepCopy bool, opts ...Option[R]) (*Memoizer[R], error) {
	store, err := NewLRUStore(capacity, WithDeepCopy(deepCopy))
	if err != nil {
		return nil, err
	}
	return New(fn, sig, NewTemplateKeyer(template...), store, opts...)
}

// NewExpiring memoizes fn in a new TTLStore keyed by template. A
// non-positive expiration stores entries without deadline.
func NewExpiring[R any](fn Func[R], sig Signature, template []string, expiration time.Duration, deepCopy bool, opts ...Option[R]) (*Memoizer[R], error) {
	if expiration <= 0 {
		expiration = NoExpiration
	}
	store := NewTTLStore(WithExpiration(expiration), WithDeepCopy(deepCopy))
	return New(fn, sig, NewTemplateKeyer(template...), store, opts...)
}

// NewFromConfig memoizes fn in a store built from cfg.
func NewFromConfig[R any](fn Func[R], sig Signature, template []string, cfg Config, opts ...Option[R]) (*Memoizer[R], error) {
	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}
	return New(fn, sig, NewTemplateKeyer(template...), store, opts...)
}

// Call returns the cached result for args, computing and storing it on a
// miss.
func (m *Memoizer[R]) Call(ctx context.Context, args Args) (R, error) {
	if m.mw == nil {
		r, _, err := m.call(ctx, args)
		return r, err
	}

	var result R
	_, err := m.mw.Wrap(func(ctx context.Context, _ observe.FuncMeta) (observe.Outcome, error) {
		r, outcome, err := m.call(ctx, args)
		result = r
		return outcome, err
	})(ctx, m.meta)
	return result, err
}

func (m *Memoizer[R]) call(ctx context.Context, args Args) (R, observe.Outcome, error) {
	var zero R

	key, err := m.keyer.Key(args)
	if err != nil {
		return zero, observe.OutcomeError, err
	}

	v, err := m.store.Get(ctx, key)
	if err == nil {
		r, err := m.assert(v)
		if err != nil {
			return zero, observe.OutcomeError, err
		}
		return r, observe.OutcomeHit, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return zero, observe.OutcomeError, err
	}

	if m.group == nil {
		return m.computeAndStore(ctx, key, args)
	}

	shared, err, _ := m.group.Do(key, func() (any, error) {
		r, outcome, err := m.computeAndStore(ctx, key, args)
		return computed[R]{value: r, outcome: outcome}, err
	})
	if err != nil {
		return zero, observe.OutcomeError, err
	}
	c := shared.(computed[R])
	return c.value, c.outcome, nil
}

func (m *Memoizer[R]) computeAndStore(ctx context.Context, key string, args Args) (R, observe.Outcome, error) {
	r, err := m.run(ctx, args)
	if err != nil {
		return r, observe.OutcomeError, err
	}

	if m.escapeIf != nil && m.escapeIf(r) {
		return r, observe.OutcomeEscaped, nil
	}

	if err := m.store.Set(ctx, key, r, m.ttl); err != nil {
		m.logger.Warn(ctx, "cache set failed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
	return r, observe.OutcomeMiss, nil
}

func (m *Memoizer[R]) run(ctx context.Context, args Args) (R, error) {
	if m.runner == nil {
		return m.fn(ctx, args)
	}

	// An attempt abandoned by a runner timeout may still finish later. Only
	// attempts whose context is still live publish their value.
	var (
		mu sync.Mutex
		r  R
	)
	err := m.runner.Execute(ctx, func(ctx context.Context) error {
		v, err := m.fn(ctx, args)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		r = v
		return nil
	})
	if err != nil {
		var zero R
		return zero, err
	}
	mu.Lock()
	defer mu.Unlock()
	return r, nil
}

func (m *Memoizer[R]) assert(v any) (R, error) {
	var zero R
	if v == nil {
		return zero, nil
	}
	r, ok := v.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %T", ErrTypeMismatch, v)
	}
	return r, nil
}

// Invalidate removes the cached result for args. Returns ErrCacheMiss when
// nothing is cached for them.
func (m *Memoizer[R]) Invalidate(ctx context.Context, args Args) error {
	key, err := m.keyer.Key(args)
	if err != nil {
		return err
	}
	return m.store.Delete(ctx, key)
}

// Flush removes every cached result from the underlying store.
func (m *Memoizer[R]) Flush(ctx context.Context) {
	m.store.Flush(ctx)
}

// Store returns the underlying store.
func (m *Memoizer[R]) Store() Store {
	return m.store
}

// Keyer returns the key deriver.
func (m *Memoizer[R]) Keyer() Keyer {
	return m.keyer
}
