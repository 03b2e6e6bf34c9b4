// Package resilience guards the recomputation a memoizer performs on a
// cache miss.
//
// A memoized function usually fronts something slow or remote. The
// patterns here bound how that function is called when its result is not
// cached; cache hits never reach them.
//
//   - Timeout bounds one attempt.
//   - Retry repeats failed attempts with backoff (github.com/cenkalti/backoff/v5).
//   - CircuitBreaker fails fast after repeated failures.
//   - Bulkhead caps concurrent recomputations (golang.org/x/sync/semaphore).
//   - RateLimiter caps the recomputation rate (golang.org/x/time/rate).
//
// An Executor composes them and satisfies cache.Runner:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithTimeout(2*time.Second),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 4})),
//	)
//
//	m, err := cache.NewLRU(fetchUser, sig, []string{"id"}, 1024, false,
//	    cache.WithRunner[*User](exec),
//	)
//
// Errors returned after the last attempt are the function's own error, so
// callers can match them with errors.Is.
package resilience
