// Package health reports the health of memoization stores.
//
// A Checker reports a Result with a Status of Healthy, Degraded or
// Unhealthy. StoreChecker inspects a cache.Store: its size against its
// capacity or a configured entry bound, and its hit ratio once enough
// lookups have been made. An Aggregator runs several checkers concurrently
// and folds their results into one Report.
//
// # Basic Usage
//
//	store, _ := cache.NewLRUStore(1024)
//	checker, _ := health.NewStoreChecker("users", store, health.StoreCheckerConfig{
//	    MinHitRatio: 0.5,
//	    MinRequests: 1000,
//	})
//
//	agg := health.NewAggregator()
//	agg.Register(checker)
//
//	report := agg.CheckAll(ctx)
//	if report.Status != health.StatusHealthy {
//	    log.Printf("cache health: %s", report.Status)
//	}
//
// TTL stores never evict on their own, so a StoreChecker with MaxEntries
// is the way to notice one growing without bound.
package health
