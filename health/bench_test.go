package health

import (
	"context"
	"fmt"
	"testing"

	"github.com/jonwraymond/memocache/cache"
)

func BenchmarkStoreChecker_Check(b *testing.B) {
	store, _ := cache.NewLRUStore(1024)
	ctx := context.Background()
	for i := range 1024 {
		_ = store.Set(ctx, fmt.Sprint(i), i, cache.DefaultExpiration)
	}
	checker, _ := NewStoreChecker("bench", store, StoreCheckerConfig{MinHitRatio: 0.5})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = checker.Check(ctx)
	}
}

func benchmarkCheckAll(b *testing.B, checkers, concurrency int) {
	agg := NewAggregator(AggregatorConfig{MaxConcurrency: concurrency})
	for i := range checkers {
		_ = agg.Register(staticChecker(fmt.Sprintf("check%d", i), Healthy("ok")))
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = agg.CheckAll(ctx)
	}
}

func BenchmarkAggregator_CheckAll(b *testing.B) {
	for _, n := range []int{1, 5, 20} {
		b.Run(fmt.Sprintf("checkers=%d/sequential", n), func(b *testing.B) {
			benchmarkCheckAll(b, n, 1)
		})
		b.Run(fmt.Sprintf("checkers=%d/unbounded", n), func(b *testing.B) {
			benchmarkCheckAll(b, n, 0)
		})
	}
}

func BenchmarkOverallStatus(b *testing.B) {
	results := map[string]Result{
		"a": Healthy("ok"),
		"b": Degraded("slow"),
		"c": Healthy("ok"),
		"d": Healthy("ok"),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = OverallStatus(results)
	}
}

func BenchmarkStatus_String(b *testing.B) {
	statuses := []Status{StatusHealthy, StatusDegraded, StatusUnhealthy}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = statuses[i%len(statuses)].String()
	}
}
