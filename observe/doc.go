// Package observe provides observability primitives for memoized calls.
//
// It is a pure instrumentation library: spans, metrics and structured logs
// for cache hits, misses and recomputations, plus exporter setup. The cache
// package wires it in through cache.WithObserver and cache.WithRecorder.
package observe
