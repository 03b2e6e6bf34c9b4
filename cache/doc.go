// Package cache provides function-result memoization over pluggable stores.
//
// It provides a Store interface with two implementations (TTLStore with lazy
// per-entry expiration, LRUStore with bounded least-recently-used eviction),
// a TemplateKeyer that derives 128-bit keys from a chosen subset of a
// function's parameters, and a Memoizer that binds the two to a function.
package cache
