// Package cache stores translations keyed by source locale, target locale,
// shield signature and normalized source text.
//
// A Cache is an explicit object owned by one run. It is safe for concurrent
// use: lookups share a read lock, and writes to the same key are serialized.
// Entries are written through to an optional Store (sqlite file, PostgreSQL
// or YAML file). Persistence failures never abort a run; the cache warns and
// continues in memory.
package cache
