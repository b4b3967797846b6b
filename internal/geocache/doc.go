// Package geocache persists resolved place names keyed by coordinates.
//
// Lookups are radius-tolerant: a query matches the nearest cached record
// within a configurable distance (3 km by default) instead of requiring
// exact coordinate equality. Cache misses fall through to a Resolver and
// store the result, so nearby queries in this run and future runs never
// pay the resolution cost again.
package geocache
