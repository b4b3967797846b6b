// Package checksum persists the content-hash deduplication store.
//
// The store maps a SHA-256 digest to the first source path ever imported
// under that digest. It is a single JSON document rewritten atomically on
// every mutation; a corrupt or missing document opens as an empty store.
// A digest is never remapped by normal operation, only by Rebuild.
package checksum
