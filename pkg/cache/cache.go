// Package cache provides the byte-level caches used for Compiler Explorer
// metadata (language, compiler and library listings) and for per-compiler
// tool metadata.
//
// Compilation results are never cached: every compile or execute request goes
// to the remote service. What is cached is slow-moving listing data that many
// tool calls consult, such as the compiler list used to validate tool ids.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under the XDG cache directory
//   - [MemoryCache]: in-process map with per-entry expiry
//   - [RedisCache]: shared cache for HTTP deployments with several replicas
//   - [NullCache]: never stores anything
//
// All backends store opaque bytes; callers encode values themselves (the
// integrations client stores JSON).
package cache

import (
	"context"
	"time"
)

// Cache is a byte-level key/value store with per-entry TTL.
// A ttl of zero means the entry does not expire.
type Cache interface {
	// Get returns the data for key and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key for ttl.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}
