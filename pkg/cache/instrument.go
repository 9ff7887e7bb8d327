package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/ce-mcp/pkg/observability"
)

// Instrumented wraps a Cache and reports hits, misses and writes to the
// registered observability cache hooks. The key type passed to the hooks is
// the key's first colon-separated segment ("http", "tools", ...).
type Instrumented struct {
	Cache
}

// Instrument wraps c with observability hooks. Wrapping twice is a no-op.
func Instrument(c Cache) Cache {
	if _, ok := c.(*Instrumented); ok {
		return c
	}
	return &Instrumented{Cache: c}
}

// Get retrieves a value and reports a hit or a miss.
func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		return data, ok, err
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, keyType(key))
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType(key))
	}
	return data, ok, nil
}

// Set stores a value and reports the write.
func (c *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	return nil
}

func keyType(key string) string {
	kind, _, _ := strings.Cut(key, ":")
	return kind
}
