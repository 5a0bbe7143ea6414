// Package cache stores exported layout artifacts by content key.
//
// Components are built deterministically from their parameters, so an
// artifact (layout JSON, polygon dump, netlist graph) only depends on the
// component signature and the export options. The pipeline looks artifacts
// up by an [ArtifactKey] before exporting and stores them afterwards.
//
// Three backends implement [Cache]:
//   - [FileCache] for the CLI, under ~/.cache/pcellkit
//   - [RedisCache] for the API server, shared between instances
//   - [NullCache] when caching is disabled
//
// Wrap any of them with [Instrumented] to report hits and misses to the
// observability cache hooks.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/pcellkit/pkg/observability"
)

// Cache stores opaque artifacts under string keys.
type Cache interface {
	// Get returns the value for key and whether it was found. Expired
	// entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Default lifetimes.
const (
	// TTLArtifact bounds exported artifacts. Artifacts never go stale for a
	// fixed signature; the TTL only keeps the cache from growing forever.
	TTLArtifact = 7 * 24 * time.Hour

	// TTLLayout bounds stored layout documents.
	TTLLayout = 30 * 24 * time.Hour
)

type instrumented struct {
	Cache
}

// Instrumented reports every Get and Set on c to [observability.Cache],
// keyed by the key type ("artifact", "layout").
func Instrumented(c Cache) Cache {
	return instrumented{c}
}

func (c instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, ok, err
}

func (c instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

// keyType returns the segment before the hash: "artifact" for both
// "artifact:ab12" and "team:artifact:ab12".
func keyType(key string) string {
	i := strings.LastIndex(key, ":")
	if i < 0 {
		return "unknown"
	}
	prefix := key[:i]
	return prefix[strings.LastIndex(prefix, ":")+1:]
}
