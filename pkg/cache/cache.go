// Package cache stores laid-out workflows and rendered artifacts.
//
// # Backends
//
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: shared cache for the API server
//   - [NullCache]: caching disabled
//
// # Keys
//
// Keys are built by a [Keyer] from content hashes so that identical
// documents laid out with identical options share an entry:
//
//	k := cache.NewDefaultKeyer()
//	key := k.LayoutKey(cache.Hash(doc), cache.LayoutKeyOpts{Strategy: "connectivity"})
//
// Use [NewScopedKeyer] to give a tenant or environment its own key space.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	// LayoutTTL applies to positioned workflow documents.
	LayoutTTL = 7 * 24 * time.Hour

	// ArtifactTTL applies to rendered SVG, DOT, PNG and PDF output.
	ArtifactTTL = 7 * 24 * time.Hour

	// DocumentTTL applies to workflow documents fetched over HTTP.
	DocumentTTL = time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A ttl of 0 stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
