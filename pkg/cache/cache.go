// Package cache provides pluggable byte caches for composed layout documents.
//
// The pipeline caches the merged document tree of a handle set so repeated
// requests skip discovery, parsing and merging. A cache never changes the
// output of the pipeline, only its cost.
//
// # Backends
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one JSON file per entry, for CLI use
//   - [RedisCache]: shared cache backed by Redis (go-redis)
//   - [ValkeyCache]: shared cache backed by Valkey (valkey-go)
//
// # Keys
//
// Keys are produced by a [Keyer] so that every backend agrees on the layout
// of the key space; [ScopedKeyer] adds a prefix for multi-tenant isolation.
package cache

import (
	"context"
	"strings"
	"time"
)

// Default entry lifetimes.
const (
	// TTLDocument bounds how long a merged document stays valid. Layout files
	// rarely change in production; the CLI passes --refresh after edits.
	TTLDocument = 24 * time.Hour
)

// Cache stores opaque byte values with an optional time-to-live.
// Implementations must be safe for concurrent use; concurrent writers of the
// same key resolve as last-writer-wins.
type Cache interface {
	// Get returns the value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// DocumentKey generates a key for the merged document of a handle set.
	// fingerprint identifies the module registry the documents came from.
	DocumentKey(handles []string, fingerprint string) string
}

// DefaultKeyer generates unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// DocumentKey hashes the handle list together with the fingerprint. Handle
// order is significant: it decides merge order, so it is part of the key.
func (DefaultKeyer) DocumentKey(handles []string, fingerprint string) string {
	return hashKey("layout", handles, fingerprint)
}

// Signature returns a human-readable, order-preserving signature of a handle
// set (e.g. "default+cms_page") for log lines.
func Signature(handles []string) string {
	return strings.Join(handles, "+")
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = DefaultKeyer{}
