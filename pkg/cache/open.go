package cache

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted by [Open].
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendValkey = "valkey"
)

// Options selects and configures a cache backend.
type Options struct {
	Backend string // none, file, redis or valkey
	Dir     string // FileCache directory
	Addr    string // Redis/Valkey address (host:port)
}

// Open creates the cache described by opts. An empty backend means
// [BackendNone].
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		if opts.Dir == "" {
			return nil, fmt.Errorf("file cache: directory is required")
		}
		c, err := NewFileCache(opts.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		if opts.Addr == "" {
			return nil, fmt.Errorf("redis cache: address is required")
		}
		c, err := NewRedisCache(ctx, opts.Addr)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendValkey:
		if opts.Addr == "" {
			return nil, fmt.Errorf("valkey cache: address is required")
		}
		c, err := NewValkeyCache(ctx, opts.Addr)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// NullCache is the "none" backend: every Get misses and writes are
// discarded. The pipeline uses it when no cache is configured and the CLI
// when --no-cache is given.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error { return nil }
func (*NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
