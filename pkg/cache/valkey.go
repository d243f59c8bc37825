package cache

import (
	"context"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyCache implements Cache on top of a Valkey server.
type ValkeyCache struct {
	client valkey.Client
}

// NewValkeyCache connects to addr. Client-side caching is disabled for local
// addresses, where the server is usually a development instance without
// CLIENT TRACKING support.
func NewValkeyCache(ctx context.Context, addr string) (*ValkeyCache, error) {
	var client valkey.Client
	err := dial(ctx, BackendValkey, addr, func(context.Context) error {
		c, err := valkey.NewClient(valkey.ClientOption{
			DisableCache: strings.Contains(addr, "127.0.0.1") || strings.Contains(addr, "localhost"),
			InitAddress:  []string{addr},
		})
		client = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ValkeyCache{client: client}, nil
}

// Get retrieves a value from Valkey.
func (c *ValkeyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cmd := c.client.B().Get().Key(key).Build()
	data, err := c.client.Do(ctx, cmd).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value in Valkey with an optional expiry.
func (c *ValkeyCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	set := c.client.B().Set().Key(key).Value(valkey.BinaryString(data))
	if ttl > 0 {
		return c.client.Do(ctx, set.Px(ttl).Build()).Error()
	}
	return c.client.Do(ctx, set.Build()).Error()
}

// Delete removes a value from Valkey.
func (c *ValkeyCache) Delete(ctx context.Context, key string) error {
	cmd := c.client.B().Del().Key(key).Build()
	return c.client.Do(ctx, cmd).Error()
}

// Close closes the underlying client.
func (c *ValkeyCache) Close() error {
	c.client.Close()
	return nil
}

// Ensure ValkeyCache implements Cache.
var _ Cache = (*ValkeyCache)(nil)
