package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkCaches(t *testing.T) {
	tests := []struct {
		name string
		open func(t *testing.T, addr string) Cache
	}{
		{
			name: "redis",
			open: func(t *testing.T, addr string) Cache {
				c, err := NewRedisCache(context.Background(), addr)
				require.NoError(t, err)
				return c
			},
		},
		{
			name: "valkey",
			open: func(t *testing.T, addr string) Cache {
				c, err := NewValkeyCache(context.Background(), addr)
				require.NoError(t, err)
				return c
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := miniredis.RunT(t)
			c := tt.open(t, s.Addr())
			defer c.Close()
			ctx := context.Background()

			_, hit, err := c.Get(ctx, "missing")
			assert.NoError(t, err)
			assert.False(t, hit)

			require.NoError(t, c.Set(ctx, "doc", []byte("<layout/>"), time.Minute))
			data, hit, err := c.Get(ctx, "doc")
			assert.NoError(t, err)
			assert.True(t, hit)
			assert.Equal(t, "<layout/>", string(data))
			assert.True(t, s.Exists("doc"))

			s.FastForward(2 * time.Minute)
			_, hit, err = c.Get(ctx, "doc")
			assert.NoError(t, err)
			assert.False(t, hit, "entry should expire with its TTL")

			require.NoError(t, c.Set(ctx, "forever", []byte("x"), 0))
			assert.Equal(t, time.Duration(0), s.TTL("forever"))

			require.NoError(t, c.Delete(ctx, "forever"))
			assert.False(t, s.Exists("forever"))
		})
	}
}

func TestOpenNetworkBackend(t *testing.T) {
	s := miniredis.RunT(t)
	c, err := Open(context.Background(), Options{Backend: BackendRedis, Addr: s.Addr()})
	require.NoError(t, err)
	defer c.Close()
	assert.IsType(t, &RedisCache{}, c)
}
