package writebehind

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCacheReadThrough(t *testing.T) {
	loads := 0
	c := NewReadCache("test", 10, time.Minute, 0,
		func(ctx context.Context, key string) (string, error) {
			loads++
			return "value-" + key, nil
		})

	v, err := c.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "value-alice", v)
	assert.Equal(t, 1, loads)

	// Fresh hit must not touch the loader again.
	_, err = c.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
}

func TestReadCacheServesStaleOnLoadFailure(t *testing.T) {
	failing := false
	// expirable.NewLRU panics on TTLs below 100ns (its sweep ticker is ttl/100);
	// 1µs still expires well before the 1ms sleep below.
	c := NewReadCache("test", 10, time.Microsecond, 0,
		func(ctx context.Context, key string) (string, error) {
			if failing {
				return "", errors.New("store down")
			}
			return "good", nil
		})

	_, err := c.Get(context.Background(), "alice")
	require.NoError(t, err)

	// Let the fresh entry expire, then break the store.
	time.Sleep(time.Millisecond)
	failing = true

	v, err := c.Get(context.Background(), "alice")
	require.NoError(t, err, "stale value must be served instead of the error")
	assert.Equal(t, "good", v)
}

func TestReadCacheErrorWithoutStale(t *testing.T) {
	c := NewReadCache("test", 10, time.Minute, 0,
		func(ctx context.Context, key string) (string, error) {
			return "", errors.New("store down")
		})

	_, err := c.Get(context.Background(), "alice")
	assert.Error(t, err)
}

func TestReadCacheSetAndInvalidate(t *testing.T) {
	loads := 0
	c := NewReadCache("test", 10, time.Minute, 0,
		func(ctx context.Context, key string) (string, error) {
			loads++
			return "loaded", nil
		})

	c.Set("alice", "local")
	v, err := c.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "local", v)
	assert.Equal(t, 0, loads)

	c.Invalidate("alice")
	v, err = c.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "loaded", v)
	assert.Equal(t, 1, loads)
}
