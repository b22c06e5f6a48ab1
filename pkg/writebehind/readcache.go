package writebehind

import (
	"context"
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LoadFunc reads one value through to the durable store on a cache miss.
type LoadFunc[V any] func(ctx context.Context, key string) (V, error)

// ReadCache is the read side of the write-behind pattern: a TTL'd LRU over
// the durable store, with a read-through loader and a last-known-good stale
// tier served when the store is unavailable.
type ReadCache[V any] struct {
	name    string
	fresh   *expirable.LRU[string, V]
	stale   *lru.Cache[string, V]
	load    LoadFunc[V]
	timeout time.Duration
}

// NewReadCache creates a read cache.
//
// Parameters:
//   - name: Cache name used in log lines
//   - size: Maximum number of cached entries (LRU-evicted)
//   - ttl: Freshness TTL; expired entries trigger a read-through
//   - loadTimeout: Per-read deadline applied to the loader
//   - load: Read-through loader hitting the durable store
func NewReadCache[V any](name string, size int, ttl, loadTimeout time.Duration, load LoadFunc[V]) *ReadCache[V] {
	if size <= 0 {
		size = 1
	}
	staleTier, _ := lru.New[string, V](size)
	return &ReadCache[V]{
		name:    name,
		fresh:   expirable.NewLRU[string, V](size, nil, ttl),
		stale:   staleTier,
		load:    load,
		timeout: loadTimeout,
	}
}

// Get returns the cached value for key, reading through to the durable store
// on a miss. When the store read fails and a stale value exists, the stale
// value is served instead of failing the caller.
func (c *ReadCache[V]) Get(ctx context.Context, key string) (V, error) {
	if v, ok := c.fresh.Get(key); ok {
		return v, nil
	}

	loadCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	v, err := c.load(loadCtx, key)
	if err != nil {
		if stale, ok := c.stale.Get(key); ok {
			log.Printf("[CACHE] %s: load failed for %s, serving stale value: %v", c.name, key, err)
			return stale, nil
		}
		var zero V
		return zero, err
	}

	c.fresh.Add(key, v)
	c.stale.Add(key, v)
	return v, nil
}

// Set installs a value directly, as after a local mutation that was also
// enqueued for write-behind persistence.
func (c *ReadCache[V]) Set(key string, v V) {
	c.fresh.Add(key, v)
	c.stale.Add(key, v)
}

// Invalidate drops a key from both tiers.
func (c *ReadCache[V]) Invalidate(key string) {
	c.fresh.Remove(key)
	c.stale.Remove(key)
}

// Purge drops all entries. Intended for test isolation.
func (c *ReadCache[V]) Purge() {
	c.fresh.Purge()
	c.stale.Purge()
}
