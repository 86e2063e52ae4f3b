package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// RequestCache collapses concurrent identical reads into one in-flight call
// and serves resolved values until their TTL elapses. Instances are
// constructed explicitly so tests get isolated copies; there is no package
// level cache.
type RequestCache struct {
	mu      sync.Mutex
	group   singleflight.Group
	entries map[string]entry
	now     func() time.Time
}

func NewRequestCache() *RequestCache {
	return &RequestCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Dedupe returns the cached value for key if one is stored and unexpired,
// otherwise runs producer. Any burst of concurrent calls for the same key
// executes producer at most once; every caller receives the same value.
// Expired entries are evicted lazily on the next access.
func (c *RequestCache) Dedupe(ctx context.Context, key string, ttl time.Duration, producer func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if c.now().Before(e.expiresAt) {
			c.mu.Unlock()
			return e.value, nil
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		v, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = entry{value: v, expiresAt: c.now().Add(ttl)}
		c.mu.Unlock()
		return v, nil
	})
	return value, err
}

// Invalidate forcibly evicts a key. An in-flight producer for the key is
// detached from future callers, so the next Dedupe runs fresh.
func (c *RequestCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.group.Forget(key)
}
