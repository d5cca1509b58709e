// Package memo provides a keyed, single-flight, expire-after-write cache
// for expensive derived values.
//
// At most one computation runs per key at any time; concurrent callers of
// an absent or expired key share the in-flight result. A caller may bound
// its wait with a result timeout: exceeding it returns ErrResultTimeout to
// that caller only, while the computation keeps running and populates the
// cache for later callers.
package memo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/standings/pkg/metrics"
)

// Default cache configuration constants.
const (
	defaultTTL = 15 * time.Minute
)

// Compute produces the value for a key on a cache miss. The context passed
// in is detached from any individual caller.
type Compute[K comparable, V any] func(ctx context.Context, key K) (V, error)

type entry[V any] struct {
	value   V
	expires time.Time
}

// Cache is a keyed expire-after-write cache with single-flight recompute.
// The zero value is not usable; construct with New.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	group   singleflight.Group
	compute Compute[K, V]

	name          string
	ttl           time.Duration
	resultTimeout time.Duration // 0 means wait on ctx only
	keyString     func(K) string
	now           func() time.Time
}

// New creates a cache around the given compute function.
func New[K comparable, V any](compute Compute[K, V], opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		entries:   make(map[K]entry[V]),
		compute:   compute,
		name:      "memo",
		ttl:       defaultTTL,
		keyString: func(k K) string { return fmt.Sprint(k) },
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the cached value for key, computing it when absent or
// expired. Concurrent callers for the same key share one computation.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	if v, ok := c.lookup(key); ok {
		metrics.RecordCacheHit(c.name)
		return v, nil
	}
	metrics.RecordCacheMiss(c.name)

	ch := c.group.DoChan(c.keyString(key), func() (any, error) {
		// Detached from the caller: a waiter timing out or cancelling
		// must not abort the shared computation.
		start := time.Now()
		v, err := c.compute(context.WithoutCancel(ctx), key)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = entry[V]{value: v, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		metrics.RecordRecompute(c.name, time.Since(start).Seconds())
		return v, nil
	})

	var timeout <-chan time.Time
	if c.resultTimeout > 0 {
		t := time.NewTimer(c.resultTimeout)
		defer t.Stop()
		timeout = t.C
	}

	var zero V
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(V)
		if !ok {
			return zero, fmt.Errorf("%w: unexpected value type %T", ErrComputeFailed, res.Val)
		}
		return v, nil
	case <-timeout:
		metrics.RecordCacheTimeout(c.name)
		return zero, fmt.Errorf("%w: %s after %s", ErrResultTimeout, c.name, c.resultTimeout)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Peek returns the cached value without triggering a computation.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	return c.lookup(key)
}

// Invalidate drops the cached value for key. An in-flight computation for
// the key is unaffected and will still populate the cache.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[K, V]) lookup(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expires) {
		var zero V
		return zero, false
	}
	return e.value, true
}
