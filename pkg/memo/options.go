package memo

import "time"

// Option applies a configuration option to the Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithName sets the cache name used in metrics and timeout errors.
func WithName[K comparable, V any](name string) Option[K, V] {
	return func(c *Cache[K, V]) {
		if name != "" {
			c.name = name
		}
	}
}

// WithTTL sets the expire-after-write duration for cached values.
func WithTTL[K comparable, V any](ttl time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithResultTimeout bounds how long a caller waits on an in-flight
// computation. Zero disables the bound; the caller context still applies.
func WithResultTimeout[K comparable, V any](d time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) {
		if d >= 0 {
			c.resultTimeout = d
		}
	}
}

// WithKeyString sets the key renderer used for single-flight grouping.
func WithKeyString[K comparable, V any](fn func(K) string) Option[K, V] {
	return func(c *Cache[K, V]) {
		if fn != nil {
			c.keyString = fn
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *Cache[K, V]) {
		if now != nil {
			c.now = now
		}
	}
}
