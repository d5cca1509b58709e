package repository

import "time"

// MemOption applies a configuration option to the MemStore.
type MemOption func(*MemStore)

// WithMemClock overrides the time source used for lazy TTL eviction.
func WithMemClock(now func() time.Time) MemOption {
	return func(s *MemStore) {
		if now != nil {
			s.now = now
		}
	}
}

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the key namespace used for all redis keys.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}
