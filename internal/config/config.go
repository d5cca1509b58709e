// Package config defines library configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Durations are plain integers in the unit named by the field.
// - External errors must be wrapped via this package's sentinels.
package config

import (
	"time"
)

// Config contains the tunables of the standings library.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// SnapshotTTLDays is how long a ranking snapshot stays live.
	SnapshotTTLDays int `koanf:"snapshot_ttl_days"`

	// RankingTTLMinutes expires per-perf rank maps after write.
	RankingTTLMinutes int `koanf:"ranking_ttl_minutes"`

	// ResultTimeoutSeconds bounds a caller waiting on an in-flight
	// rank map recomputation.
	ResultTimeoutSeconds int `koanf:"result_timeout_seconds"`

	// DistributionTTLMinutes expires cached rating histograms.
	DistributionTTLMinutes int `koanf:"distribution_ttl_minutes"`

	// BucketWidth is the rating width of one histogram bucket.
	BucketWidth int `koanf:"bucket_width"`

	// MinRating and MaxRating bound the histogram boundaries, inclusive.
	MinRating int `koanf:"min_rating"`
	MaxRating int `koanf:"max_rating"`

	// MaxTopLimit caps top-K query sizes.
	MaxTopLimit int `koanf:"max_top_limit"`

	// RedisAddr switches the snapshot store to redis when non-empty,
	// e.g. "localhost:6379". Empty selects the in-memory store.
	RedisAddr string `koanf:"redis_addr"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		SnapshotTTLDays:        7,
		RankingTTLMinutes:      15,
		ResultTimeoutSeconds:   10,
		DistributionTTLMinutes: 180,
		BucketWidth:            25,
		MinRating:              800,
		MaxRating:              2800,
		MaxTopLimit:            200,
	}
}

// SnapshotTTL returns the snapshot lifetime as a duration.
func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLDays) * 24 * time.Hour
}

// RankingTTL returns the rank map expiry as a duration.
func (c *Config) RankingTTL() time.Duration {
	return time.Duration(c.RankingTTLMinutes) * time.Minute
}

// ResultTimeout returns the caller wait bound as a duration.
func (c *Config) ResultTimeout() time.Duration {
	return time.Duration(c.ResultTimeoutSeconds) * time.Second
}

// DistributionTTL returns the histogram expiry as a duration.
func (c *Config) DistributionTTL() time.Duration {
	return time.Duration(c.DistributionTTLMinutes) * time.Minute
}
