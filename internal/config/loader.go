package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if STANDINGS_CONFIG is set
//  3. env (prefix STANDINGS_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("STANDINGS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
		}
	}

	// Environment variables: STANDINGS_BUCKET_WIDTH, STANDINGS_MIN_RATING, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("STANDINGS_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "standings_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BucketWidth <= 0 {
		return fmt.Errorf("%w: bucket_width must be positive", ErrInvalidConfig)
	}
	if c.MinRating <= 0 || c.MaxRating <= c.MinRating {
		return fmt.Errorf("%w: rating range %d..%d", ErrInvalidConfig, c.MinRating, c.MaxRating)
	}
	if (c.MaxRating-c.MinRating)%c.BucketWidth != 0 {
		return fmt.Errorf("%w: bucket_width %d does not divide rating range %d..%d",
			ErrInvalidConfig, c.BucketWidth, c.MinRating, c.MaxRating)
	}
	if c.SnapshotTTLDays <= 0 || c.RankingTTLMinutes <= 0 || c.DistributionTTLMinutes <= 0 {
		return fmt.Errorf("%w: TTLs must be positive", ErrInvalidConfig)
	}
	if c.MaxTopLimit <= 0 {
		return fmt.Errorf("%w: max_top_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
