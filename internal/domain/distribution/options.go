package distribution

import (
	"time"

	"github.com/okian/standings/pkg/logger"
)

// Option applies a configuration option to the Distribution.
type Option func(*Distribution)

// WithBucketWidth sets the rating width of one histogram bucket.
func WithBucketWidth(width int) Option {
	return func(d *Distribution) {
		if width > 0 {
			d.width = width
		}
	}
}

// WithRatingRange sets the inclusive boundary range of the histogram.
func WithRatingRange(minRating, maxRating int) Option {
	return func(d *Distribution) {
		if minRating > 0 && maxRating > minRating {
			d.minRating = minRating
			d.maxRating = maxRating
		}
	}
}

// WithTTL sets the expire-after-write duration of cached histograms.
func WithTTL(ttl time.Duration) Option {
	return func(d *Distribution) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithMonitor sets the sink receiving cumulative-ratio observations.
func WithMonitor(m Monitor) Option {
	return func(d *Distribution) {
		if m != nil {
			d.monitor = m
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(d *Distribution) {
		if log != nil {
			d.log = log
		}
	}
}
