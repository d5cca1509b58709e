package ranking

import (
	"time"

	"github.com/okian/standings/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source used to stamp snapshot expiries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSnapshotTTL sets how long a written snapshot stays live in the store.
func WithSnapshotTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.snapshotTTL = d
		}
	}
}

// WithRankingTTL sets the expire-after-write duration of per-perf rank maps.
func WithRankingTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.rankingTTL = d
		}
	}
}

// WithResultTimeout bounds how long a ranking read waits on an in-flight
// rank map recomputation.
func WithResultTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.resultTimeout = d
		}
	}
}
