package standings

import (
	repository "github.com/okian/standings/internal/adapters/repository"
	config "github.com/okian/standings/internal/config"
	distribution "github.com/okian/standings/internal/domain/distribution"
	perf "github.com/okian/standings/internal/domain/perf"
	"github.com/okian/standings/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a snapshot store, overriding the configured backend.
// The caller keeps ownership and closes it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRegistry replaces the default perf type registry.
func WithRegistry(r *perf.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithConfig replaces the default configuration wholesale.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithMonitor sets the sink receiving cumulative rating-ratio samples
// after each distribution recomputation.
func WithMonitor(m distribution.Monitor) Option {
	return func(s *Service) {
		if m != nil {
			s.monitor = m
		}
	}
}

// WithLogger sets a custom logger for the service and its components.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// withLoadedConfig is WithConfig for the Load path; explicit options
// passed by the caller still apply on top.
func withLoadedConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}
