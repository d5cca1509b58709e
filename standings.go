package standings

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	repository "github.com/okian/standings/internal/adapters/repository"
	config "github.com/okian/standings/internal/config"
	distribution "github.com/okian/standings/internal/domain/distribution"
	model "github.com/okian/standings/internal/domain/model"
	perf "github.com/okian/standings/internal/domain/perf"
	"github.com/okian/standings/internal/domain/ranking"
	"github.com/okian/standings/pkg/logger"
	"github.com/okian/standings/pkg/memo"
)

// Public aliases for the domain types crossing the library boundary.
type (
	Snapshot  = model.Snapshot
	PerfStat  = model.PerfStat
	User      = model.User
	Profile   = model.Profile
	Entry     = model.Entry
	RankMap   = model.RankMap
	Histogram = model.Histogram

	PerfType = perf.Type
	Registry = perf.Registry

	Store         = repository.Store
	UserSource    = ranking.UserSource
	ProfileSource = ranking.ProfileSource
	Monitor       = distribution.Monitor
)

// Sentinels surfaced across the boundary.
var (
	// ErrNotFound reports an unknown user from a collaborator lookup.
	ErrNotFound = ranking.ErrNotFound

	// ErrResultTimeout reports a caller that gave up waiting on a shared
	// in-flight recomputation; the computation itself continues.
	ErrResultTimeout = memo.ErrResultTimeout
)

// Service is the library facade wiring the snapshot store, the ranking
// service and the two derived caches.
type Service struct {
	cfg      *config.Config
	store    repository.Store
	users    ranking.UserSource
	profiles ranking.ProfileSource
	registry *perf.Registry
	monitor  distribution.Monitor
	log      logger.Logger

	rank *ranking.Service
	dist *distribution.Distribution

	ownedRedis *redis.Client
}

// New constructs a Service around the two mandatory collaborators. The
// store defaults to in-memory, or to redis when the configuration names
// an address and no store option is given.
func New(users UserSource, profiles ProfileSource, opts ...Option) (*Service, error) {
	if users == nil || profiles == nil {
		return nil, ErrMissingCollaborator
	}

	s := &Service{
		cfg:      config.New(),
		users:    users,
		profiles: profiles,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		s.registry = perf.Default()
	}
	if s.log == nil {
		_ = logger.SetLevelString(s.cfg.LogLevel)
		s.log = logger.Named("standings")
	}
	if s.store == nil {
		if s.cfg.RedisAddr != "" {
			s.ownedRedis = redis.NewClient(&redis.Options{Addr: s.cfg.RedisAddr})
			s.store = repository.NewRedisStore(s.ownedRedis)
		} else {
			s.store = repository.NewMemStore()
		}
	}

	s.rank = ranking.New(s.store, s.users, s.profiles, s.registry,
		ranking.WithLogger(s.log),
		ranking.WithSnapshotTTL(s.cfg.SnapshotTTL()),
		ranking.WithRankingTTL(s.cfg.RankingTTL()),
		ranking.WithResultTimeout(s.cfg.ResultTimeout()),
	)

	distOpts := []distribution.Option{
		distribution.WithLogger(s.log),
		distribution.WithBucketWidth(s.cfg.BucketWidth),
		distribution.WithRatingRange(s.cfg.MinRating, s.cfg.MaxRating),
		distribution.WithTTL(s.cfg.DistributionTTL()),
	}
	if s.monitor != nil {
		distOpts = append(distOpts, distribution.WithMonitor(s.monitor))
	}
	s.dist = distribution.New(s.store, s.registry, distOpts...)

	return s, nil
}

// Load constructs a Service from the environment: defaults layered with
// an optional YAML file (STANDINGS_CONFIG) and STANDINGS_ env vars.
func Load(users UserSource, profiles ProfileSource, opts ...Option) (*Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return New(users, profiles, append([]Option{withLoadedConfig(cfg)}, opts...)...)
}

// Save upserts the user's ranking snapshot for one perf. Ineligible
// writes are skipped silently.
func (s *Service) Save(ctx context.Context, u User, perfID int32, stat PerfStat) error {
	return s.rank.Save(ctx, u, perfID, stat)
}

// SaveAll upserts snapshots for every perf the user has a stat for.
func (s *Service) SaveAll(ctx context.Context, u User) error {
	return s.rank.SaveAll(ctx, u)
}

// Remove deletes the user's snapshots across leaderboard-eligible perfs.
// Unknown users are a no-op.
func (s *Service) Remove(ctx context.Context, userID string) error {
	return s.rank.Remove(ctx, userID)
}

// TopPerf returns up to limit leaderboard entries for one perf, rating
// descending. The limit is capped by the configured maximum.
func (s *Service) TopPerf(ctx context.Context, perfID int32, limit int) ([]Entry, error) {
	if limit > s.cfg.MaxTopLimit {
		limit = s.cfg.MaxTopLimit
	}
	return s.rank.TopPerf(ctx, perfID, limit)
}

// WeeklyStableRanking returns the user's rank per leaderboard-eligible
// perf, keyed by perf key.
func (s *Service) WeeklyStableRanking(ctx context.Context, userID string) (map[string]int, error) {
	return s.rank.Weekly().Of(ctx, userID)
}

// WeeklyRatingDistribution returns the population histogram for one perf.
func (s *Service) WeeklyRatingDistribution(ctx context.Context, perfID int32) (Histogram, error) {
	return s.dist.Of(ctx, perfID)
}

// Close releases resources the service owns, such as a redis client it
// created from configuration. Injected stores are the caller's to close.
func (s *Service) Close() error {
	if s.ownedRedis != nil {
		if err := s.ownedRedis.Close(); err != nil {
			return fmt.Errorf("close redis: %w", err)
		}
		s.ownedRedis = nil
	}
	return nil
}
