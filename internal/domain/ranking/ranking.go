// Package ranking owns the snapshot write path, the bounded top-K read and
// the weekly stable ranking cache.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"time"

	repository "github.com/okian/standings/internal/adapters/repository"
	model "github.com/okian/standings/internal/domain/model"
	perf "github.com/okian/standings/internal/domain/perf"
	"github.com/okian/standings/pkg/logger"
	"github.com/okian/standings/pkg/metrics"
)

// Default ranking configuration constants.
const (
	// minRatedGames is the sample size below which a rating never enters
	// the leaderboards.
	minRatedGames = 2

	defaultSnapshotTTL   = 7 * 24 * time.Hour
	defaultRankingTTL    = 15 * time.Minute
	defaultResultTimeout = 10 * time.Second
)

// UserSource is the rankability oracle: it resolves a user id into the
// account's rankability and per-perf participation. Returns ErrNotFound
// for unknown users.
type UserSource interface {
	ByID(ctx context.Context, userID string) (model.User, error)
}

// ProfileSource resolves a user id into a display profile. Returns
// ErrNotFound for deleted or unknown accounts.
type ProfileSource interface {
	Profile(ctx context.Context, userID string) (model.Profile, error)
}

// Service maintains ranking snapshots and answers leaderboard reads.
type Service struct {
	store    repository.Store
	users    UserSource
	profiles ProfileSource
	perfs    *perf.Registry
	log      logger.Logger
	now      func() time.Time

	snapshotTTL   time.Duration
	rankingTTL    time.Duration
	resultTimeout time.Duration

	weekly *Weekly
}

// New constructs the ranking service. The weekly rank cache is created
// eagerly so its single-flight state lives for the service's lifetime.
func New(store repository.Store, users UserSource, profiles ProfileSource, perfs *perf.Registry, opts ...Option) *Service {
	s := &Service{
		store:         store,
		users:         users,
		profiles:      profiles,
		perfs:         perfs,
		log:           logger.Named("ranking"),
		now:           time.Now,
		snapshotTTL:   defaultSnapshotTTL,
		rankingTTL:    defaultRankingTTL,
		resultTimeout: defaultResultTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.weekly = newWeekly(store, perfs, s.rankingTTL, s.resultTimeout)

	return s
}

// Weekly returns the weekly stable ranking cache.
func (s *Service) Weekly() *Weekly {
	return s.weekly
}

// Save upserts the user's ranking snapshot for one perf. Ineligible writes
// (non-leaderboard perf, non-rankable account, fewer than two rated
// results) are skipped silently.
func (s *Service) Save(ctx context.Context, u model.User, perfID int32, stat model.PerfStat) error {
	if !s.perfs.Eligible(perfID) || !u.Rankable || stat.Games < minRatedGames {
		metrics.RecordSnapshotSkip()
		return nil
	}

	snap := model.Snapshot{
		ID:        model.SnapshotID(u.ID, perfID),
		Rating:    stat.Rating,
		Progress:  stat.Progress,
		Stable:    !stat.Provisional,
		ExpiresAt: s.now().Add(s.snapshotTTL),
	}
	if err := s.store.Upsert(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}
	metrics.RecordSnapshotSave()
	s.log.Debug(ctx, "snapshot saved",
		logger.String("id", snap.ID),
		logger.Int("rating", snap.Rating),
		logger.Any("stable", snap.Stable),
	)
	return nil
}

// SaveAll upserts snapshots for every perf the user has a stat for.
func (s *Service) SaveAll(ctx context.Context, u model.User) error {
	for perfID, stat := range u.Perfs {
		if err := s.Save(ctx, u, perfID, stat); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the user's snapshots across leaderboard-eligible perfs in
// which the user has any recorded results. Unknown users are a no-op.
func (s *Service) Remove(ctx context.Context, userID string) error {
	u, err := s.users.ByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove %s: %w", userID, err)
	}

	var ids []string
	for _, t := range s.perfs.Leaderboard() {
		if stat, ok := u.Perfs[t.ID]; ok && stat.Games > 0 {
			ids = append(ids, model.SnapshotID(u.ID, t.ID))
		}
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.store.Delete(ctx, ids); err != nil {
		return fmt.Errorf("remove %s: %w", userID, err)
	}
	metrics.RecordSnapshotDeletes(len(ids))
	s.log.Info(ctx, "snapshots removed",
		logger.String("user", userID),
		logger.Int("rows", len(ids)),
	)
	return nil
}

// TopPerf returns up to limit leaderboard entries for one perf, rating
// descending. Unknown perfs yield an empty result. Rows whose owner
// cannot be resolved to a profile are dropped.
func (s *Service) TopPerf(ctx context.Context, perfID int32, limit int) ([]model.Entry, error) {
	metrics.RecordTopQuery()

	t, known := s.perfs.ByID(perfID)
	if !known || limit <= 0 {
		return nil, nil
	}

	var rows []repository.Row
	err := s.store.Stream(ctx, repository.Query{
		Perf:       perfID,
		StableOnly: true,
		Limit:      limit,
		Read:       repository.ReadReplica,
	}, func(r repository.Row) bool {
		rows = append(rows, r)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("top %s: %w", t.Key, err)
	}

	entries := make([]model.Entry, 0, len(rows))
	for _, r := range rows {
		owner, ok := model.OwnerOf(r.ID)
		if !ok {
			metrics.RecordDroppedRow()
			continue
		}
		p, err := s.profiles.Profile(ctx, owner)
		if errors.Is(err, ErrNotFound) {
			metrics.RecordDroppedRow()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("top %s: profile %s: %w", t.Key, owner, err)
		}
		entries = append(entries, model.Entry{
			Profile:  p,
			PerfKey:  t.Key,
			Rating:   r.Rating,
			Progress: r.Progress,
		})
	}
	return entries, nil
}
