package ranking

import (
	"context"
	"time"

	repository "github.com/okian/standings/internal/adapters/repository"
	model "github.com/okian/standings/internal/domain/model"
	perf "github.com/okian/standings/internal/domain/perf"
	"github.com/okian/standings/pkg/memo"
)

// Weekly answers "what is this user's rank per perf" from a per-perf rank
// map cache. Rank maps expire 15 minutes after write and are recomputed
// under single flight; a caller waits at most the configured result
// timeout without cancelling the shared recomputation.
type Weekly struct {
	cache *memo.Cache[int32, model.RankMap]
	perfs *perf.Registry
}

func newWeekly(store repository.Store, perfs *perf.Registry, ttl, resultTimeout time.Duration) *Weekly {
	return &Weekly{
		perfs: perfs,
		cache: memo.New(
			func(ctx context.Context, perfID int32) (model.RankMap, error) {
				return computeRanks(ctx, store, perfID)
			},
			memo.WithName[int32, model.RankMap]("weekly_ranking"),
			memo.WithTTL[int32, model.RankMap](ttl),
			memo.WithResultTimeout[int32, model.RankMap](resultTimeout),
		),
	}
}

// Of collects the user's rank in every leaderboard-eligible perf where the
// user currently holds one, keyed by perf key.
//
// Perfs are visited strictly sequentially: when several rank maps expire
// at once this bounds the number of concurrent recomputations a single
// caller can trigger.
func (w *Weekly) Of(ctx context.Context, userID string) (map[string]int, error) {
	out := make(map[string]int)
	for _, t := range w.perfs.Leaderboard() {
		ranks, err := w.cache.Get(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		if r, ok := ranks[userID]; ok {
			out[t.Key] = r
		}
	}
	return out, nil
}

// Ranks returns the full cached rank map for one perf.
func (w *Weekly) Ranks(ctx context.Context, perfID int32) (model.RankMap, error) {
	return w.cache.Get(ctx, perfID)
}

// computeRanks walks stable snapshots of one perf in the store's rating-
// descending order, assigning strictly sequential positional ranks. Equal
// ratings do not share a rank; the store's deterministic tie-break decides
// who comes first. Rows with unparseable ids are skipped.
func computeRanks(ctx context.Context, store repository.Store, perfID int32) (model.RankMap, error) {
	ranks := make(model.RankMap)
	rank := 1
	err := store.Stream(ctx, repository.Query{
		Perf:       perfID,
		StableOnly: true,
		IDOnly:     true,
		Read:       repository.ReadReplica,
	}, func(r repository.Row) bool {
		owner, ok := model.OwnerOf(r.ID)
		if !ok {
			return true
		}
		ranks[owner] = rank
		rank++
		return true
	})
	if err != nil {
		return nil, err
	}
	return ranks, nil
}
