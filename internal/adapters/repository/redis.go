package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	model "github.com/okian/standings/internal/domain/model"
)

// RedisStore is a Store backed by redis.
//
// Layout per snapshot: a hash holding the row fields, expired by redis at
// the snapshot's ExpiresAt, plus two per-perf sorted sets scored by rating
// ("all" and "stable"). Sorted-set members whose hash has expired are
// removed lazily on read, so the TTL contract stays with the store.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore wraps an existing redis client.
func NewRedisStore(rdb redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: "standings",
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *RedisStore) snapKey(id string) string {
	return fmt.Sprintf("%s:snap:%s", s.prefix, id)
}

func (s *RedisStore) zKey(perf int32, set string) string {
	return fmt.Sprintf("%s:perf:%d:%s", s.prefix, perf, set)
}

// Upsert writes the snapshot hash and indexes it in the per-perf sets.
func (s *RedisStore) Upsert(ctx context.Context, snap model.Snapshot) error {
	perf, err := perfOf(snap.ID)
	if err != nil {
		return err
	}

	pipe := s.rdb.Pipeline()
	key := s.snapKey(snap.ID)
	pipe.HSet(ctx, key,
		"rating", snap.Rating,
		"progress", snap.Progress,
		"stable", snap.Stable,
	)
	if !snap.ExpiresAt.IsZero() {
		pipe.ExpireAt(ctx, key, snap.ExpiresAt)
	}
	member := redis.Z{Score: float64(snap.Rating), Member: snap.ID}
	pipe.ZAdd(ctx, s.zKey(perf, "all"), member)
	if snap.Stable {
		pipe.ZAdd(ctx, s.zKey(perf, "stable"), member)
	} else {
		pipe.ZRem(ctx, s.zKey(perf, "stable"), snap.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: upsert %s: %v", ErrStoreBackend, snap.ID, err)
	}
	return nil
}

// Delete removes the rows with the given ids. Unknown ids are ignored.
func (s *RedisStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pipe := s.rdb.Pipeline()
	for _, id := range ids {
		perf, err := perfOf(id)
		if err != nil {
			return err
		}
		pipe.Del(ctx, s.snapKey(id))
		pipe.ZRem(ctx, s.zKey(perf, "all"), id)
		pipe.ZRem(ctx, s.zKey(perf, "stable"), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: delete: %v", ErrStoreBackend, err)
	}
	return nil
}

// Stream walks matching rows in rating-descending order. Ties are broken
// by the sorted-set member order (id, reverse-lexicographic) which is
// deterministic for a fixed snapshot set.
func (s *RedisStore) Stream(ctx context.Context, q Query, fn func(Row) bool) error {
	set := "all"
	if q.StableOnly {
		set = "stable"
	}

	// Overfetch so lazily evicted members do not shrink the page.
	stop := int64(-1)
	if q.Limit > 0 {
		stop = int64(q.Limit)*2 - 1
	}
	members, err := s.rdb.ZRevRangeWithScores(ctx, s.zKey(q.Perf, set), 0, stop).Result()
	if err != nil {
		return fmt.Errorf("%w: stream perf %d: %v", ErrStoreBackend, q.Perf, err)
	}

	live, err := s.pruneDead(ctx, q.Perf, members)
	if err != nil {
		return err
	}
	if q.Limit > 0 && len(live) > q.Limit {
		live = live[:q.Limit]
	}

	var progress map[string]int
	if !q.IDOnly {
		if progress, err = s.fetchProgress(ctx, live); err != nil {
			return err
		}
	}

	for _, m := range live {
		id, _ := m.Member.(string)
		out := Row{ID: id}
		if !q.IDOnly {
			out.Rating = int(m.Score)
			out.Progress = progress[id]
		}
		if !fn(out) {
			break
		}
	}
	return nil
}

// GroupCount buckets all live snapshots of perf by rating - rating mod width.
func (s *RedisStore) GroupCount(ctx context.Context, perf int32, width int) (map[int]int64, error) {
	if width <= 0 {
		return nil, ErrInvalidWidth
	}

	members, err := s.rdb.ZRangeWithScores(ctx, s.zKey(perf, "all"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: group perf %d: %v", ErrStoreBackend, perf, err)
	}
	live, err := s.pruneDead(ctx, perf, members)
	if err != nil {
		return nil, err
	}

	buckets := make(map[int]int64)
	for _, m := range live {
		rating := int(m.Score)
		buckets[rating-rating%width]++
	}
	return buckets, nil
}

// Count returns the number of live snapshots for perf.
func (s *RedisStore) Count(ctx context.Context, perf int32) (int64, error) {
	members, err := s.rdb.ZRangeWithScores(ctx, s.zKey(perf, "all"), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: count perf %d: %v", ErrStoreBackend, perf, err)
	}
	live, err := s.pruneDead(ctx, perf, members)
	if err != nil {
		return 0, err
	}
	return int64(len(live)), nil
}

// pruneDead filters out members whose snapshot hash has expired and
// removes them from both per-perf sets.
func (s *RedisStore) pruneDead(ctx context.Context, perf int32, members []redis.Z) ([]redis.Z, error) {
	if len(members) == 0 {
		return nil, nil
	}

	pipe := s.rdb.Pipeline()
	checks := make([]*redis.IntCmd, len(members))
	for i, m := range members {
		id, _ := m.Member.(string)
		checks[i] = pipe.Exists(ctx, s.snapKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: prune perf %d: %v", ErrStoreBackend, perf, err)
	}

	live := make([]redis.Z, 0, len(members))
	var dead []interface{}
	for i, m := range members {
		if checks[i].Val() > 0 {
			live = append(live, m)
		} else {
			dead = append(dead, m.Member)
		}
	}

	if len(dead) > 0 {
		cleanup := s.rdb.Pipeline()
		cleanup.ZRem(ctx, s.zKey(perf, "all"), dead...)
		cleanup.ZRem(ctx, s.zKey(perf, "stable"), dead...)
		if _, err := cleanup.Exec(ctx); err != nil {
			return nil, fmt.Errorf("%w: prune perf %d: %v", ErrStoreBackend, perf, err)
		}
	}
	return live, nil
}

// fetchProgress loads the progress field for the given members.
func (s *RedisStore) fetchProgress(ctx context.Context, members []redis.Z) (map[string]int, error) {
	if len(members) == 0 {
		return nil, nil
	}

	pipe := s.rdb.Pipeline()
	gets := make([]*redis.StringCmd, len(members))
	for i, m := range members {
		id, _ := m.Member.(string)
		gets[i] = pipe.HGet(ctx, s.snapKey(id), "progress")
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: progress: %v", ErrStoreBackend, err)
	}

	out := make(map[string]int, len(members))
	for i, m := range members {
		id, _ := m.Member.(string)
		if raw, err := gets[i].Result(); err == nil {
			if v, perr := strconv.Atoi(raw); perr == nil {
				out[id] = v
			}
		}
	}
	return out, nil
}
