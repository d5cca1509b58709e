package repository

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	model "github.com/okian/standings/internal/domain/model"
)

// MemStore is a mutex-guarded in-memory Store.
//
// Ordering: rating DESC, then id ASC (deterministic). Expired rows are
// evicted lazily on read, which keeps the TTL contract without a sweeper
// goroutine.
type MemStore struct {
	mu   sync.RWMutex
	rows map[string]memRow
	now  func() time.Time
}

type memRow struct {
	perf     int32
	rating   int
	progress int
	stable   bool
	expires  time.Time
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(opts ...MemOption) *MemStore {
	s := &MemStore{
		rows: make(map[string]memRow),
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Upsert writes the snapshot keyed by its composite id.
func (s *MemStore) Upsert(_ context.Context, snap model.Snapshot) error {
	perf, err := perfOf(snap.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[snap.ID] = memRow{
		perf:     perf,
		rating:   snap.Rating,
		progress: snap.Progress,
		stable:   snap.Stable,
		expires:  snap.ExpiresAt,
	}
	return nil
}

// Delete removes the rows with the given ids. Unknown ids are ignored.
func (s *MemStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.rows, id)
	}
	return nil
}

// Stream walks matching rows in rating-descending order.
func (s *MemStore) Stream(_ context.Context, q Query, fn func(Row) bool) error {
	type sortable struct {
		id  string
		row memRow
	}

	s.mu.RLock()
	matched := make([]sortable, 0, len(s.rows))
	now := s.now()
	for id, r := range s.rows {
		if r.perf != q.Perf {
			continue
		}
		if q.StableOnly && !r.stable {
			continue
		}
		if !r.expires.IsZero() && now.After(r.expires) {
			continue
		}
		matched = append(matched, sortable{id: id, row: r})
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].row.rating != matched[j].row.rating {
			return matched[i].row.rating > matched[j].row.rating
		}
		return matched[i].id < matched[j].id
	})

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	for _, m := range matched {
		out := Row{ID: m.id}
		if !q.IDOnly {
			out.Rating = m.row.rating
			out.Progress = m.row.progress
		}
		if !fn(out) {
			break
		}
	}
	return nil
}

// GroupCount buckets all live snapshots of perf by rating - rating mod width.
func (s *MemStore) GroupCount(_ context.Context, perf int32, width int) (map[int]int64, error) {
	if width <= 0 {
		return nil, ErrInvalidWidth
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	buckets := make(map[int]int64)
	now := s.now()
	for _, r := range s.rows {
		if r.perf != perf {
			continue
		}
		if !r.expires.IsZero() && now.After(r.expires) {
			continue
		}
		buckets[r.rating-r.rating%width]++
	}
	return buckets, nil
}

// Count returns the number of live snapshots for perf.
func (s *MemStore) Count(_ context.Context, perf int32) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	now := s.now()
	for _, r := range s.rows {
		if r.perf != perf {
			continue
		}
		if !r.expires.IsZero() && now.After(r.expires) {
			continue
		}
		n++
	}
	return n, nil
}

// perfOf extracts the perf id from the composite suffix after the last
// separator. The owner prefix may itself contain separators.
func perfOf(id string) (int32, error) {
	i := strings.LastIndexByte(id, ':')
	if i < 0 || i == len(id)-1 {
		return 0, ErrMalformedID
	}
	perf, err := strconv.ParseInt(id[i+1:], 10, 32)
	if err != nil {
		return 0, ErrMalformedID
	}
	return int32(perf), nil
}
