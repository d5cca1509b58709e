// Package repository defines the ranking snapshot store contract and the
// bundled implementations.
package repository

import (
	"context"

	model "github.com/okian/standings/internal/domain/model"
)

// ReadPref selects the read mode for streaming queries.
type ReadPref int

// Read modes. Replica-preferring reads serve derived-value recomputation;
// implementations without replicas treat both the same.
const (
	ReadPrimary ReadPref = iota
	ReadReplica
)

// Query describes one filtered, sorted, projected streaming read over the
// snapshots of a single perf. Results are ordered rating descending with a
// deterministic tie-break.
type Query struct {
	Perf       int32
	StableOnly bool
	IDOnly     bool // project only the id (rating still drives the order)
	Limit      int  // 0 means no bound
	Read       ReadPref
}

// Row is one streamed snapshot row. Rating and Progress are zero when the
// query projects ids only.
type Row struct {
	ID       string
	Rating   int
	Progress int
}

// Store provides access to persisted ranking snapshots. Implementations
// own TTL eviction of rows past their expiry.
type Store interface {
	// Upsert writes the snapshot keyed by its composite id.
	Upsert(ctx context.Context, snap model.Snapshot) error

	// Delete removes the rows with the given ids. Unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error

	// Stream walks the rows matching q in rating-descending order,
	// calling fn per row until it returns false or the rows run out.
	Stream(ctx context.Context, q Query, fn func(Row) bool) error

	// GroupCount buckets all snapshots of perf (stable or not) by
	// rating - rating mod width and returns the count per bucket.
	GroupCount(ctx context.Context, perf int32, width int) (map[int]int64, error)

	// Count returns the number of live snapshots for perf.
	Count(ctx context.Context, perf int32) (int64, error)
}
