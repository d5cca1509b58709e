// Package distribution owns the per-perf rating histogram cache and its
// monitoring emission.
package distribution

import (
	"context"
	"time"

	repository "github.com/okian/standings/internal/adapters/repository"
	model "github.com/okian/standings/internal/domain/model"
	perf "github.com/okian/standings/internal/domain/perf"
	"github.com/okian/standings/pkg/logger"
	"github.com/okian/standings/pkg/memo"
	"github.com/okian/standings/pkg/metrics"
)

// Default distribution configuration constants. Population shape moves
// slowly, hence the coarse TTL.
const (
	defaultBucketWidth = 25
	defaultMinRating   = 800
	defaultMaxRating   = 2800
	defaultTTL         = 3 * time.Hour
)

// Monitor receives cumulative population ratios per rating boundary.
// Emission is fire-and-forget: implementations may drop observations but
// must be safe for concurrent use.
type Monitor interface {
	ObserveRatio(perfKey string, boundary int, ratio float64)
}

// PrometheusMonitor emits ratios to the package-level prometheus manager.
type PrometheusMonitor struct{}

// ObserveRatio sets the cumulative ratio gauge for one boundary.
func (PrometheusMonitor) ObserveRatio(perfKey string, boundary int, ratio float64) {
	metrics.ObserveRatingRatio(perfKey, boundary, ratio)
}

// Distribution caches one rating histogram per perf.
type Distribution struct {
	store   repository.Store
	perfs   *perf.Registry
	monitor Monitor
	log     logger.Logger
	cache   *memo.Cache[int32, model.Histogram]

	width     int
	minRating int
	maxRating int
	ttl       time.Duration
}

// New constructs the distribution cache over the given store.
func New(store repository.Store, perfs *perf.Registry, opts ...Option) *Distribution {
	d := &Distribution{
		store:     store,
		perfs:     perfs,
		monitor:   PrometheusMonitor{},
		log:       logger.Named("distribution"),
		width:     defaultBucketWidth,
		minRating: defaultMinRating,
		maxRating: defaultMaxRating,
		ttl:       defaultTTL,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.cache = memo.New(d.compute,
		memo.WithName[int32, model.Histogram]("rating_distribution"),
		memo.WithTTL[int32, model.Histogram](d.ttl),
	)

	return d
}

// Buckets returns the fixed histogram length: one bucket per boundary
// from the minimum to the maximum rating inclusive.
func (d *Distribution) Buckets() int {
	return (d.maxRating-d.minRating)/d.width + 1
}

// Boundary returns the rating boundary of bucket i.
func (d *Distribution) Boundary(i int) int {
	return d.minRating + i*d.width
}

// Of returns the cached histogram for one perf, recomputing it on expiry.
func (d *Distribution) Of(ctx context.Context, perfID int32) (model.Histogram, error) {
	return d.cache.Get(ctx, perfID)
}

// compute runs the grouping aggregation over all snapshots of the perf,
// stable or not. Perfs outside the leaderboards yield a zero histogram
// without touching the store.
func (d *Distribution) compute(ctx context.Context, perfID int32) (model.Histogram, error) {
	h := make(model.Histogram, d.Buckets())

	t, ok := d.perfs.ByID(perfID)
	if !ok || !t.Leaderboard {
		return h, nil
	}

	raw, err := d.store.GroupCount(ctx, perfID, d.width)
	if err != nil {
		return nil, err
	}
	for bucket, n := range raw {
		h[d.indexOf(bucket)] += n
	}

	go d.emit(t.Key, h)

	return h, nil
}

// indexOf maps a bucket floor to its histogram slot. Out-of-range buckets
// are clamped into the edge slots so the total count is preserved.
func (d *Distribution) indexOf(bucket int) int {
	if bucket <= d.minRating {
		return 0
	}
	if bucket >= d.maxRating {
		return d.Buckets() - 1
	}
	return (bucket - d.minRating) / d.width
}

// emit pushes the cumulative ratio per boundary to the monitor. Runs off
// the compute path; a panicking monitor never invalidates the histogram.
func (d *Distribution) emit(perfKey string, h model.Histogram) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordMonitorError()
			d.log.Warn(context.Background(), "distribution emission failed",
				logger.String("perf", perfKey),
				logger.Any("panic", r),
			)
		}
	}()

	total := h.Total()
	if total == 0 {
		return
	}

	var cum int64
	for i, n := range h {
		cum += n
		d.monitor.ObserveRatio(perfKey, d.Boundary(i), float64(cum)/float64(total))
	}
}
