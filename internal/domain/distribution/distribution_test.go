package distribution_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	repository "github.com/okian/standings/internal/adapters/repository"
	distribution "github.com/okian/standings/internal/domain/distribution"
	model "github.com/okian/standings/internal/domain/model"
	perf "github.com/okian/standings/internal/domain/perf"
	. "github.com/smartystreets/goconvey/convey"
)

type observation struct {
	perf     string
	boundary int
	ratio    float64
}

// recordingMonitor captures emissions for later inspection; the emission
// path is asynchronous so reads poll via snapshot.
type recordingMonitor struct {
	mu  sync.Mutex
	obs []observation
}

func (m *recordingMonitor) ObserveRatio(perfKey string, boundary int, ratio float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs = append(m.obs, observation{perf: perfKey, boundary: boundary, ratio: ratio})
}

func (m *recordingMonitor) snapshot() []observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]observation(nil), m.obs...)
}

func (m *recordingMonitor) waitFor(t *testing.T, n int) []observation {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if obs := m.snapshot(); len(obs) >= n {
			return obs
		}
		time.Sleep(5 * time.Millisecond)
	}
	return m.snapshot()
}

type panickyMonitor struct{}

func (panickyMonitor) ObserveRatio(string, int, float64) {
	panic("monitoring sink exploded")
}

// groupCountingStore counts grouping aggregations.
type groupCountingStore struct {
	repository.Store
	groups atomic.Int32
}

func (s *groupCountingStore) GroupCount(ctx context.Context, perfID int32, width int) (map[int]int64, error) {
	s.groups.Add(1)
	return s.Store.GroupCount(ctx, perfID, width)
}

func testRegistry() *perf.Registry {
	return perf.NewRegistry(
		perf.Type{ID: 1, Key: "bullet", Name: "Bullet", Leaderboard: true},
		perf.Type{ID: 6, Key: "puzzle", Name: "Training", Leaderboard: false},
	)
}

func seed(t *testing.T, store repository.Store, perfID int32, ratings map[string]int) {
	t.Helper()
	for user, rating := range ratings {
		stable := rating%2 == 0 // mix stable and unstable; histograms count both
		err := store.Upsert(context.Background(), model.Snapshot{
			ID:        model.SnapshotID(user, perfID),
			Rating:    rating,
			Stable:    stable,
			ExpiresAt: time.Now().Add(time.Hour),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestHistogramShape(t *testing.T) {
	Convey("Given a distribution over the default range", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		dist := distribution.New(store, testRegistry())

		Convey("Then the bucket count covers 800..2800 by 25", func() {
			So(dist.Buckets(), ShouldEqual, 81)
			So(dist.Boundary(0), ShouldEqual, 800)
			So(dist.Boundary(80), ShouldEqual, 2800)
		})

		Convey("When no snapshots exist", func() {
			h, err := dist.Of(ctx, 1)
			So(err, ShouldBeNil)

			Convey("Then the histogram keeps its fixed length, all zero", func() {
				So(h, ShouldHaveLength, 81)
				So(h.Total(), ShouldEqual, 0)
			})
		})

		Convey("When snapshots exist", func() {
			seed(t, store, 1, map[string]int{
				"a": 812, "b": 825, "c": 825, "d": 1500, "e": 2799,
			})
			h, err := dist.Of(ctx, 1)
			So(err, ShouldBeNil)

			Convey("Then the total equals the snapshot count", func() {
				So(h, ShouldHaveLength, 81)
				So(h.Total(), ShouldEqual, 5)
			})

			Convey("And counts land on their bucket floors", func() {
				So(h[0], ShouldEqual, 1)  // 812 -> 800
				So(h[1], ShouldEqual, 2)  // 825 x2
				So(h[28], ShouldEqual, 1) // 1500
				So(h[79], ShouldEqual, 1) // 2799 -> 2775
			})
		})
	})
}

func TestHistogramClamping(t *testing.T) {
	Convey("Given ratings outside the configured range", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		dist := distribution.New(store, testRegistry())

		seed(t, store, 1, map[string]int{
			"low": 650, "high": 3100, "mid": 1500,
		})

		Convey("When computing the histogram", func() {
			h, err := dist.Of(ctx, 1)
			So(err, ShouldBeNil)

			Convey("Then edge buckets absorb the outliers and the total holds", func() {
				So(h.Total(), ShouldEqual, 3)
				So(h[0], ShouldEqual, 1)
				So(h[len(h)-1], ShouldEqual, 1)
			})
		})
	})
}

func TestIneligiblePerfs(t *testing.T) {
	Convey("Given a counting store", t, func() {
		ctx := context.Background()
		mem := repository.NewMemStore()
		store := &groupCountingStore{Store: mem}
		dist := distribution.New(store, testRegistry())

		Convey("When querying a non-leaderboard perf", func() {
			h, err := dist.Of(ctx, 6)
			So(err, ShouldBeNil)

			Convey("Then a zero histogram returns without a store query", func() {
				So(h, ShouldHaveLength, 81)
				So(h.Total(), ShouldEqual, 0)
				So(store.groups.Load(), ShouldEqual, 0)
			})
		})

		Convey("When querying an unknown perf", func() {
			h, err := dist.Of(ctx, 99)
			So(err, ShouldBeNil)
			So(h.Total(), ShouldEqual, 0)
			So(store.groups.Load(), ShouldEqual, 0)
		})

		Convey("When querying an eligible perf twice within the TTL", func() {
			_, err := dist.Of(ctx, 1)
			So(err, ShouldBeNil)
			_, err = dist.Of(ctx, 1)
			So(err, ShouldBeNil)

			Convey("Then the aggregation ran once", func() {
				So(store.groups.Load(), ShouldEqual, 1)
			})
		})
	})
}

func TestMonitorEmission(t *testing.T) {
	Convey("Given a recording monitor", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		monitor := &recordingMonitor{}
		dist := distribution.New(store, testRegistry(), distribution.WithMonitor(monitor))

		Convey("When the histogram is computed", func() {
			seed(t, store, 1, map[string]int{
				"a": 900, "b": 1200, "c": 1200, "d": 2000,
			})
			h, err := dist.Of(ctx, 1)
			So(err, ShouldBeNil)
			So(h.Total(), ShouldEqual, 4)

			obs := monitor.waitFor(t, dist.Buckets())

			Convey("Then one observation lands per boundary", func() {
				So(obs, ShouldHaveLength, dist.Buckets())
				So(obs[0].perf, ShouldEqual, "bullet")
				So(obs[0].boundary, ShouldEqual, 800)
				So(obs[len(obs)-1].boundary, ShouldEqual, 2800)
			})

			Convey("And the ratio sequence is non-decreasing, ending at one", func() {
				prev := 0.0
				for _, o := range obs {
					So(o.ratio, ShouldBeGreaterThanOrEqualTo, prev)
					prev = o.ratio
				}
				So(obs[len(obs)-1].ratio, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		Convey("When the population is empty", func() {
			h, err := dist.Of(ctx, 1)
			So(err, ShouldBeNil)
			So(h.Total(), ShouldEqual, 0)

			Convey("Then nothing is emitted", func() {
				time.Sleep(50 * time.Millisecond)
				So(monitor.snapshot(), ShouldBeEmpty)
			})
		})
	})
}

func TestMonitorFailureIsolation(t *testing.T) {
	Convey("Given a monitor that panics", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		dist := distribution.New(store, testRegistry(), distribution.WithMonitor(panickyMonitor{}))

		seed(t, store, 1, map[string]int{"a": 1500})

		Convey("When the histogram is computed", func() {
			h, err := dist.Of(ctx, 1)

			Convey("Then the value is unaffected by the emission failure", func() {
				So(err, ShouldBeNil)
				So(h.Total(), ShouldEqual, 1)

				// And the cached value stays valid for the next read.
				again, err2 := dist.Of(ctx, 1)
				So(err2, ShouldBeNil)
				So(again.Total(), ShouldEqual, 1)
			})
		})
	})
}
