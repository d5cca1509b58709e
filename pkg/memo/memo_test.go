package memo_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	memo "github.com/okian/standings/pkg/memo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCacheGet(t *testing.T) {
	Convey("Given a cache over a counting compute", t, func() {
		var calls atomic.Int32
		cache := memo.New(func(ctx context.Context, key int32) (int, error) {
			calls.Add(1)
			return int(key) * 10, nil
		}, memo.WithName[int32, int]("test"))

		Convey("When getting a cold key", func() {
			v, err := cache.Get(context.Background(), 3)

			Convey("Then it computes the value once", func() {
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 30)
				So(calls.Load(), ShouldEqual, 1)
			})

			Convey("And a second get is served from the cache", func() {
				v2, err2 := cache.Get(context.Background(), 3)
				So(err2, ShouldBeNil)
				So(v2, ShouldEqual, 30)
				So(calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When getting distinct keys", func() {
			_, _ = cache.Get(context.Background(), 1)
			_, _ = cache.Get(context.Background(), 2)

			Convey("Then each key computes independently", func() {
				So(calls.Load(), ShouldEqual, 2)
				So(cache.Len(), ShouldEqual, 2)
			})
		})
	})
}

func TestCacheExpiry(t *testing.T) {
	Convey("Given a cache with a controllable clock", t, func() {
		var calls atomic.Int32
		var nowMu sync.Mutex
		now := time.Now()
		clock := func() time.Time {
			nowMu.Lock()
			defer nowMu.Unlock()
			return now
		}
		advance := func(d time.Duration) {
			nowMu.Lock()
			now = now.Add(d)
			nowMu.Unlock()
		}

		cache := memo.New(func(ctx context.Context, key int32) (int, error) {
			return int(calls.Add(1)), nil
		},
			memo.WithTTL[int32, int](15*time.Minute),
			memo.WithClock[int32, int](clock),
		)

		Convey("When the entry is within its TTL", func() {
			first, _ := cache.Get(context.Background(), 1)
			advance(14 * time.Minute)
			second, _ := cache.Get(context.Background(), 1)

			Convey("Then the cached value is reused", func() {
				So(second, ShouldEqual, first)
				So(calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When the entry expires", func() {
			first, _ := cache.Get(context.Background(), 1)
			advance(16 * time.Minute)
			second, _ := cache.Get(context.Background(), 1)

			Convey("Then the value is recomputed", func() {
				So(second, ShouldNotEqual, first)
				So(calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the entry is invalidated", func() {
			_, _ = cache.Get(context.Background(), 1)
			cache.Invalidate(1)
			_, _ = cache.Get(context.Background(), 1)

			Convey("Then the value is recomputed", func() {
				So(calls.Load(), ShouldEqual, 2)
			})
		})
	})
}

func TestCacheSingleFlight(t *testing.T) {
	Convey("Given a slow compute and many concurrent callers", t, func() {
		var calls atomic.Int32
		cache := memo.New(func(ctx context.Context, key int32) (int, error) {
			calls.Add(1)
			time.Sleep(100 * time.Millisecond)
			return 42, nil
		})

		Convey("When ten goroutines request the same cold key", func() {
			var wg sync.WaitGroup
			var failures atomic.Int32
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					v, err := cache.Get(context.Background(), 7)
					if err != nil || v != 42 {
						failures.Add(1)
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one computation ran", func() {
				So(calls.Load(), ShouldEqual, 1)
				So(failures.Load(), ShouldEqual, 0)
			})
		})
	})
}

func TestCacheResultTimeout(t *testing.T) {
	Convey("Given a compute slower than the result timeout", t, func() {
		var calls atomic.Int32
		release := make(chan struct{})
		cache := memo.New(func(ctx context.Context, key int32) (int, error) {
			calls.Add(1)
			<-release
			return 99, nil
		}, memo.WithResultTimeout[int32, int](30*time.Millisecond))

		Convey("When a caller waits past the timeout", func() {
			_, err := cache.Get(context.Background(), 1)

			Convey("Then it receives the timeout sentinel", func() {
				So(errors.Is(err, memo.ErrResultTimeout), ShouldBeTrue)
			})

			Convey("And the computation still populates the cache", func() {
				close(release)
				// Allow the in-flight goroutine to store its result.
				var v int
				var err2 error
				for i := 0; i < 100; i++ {
					if v, _ = cache.Peek(1); v == 99 {
						break
					}
					time.Sleep(5 * time.Millisecond)
				}
				So(v, ShouldEqual, 99)

				v, err2 = cache.Get(context.Background(), 1)
				So(err2, ShouldBeNil)
				So(v, ShouldEqual, 99)
				So(calls.Load(), ShouldEqual, 1)
			})
		})
	})
}

func TestCacheCallerCancellation(t *testing.T) {
	Convey("Given a caller that cancels while a compute is in flight", t, func() {
		done := make(chan struct{})
		cache := memo.New(func(ctx context.Context, key int32) (int, error) {
			defer close(done)
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(50 * time.Millisecond):
				return 7, nil
			}
		})

		Convey("When the caller context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			go func() {
				time.Sleep(10 * time.Millisecond)
				cancel()
			}()
			_, err := cache.Get(ctx, 1)

			Convey("Then the caller observes cancellation", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})

			Convey("And the detached computation completes anyway", func() {
				<-done
				var v int
				for i := 0; i < 100; i++ {
					if v, _ = cache.Peek(1); v == 7 {
						break
					}
					time.Sleep(5 * time.Millisecond)
				}
				So(v, ShouldEqual, 7)
			})
		})
	})
}

func TestCacheComputeErrors(t *testing.T) {
	Convey("Given a compute that fails once", t, func() {
		var calls atomic.Int32
		boom := errors.New("store unavailable")
		cache := memo.New(func(ctx context.Context, key int32) (int, error) {
			if calls.Add(1) == 1 {
				return 0, boom
			}
			return 5, nil
		})

		Convey("When the first get fails", func() {
			_, err := cache.Get(context.Background(), 1)
			So(errors.Is(err, boom), ShouldBeTrue)

			Convey("Then the error is not cached", func() {
				v, err2 := cache.Get(context.Background(), 1)
				So(err2, ShouldBeNil)
				So(v, ShouldEqual, 5)
				So(calls.Load(), ShouldEqual, 2)
			})
		})
	})
}
