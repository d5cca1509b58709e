package perf_test

import (
	"testing"

	perf "github.com/okian/standings/internal/domain/perf"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	Convey("Given a registry with mixed eligibility", t, func() {
		r := perf.NewRegistry(
			perf.Type{ID: 1, Key: "bullet", Name: "Bullet", Leaderboard: true},
			perf.Type{ID: 2, Key: "blitz", Name: "Blitz", Leaderboard: true},
			perf.Type{ID: 6, Key: "puzzle", Name: "Training", Leaderboard: false},
		)

		Convey("When resolving a known id", func() {
			typ, ok := r.ByID(2)
			So(ok, ShouldBeTrue)
			So(typ.Key, ShouldEqual, "blitz")
		})

		Convey("When resolving an unknown id", func() {
			_, ok := r.ByID(99)
			So(ok, ShouldBeFalse)
		})

		Convey("When listing leaderboard perfs", func() {
			lb := r.Leaderboard()
			So(lb, ShouldHaveLength, 2)
			// Registration order is preserved.
			So(lb[0].Key, ShouldEqual, "bullet")
			So(lb[1].Key, ShouldEqual, "blitz")
		})

		Convey("When checking eligibility", func() {
			So(r.Eligible(1), ShouldBeTrue)
			So(r.Eligible(6), ShouldBeFalse)
			So(r.Eligible(99), ShouldBeFalse)
		})
	})

	Convey("Given duplicate ids", t, func() {
		r := perf.NewRegistry(
			perf.Type{ID: 1, Key: "bullet", Leaderboard: true},
			perf.Type{ID: 1, Key: "shadow", Leaderboard: true},
		)

		Convey("Then the first registration wins", func() {
			typ, _ := r.ByID(1)
			So(typ.Key, ShouldEqual, "bullet")
			So(r.Leaderboard(), ShouldHaveLength, 1)
		})
	})

	Convey("Given the default registry", t, func() {
		r := perf.Default()

		Convey("Then training is excluded from leaderboards", func() {
			So(r.Eligible(6), ShouldBeFalse)
			for _, typ := range r.Leaderboard() {
				So(typ.Leaderboard, ShouldBeTrue)
			}
		})
	})
}
