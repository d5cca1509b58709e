// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"strings"
	"time"
)

// Snapshot is one ranking row per (user, perf). Rows are written with a
// seven-day expiry; the backing store evicts expired rows, this package
// only stamps ExpiresAt.
type Snapshot struct {
	ID        string // composite "userID:perfID", perf id encoded decimal
	Rating    int
	Progress  int  // recent rating delta, zero when unknown
	Stable    bool // true once the rating is no longer provisional
	ExpiresAt time.Time
}

// PerfStat is a user's current standing in one perf as reported by the
// rating engine.
type PerfStat struct {
	Rating      int
	Progress    int
	Games       int // rated results accumulated in this perf
	Provisional bool
}

// User is the rankability-oracle payload: whether the account may appear
// on leaderboards and which perfs it has results in.
type User struct {
	ID       string
	Rankable bool
	Perfs    map[int32]PerfStat
}

// Profile is a display-ready user as resolved by the profile lookup.
type Profile struct {
	ID    string
	Name  string
	Title string
}

// Entry is one top-K leaderboard row.
type Entry struct {
	Profile  Profile
	PerfKey  string
	Rating   int
	Progress int
}

// RankMap maps userID to a 1-based positional rank within one perf.
type RankMap map[string]int

// Histogram is a dense sequence of bucket counts over the configured
// rating range, one count per bucket boundary.
type Histogram []int64

// Total returns the sum of all bucket counts.
func (h Histogram) Total() int64 {
	var n int64
	for _, c := range h {
		n += c
	}
	return n
}

// SnapshotID builds the composite snapshot id for a user and perf.
func SnapshotID(userID string, perfID int32) string {
	return userID + ":" + strconv.FormatInt(int64(perfID), 10)
}

// OwnerOf extracts the owning userID from a composite snapshot id.
// Returns ok=false when the id carries no separator or an empty owner.
func OwnerOf(snapshotID string) (string, bool) {
	i := strings.IndexByte(snapshotID, ':')
	if i <= 0 {
		return "", false
	}
	return snapshotID[:i], true
}
