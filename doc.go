// Package standings computes and caches derived rankings and
// rating-distribution histograms for a competitive-rating system, across
// independent rating categories (perf types).
//
// The library keeps one ranking snapshot per (user, perf) in a pluggable
// store and derives three cheap reads from it: bounded top-K leaderboards,
// a per-user rank map per perf (15-minute cache), and a population rating
// histogram (3-hour cache). Derived values recompute under single flight,
// so concurrent misses on one key share a single store read.
//
// Rating computation itself, leaderboard eligibility policy, and request
// serving belong to the caller.
package standings
