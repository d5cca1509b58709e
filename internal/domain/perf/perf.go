// Package perf is the static registry of rating categories.
package perf

// Type describes one rating category.
type Type struct {
	ID          int32
	Key         string // stable machine key, e.g. "blitz"
	Name        string // display name
	Leaderboard bool   // eligible for leaderboards and rank caches
}

// Registry resolves numeric perf ids and lists leaderboard-eligible perfs.
// It is static configuration: built once, read concurrently.
type Registry struct {
	byID        map[int32]Type
	leaderboard []Type
}

// NewRegistry builds a registry from the given types. The first
// registration of an id wins; leaderboard order follows argument order.
func NewRegistry(types ...Type) *Registry {
	r := &Registry{byID: make(map[int32]Type, len(types))}
	for _, t := range types {
		if _, dup := r.byID[t.ID]; dup {
			continue
		}
		r.byID[t.ID] = t
		if t.Leaderboard {
			r.leaderboard = append(r.leaderboard, t)
		}
	}
	return r
}

// ByID returns the perf type for id, ok=false when unknown.
func (r *Registry) ByID(id int32) (Type, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// Leaderboard returns the leaderboard-eligible perfs in registration order.
// The returned slice is shared; callers must not mutate it.
func (r *Registry) Leaderboard() []Type {
	return r.leaderboard
}

// Eligible reports whether id names a leaderboard-eligible perf.
func (r *Registry) Eligible(id int32) bool {
	t, ok := r.byID[id]
	return ok && t.Leaderboard
}

// Default returns the stock registry used when none is configured.
func Default() *Registry {
	return NewRegistry(
		Type{ID: 1, Key: "bullet", Name: "Bullet", Leaderboard: true},
		Type{ID: 2, Key: "blitz", Name: "Blitz", Leaderboard: true},
		Type{ID: 3, Key: "rapid", Name: "Rapid", Leaderboard: true},
		Type{ID: 4, Key: "classical", Name: "Classical", Leaderboard: true},
		Type{ID: 5, Key: "correspondence", Name: "Correspondence", Leaderboard: true},
		Type{ID: 6, Key: "puzzle", Name: "Training", Leaderboard: false},
	)
}
