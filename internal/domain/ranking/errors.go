package ranking

import "errors"

// Sentinel kinds for collaborator lookups.
var (
	// ErrNotFound reports an unknown user, from either the rankability
	// oracle or the profile lookup.
	ErrNotFound = errors.New("user not found")
)
