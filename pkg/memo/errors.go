package memo

import "errors"

// Sentinel kinds for cache errors.
var (
	// ErrResultTimeout reports a caller that gave up waiting on an
	// in-flight computation. The computation itself continues.
	ErrResultTimeout = errors.New("memo result timeout")

	ErrComputeFailed = errors.New("memo compute failed")
)
