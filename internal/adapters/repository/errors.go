package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrMalformedID  = errors.New("malformed snapshot id")
	ErrInvalidWidth = errors.New("invalid bucket width")
	ErrStoreBackend = errors.New("store backend failure")
)
