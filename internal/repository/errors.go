package repository

import "errors"

// Sentinel errors shared by all repository implementations. Handlers map
// ErrNotFound to 404-style typed responses; everything else is an internal
// failure.
var (
	ErrNotFound  = errors.New("repository: not found")
	ErrDuplicate = errors.New("repository: duplicate")
)
