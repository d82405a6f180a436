package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrLocked indicates a busy critical section.
	ErrLocked = errors.New("resource locked")
)
