package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied indicates the actor lacks the required capability.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrVersionConflict indicates an optimistic concurrency check failed.
	ErrVersionConflict = errors.New("version conflict")
)
