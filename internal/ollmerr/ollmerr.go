// Package ollmerr defines the sentinel error kinds shared by the core
// services. Callers use errors.Is against these sentinels; the wrapped
// message (via fmt.Errorf("...: %w", err)) carries the detail.
package ollmerr

import "errors"

var (
	// ErrInvalidConfig marks a configuration validation failure.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrCorruptState marks a persisted file that cannot be parsed.
	ErrCorruptState = errors.New("corrupt state")

	// ErrIO marks a filesystem failure on read/write/mkdir/rename.
	ErrIO = errors.New("io error")

	// ErrWriteContention marks a concurrent save that lost the race.
	ErrWriteContention = errors.New("write contention")

	// ErrNotFound marks a referenced model or resource that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCancelled marks a long-running operation that was cancelled.
	ErrCancelled = errors.New("cancelled")

	// ErrProvider wraps an error surfaced by the provider adapter.
	ErrProvider = errors.New("provider error")
)
