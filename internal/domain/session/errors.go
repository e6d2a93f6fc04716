package session

import "errors"

var (
	// ErrNotInitialized indicates Initialize has not completed yet.
	ErrNotInitialized = errors.New("session not initialized")
	// ErrInitializing indicates another Initialize call is in flight.
	ErrInitializing = errors.New("session initialization already in progress")
	// ErrAlreadyInitialized indicates Initialize was called a second time
	// with a different project. Repeating the same project is a no-op.
	ErrAlreadyInitialized = errors.New("session already initialized for another project")
)
