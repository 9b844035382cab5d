// ABOUTME: Sentinel errors for audio environments
// ABOUTME: Usage errors surfaced synchronously to callers
package environment

import "errors"

var (
	// ErrInvalidBehavior indicates an unrecognized output behavior.
	ErrInvalidBehavior = errors.New("invalid output behavior")

	// ErrStreamClosed indicates a read from a subscriber stream after Close.
	ErrStreamClosed = errors.New("stream closed")

	// ErrAlreadyStarted indicates Start on a running environment.
	ErrAlreadyStarted = errors.New("environment already started")

	// ErrNotStarted indicates Stop on an environment that is not running.
	ErrNotStarted = errors.New("environment not started")

	// ErrEnvironmentStopped indicates use of an environment after Stop.
	ErrEnvironmentStopped = errors.New("environment stopped")

	// ErrNilBinding indicates an environment created without a device binding.
	ErrNilBinding = errors.New("nil device binding")
)
