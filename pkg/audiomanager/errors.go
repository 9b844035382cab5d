// ABOUTME: Sentinel errors returned by the audio manager
// ABOUTME: Re-exports the lower-level usage errors callers match on
package audiomanager

import (
	"errors"

	"github.com/Resonate-Protocol/audiocore/pkg/audio"
	"github.com/Resonate-Protocol/audiocore/pkg/environment"
)

var (
	// ErrUnknownEnvironment indicates an id that is not registered.
	ErrUnknownEnvironment = errors.New("unknown environment")

	// ErrDuplicateEnvironment indicates registering an id twice.
	ErrDuplicateEnvironment = errors.New("duplicate environment")

	// ErrManagerAlreadyRunning indicates a second Start.
	ErrManagerAlreadyRunning = errors.New("audio manager already running")

	// ErrManagerStopped indicates Start after Stop.
	ErrManagerStopped = errors.New("audio manager stopped")
)

// Errors from lower layers, so callers only need this package
var (
	ErrFormatMismatch  = audio.ErrFormatMismatch
	ErrInvalidBehavior = environment.ErrInvalidBehavior
	ErrStreamClosed    = environment.ErrStreamClosed
)
