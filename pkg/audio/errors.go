// ABOUTME: Sentinel errors for audio formats
// ABOUTME: Shared by conversion and device packages
package audio

import "errors"

var (
	// ErrInvalidFormat indicates a format with an unusable rate, channel count or bit depth.
	ErrInvalidFormat = errors.New("invalid audio format")

	// ErrFormatMismatch indicates a source format cannot be converted to a target format.
	ErrFormatMismatch = errors.New("audio format mismatch")
)
