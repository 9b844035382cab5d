// ABOUTME: Sentinel errors for device bindings
// ABOUTME: Returned by Open, ReadInput and WriteOutput
package device

import "errors"

var (
	// ErrDeviceClosed indicates the binding has been closed.
	ErrDeviceClosed = errors.New("device closed")

	// ErrDeviceNotOpen indicates I/O on a binding that was never opened.
	ErrDeviceNotOpen = errors.New("device not open")

	// ErrUnsupportedFormat indicates the backend cannot run in the requested format.
	ErrUnsupportedFormat = errors.New("unsupported device format")
)
