// ABOUTME: Device binding contract shared by every audio environment
// ABOUTME: A binding owns one capture path and one playback path
package device

import "github.com/Resonate-Protocol/audiocore/pkg/audio"

// Binding is the device-level I/O an environment drives.
//
// ReadInput blocks until at least one byte of captured audio is available and
// returns an error once the device is closed or its input has ended.
// WriteOutput blocks until the bytes have been accepted by the device.
// Close must unblock any ReadInput or WriteOutput in progress.
type Binding interface {
	Open() error
	Close() error
	ReadInput(p []byte) (int, error)
	WriteOutput(p []byte) error
	NativeInputFormat() audio.Format
	NativeOutputFormat() audio.Format
}
