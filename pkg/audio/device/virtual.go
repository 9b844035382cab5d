// ABOUTME: In-memory device binding
// ABOUTME: Input is fed by the caller and output is captured in a buffer
package device

import (
	"io"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audiocore/pkg/audio"
)

// Virtual is a binding with no hardware behind it.
// Captured input is whatever the caller feeds; played output is recorded.
type Virtual struct {
	inputFormat  audio.Format
	outputFormat audio.Format

	mu         sync.Mutex
	cond       *sync.Cond
	input      []byte
	inputEnded bool
	output     []byte
	writes     int
	writeDelay time.Duration
	writeErr   error
	opened     bool
	closed     bool
	done       chan struct{}
}

// NewVirtual creates an in-memory binding with the given formats
func NewVirtual(inputFormat, outputFormat audio.Format) *Virtual {
	v := &Virtual{
		inputFormat:  inputFormat,
		outputFormat: outputFormat,
		done:         make(chan struct{}),
	}
	v.cond = sync.NewCond(&v.mu)
	return v
}

// Open marks the device ready. A closed Virtual cannot be reopened.
func (v *Virtual) Open() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrDeviceClosed
	}
	v.opened = true
	return nil
}

// Close unblocks pending reads and writes
func (v *Virtual) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true
	close(v.done)
	v.cond.Broadcast()
	return nil
}

// ReadInput blocks until fed bytes are available
func (v *Virtual) ReadInput(p []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for !v.closed && len(v.input) == 0 && !v.inputEnded {
		v.cond.Wait()
	}
	if v.closed {
		return 0, ErrDeviceClosed
	}
	if !v.opened {
		return 0, ErrDeviceNotOpen
	}
	if len(v.input) == 0 {
		return 0, io.EOF
	}

	n := copy(p, v.input)
	v.input = v.input[n:]
	return n, nil
}

// WriteOutput records p, after the configured write delay
func (v *Virtual) WriteOutput(p []byte) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrDeviceClosed
	}
	if !v.opened {
		v.mu.Unlock()
		return ErrDeviceNotOpen
	}
	if v.writeErr != nil {
		err := v.writeErr
		v.mu.Unlock()
		return err
	}
	delay := v.writeDelay
	v.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-v.done:
			return ErrDeviceClosed
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.output = append(v.output, p...)
	v.writes++
	return nil
}

// NativeInputFormat returns the format of fed input
func (v *Virtual) NativeInputFormat() audio.Format { return v.inputFormat }

// NativeOutputFormat returns the format expected by WriteOutput
func (v *Virtual) NativeOutputFormat() audio.Format { return v.outputFormat }

// Feed appends bytes to the captured input
func (v *Virtual) Feed(p []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.input = append(v.input, p...)
	v.cond.Broadcast()
}

// EndInput makes ReadInput return io.EOF once fed input is drained
func (v *Virtual) EndInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inputEnded = true
	v.cond.Broadcast()
}

// Output returns a copy of every byte written so far
func (v *Virtual) Output() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]byte, len(v.output))
	copy(out, v.output)
	return out
}

// Writes returns the number of successful WriteOutput calls
func (v *Virtual) Writes() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.writes
}

// SetWriteDelay simulates a device that takes d to accept each chunk
func (v *Virtual) SetWriteDelay(d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.writeDelay = d
}

// SetWriteError makes every following WriteOutput fail with err
func (v *Virtual) SetWriteError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.writeErr = err
}

// IsOpen reports whether the device is open and not yet closed
func (v *Virtual) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.opened && !v.closed
}

// IsClosed reports whether Close has been called
func (v *Virtual) IsClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}
