// ABOUTME: Thread-safe byte ring buffer between device callbacks and workers
// ABOUTME: Non-blocking side for callbacks, blocking side for goroutines
package device

import "sync"

// RingBuffer provides a thread-safe circular buffer of PCM bytes.
// The device callback uses the non-blocking Write and Read; workers use
// WriteBlocking and ReadBlocking, which wait on the buffer's condition
// variable and return ErrDeviceClosed once Close is called.
type RingBuffer struct {
	buffer   []byte
	readPos  int
	writePos int
	size     int
	count    int // Number of bytes currently in buffer
	closed   bool
	mu       sync.Mutex
	cond     *sync.Cond
}

// NewRingBuffer creates a ring buffer with given capacity (in bytes)
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	rb := &RingBuffer{
		buffer: make([]byte, capacity),
		size:   capacity,
	}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write adds as many bytes as fit and returns how many were stored
func (rb *RingBuffer) Write(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed {
		return 0
	}
	written := rb.put(p)
	if written > 0 {
		rb.cond.Broadcast()
	}
	return written
}

// WriteBlocking stores all of p, waiting for free space as needed
func (rb *RingBuffer) WriteBlocking(p []byte) error {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for len(p) > 0 {
		for rb.count == rb.size && !rb.closed {
			rb.cond.Wait()
		}
		if rb.closed {
			return ErrDeviceClosed
		}
		n := rb.put(p)
		p = p[n:]
		rb.cond.Broadcast()
	}
	return nil
}

// Read retrieves up to len(p) bytes and zero-fills the rest on underrun
func (rb *RingBuffer) Read(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	read := rb.take(p)
	if read > 0 {
		rb.cond.Broadcast()
	}

	// Zero-fill remaining if underrun
	for i := read; i < len(p); i++ {
		p[i] = 0
	}
	return read
}

// ReadBlocking waits until at least one byte is available and reads it
func (rb *RingBuffer) ReadBlocking(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.count == 0 && !rb.closed {
		rb.cond.Wait()
	}
	if rb.closed {
		return 0, ErrDeviceClosed
	}
	n := rb.take(p)
	rb.cond.Broadcast()
	return n, nil
}

// Available returns the number of bytes available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Free returns the number of free bytes in the buffer
func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size - rb.count
}

// Close wakes every blocked reader and writer
func (rb *RingBuffer) Close() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	rb.cond.Broadcast()
}

// put must be called with rb.mu held
func (rb *RingBuffer) put(p []byte) int {
	written := 0
	for written < len(p) && rb.count < rb.size {
		rb.buffer[rb.writePos] = p[written]
		rb.writePos = (rb.writePos + 1) % rb.size
		rb.count++
		written++
	}
	return written
}

// take must be called with rb.mu held
func (rb *RingBuffer) take(p []byte) int {
	read := 0
	for read < len(p) && rb.count > 0 {
		p[read] = rb.buffer[rb.readPos]
		rb.readPos = (rb.readPos + 1) % rb.size
		rb.count--
		read++
	}
	return read
}
