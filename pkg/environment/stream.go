// ABOUTME: Subscriber stream fed by an environment's input worker
// ABOUTME: Bounded byte FIFO with an end-of-stream sentinel
package environment

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/audiocore/pkg/audio"
	"github.com/google/uuid"
)

// endOfStream is queued after the last byte; real bytes are 0-255
const endOfStream int16 = -1

// Stream is one consumer's view of an environment's captured input.
// It is an io.Reader: reads block until bytes arrive and return io.EOF once
// the stream has ended.
type Stream struct {
	id     string
	format audio.Format
	queue  chan int16
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	ended  bool

	// evicted is set by the input worker once the stream is force-ended
	evicted atomic.Bool
}

func newStream(format audio.Format, capacity int) *Stream {
	return &Stream{
		id:     uuid.New().String(),
		format: format,
		queue:  make(chan int16, capacity),
		done:   make(chan struct{}),
	}
}

// ID returns the stream's unique identifier
func (s *Stream) ID() string { return s.id }

// Format returns the PCM format of the stream (the environment input format)
func (s *Stream) Format() audio.Format { return s.format }

// ReadByte blocks until one byte is available
func (s *Stream) ReadByte() (byte, error) {
	if err := s.readable(); err != nil {
		return 0, err
	}

	select {
	case v := <-s.queue:
		if v == endOfStream {
			s.markEnded()
			return 0, io.EOF
		}
		return byte(v), nil
	case <-s.done:
		return 0, ErrStreamClosed
	}
}

// Read blocks for the first byte, then returns whatever else is queued
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	b, err := s.ReadByte()
	if err != nil {
		return 0, err
	}
	p[0] = b
	n := 1

	for n < len(p) {
		select {
		case v := <-s.queue:
			if v == endOfStream {
				// Report the end on the next call
				s.markEnded()
				return n, nil
			}
			p[n] = byte(v)
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}

// Close stops the stream. It never clears queued bytes. Reads after Close,
// including a read blocked at the time, fail with ErrStreamClosed.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

// IsClosed reports whether Close has been called
func (s *Stream) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Ended reports whether the reader has observed the end of the stream
func (s *Stream) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Available returns the number of queued values, or 0 once closed
func (s *Stream) Available() int {
	if s.IsClosed() {
		return 0
	}
	return len(s.queue)
}

func (s *Stream) readable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	if s.ended {
		return io.EOF
	}
	return nil
}

func (s *Stream) markEnded() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
}

// offer tries to queue b, waiting up to timeout for space
func (s *Stream) offer(b byte, timeout time.Duration) bool {
	select {
	case s.queue <- int16(b):
		return true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s.queue <- int16(b):
		return true
	case <-timer.C:
		return false
	case <-s.done:
		return false
	}
}

func (s *Stream) depth() int { return len(s.queue) }

func (s *Stream) live() bool {
	return !s.evicted.Load() && !s.IsClosed()
}

// forceEnd discards everything queued and leaves exactly one sentinel
func (s *Stream) forceEnd() {
	s.evicted.Store(true)
drain:
	for {
		select {
		case <-s.queue:
		default:
			break drain
		}
	}
	s.pushSentinel()
}

// finish queues the sentinel behind the data already delivered
func (s *Stream) finish() {
	s.evicted.Store(true)
	s.pushSentinel()
}

// pushSentinel drops the oldest value if needed to make room
func (s *Stream) pushSentinel() {
	for {
		select {
		case s.queue <- endOfStream:
			return
		default:
		}
		select {
		case <-s.queue:
		default:
		}
	}
}
