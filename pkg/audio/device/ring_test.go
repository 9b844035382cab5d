// ABOUTME: Tests for the byte ring buffer
// ABOUTME: Covers wraparound, underrun fill and blocking behavior
package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBufferWrapAround(t *testing.T) {
	rb := NewRingBuffer(4)

	assert.Equal(t, 3, rb.Write([]byte{1, 2, 3}))
	out := make([]byte, 2)
	assert.Equal(t, 2, rb.Read(out))
	assert.Equal(t, []byte{1, 2}, out)

	assert.Equal(t, 3, rb.Write([]byte{4, 5, 6, 7}))
	assert.Equal(t, 0, rb.Free())

	out = make([]byte, 4)
	assert.Equal(t, 4, rb.Read(out))
	assert.Equal(t, []byte{3, 4, 5, 6}, out)
}

func TestRingBufferUnderrunZeroFills(t *testing.T) {
	rb := NewRingBuffer(8)
	rb.Write([]byte{9})

	out := []byte{7, 7, 7}
	assert.Equal(t, 1, rb.Read(out))
	assert.Equal(t, []byte{9, 0, 0}, out)
}

func TestRingBufferWriteBlockingWaitsForSpace(t *testing.T) {
	rb := NewRingBuffer(2)

	done := make(chan error, 1)
	go func() {
		done <- rb.WriteBlocking([]byte{1, 2, 3, 4})
	}()

	got := make([]byte, 0, 4)
	require.Eventually(t, func() bool {
		buf := make([]byte, 2)
		n := rb.Read(buf)
		got = append(got, buf[:n]...)
		return len(got) == 4
	}, time.Second, time.Millisecond)

	require.NoError(t, <-done)
	assert.Equal(t, []byte{1, 2, 3, 4}, got)
}

func TestRingBufferReadBlocking(t *testing.T) {
	rb := NewRingBuffer(8)

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	buf := make([]byte, 8)
	go func() {
		n, err := rb.ReadBlocking(buf)
		done <- result{n, err}
	}()

	time.Sleep(10 * time.Millisecond)
	rb.Write([]byte{5, 6})

	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, 2, r.n)
	assert.Equal(t, []byte{5, 6}, buf[:2])
}

func TestRingBufferCloseUnblocks(t *testing.T) {
	rb := NewRingBuffer(1)
	rb.Write([]byte{1})

	readDone := make(chan error, 1)
	writeDone := make(chan error, 1)
	empty := NewRingBuffer(1)
	go func() {
		_, err := empty.ReadBlocking(make([]byte, 1))
		readDone <- err
	}()
	go func() {
		writeDone <- rb.WriteBlocking([]byte{2})
	}()

	time.Sleep(10 * time.Millisecond)
	rb.Close()
	empty.Close()

	assert.ErrorIs(t, <-readDone, ErrDeviceClosed)
	assert.ErrorIs(t, <-writeDone, ErrDeviceClosed)
	assert.Equal(t, 0, rb.Write([]byte{3}))
}
