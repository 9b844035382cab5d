// ABOUTME: Tests for audio resampler
// ABOUTME: Tests linear interpolation resampling across chunk boundaries
package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResampler(t *testing.T) {
	r := New(44100, 48000, 2)
	require.NotNil(t, r)

	assert.Equal(t, 44100, r.inputRate)
	assert.Equal(t, 48000, r.outputRate)
	assert.Equal(t, 2, r.channels)
	assert.InDelta(t, 44100.0/48000.0, r.Ratio(), 1e-9)
}

func TestResampleSameRateIsIdentity(t *testing.T) {
	r := New(16000, 16000, 1)

	out := r.Resample(nil, []int32{0, 1, 2, 3})
	out = r.Flush(out)

	assert.Equal(t, []int32{0, 1, 2, 3}, out)
}

func TestResampleAcrossChunks(t *testing.T) {
	r := New(16000, 16000, 1)

	out := r.Resample(nil, []int32{0, 1})
	out = r.Resample(out, []int32{2, 3})
	out = r.Flush(out)

	assert.Equal(t, []int32{0, 1, 2, 3}, out)
}

func TestResampleUpsampling(t *testing.T) {
	r := New(8000, 16000, 1)

	out := r.Resample(nil, []int32{0, 10, 20})
	out = r.Flush(out)

	assert.Equal(t, []int32{0, 5, 10, 15, 20}, out)
}

func TestResampleDownsampling(t *testing.T) {
	r := New(16000, 8000, 1)

	out := r.Resample(nil, []int32{0, 1, 2, 3, 4, 5, 6, 7})
	assert.Equal(t, []int32{0, 2, 4, 6}, out)

	out = r.Resample(out[:0], []int32{8, 9})
	assert.Equal(t, []int32{8}, out)
}

func TestResampleStereoKeepsChannelsApart(t *testing.T) {
	r := New(8000, 16000, 2)

	// Left ramps up, right ramps down
	out := r.Resample(nil, []int32{0, 100, 10, 90})
	out = r.Flush(out)

	require.Equal(t, 6, len(out))
	assert.Equal(t, []int32{0, 100, 5, 95, 10, 90}, out)
}

func TestResampleApproximateLength(t *testing.T) {
	r := New(44100, 48000, 2)

	input := make([]int32, 200)
	for i := range input {
		input[i] = int32(i * 100)
	}

	expected := r.OutputSamplesNeeded(len(input))
	out := r.Flush(r.Resample(nil, input))

	assert.InDelta(t, expected, len(out), 4)
}

func TestResampleReset(t *testing.T) {
	r := New(16000, 8000, 1)
	r.Resample(nil, []int32{1, 2, 3})

	r.Reset()

	assert.False(t, r.hasPrev)
	assert.Equal(t, 0.0, r.position)
	assert.Equal(t, []int32{0}, r.prev)
}

func TestResampleEmptyInput(t *testing.T) {
	r := New(16000, 8000, 1)
	assert.Empty(t, r.Resample(nil, nil))
}
