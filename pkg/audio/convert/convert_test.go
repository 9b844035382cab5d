// ABOUTME: Tests for PCM format conversion
// ABOUTME: Covers compatibility checks, sample codecs and the streaming reader
package convert

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/Resonate-Protocol/audiocore/pkg/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	mono16k  = audio.Format{SampleRate: 16000, Channels: 1, BitDepth: 16}
	stereo16 = audio.Format{SampleRate: 16000, Channels: 2, BitDepth: 16}
)

func pcm16(samples ...int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func TestCanConvert(t *testing.T) {
	tests := []struct {
		name     string
		from, to audio.Format
		ok       bool
	}{
		{"identical", mono16k, mono16k, true},
		{"mono to stereo", mono16k, stereo16, true},
		{"stereo to mono", stereo16, mono16k, true},
		{"rate change", mono16k, audio.Format{SampleRate: 48000, Channels: 1, BitDepth: 16}, true},
		{"depth change", mono16k, audio.Format{SampleRate: 16000, Channels: 1, BitDepth: 24}, true},
		{"stereo to quad", stereo16, audio.Format{SampleRate: 16000, Channels: 4, BitDepth: 16}, false},
		{"invalid source", audio.Format{SampleRate: 16000, Channels: 1, BitDepth: 12}, mono16k, false},
		{"invalid target", mono16k, audio.Format{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanConvert(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, audio.ErrFormatMismatch), "expected ErrFormatMismatch, got %v", err)
		})
	}
}

func TestSampleCodecRoundTrip(t *testing.T) {
	formats := []audio.Format{
		{SampleRate: 8000, Channels: 1, BitDepth: 8, Unsigned: true},
		{SampleRate: 8000, Channels: 1, BitDepth: 8},
		{SampleRate: 8000, Channels: 1, BitDepth: 16},
		{SampleRate: 8000, Channels: 1, BitDepth: 16, BigEndian: true},
		{SampleRate: 8000, Channels: 1, BitDepth: 16, Unsigned: true},
		{SampleRate: 8000, Channels: 1, BitDepth: 24},
		{SampleRate: 8000, Channels: 1, BitDepth: 24, BigEndian: true, Unsigned: true},
		{SampleRate: 8000, Channels: 1, BitDepth: 32},
		{SampleRate: 8000, Channels: 1, BitDepth: 32, Unsigned: true, BigEndian: true},
	}

	// Values representable at 8-bit precision survive every layout
	samples := []int32{0, 1 << 16, -(1 << 16), 100 << 16, -(128 << 16), 127 << 16}

	for _, f := range formats {
		t.Run(f.String(), func(t *testing.T) {
			encoded := EncodeSamples(nil, samples, f)
			require.Equal(t, len(samples)*f.BytesPerSample(), len(encoded))

			decoded := DecodeSamples(nil, encoded, f)
			assert.Equal(t, samples, decoded)
		})
	}
}

func TestDecodeUnsigned8BitSilence(t *testing.T) {
	f := audio.Format{SampleRate: 8000, Channels: 1, BitDepth: 8, Unsigned: true}
	assert.Equal(t, []int32{0}, DecodeSamples(nil, []byte{128}, f))
}

func TestMapChannels(t *testing.T) {
	assert.Equal(t, []int32{1, 1, 2, 2}, MapChannels(nil, []int32{1, 2}, 1, 2))
	assert.Equal(t, []int32{15, 30}, MapChannels(nil, []int32{10, 20, 20, 40}, 2, 1))
	assert.Equal(t, []int32{1, 2, 3}, MapChannels(nil, []int32{1, 2, 3}, 3, 3))
}

func TestNewReaderPassthrough(t *testing.T) {
	src := bytes.NewReader(pcm16(1, 2, 3))

	rc, err := NewReader(src, mono16k, mono16k)
	require.NoError(t, err)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pcm16(1, 2, 3), data)
	assert.NoError(t, rc.Close())
}

func TestNewReaderRejectsMismatch(t *testing.T) {
	_, err := NewReader(bytes.NewReader(nil), stereo16, audio.Format{SampleRate: 16000, Channels: 3, BitDepth: 16})
	assert.True(t, errors.Is(err, audio.ErrFormatMismatch))
}

func TestReaderMonoToStereo(t *testing.T) {
	rc, err := NewReader(bytes.NewReader(pcm16(100, -200)), mono16k, stereo16)
	require.NoError(t, err)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pcm16(100, 100, -200, -200), data)
}

func TestReaderDepthChange(t *testing.T) {
	to := audio.Format{SampleRate: 16000, Channels: 1, BitDepth: 24}

	rc, err := NewReader(bytes.NewReader(pcm16(1, -1)), mono16k, to)
	require.NoError(t, err)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0x00, 0x00, 0xFF, 0xFF}, data)
}

func TestReaderUpsampleLength(t *testing.T) {
	to := audio.Format{SampleRate: 32000, Channels: 1, BitDepth: 16}

	input := make([]int16, 4000)
	for i := range input {
		input[i] = int16(i % 1000)
	}

	rc, err := NewReader(bytes.NewReader(pcm16(input...)), mono16k, to)
	require.NoError(t, err)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.InDelta(t, 8000*2, len(data), 8)
	assert.Zero(t, len(data)%2)
}

// oneByteReader hands out a single byte per Read to split frames
type oneByteReader struct{ r io.Reader }

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return o.r.Read(p[:1])
}

func TestReaderHandlesSplitFrames(t *testing.T) {
	src := oneByteReader{bytes.NewReader(pcm16(7, 8, 9))}

	rc, err := NewReader(src, mono16k, stereo16)
	require.NoError(t, err)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pcm16(7, 7, 8, 8, 9, 9), data)
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestReaderCloseClosesSource(t *testing.T) {
	src := &closeTracker{Reader: bytes.NewReader(pcm16(1))}

	rc, err := NewReader(src, mono16k, stereo16)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	assert.True(t, src.closed)
}
