// ABOUTME: Tests for audio types
// ABOUTME: Tests format validation and sample conversion functions
package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr bool
	}{
		{"default", DefaultFormat(), false},
		{"mono 16k", Format{SampleRate: 16000, Channels: 1, BitDepth: 16}, false},
		{"unsigned 8-bit", Format{SampleRate: 8000, Channels: 1, BitDepth: 8, Unsigned: true}, false},
		{"24-bit big endian", Format{SampleRate: 96000, Channels: 2, BitDepth: 24, BigEndian: true}, false},
		{"zero rate", Format{Channels: 2, BitDepth: 16}, true},
		{"zero channels", Format{SampleRate: 48000, BitDepth: 16}, true},
		{"12-bit", Format{SampleRate: 48000, Channels: 2, BitDepth: 12}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidFormat), "expected ErrInvalidFormat, got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFormatSizes(t *testing.T) {
	f := Format{SampleRate: 16000, Channels: 2, BitDepth: 24}

	assert.Equal(t, 3, f.BytesPerSample())
	assert.Equal(t, 6, f.FrameSize())
	assert.Equal(t, 96000, f.BytesPerSecond())
	assert.Equal(t, 500*time.Millisecond, f.Duration(48000))
	assert.Equal(t, time.Duration(0), Format{}.Duration(100))
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "48000Hz/16bit/2ch/s16le", DefaultFormat().String())
	assert.Equal(t, "8000Hz/8bit/1ch/u8", Format{SampleRate: 8000, Channels: 1, BitDepth: 8, Unsigned: true}.String())
	assert.Equal(t, "44100Hz/24bit/2ch/s24be", Format{SampleRate: 44100, Channels: 2, BitDepth: 24, BigEndian: true}.String())
}

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected int32
	}{
		{"zero", 0, 0},
		{"positive", 100, 100 << 8},
		{"negative", -100, -100 << 8},
		{"max", 32767, 32767 << 8},
		{"min", -32768, -32768 << 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SampleFromInt16(tt.input))
		})
	}
}

func TestSampleToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected int16
	}{
		{"zero", 0, 0},
		{"positive", 100 << 8, 100},
		{"negative", -100 << 8, -100},
		{"24bit positive", 1000000, 3906},
		{"24bit negative", -1000000, -3907},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SampleToInt16(tt.input))
		})
	}
}

func TestSample24BitPacking(t *testing.T) {
	tests := []struct {
		name   string
		sample int32
		packed [3]byte
	}{
		{"zero", 0, [3]byte{0, 0, 0}},
		{"positive", 0x123456, [3]byte{0x56, 0x34, 0x12}},
		{"negative", -256, [3]byte{0x00, 0xFF, 0xFF}},
		{"max", Max24Bit, [3]byte{0xFF, 0xFF, 0x7F}},
		{"min", Min24Bit, [3]byte{0x00, 0x00, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.packed, SampleTo24Bit(tt.sample))
			assert.Equal(t, tt.sample, SampleFrom24Bit(tt.packed))
		})
	}
}

func TestClampTo24Bit(t *testing.T) {
	assert.Equal(t, int32(Max24Bit), ClampTo24Bit(Max24Bit+10))
	assert.Equal(t, int32(Min24Bit), ClampTo24Bit(Min24Bit-10))
	assert.Equal(t, int32(1234), ClampTo24Bit(1234))
}
