// ABOUTME: Audio type definitions
// ABOUTME: Defines the PCM format descriptor and sample conversions
package audio

import (
	"fmt"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Default format used by local device bindings
const (
	DefaultSampleRate = 48000
	DefaultChannels   = 2
	DefaultBitDepth   = 16
)

// Format describes a raw PCM stream.
// The zero values of Unsigned and BigEndian mean signed little-endian samples,
// which is what nearly every sound card speaks.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Unsigned   bool
	BigEndian  bool
}

// DefaultFormat returns 48kHz stereo signed 16-bit little-endian
func DefaultFormat() Format {
	return Format{
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		BitDepth:   DefaultBitDepth,
	}
}

// Validate reports whether the format describes a stream this package can handle
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("%w: channels %d", ErrInvalidFormat, f.Channels)
	}
	switch f.BitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: bit depth %d (supported: 8, 16, 24, 32)", ErrInvalidFormat, f.BitDepth)
	}
	return nil
}

// BytesPerSample returns the size of one sample of one channel
func (f Format) BytesPerSample() int {
	return f.BitDepth / 8
}

// FrameSize returns the size of one sample across all channels
func (f Format) FrameSize() int {
	return f.BytesPerSample() * f.Channels
}

// BytesPerSecond returns the byte rate of the stream
func (f Format) BytesPerSecond() int {
	return f.FrameSize() * f.SampleRate
}

// Duration returns how long n bytes of this format play for
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(bps))
}

// String renders the format as e.g. "48000Hz/16bit/2ch/s16le"
func (f Format) String() string {
	sign := "s"
	if f.Unsigned {
		sign = "u"
	}
	endian := "le"
	if f.BigEndian {
		endian = "be"
	}
	if f.BitDepth == 8 {
		endian = ""
	}
	return fmt.Sprintf("%dHz/%dbit/%dch/%s%d%s", f.SampleRate, f.BitDepth, f.Channels, sign, f.BitDepth, endian)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	// Left-shift to position 16-bit value in upper bits
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	// Take lower 24 bits, pack little-endian
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	// Reconstruct 24-bit value and sign-extend to 32-bit
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF // Set upper 8 bits to 1 for negative values
	}
	return val
}

// ClampTo24Bit saturates a wide sample to the 24-bit range
func ClampTo24Bit(sample int64) int32 {
	if sample > Max24Bit {
		return Max24Bit
	}
	if sample < Min24Bit {
		return Min24Bit
	}
	return int32(sample)
}
