// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines the Format type and sample conversion functions
// Package audio provides fundamental audio types and utilities.
//
// This package defines the core type used throughout audiocore:
//   - Format: Describes a raw PCM stream (sample rate, channels, bit depth,
//     signedness, endianness)
//
// It also provides utilities for converting between different sample formats:
//   - 16-bit ↔ 24-bit conversions
//   - int32 ↔ packed byte conversions
//
// Example:
//
//	format := audio.Format{
//	    SampleRate: 16000,
//	    Channels:   1,
//	    BitDepth:   16,
//	}
//	if err := format.Validate(); err != nil {
//	    return err
//	}
//
//	// Convert 16-bit sample to 24-bit range
//	sample24 := audio.SampleFromInt16(sample16)
package audio
