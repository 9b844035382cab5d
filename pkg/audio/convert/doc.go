// ABOUTME: PCM format conversion package
// ABOUTME: Converts byte streams between sample rates, channel layouts and sample encodings
// Package convert adapts raw PCM byte streams between audio.Format values.
//
// Conversion covers bit depth, signedness, endianness, sample rate (linear
// interpolation via package resample) and channel layout where one side is
// mono or both sides match. Anything else is a format mismatch:
//
//	if err := convert.CanConvert(srcFormat, deviceFormat); err != nil {
//	    return err // wraps audio.ErrFormatMismatch
//	}
//	rc, err := convert.NewReader(src, srcFormat, deviceFormat)
package convert
