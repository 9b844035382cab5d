// ABOUTME: Audio resampling package
// ABOUTME: Provides streaming sample-rate conversion for PCM audio
// Package resample provides sample rate conversion for interleaved int32 PCM.
//
// The resampler is stateful and meant to be fed a stream chunk by chunk:
//
//	r := resample.New(44100, 16000, 1)
//	out = r.Resample(out[:0], chunk)
//	...
//	out = r.Flush(out)
package resample
