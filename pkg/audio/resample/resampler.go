// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Carries the last frame across calls so chunk boundaries interpolate cleanly
package resample

// Resampler performs linear interpolation to convert between sample rates.
// Input is fed in arbitrary chunks; the final frame of each chunk is held back
// so the next chunk can interpolate across the boundary.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64 // read position in input frames, relative to prev
	prev       []int32 // one sample per channel
	hasPrev    bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		prev:       make([]int32, channels),
	}
}

// frame returns frame i of the virtual sequence prev+input
func (r *Resampler) frame(input []int32, i int) []int32 {
	if r.hasPrev {
		if i == 0 {
			return r.prev
		}
		i--
	}
	return input[i*r.channels : (i+1)*r.channels]
}

// Resample converts interleaved input samples to the output rate and appends
// them to dst. input must hold whole frames.
func (r *Resampler) Resample(dst, input []int32) []int32 {
	inputFrames := len(input) / r.channels
	count := inputFrames
	if r.hasPrev {
		count++
	}
	if count == 0 {
		return dst
	}

	for {
		idx := int(r.position)
		if idx+1 >= count {
			break
		}
		frac := r.position - float64(idx)
		a := r.frame(input, idx)
		b := r.frame(input, idx+1)

		for ch := 0; ch < r.channels; ch++ {
			interpolated := float64(a[ch])*(1.0-frac) + float64(b[ch])*frac
			dst = append(dst, int32(interpolated))
		}
		r.position += r.ratio
	}

	// Rebase onto the last frame, which becomes prev
	r.position -= float64(count - 1)
	if inputFrames > 0 {
		copy(r.prev, input[(inputFrames-1)*r.channels:inputFrames*r.channels])
	}
	r.hasPrev = true

	return dst
}

// Flush emits the held-back final frame if the read position has not yet
// passed it. Call once after the last Resample.
func (r *Resampler) Flush(dst []int32) []int32 {
	if r.hasPrev && r.position < 1.0 {
		dst = append(dst, r.prev...)
		r.position = 1.0
	}
	return dst
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	r.hasPrev = false
	for i := range r.prev {
		r.prev[i] = 0
	}
}

// Ratio returns input frames consumed per output frame
func (r *Resampler) Ratio() float64 {
	return r.ratio
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames) / r.ratio)
	return outputFrames * r.channels
}
