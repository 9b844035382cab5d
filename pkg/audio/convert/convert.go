// ABOUTME: Streaming PCM format converter
// ABOUTME: Wraps a byte source so it reads in a different PCM format
package convert

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/audiocore/pkg/audio"
	"github.com/Resonate-Protocol/audiocore/pkg/audio/resample"
)

// chunkFrames is how many source frames are converted per refill
const chunkFrames = 1024

// CanConvert reports whether a stream in format from can be converted to
// format to. It returns an error wrapping audio.ErrFormatMismatch if not.
func CanConvert(from, to audio.Format) error {
	if err := from.Validate(); err != nil {
		return fmt.Errorf("%w: source: %v", audio.ErrFormatMismatch, err)
	}
	if err := to.Validate(); err != nil {
		return fmt.Errorf("%w: target: %v", audio.ErrFormatMismatch, err)
	}
	if from.Channels != to.Channels && from.Channels != 1 && to.Channels != 1 {
		return fmt.Errorf("%w: cannot map %d channels to %d", audio.ErrFormatMismatch, from.Channels, to.Channels)
	}
	return nil
}

// Reader reads PCM from src in format from and yields it in format to
type Reader struct {
	src       io.Reader
	from      audio.Format
	to        audio.Format
	resampler *resample.Resampler

	in      []byte
	partial int // bytes of an incomplete frame left at the front of in
	samples []int32
	mapped  []int32
	rate    []int32
	out     []byte
	err     error
}

// NewReader returns a reader converting src from one format to another.
// When the formats are equal src is returned unchanged (wrapped to add a
// no-op Close if needed). Closing the returned reader closes src when src is
// an io.Closer.
func NewReader(src io.Reader, from, to audio.Format) (io.ReadCloser, error) {
	if err := CanConvert(from, to); err != nil {
		return nil, err
	}

	if from == to {
		if rc, ok := src.(io.ReadCloser); ok {
			return rc, nil
		}
		return io.NopCloser(src), nil
	}

	r := &Reader{
		src:  src,
		from: from,
		to:   to,
		in:   make([]byte, chunkFrames*from.FrameSize()),
	}
	if from.SampleRate != to.SampleRate {
		r.resampler = resample.New(from.SampleRate, to.SampleRate, to.Channels)
	}

	return r, nil
}

// Read implements io.Reader
func (r *Reader) Read(p []byte) (int, error) {
	for len(r.out) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		r.fill()
	}

	n := copy(p, r.out)
	r.out = r.out[n:]
	return n, nil
}

// fill reads one chunk from the source and converts every whole frame in it
func (r *Reader) fill() {
	n, err := r.src.Read(r.in[r.partial:])
	n += r.partial

	frameSize := r.from.FrameSize()
	whole := (n / frameSize) * frameSize

	r.samples = DecodeSamples(r.samples[:0], r.in[:whole], r.from)
	r.mapped = MapChannels(r.mapped[:0], r.samples, r.from.Channels, r.to.Channels)

	converted := r.mapped
	if r.resampler != nil {
		r.rate = r.resampler.Resample(r.rate[:0], r.mapped)
		converted = r.rate
	}

	// Keep the trailing partial frame for the next read
	r.partial = copy(r.in, r.in[whole:n])

	if err != nil {
		if r.resampler != nil && err == io.EOF {
			converted = r.resampler.Flush(converted)
		}
		r.err = err
	}

	r.out = EncodeSamples(r.out[:0], converted, r.to)
}

// Close closes the underlying source if it is closable
func (r *Reader) Close() error {
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
