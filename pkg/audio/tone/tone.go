// ABOUTME: Sine tone generator producing raw PCM bytes
// ABOUTME: Used for alarm beeps, the startup chime and test signals
package tone

import (
	"io"
	"math"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audiocore/pkg/audio"
	"github.com/Resonate-Protocol/audiocore/pkg/audio/convert"
)

// Beep defaults
const (
	BeepFrequency = 880.0 // A5
	BeepDuration  = 150 * time.Millisecond
)

// Source generates a sine wave in a given PCM format
type Source struct {
	format      audio.Format
	frequency   float64
	amplitude   float64
	totalFrames int64 // negative means endless
	sampleIndex int64
	sampleMu    sync.Mutex
	closed      bool

	samples []int32
	encoded []byte
}

// New creates a tone generator. A zero or negative duration produces an
// endless tone.
func New(format audio.Format, frequency float64, duration time.Duration) (*Source, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	total := int64(-1)
	if duration > 0 {
		total = int64(duration) * int64(format.SampleRate) / int64(time.Second)
	}

	return &Source{
		format:      format,
		frequency:   frequency,
		amplitude:   0.5, // 50% volume to avoid clipping
		totalFrames: total,
	}, nil
}

// NewBeep creates a short notification beep
func NewBeep(format audio.Format) (*Source, error) {
	return New(format, BeepFrequency, BeepDuration)
}

// Read fills p with whole frames of the tone
func (s *Source) Read(p []byte) (int, error) {
	s.sampleMu.Lock()
	defer s.sampleMu.Unlock()

	if s.closed {
		return 0, io.ErrClosedPipe
	}

	frames := int64(len(p) / s.format.FrameSize())
	if s.totalFrames >= 0 {
		remaining := s.totalFrames - s.sampleIndex
		if remaining <= 0 {
			return 0, io.EOF
		}
		if frames > remaining {
			frames = remaining
		}
	}

	s.samples = s.samples[:0]
	for i := int64(0); i < frames; i++ {
		// Generate sine wave
		t := float64(s.sampleIndex+i) / float64(s.format.SampleRate)
		sample := math.Sin(2 * math.Pi * s.frequency * t)

		// Scale to 24-bit working range
		pcmValue := int32(sample * audio.Max24Bit * s.amplitude)

		// Duplicate to all channels
		for ch := 0; ch < s.format.Channels; ch++ {
			s.samples = append(s.samples, pcmValue)
		}
	}
	s.sampleIndex += frames

	s.encoded = convert.EncodeSamples(s.encoded[:0], s.samples, s.format)
	return copy(p, s.encoded), nil
}

// Format returns the PCM format of the generated bytes
func (s *Source) Format() audio.Format { return s.format }

// Frequency returns the tone frequency in Hz
func (s *Source) Frequency() float64 { return s.frequency }

// Close stops the generator; further reads fail
func (s *Source) Close() error {
	s.sampleMu.Lock()
	defer s.sampleMu.Unlock()
	s.closed = true
	return nil
}
