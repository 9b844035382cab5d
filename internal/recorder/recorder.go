// ABOUTME: Records an input stream to a WAV file
// ABOUTME: Example consumer of an environment's subscriber stream
package recorder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/audiocore/pkg/audio"
	"github.com/Resonate-Protocol/audiocore/pkg/audio/convert"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
)

const readChunkSize = 4096

// Recorder drains a PCM stream into a WAV file
type Recorder struct {
	path    string
	source  io.ReadCloser
	format  audio.Format
	logger  *logrus.Entry
	file    *os.File
	encoder *wav.Encoder
	frames  atomic.Int64

	started       atomic.Bool
	stopRequested atomic.Bool
	done          chan struct{}
	stopOnce      sync.Once
	err           error
}

// New creates the WAV file for stream, which delivers PCM in format.
// Formats WAV cannot store (big-endian, signed 8-bit) are converted.
func New(stream io.ReadCloser, format audio.Format, path string, logger *logrus.Entry) (*Recorder, error) {
	if logger == nil {
		logger = logrus.WithField("component", "recorder")
	}

	target := audio.Format{
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		BitDepth:   format.BitDepth,
		Unsigned:   format.BitDepth == 8,
	}
	source, err := convert.NewReader(stream, format, target)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}

	return &Recorder{
		path:    path,
		source:  source,
		format:  target,
		logger:  logger.WithField("path", path),
		file:    f,
		encoder: wav.NewEncoder(f, target.SampleRate, target.BitDepth, target.Channels, 1),
		done:    make(chan struct{}),
	}, nil
}

// Start begins recording in the background
func (r *Recorder) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	r.logger.WithField("format", r.format.String()).Info("Recording started")
	go r.run()
}

func (r *Recorder) run() {
	defer close(r.done)

	buf := make([]byte, readChunkSize)
	var pending []byte
	var samples []int32
	intBuf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: r.format.Channels, SampleRate: r.format.SampleRate},
		SourceBitDepth: r.format.BitDepth,
	}
	frameSize := r.format.FrameSize()

	for {
		n, err := r.source.Read(buf)
		pending = append(pending, buf[:n]...)

		whole := len(pending) - len(pending)%frameSize
		if whole > 0 {
			samples = convert.DecodeSamples(samples[:0], pending[:whole], r.format)
			intBuf.Data = toWAVInts(intBuf.Data[:0], samples, r.format.BitDepth)
			if werr := r.encoder.Write(intBuf); werr != nil {
				r.err = fmt.Errorf("failed to write recording: %w", werr)
				return
			}
			r.frames.Add(int64(whole / frameSize))
			pending = append(pending[:0], pending[whole:]...)
		}

		if err != nil {
			if !errors.Is(err, io.EOF) && !r.stopRequested.Load() {
				r.err = err
			}
			return
		}
	}
}

// toWAVInts converts working samples to the integer range of bitDepth
func toWAVInts(dst []int, samples []int32, bitDepth int) []int {
	for _, s := range samples {
		switch bitDepth {
		case 8:
			dst = append(dst, int(s>>16)+128)
		case 16:
			dst = append(dst, int(audio.SampleToInt16(s)))
		case 24:
			dst = append(dst, int(s))
		case 32:
			dst = append(dst, int(s)<<8)
		}
	}
	return dst
}

// Done is closed once the stream has ended or recording stopped
func (r *Recorder) Done() <-chan struct{} { return r.done }

// Frames returns the number of frames written so far
func (r *Recorder) Frames() int64 { return r.frames.Load() }

// Stop closes the stream, waits for the writer and finalizes the file
func (r *Recorder) Stop() error {
	var err error
	r.stopOnce.Do(func() {
		r.stopRequested.Store(true)
		r.source.Close()
		if r.started.CompareAndSwap(false, true) {
			close(r.done)
		}
		<-r.done

		err = r.err
		if cerr := r.encoder.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to finalize recording: %w", cerr)
		}
		if cerr := r.file.Close(); cerr != nil && err == nil {
			err = cerr
		}

		r.logger.WithField("frames", r.Frames()).Info("Recording stopped")
	})
	return err
}
