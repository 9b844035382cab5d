// ABOUTME: File-backed device binding using WAV files
// ABOUTME: Reads captured input from one WAV file and records output to another
package device

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audiocore/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
)

// WAVConfig holds configuration for a file-backed binding
type WAVConfig struct {
	// InputPath is played back as captured input; empty means no input
	InputPath string

	// OutputPath receives everything written; empty discards output
	OutputPath string

	// OutputFormat defaults to the input file's format, or audio.DefaultFormat
	OutputFormat audio.Format

	// Realtime paces reads and writes at the format's byte rate
	Realtime bool

	Logger *logrus.Entry
}

// WAV is a virtual device backed by WAV files
type WAV struct {
	config       WAVConfig
	logger       *logrus.Entry
	inputFormat  audio.Format
	outputFormat audio.Format

	inMu    sync.Mutex
	inFile  *os.File
	decoder *wav.Decoder
	intBuf  *goaudio.IntBuffer

	outMu   sync.Mutex
	outFile *os.File
	encoder *wav.Encoder
	outBuf  *goaudio.IntBuffer

	mu     sync.Mutex
	opened bool
	closed chan struct{}
}

// NewWAV opens the input file (if any) and reads its header
func NewWAV(config WAVConfig) (*WAV, error) {
	if config.Logger == nil {
		config.Logger = logrus.WithField("component", "wav")
	}

	w := &WAV{
		config: config,
		logger: config.Logger,
		closed: make(chan struct{}),
	}

	if config.InputPath != "" {
		f, err := os.Open(config.InputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}

		d := wav.NewDecoder(f)
		if !d.IsValidFile() {
			f.Close()
			return nil, fmt.Errorf("%w: %s is not a valid WAV file", ErrUnsupportedFormat, config.InputPath)
		}
		if err := d.FwdToPCM(); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to find PCM data: %w", err)
		}

		w.inFile = f
		w.decoder = d
		w.inputFormat = wavFormat(int(d.SampleRate), int(d.NumChans), int(d.BitDepth))
		if err := w.inputFormat.Validate(); err != nil {
			f.Close()
			return nil, err
		}
	}

	out := config.OutputFormat
	if out == (audio.Format{}) {
		out = w.inputFormat
	}
	if out == (audio.Format{}) {
		out = audio.DefaultFormat()
	}
	w.outputFormat = wavFormat(out.SampleRate, out.Channels, out.BitDepth)
	if err := w.outputFormat.Validate(); err != nil {
		w.closeInput()
		return nil, err
	}
	if w.decoder == nil {
		w.inputFormat = w.outputFormat
	}

	return w, nil
}

// wavFormat returns the byte layout WAV files use for a given depth
func wavFormat(sampleRate, channels, bitDepth int) audio.Format {
	return audio.Format{
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
		Unsigned:   bitDepth == 8,
	}
}

// Open creates the output file
func (w *WAV) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.closed:
		return ErrDeviceClosed
	default:
	}
	if w.opened {
		return nil
	}

	if w.config.OutputPath != "" {
		f, err := os.Create(w.config.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		of := w.outputFormat
		w.outFile = f
		w.encoder = wav.NewEncoder(f, of.SampleRate, of.BitDepth, of.Channels, 1)
		w.outBuf = &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: of.Channels, SampleRate: of.SampleRate},
			SourceBitDepth: of.BitDepth,
		}
	}

	w.opened = true
	w.logger.WithFields(logrus.Fields{
		"input":  w.config.InputPath,
		"output": w.config.OutputPath,
		"format": w.outputFormat.String(),
	}).Info("WAV device opened")
	return nil
}

// ReadInput returns PCM bytes from the input file, io.EOF at its end
func (w *WAV) ReadInput(p []byte) (int, error) {
	if err := w.checkOpen(); err != nil {
		return 0, err
	}
	if w.decoder == nil {
		<-w.closed
		return 0, ErrDeviceClosed
	}

	f := w.inputFormat
	frames := len(p) / f.FrameSize()
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}

	w.inMu.Lock()
	if w.inFile == nil {
		w.inMu.Unlock()
		return 0, ErrDeviceClosed
	}
	if w.intBuf == nil {
		w.intBuf = &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: f.Channels, SampleRate: f.SampleRate},
			SourceBitDepth: f.BitDepth,
		}
	}
	if cap(w.intBuf.Data) < frames*f.Channels {
		w.intBuf.Data = make([]int, frames*f.Channels)
	}
	w.intBuf.Data = w.intBuf.Data[:frames*f.Channels]
	n, err := w.decoder.PCMBuffer(w.intBuf)
	data := packInts(p[:0], w.intBuf.Data[:n], f.BitDepth)
	w.inMu.Unlock()

	if n == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	if w.config.Realtime {
		if err := w.pace(len(data), f); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

// WriteOutput appends bytes to the output file
func (w *WAV) WriteOutput(p []byte) error {
	if err := w.checkOpen(); err != nil {
		return err
	}

	if w.config.Realtime {
		if err := w.pace(len(p), w.outputFormat); err != nil {
			return err
		}
	}

	w.outMu.Lock()
	defer w.outMu.Unlock()

	select {
	case <-w.closed:
		return ErrDeviceClosed
	default:
	}
	if w.encoder == nil {
		return nil
	}

	w.outBuf.Data = unpackInts(w.outBuf.Data[:0], p, w.outputFormat.BitDepth)
	if err := w.encoder.Write(w.outBuf); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	return nil
}

// NativeInputFormat returns the input file's format
func (w *WAV) NativeInputFormat() audio.Format { return w.inputFormat }

// NativeOutputFormat returns the output file's format
func (w *WAV) NativeOutputFormat() audio.Format { return w.outputFormat }

// Close finalizes the output file and releases the input file
func (w *WAV) Close() error {
	w.mu.Lock()
	select {
	case <-w.closed:
		w.mu.Unlock()
		return nil
	default:
		close(w.closed)
	}
	w.mu.Unlock()

	w.closeInput()

	w.outMu.Lock()
	defer w.outMu.Unlock()

	var firstErr error
	if w.encoder != nil {
		// Encoder.Close rewrites the header sizes
		if err := w.encoder.Close(); err != nil {
			firstErr = fmt.Errorf("failed to finalize WAV file: %w", err)
		}
		w.encoder = nil
	}
	if w.outFile != nil {
		if err := w.outFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		w.outFile = nil
	}
	return firstErr
}

func (w *WAV) closeInput() {
	w.inMu.Lock()
	defer w.inMu.Unlock()
	if w.inFile != nil {
		w.inFile.Close()
		w.inFile = nil
	}
}

func (w *WAV) checkOpen() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.closed:
		return ErrDeviceClosed
	default:
	}
	if !w.opened {
		return ErrDeviceNotOpen
	}
	return nil
}

// pace sleeps for the play time of n bytes, returning early on Close
func (w *WAV) pace(n int, f audio.Format) error {
	select {
	case <-time.After(f.Duration(n)):
		return nil
	case <-w.closed:
		return ErrDeviceClosed
	}
}

// packInts writes raw WAV sample values as little-endian bytes
func packInts(dst []byte, data []int, bitDepth int) []byte {
	for _, v := range data {
		switch bitDepth {
		case 8:
			dst = append(dst, byte(v))
		case 16:
			dst = append(dst, byte(v), byte(v>>8))
		case 24:
			dst = append(dst, byte(v), byte(v>>8), byte(v>>16))
		case 32:
			dst = append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
		}
	}
	return dst
}

// unpackInts reads little-endian bytes into raw WAV sample values
func unpackInts(dst []int, p []byte, bitDepth int) []int {
	size := bitDepth / 8
	for i := 0; i+size <= len(p); i += size {
		switch bitDepth {
		case 8:
			dst = append(dst, int(p[i]))
		case 16:
			dst = append(dst, int(int16(uint16(p[i])|uint16(p[i+1])<<8)))
		case 24:
			v := int32(uint32(p[i]) | uint32(p[i+1])<<8 | uint32(p[i+2])<<16)
			dst = append(dst, int((v<<8)>>8))
		case 32:
			dst = append(dst, int(int32(uint32(p[i])|uint32(p[i+1])<<8|uint32(p[i+2])<<16|uint32(p[i+3])<<24)))
		}
	}
	return dst
}
