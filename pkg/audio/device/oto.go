// ABOUTME: Oto-based playback-only device binding
// ABOUTME: Streams PCM to the platform audio output through a pipe
package device

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/Resonate-Protocol/audiocore/pkg/audio"
	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

// OtoConfig holds configuration for the oto binding
type OtoConfig struct {
	// Format must be s16le or u8, the integer formats oto plays
	Format audio.Format

	Logger *logrus.Entry
}

// Oto plays through the platform output. It has no capture path:
// ReadInput blocks until the binding is closed.
type Oto struct {
	config     OtoConfig
	logger     *logrus.Entry
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	closed     chan struct{}
	mu         sync.Mutex
	ready      bool
}

// NewOto creates a playback-only binding
func NewOto(config OtoConfig) *Oto {
	if config.Format == (audio.Format{}) {
		config.Format = audio.DefaultFormat()
	}
	if config.Logger == nil {
		config.Logger = logrus.WithField("component", "oto")
	}

	return &Oto{
		config: config,
		logger: config.Logger,
		closed: make(chan struct{}),
	}
}

// Open creates the oto context and a persistent player fed by a pipe
func (o *Oto) Open() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	select {
	case <-o.closed:
		return ErrDeviceClosed
	default:
	}
	if o.ready {
		return nil
	}

	f := o.config.Format
	format, err := otoFormat(f)
	if err != nil {
		return err
	}

	op := &oto.NewContextOptions{
		SampleRate:   f.SampleRate,
		ChannelCount: f.Channels,
		Format:       format,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx

	// Create pipe for continuous streaming
	o.pipeReader, o.pipeWriter = io.Pipe()

	// Create persistent player that reads from the pipe
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()

	o.ready = true

	o.logger.WithField("format", f.String()).Info("Audio output initialized (oto)")

	return nil
}

// ReadInput blocks until Close; oto has no capture path
func (o *Oto) ReadInput(p []byte) (int, error) {
	<-o.closed
	return 0, ErrDeviceClosed
}

// WriteOutput writes to the pipe feeding the player (blocks until consumed)
func (o *Oto) WriteOutput(p []byte) error {
	o.mu.Lock()
	ready, w := o.ready, o.pipeWriter
	o.mu.Unlock()

	if !ready {
		select {
		case <-o.closed:
			return ErrDeviceClosed
		default:
			return ErrDeviceNotOpen
		}
	}

	if _, err := w.Write(p); err != nil {
		if errors.Is(err, io.ErrClosedPipe) {
			return ErrDeviceClosed
		}
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// NativeInputFormat returns the output format; no input ever arrives
func (o *Oto) NativeInputFormat() audio.Format { return o.config.Format }

// NativeOutputFormat returns the playback format
func (o *Oto) NativeOutputFormat() audio.Format { return o.config.Format }

// Close releases output resources and unblocks pending I/O
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	select {
	case <-o.closed:
		return nil
	default:
		close(o.closed)
	}

	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		if err := o.player.Close(); err != nil {
			o.logger.WithError(err).Warn("Player close error")
		}
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		// oto allows one context per process, so it is suspended rather than freed
		if err := o.otoCtx.Suspend(); err != nil {
			o.logger.WithError(err).Warn("Oto context suspend error")
		}
	}
	o.ready = false
	return nil
}

// otoFormat maps a PCM format to an oto sample format
func otoFormat(f audio.Format) (oto.Format, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	switch {
	case f.BitDepth == 16 && !f.Unsigned && !f.BigEndian:
		return oto.FormatSignedInt16LE, nil
	case f.BitDepth == 8 && f.Unsigned:
		return oto.FormatUnsignedInt8, nil
	}
	return 0, fmt.Errorf("%w: %s (oto supports s16le and u8)", ErrUnsupportedFormat, f)
}
