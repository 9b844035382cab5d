// ABOUTME: Malgo-based duplex device binding
// ABOUTME: Captures and plays through the default sound card via miniaudio
package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audiocore/pkg/audio"
	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"
)

// DefaultBufferDuration is the capacity of each ring buffer
const DefaultBufferDuration = 500 * time.Millisecond

// MalgoConfig holds configuration for the local sound card binding
type MalgoConfig struct {
	// Format is used for both capture and playback
	Format audio.Format

	// BufferDuration sizes the capture and playback ring buffers
	BufferDuration time.Duration

	// PlaybackOnly opens the device without a capture path
	PlaybackOnly bool

	Logger *logrus.Entry
}

// Malgo binds the default capture and playback devices using malgo/miniaudio
type Malgo struct {
	config   MalgoConfig
	logger   *logrus.Entry
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device

	// Ring buffers bridge the device callback and the environment workers
	capture  *RingBuffer
	playback *RingBuffer

	closed chan struct{}
	mu     sync.Mutex
	ready  bool
}

// NewMalgo creates a local sound card binding
func NewMalgo(config MalgoConfig) *Malgo {
	if config.Format == (audio.Format{}) {
		config.Format = audio.DefaultFormat()
	}
	if config.BufferDuration <= 0 {
		config.BufferDuration = DefaultBufferDuration
	}
	if config.Logger == nil {
		config.Logger = logrus.WithField("component", "malgo")
	}

	return &Malgo{
		config: config,
		logger: config.Logger,
		closed: make(chan struct{}),
	}
}

// Open initializes the device and starts the callback
func (m *Malgo) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.closed:
		return ErrDeviceClosed
	default:
	}
	if m.ready {
		return nil
	}

	f := m.config.Format
	format, err := malgoFormat(f)
	if err != nil {
		return err
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	bufferBytes := int(int64(f.BytesPerSecond()) * int64(m.config.BufferDuration) / int64(time.Second))
	bufferBytes -= bufferBytes % f.FrameSize()
	m.capture = NewRingBuffer(bufferBytes)
	m.playback = NewRingBuffer(bufferBytes)

	deviceType := malgo.Duplex
	if m.config.PlaybackOnly {
		deviceType = malgo.Playback
	}

	// Configure device
	deviceConfig := malgo.DefaultDeviceConfig(deviceType)
	deviceConfig.Playback.Format = format
	deviceConfig.Playback.Channels = uint32(f.Channels)
	deviceConfig.Capture.Format = format
	deviceConfig.Capture.Channels = uint32(f.Channels)
	deviceConfig.SampleRate = uint32(f.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: m.dataCallback,
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to initialize device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.malgoCtx = ctx
	m.device = device
	m.ready = true

	m.logger.WithFields(logrus.Fields{
		"format":        f.String(),
		"playback_only": m.config.PlaybackOnly,
	}).Infof("Audio device initialized (malgo/%s)", formatName(format))

	return nil
}

// dataCallback is called by malgo to exchange audio with the device
func (m *Malgo) dataCallback(pOutput, pInput []byte, frameCount uint32) {
	if len(pInput) > 0 {
		// Capture overruns drop the newest audio; the input worker is behind
		m.capture.Write(pInput)
	}
	if len(pOutput) > 0 {
		m.playback.Read(pOutput)
	}
}

// ReadInput blocks until captured audio is available
func (m *Malgo) ReadInput(p []byte) (int, error) {
	m.mu.Lock()
	ready, capture := m.ready, m.capture
	m.mu.Unlock()

	if !ready {
		select {
		case <-m.closed:
			return 0, ErrDeviceClosed
		default:
			return 0, ErrDeviceNotOpen
		}
	}
	if m.config.PlaybackOnly {
		<-m.closed
		return 0, ErrDeviceClosed
	}
	return capture.ReadBlocking(p)
}

// WriteOutput queues bytes for playback, blocking while the buffer is full
func (m *Malgo) WriteOutput(p []byte) error {
	m.mu.Lock()
	ready, playback := m.ready, m.playback
	m.mu.Unlock()

	if !ready {
		select {
		case <-m.closed:
			return ErrDeviceClosed
		default:
			return ErrDeviceNotOpen
		}
	}
	return playback.WriteBlocking(p)
}

// NativeInputFormat returns the capture format
func (m *Malgo) NativeInputFormat() audio.Format { return m.config.Format }

// NativeOutputFormat returns the playback format
func (m *Malgo) NativeOutputFormat() audio.Format { return m.config.Format }

// Close releases device resources and unblocks pending I/O
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.closed:
		return nil
	default:
		close(m.closed)
	}

	if m.capture != nil {
		m.capture.Close()
	}
	if m.playback != nil {
		m.playback.Close()
	}

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			m.logger.WithError(err).Warn("Device stop error")
		}
		m.device.Uninit()
		m.device = nil
	}

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			m.logger.WithError(err).Warn("Malgo context uninit error")
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}

	m.ready = false
	return nil
}

// malgoFormat maps a PCM format to the miniaudio sample format
func malgoFormat(f audio.Format) (malgo.FormatType, error) {
	if err := f.Validate(); err != nil {
		return malgo.FormatUnknown, err
	}
	if f.BigEndian {
		return malgo.FormatUnknown, fmt.Errorf("%w: big-endian samples", ErrUnsupportedFormat)
	}

	switch {
	case f.BitDepth == 8 && f.Unsigned:
		return malgo.FormatU8, nil
	case f.BitDepth == 16 && !f.Unsigned:
		return malgo.FormatS16, nil
	case f.BitDepth == 24 && !f.Unsigned:
		return malgo.FormatS24, nil
	case f.BitDepth == 32 && !f.Unsigned:
		return malgo.FormatS32, nil
	}
	return malgo.FormatUnknown, fmt.Errorf("%w: %s (supported: u8, s16le, s24le, s32le)", ErrUnsupportedFormat, f)
}

// formatName returns human-readable format name
func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatU8:
		return "U8"
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS24:
		return "S24"
	case malgo.FormatS32:
		return "S32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}
