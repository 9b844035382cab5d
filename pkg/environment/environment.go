// ABOUTME: Audio environment bound to one device
// ABOUTME: Owns the output queue, cancellation state, subscriber streams and workers
package environment

import (
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audiocore/pkg/audio"
	"github.com/Resonate-Protocol/audiocore/pkg/audio/device"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Defaults for Config fields left zero
const (
	DefaultStreamCapacity  = 10000
	DefaultEnqueueTimeout  = 10 * time.Millisecond
	DefaultLowWaterRatio   = 0.1
	DefaultOutputChunkSize = 4096
	DefaultInputChunkSize  = 1024
	DefaultReadRetryDelay  = 100 * time.Millisecond
)

// Config holds environment configuration
type Config struct {
	// ID identifies the environment; a uuid is generated when empty
	ID string

	// StreamCapacity is the queue capacity of each subscriber stream
	StreamCapacity int

	// EnqueueTimeout bounds each attempt to deliver a byte to a full stream
	EnqueueTimeout time.Duration

	// LowWaterRatio is the fraction of StreamCapacity below which another
	// stream counts as starving, which allows evicting a full one
	LowWaterRatio float64

	// OutputChunkSize is the byte size of each device write (frame aligned)
	OutputChunkSize int

	// InputChunkSize is the byte size of each device read
	InputChunkSize int

	// ReadRetryDelay is the pause after a transient device read error
	ReadRetryDelay time.Duration

	Logger *logrus.Entry
}

// Option adjusts a Config
type Option func(*Config)

// WithID sets the environment identifier
func WithID(id string) Option {
	return func(c *Config) {
		c.ID = id
	}
}

// State is the lifecycle state of an environment
type State int

const (
	StateCreated State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Environment multiplexes one device among producers and consumers
type Environment struct {
	id           string
	binding      device.Binding
	config       Config
	logger       *logrus.Entry
	inputFormat  audio.Format
	outputFormat audio.Format

	// Output queue, cancellation state and lifecycle
	mu         sync.Mutex
	cond       *sync.Cond
	queue      outputQueue
	cancel     cancellation
	current    *Output
	outputting bool
	state      State
	stopping   bool

	// Subscriber streams
	streamsMu  sync.Mutex
	streams    []*Stream
	inputEnded bool

	// Serializes Start and Stop, which do device I/O outside mu
	lifecycleMu sync.Mutex
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// New creates an environment for binding. The binding is owned by the
// environment from now on and closed by Stop.
func New(binding device.Binding, config Config, opts ...Option) (*Environment, error) {
	if binding == nil {
		return nil, ErrNilBinding
	}

	for _, opt := range opts {
		opt(&config)
	}
	config = config.withDefaults()

	e := &Environment{
		id:           config.ID,
		binding:      binding,
		config:       config,
		inputFormat:  binding.NativeInputFormat(),
		outputFormat: binding.NativeOutputFormat(),
		stopChan:     make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	e.logger = config.Logger.WithField("environment", e.id)

	return e, nil
}

func (c Config) withDefaults() Config {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.StreamCapacity <= 0 {
		c.StreamCapacity = DefaultStreamCapacity
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = DefaultEnqueueTimeout
	}
	if c.LowWaterRatio <= 0 {
		c.LowWaterRatio = DefaultLowWaterRatio
	}
	if c.OutputChunkSize <= 0 {
		c.OutputChunkSize = DefaultOutputChunkSize
	}
	if c.InputChunkSize <= 0 {
		c.InputChunkSize = DefaultInputChunkSize
	}
	if c.ReadRetryDelay <= 0 {
		c.ReadRetryDelay = DefaultReadRetryDelay
	}
	if c.Logger == nil {
		c.Logger = logrus.WithField("component", "environment")
	}
	return c
}

// ID returns the environment identifier
func (e *Environment) ID() string { return e.id }

// InputFormat returns the PCM format delivered to subscriber streams
func (e *Environment) InputFormat() audio.Format { return e.inputFormat }

// OutputFormat returns the PCM format outputs must be in
func (e *Environment) OutputFormat() audio.Format { return e.outputFormat }

// State returns the lifecycle state
func (e *Environment) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start opens the device binding and launches the output and input workers
func (e *Environment) Start() error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	switch e.State() {
	case StateRunning:
		return ErrAlreadyStarted
	case StateStopped:
		return ErrEnvironmentStopped
	}

	if err := e.binding.Open(); err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}

	e.mu.Lock()
	e.state = StateRunning
	e.mu.Unlock()

	e.wg.Add(2)
	go e.runOutput()
	go e.runInput()

	e.logger.WithFields(logrus.Fields{
		"input_format":  e.inputFormat.String(),
		"output_format": e.outputFormat.String(),
	}).Info("Environment started")
	return nil
}

// Stop wakes both workers, closes the device binding and waits for the
// workers to exit. The playing source is closed as well, possibly while the
// output worker is reading it. Outputs still queued afterwards are discarded.
func (e *Environment) Stop() error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return ErrNotStarted
	}
	e.state = StateStopped
	e.stopping = true
	current := e.current
	e.cond.Broadcast()
	e.mu.Unlock()

	close(e.stopChan)

	// Closing the binding unblocks device reads and writes in progress
	if err := e.binding.Close(); err != nil {
		e.logger.WithError(err).Warn("Device close error")
	}

	// Closing the playing source unblocks a producer that is still writing it
	if current != nil {
		e.discardAll([]*Output{current})
	}

	e.wg.Wait()

	e.mu.Lock()
	remaining := e.queue.clear()
	e.mu.Unlock()
	e.discardAll(remaining)

	e.logger.WithField("discarded", len(remaining)).Info("Environment stopped")
	return nil
}

// PlayAudio applies behavior to the output queue and cancellation state.
// The output's source must already be in OutputFormat.
func (e *Environment) PlayAudio(out *Output, behavior Behavior) error {
	if !behavior.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidBehavior, behavior)
	}

	e.mu.Lock()
	if e.state == StateStopped {
		e.mu.Unlock()
		return ErrEnvironmentStopped
	}

	var dropped []*Output
	switch behavior {
	case Queue:
		e.queue.pushBack(out)
	case QueuePriority:
		e.queue.pushFront(out)
	case InterruptCurrent:
		e.queue.pushFront(out)
		e.cancel.request(true, out)
	case InterruptAll:
		dropped = e.queue.clear()
		e.queue.pushFront(out)
		if !e.cancel.request(true, out) {
			// A pending suspend lost its anchor with the cleared queue
			e.cancel.resumeAfter = out
		}
	case Suspend:
		e.queue.pushFront(out)
		e.cancel.request(false, out)
	}
	queued := e.queue.len()
	e.cond.Signal()
	e.mu.Unlock()

	e.discardAll(dropped)

	e.logger.WithFields(logrus.Fields{
		"output":   out.ID(),
		"behavior": behavior.String(),
		"queued":   queued,
		"dropped":  len(dropped),
	}).Debug("Output submitted")
	return nil
}

// StopOutput cancels the output currently playing and discards it
func (e *Environment) StopOutput() {
	e.mu.Lock()
	playing := e.current != nil
	if playing {
		e.cancel.request(true, nil)
	}
	e.mu.Unlock()

	if playing {
		e.logger.Debug("Current output cancelled")
	}
}

// IsOutputting reports whether the output worker is writing to the device
func (e *Environment) IsOutputting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outputting
}

// QueueLength returns the number of outputs waiting to play
func (e *Environment) QueueLength() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.len()
}

// OpenStream registers a new subscriber stream for the captured input
func (e *Environment) OpenStream() (*Stream, error) {
	if e.State() == StateStopped {
		return nil, ErrEnvironmentStopped
	}

	s := newStream(e.inputFormat, e.config.StreamCapacity)

	e.streamsMu.Lock()
	if e.inputEnded {
		e.streamsMu.Unlock()
		s.finish()
		return s, nil
	}
	e.streams = append(e.streams, s)
	count := len(e.streams)
	e.streamsMu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"stream":  s.ID(),
		"streams": count,
	}).Debug("Subscriber stream opened")
	return s, nil
}

// StreamCount returns the number of live subscriber streams
func (e *Environment) StreamCount() int {
	e.streamsMu.Lock()
	defer e.streamsMu.Unlock()
	return len(e.streams)
}

func (e *Environment) snapshotStreams() []*Stream {
	e.streamsMu.Lock()
	defer e.streamsMu.Unlock()
	snapshot := make([]*Stream, len(e.streams))
	copy(snapshot, e.streams)
	return snapshot
}

func (e *Environment) removeStream(s *Stream) {
	e.streamsMu.Lock()
	defer e.streamsMu.Unlock()
	for i, item := range e.streams {
		if item == s {
			e.streams = append(e.streams[:i], e.streams[i+1:]...)
			return
		}
	}
}

func (e *Environment) isStopping() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopping
}

func (e *Environment) discardAll(outputs []*Output) {
	for _, o := range outputs {
		if err := o.release(false); err != nil {
			e.logger.WithError(err).WithField("output", o.ID()).Warn("Failed to close discarded source")
		}
	}
}
