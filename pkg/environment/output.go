// ABOUTME: Audio output value submitted to an environment
// ABOUTME: Wraps a PCM source with completion tracking
package environment

import (
	"io"
	"sync"

	"github.com/google/uuid"
)

// Output is one playable item: a byte source already in the environment's
// output format.
type Output struct {
	id     string
	source io.ReadCloser
	global bool

	mu        sync.Mutex
	finished  bool
	done      chan struct{}
	closeOnce sync.Once
}

// OutputOption configures an Output
type OutputOption func(*Output)

// Global marks the output as global. The flag is carried for callers and
// never interpreted by the environment.
func Global() OutputOption {
	return func(o *Output) {
		o.global = true
	}
}

// NewOutput wraps source. If source is not an io.Closer, closing is a no-op.
// Stopping the environment closes a source that is still playing while the
// output worker may be blocked in its Read, so sources must tolerate a Close
// concurrent with Read, as io.Pipe and os.File do. Close is called at most
// once.
func NewOutput(source io.Reader, opts ...OutputOption) *Output {
	rc, ok := source.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(source)
	}

	o := &Output{
		id:     uuid.New().String(),
		source: rc,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ID returns the output's unique identifier
func (o *Output) ID() string { return o.id }

// IsGlobal returns the global flag
func (o *Output) IsGlobal() bool { return o.global }

// Finished reports whether the output played to the end of its source
func (o *Output) Finished() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.finished
}

// Done is closed once the output is finished or discarded
func (o *Output) Done() <-chan struct{} { return o.done }

// release closes the source and signals Done exactly once.
// finished is only ever set, never reset.
func (o *Output) release(finished bool) error {
	if finished {
		o.mu.Lock()
		o.finished = true
		o.mu.Unlock()
	}

	var err error
	o.closeOnce.Do(func() {
		err = o.source.Close()
		close(o.done)
	})
	return err
}
