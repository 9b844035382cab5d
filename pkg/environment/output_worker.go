// ABOUTME: Output worker: plays queued outputs one at a time
// ABOUTME: Honors cancel/discard, cancel/keep (suspend) and shutdown between chunks
package environment

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

// playResult is how one output cycle ended
type playResult int

const (
	playFinished playResult = iota
	playSuspended
	playDiscarded
	playFailed
	playStopped
)

func (r playResult) String() string {
	switch r {
	case playFinished:
		return "finished"
	case playSuspended:
		return "suspended"
	case playDiscarded:
		return "discarded"
	case playFailed:
		return "failed"
	case playStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// runOutput is the output worker loop
func (e *Environment) runOutput() {
	defer e.wg.Done()

	frame := e.outputFormat.FrameSize()
	chunk := e.config.OutputChunkSize
	if frame > 0 {
		chunk -= chunk % frame
		if chunk == 0 {
			chunk = frame
		}
	}
	buf := make([]byte, chunk)

	for {
		out, ok := e.nextOutput()
		if !ok {
			return
		}

		result := e.play(out, buf)
		e.completeOutput(out, result)
	}
}

// nextOutput blocks for the queue head, then starts a new output cycle
func (e *Environment) nextOutput() (*Output, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for e.queue.len() == 0 && !e.stopping {
		e.cond.Wait()
	}
	if e.stopping {
		return nil, false
	}

	out := e.queue.popFront()
	e.cancel.reset()
	e.current = out
	e.outputting = true
	return out, true
}

// play streams out to the device until it ends, is cancelled or fails
func (e *Environment) play(out *Output, buf []byte) playResult {
	logger := e.logger.WithField("output", out.ID())
	logger.Debug("Output started")

	frame := e.outputFormat.FrameSize()
	for {
		if result, cancelled := e.checkCancel(); cancelled {
			return result
		}

		n, err := io.ReadFull(out.source, buf)
		if errors.Is(err, io.EOF) {
			return playFinished
		}
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			if e.isStopping() {
				return playStopped
			}
			logger.WithError(err).Error("Output source read failed")
			return playFailed
		}

		// A trailing partial frame cannot be played
		last := err != nil
		if frame > 0 {
			n -= n % frame
		}

		if n > 0 {
			if werr := e.binding.WriteOutput(buf[:n]); werr != nil {
				if e.isStopping() {
					return playStopped
				}
				logger.WithError(werr).Error("Device write failed")
				return playFailed
			}
		}

		if last {
			return playFinished
		}
	}
}

// checkCancel reports whether the current cycle must end before the next chunk
func (e *Environment) checkCancel() (playResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.stopping:
		return playStopped, true
	case e.cancel.shouldCancel && e.cancel.discard:
		return playDiscarded, true
	case e.cancel.shouldCancel:
		return playSuspended, true
	}
	return 0, false
}

// completeOutput ends the output cycle: finished and discarded outputs are
// released, suspended ones go back into the queue
func (e *Environment) completeOutput(out *Output, result playResult) {
	e.mu.Lock()
	e.outputting = false
	e.current = nil
	requeued := false
	if result == playSuspended && !e.stopping {
		e.queue.insertAfter(e.cancel.resumeAfter, out)
		requeued = true
		e.cond.Signal()
	}
	e.mu.Unlock()

	logger := e.logger.WithFields(logrus.Fields{
		"output": out.ID(),
		"result": result.String(),
	})

	if requeued {
		logger.Debug("Output suspended")
		return
	}

	if err := out.release(result == playFinished); err != nil {
		logger.WithError(err).Warn("Failed to close output source")
	}
	logger.Debug("Output ended")
}
