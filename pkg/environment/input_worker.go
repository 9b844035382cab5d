// ABOUTME: Input worker: fans captured device input out to subscriber streams
// ABOUTME: Evicts a full stream when another stream is starving
package environment

import (
	"errors"
	"io"
	"time"

	"github.com/Resonate-Protocol/audiocore/pkg/audio/device"
	"github.com/sirupsen/logrus"
)

// runInput is the input worker loop
func (e *Environment) runInput() {
	defer e.wg.Done()
	defer e.endStreams()

	buf := make([]byte, e.config.InputChunkSize)
	for {
		n, err := e.binding.ReadInput(buf)
		if n > 0 {
			e.fanOut(buf[:n])
		}

		if err != nil {
			if e.isStopping() || errors.Is(err, device.ErrDeviceClosed) {
				return
			}
			if errors.Is(err, io.EOF) {
				e.logger.Info("Device input ended")
				return
			}

			e.logger.WithError(err).Error("Device read failed")
			select {
			case <-e.stopChan:
				return
			case <-time.After(e.config.ReadRetryDelay):
			}
			continue
		}

		if e.isStopping() {
			return
		}
	}
}

// fanOut delivers every byte of chunk, in order, to every live stream
func (e *Environment) fanOut(chunk []byte) {
	streams := e.snapshotStreams()
	if len(streams) == 0 {
		return
	}

	for _, b := range chunk {
		for _, s := range streams {
			if s.evicted.Load() {
				continue
			}
			if s.IsClosed() {
				s.evicted.Store(true)
				e.removeStream(s)
				e.logger.WithField("stream", s.ID()).Debug("Subscriber stream closed")
				continue
			}
			if !e.deliver(s, b, streams) {
				return
			}
		}
	}
}

// deliver queues b on s, retrying while s is full. It evicts s when another
// stream is starving. It returns false when the environment is stopping.
func (e *Environment) deliver(s *Stream, b byte, streams []*Stream) bool {
	for {
		if s.offer(b, e.config.EnqueueTimeout) {
			return true
		}

		if e.isStopping() {
			return false
		}
		if s.IsClosed() {
			// Removed on the next byte
			return true
		}

		lowWater := int(float64(e.config.StreamCapacity) * e.config.LowWaterRatio)
		if minDepth, ok := minOtherDepth(s, streams); ok && minDepth < lowWater {
			s.forceEnd()
			e.removeStream(s)
			e.logger.WithFields(logrus.Fields{
				"stream":    s.ID(),
				"min_depth": minDepth,
				"low_water": lowWater,
			}).Warn("Evicted slow subscriber stream")
			return true
		}
	}
}

// minOtherDepth returns the smallest queue depth among the live streams
// other than s; ok is false when there are none
func minOtherDepth(s *Stream, streams []*Stream) (int, bool) {
	lowest, ok := 0, false
	for _, other := range streams {
		if other == s || !other.live() {
			continue
		}
		d := other.depth()
		if !ok || d < lowest {
			lowest, ok = d, true
		}
	}
	return lowest, ok
}

// endStreams ends every remaining stream once input stops for good
func (e *Environment) endStreams() {
	e.streamsMu.Lock()
	streams := e.streams
	e.streams = nil
	e.inputEnded = true
	e.streamsMu.Unlock()

	for _, s := range streams {
		s.finish()
	}
	e.logger.WithField("streams", len(streams)).Debug("Input worker exited")
}
