// ABOUTME: Audio environment package
// ABOUTME: Output queue state machine, output worker and input fan-out
// Package environment multiplexes one audio device among competing
// producers and consumers.
//
// Producers submit Outputs with a Behavior that decides where the output is
// queued and whether the output currently playing is cancelled (and then
// either discarded or resumed later). Consumers open Streams that receive a
// copy of everything the device captures; a stream that stops reading is
// evicted when it would otherwise starve the other streams.
//
// Example:
//
//	env, err := environment.New(dev, environment.Config{})
//	err = env.Start()
//	err = env.PlayAudio(environment.NewOutput(pcm), environment.InterruptCurrent)
//	stream, err := env.OpenStream()
package environment
