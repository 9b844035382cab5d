// ABOUTME: Device binding package
// ABOUTME: Local sound card, file-backed and in-memory bindings
// Package device provides the Binding contract and its implementations.
//
// Bindings:
//   - Malgo: local duplex sound card via miniaudio (capture and playback)
//   - Oto: local playback-only output
//   - WAV: file-backed device reading a WAV file as input and writing one as output
//   - Virtual: in-memory device for tests and loopback
//
// Example:
//
//	dev := device.NewMalgo(device.MalgoConfig{Format: audio.DefaultFormat()})
//	id, err := manager.RegisterEnvironment(dev)
package device
