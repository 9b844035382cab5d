// ABOUTME: Audio manager package
// ABOUTME: Registry of audio environments and the public playback/capture API
// Package audiomanager is the entry point of the audio core: it keeps the
// registry of audio environments and routes playback and capture requests to
// them by environment id.
//
// Example:
//
//	m := audiomanager.New(audiomanager.Config{})
//	id, err := m.RegisterEnvironment(device.NewMalgo(device.MalgoConfig{}))
//	err = m.Start()
//	out, err := m.PlayAudio(id, speech, speechFormat, environment.Suspend)
//	<-out.Done()
package audiomanager
