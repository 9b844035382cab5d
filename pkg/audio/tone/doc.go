// ABOUTME: Tone generator package
// ABOUTME: Produces sine tones and beeps as PCM byte streams
// Package tone generates sine tones as raw PCM in any audio.Format.
//
// Example:
//
//	beep, err := tone.NewBeep(audio.DefaultFormat())
//	_, err = manager.PlayAudio(envID, beep, beep.Format(), environment.QueuePriority)
package tone
