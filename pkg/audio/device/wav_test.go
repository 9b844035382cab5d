// ABOUTME: Tests for the WAV file binding
// ABOUTME: Round-trips PCM through input and output WAV files
package device

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Resonate-Protocol/audiocore/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestWAV(t *testing.T, path string, samples []int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           samples,
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}

func TestWAVInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.wav")
	writeTestWAV(t, path, []int{1, -1, 256, -32768})

	w, err := NewWAV(WAVConfig{InputPath: path})
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, audio.Format{SampleRate: 8000, Channels: 1, BitDepth: 16}, w.NativeInputFormat())
	assert.Equal(t, w.NativeInputFormat(), w.NativeOutputFormat())

	require.NoError(t, w.Open())

	var got []byte
	buf := make([]byte, 4)
	for {
		n, err := w.ReadInput(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}

	assert.Equal(t, []byte{0x01, 0x00, 0xFF, 0xFF, 0x00, 0x01, 0x00, 0x80}, got)
}

func TestWAVOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	format := audio.Format{SampleRate: 16000, Channels: 2, BitDepth: 16}

	w, err := NewWAV(WAVConfig{OutputPath: path, OutputFormat: format})
	require.NoError(t, err)
	require.NoError(t, w.Open())

	require.NoError(t, w.WriteOutput([]byte{0x01, 0x00, 0xFF, 0xFF}))
	require.NoError(t, w.WriteOutput([]byte{0x00, 0x01, 0x00, 0x80}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	d := wav.NewDecoder(f)
	require.True(t, d.IsValidFile())
	assert.Equal(t, uint32(16000), d.SampleRate)
	assert.Equal(t, uint16(2), d.NumChans)

	buf, err := d.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, []int{1, -1, 256, -32768}, buf.Data)
}

func TestWAVWithoutInputBlocksUntilClose(t *testing.T) {
	w, err := NewWAV(WAVConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Open())

	done := make(chan error, 1)
	go func() {
		_, err := w.ReadInput(make([]byte, 4))
		done <- err
	}()

	require.NoError(t, w.WriteOutput([]byte{0, 0, 0, 0}))
	require.NoError(t, w.Close())
	assert.ErrorIs(t, <-done, ErrDeviceClosed)
}

func TestWAVRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a wav file at all"), 0o644))

	_, err := NewWAV(WAVConfig{InputPath: path})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWAVSampleCodec(t *testing.T) {
	for _, depth := range []int{8, 16, 24, 32} {
		data := []int{0, 100, 127}
		if depth > 8 {
			data = []int{0, -100, 127, -128}
		}
		packed := packInts(nil, data, depth)
		assert.Len(t, packed, len(data)*depth/8)
		assert.Equal(t, data, unpackInts(nil, packed, depth), "depth %d", depth)
	}
}
