package myaudio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DrewThomasson/sound-monitor/internal/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavePCMDataToWAV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "clip.wav")

	pcm := pcmSine(conf.SampleRate/10, 440, 8000, conf.SampleRate)
	require.NoError(t, SavePCMDataToWAV(path, pcm))

	info, err := os.Stat(path)
	require.NoError(t, err)
	// 44 byte canonical header plus the sample payload
	assert.Greater(t, info.Size(), int64(len(pcm)))
}

func TestByteSliceToInts(t *testing.T) {
	pcm := pcmRamp(0, 4)
	samples := byteSliceToInts(pcm)
	assert.Equal(t, []int{0, 1, 2, 3}, samples)

	// negative samples survive the conversion
	neg := float64ToBytes([]float64{-0.5})
	negSample := -0.5 * 32767.0
	assert.Equal(t, int(int16(negSample)), byteSliceToInts(neg)[0])
}

func TestExportClipWAV(t *testing.T) {
	settings := &conf.AudioSettings{
		Export: conf.ExportSettings{
			Path: t.TempDir(),
			Type: "wav",
		},
	}

	pcm := pcmSine(conf.SampleRate/10, 440, 8000, conf.SampleRate)
	path, err := ExportClip(pcm, "noise_20250110_120000", settings)
	require.NoError(t, err)
	assert.Equal(t, ".wav", filepath.Ext(path))
	assert.FileExists(t, path)
}

func TestExportClipEncoderFailureRetainsWAV(t *testing.T) {
	settings := &conf.AudioSettings{
		FfmpegPath: "/nonexistent/ffmpeg",
		Export: conf.ExportSettings{
			Path:    t.TempDir(),
			Type:    "opus",
			Bitrate: "64k",
		},
	}

	pcm := pcmSine(conf.SampleRate/10, 440, 8000, conf.SampleRate)
	path, err := ExportClip(pcm, "noise_20250110_120000", settings)

	// the clip must survive the encoder failure as raw audio
	assert.Error(t, err)
	require.NotEmpty(t, path)
	assert.Equal(t, ".wav", filepath.Ext(path))
	assert.FileExists(t, path)
}
