package myaudio

import (
	"testing"

	"github.com/DrewThomasson/sound-monitor/internal/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier() *SpectralClassifier {
	return NewSpectralClassifier(conf.SampleRate, &conf.ClassifierSettings{EnergyRatio: 0.40})
}

func TestClassifyLowFrequencyTone(t *testing.T) {
	sc := newTestClassifier()

	// one second of a 100 Hz tone: all energy inside the 20-200 Hz band
	clip := pcmSine(conf.SampleRate, 100, 16000, conf.SampleRate)
	isLow, err := sc.Classify(clip)
	require.NoError(t, err)
	assert.True(t, isLow)
}

func TestClassifyHighFrequencyTone(t *testing.T) {
	sc := newTestClassifier()

	clip := pcmSine(conf.SampleRate, 1000, 16000, conf.SampleRate)
	isLow, err := sc.Classify(clip)
	require.NoError(t, err)
	assert.False(t, isLow)
}

func TestClassifyMixedSignalNearRatio(t *testing.T) {
	sc := newTestClassifier()

	// equal-amplitude components split the energy roughly 50/50, which is
	// above the 40% low band requirement
	clip := pcmMix(conf.SampleRate, conf.SampleRate, 8000, 60, 2000)
	isLow, err := sc.Classify(clip)
	require.NoError(t, err)
	assert.True(t, isLow)

	// a clip with no low band component at all does not flag
	highOnly := pcmMix(conf.SampleRate, conf.SampleRate, 12000, 2000, 5000)
	isLow, err = sc.Classify(highOnly)
	require.NoError(t, err)
	assert.False(t, isLow)
}

func TestClassifySilentClip(t *testing.T) {
	sc := newTestClassifier()

	silent := make([]byte, conf.SampleRate*2)
	isLow, err := sc.Classify(silent)
	assert.ErrorIs(t, err, ErrClipSilent)
	assert.False(t, isLow, "degenerate clips default to not low frequency")
}

func TestClassifyShortClip(t *testing.T) {
	sc := newTestClassifier()

	short := pcmSine(64, 100, 16000, conf.SampleRate)
	isLow, err := sc.Classify(short)
	assert.ErrorIs(t, err, ErrClipTooShort)
	assert.False(t, isLow)
}

func TestClassifyBandEdges(t *testing.T) {
	sc := newTestClassifier()

	// 150 Hz sits inside the band, 400 Hz outside
	inside := pcmSine(conf.SampleRate, 150, 16000, conf.SampleRate)
	isLow, err := sc.Classify(inside)
	require.NoError(t, err)
	assert.True(t, isLow)

	outside := pcmSine(conf.SampleRate, 400, 16000, conf.SampleRate)
	isLow, err = sc.Classify(outside)
	require.NoError(t, err)
	assert.False(t, isLow)
}
