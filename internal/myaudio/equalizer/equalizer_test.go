package equalizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRate = 44100.0

func sine(freq float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return out
}

// rms over the tail of the signal, past the filter settle time
func tailRMS(samples []float64) float64 {
	tail := samples[len(samples)/2:]
	var sum float64
	for _, s := range tail {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(tail)))
}

func TestHighPassAttenuatesLowFrequency(t *testing.T) {
	f, err := NewHighPass(sampleRate, 80, 0.707, 2)
	require.NoError(t, err)

	low := sine(30, 8192)
	f.ApplyBatch(low)
	assert.Less(t, tailRMS(low), 0.1, "30 Hz tone should be strongly attenuated")

	f.Reset()
	high := sine(1000, 8192)
	f.ApplyBatch(high)
	assert.InDelta(t, 1.0/math.Sqrt2, tailRMS(high), 0.05, "1 kHz tone should pass")
}

func TestLowPassAttenuatesHighFrequency(t *testing.T) {
	f, err := NewLowPass(sampleRate, 200, 0.707, 2)
	require.NoError(t, err)

	high := sine(4000, 8192)
	f.ApplyBatch(high)
	assert.Less(t, tailRMS(high), 0.05)
}

func TestResetClearsState(t *testing.T) {
	f, err := NewHighPass(sampleRate, 80, 0.707, 1)
	require.NoError(t, err)

	first := sine(440, 512)
	f.ApplyBatch(first)

	f.Reset()
	second := sine(440, 512)
	f.ApplyBatch(second)

	// identical input after Reset yields identical output
	reference := sine(440, 512)
	ref, err := NewHighPass(sampleRate, 80, 0.707, 1)
	require.NoError(t, err)
	ref.ApplyBatch(reference)

	assert.Equal(t, reference, second)
}

func TestStability(t *testing.T) {
	f, err := NewHighPass(sampleRate, 80, 0.707, 1)
	require.NoError(t, err)
	assert.True(t, f.Stable())
}

func TestInvalidParameters(t *testing.T) {
	_, err := NewHighPass(sampleRate, 80, 0.707, 0)
	assert.Error(t, err)

	_, err = NewHighPass(sampleRate, 80, 0, 1)
	assert.Error(t, err)

	_, err = NewLowPass(sampleRate, 200, -1, 1)
	assert.Error(t, err)
}
