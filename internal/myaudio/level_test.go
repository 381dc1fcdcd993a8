package myaudio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// pcmSine generates n frames of a sine wave at the given frequency and
// amplitude (0..32767).
func pcmSine(n int, freq, amplitude float64, sampleRate int) []byte {
	data := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(v)))
	}
	return data
}

func TestMeasureLevelSilenceReturnsFloor(t *testing.T) {
	silent := make([]byte, 2048)
	m := MeasureLevel(silent, 0)

	assert.Equal(t, silenceFloorDB, m.DB)
	assert.False(t, math.IsNaN(m.DB))
	assert.False(t, math.IsInf(m.DB, 0))
	assert.False(t, m.Clipping)
}

func TestMeasureLevelEmptyAndOddInput(t *testing.T) {
	assert.Equal(t, silenceFloorDB, MeasureLevel(nil, 0).DB)
	assert.Equal(t, silenceFloorDB, MeasureLevel([]byte{0x01}, 0).DB)

	// odd trailing byte is ignored, not a panic
	odd := append(pcmSine(64, 1000, 16000, 44100), 0x7f)
	assert.NotPanics(t, func() { MeasureLevel(odd, 0) })
}

func TestMeasureLevelFullScaleSine(t *testing.T) {
	// A full-scale sine has RMS of amplitude/sqrt(2), i.e. about -3.01 dBFS,
	// which maps to roughly 91 dB at the 94 dB reference.
	data := pcmSine(4410, 1000, 32767, 44100)
	m := MeasureLevel(data, 0)

	assert.InDelta(t, 91.0, m.DB, 0.2)
}

func TestMeasureLevelCalibrationOffset(t *testing.T) {
	data := pcmSine(4410, 1000, 8000, 44100)

	base := MeasureLevel(data, 0)
	up := MeasureLevel(data, 5.5)
	down := MeasureLevel(data, -5.5)

	assert.InDelta(t, base.DB+5.5, up.DB, 1e-9)
	assert.InDelta(t, base.DB-5.5, down.DB, 1e-9)
}

func TestMeasureLevelClippingDetection(t *testing.T) {
	data := make([]byte, 8)
	maxSample := int16(math.MaxInt16)
	minSample := int16(math.MinInt16)
	binary.LittleEndian.PutUint16(data[0:], uint16(maxSample))
	binary.LittleEndian.PutUint16(data[2:], uint16(minSample))

	m := MeasureLevel(data, 0)
	assert.True(t, m.Clipping)
}

func TestMeasureLevelClampsToFloor(t *testing.T) {
	// single LSB amplitude is far below the floor once calibrated down
	data := make([]byte, 2048)
	for i := 0; i < len(data); i += 2 {
		binary.LittleEndian.PutUint16(data[i:], 1)
	}

	m := MeasureLevel(data, -120)
	assert.Equal(t, silenceFloorDB, m.DB)
}
