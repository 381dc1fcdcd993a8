// level.go calibrated sound level measurement
package myaudio

import (
	"encoding/binary"
	"math"
)

const (
	// fullScale is the maximum representable magnitude of a 16-bit sample.
	fullScale = 32768.0

	// referenceDB maps digital full scale to sound pressure level. 94 dB SPL
	// is the standard acoustic calibrator level (1 Pa at 1 kHz).
	referenceDB = 94.0

	// silenceFloorDB is reported for chunks with no measurable energy, so a
	// silent input never produces NaN or -Inf.
	silenceFloorDB = 0.0
)

// LevelMeasurement is the result of measuring one chunk of audio.
type LevelMeasurement struct {
	DB       float64 // calibrated sound level in dB
	RMS      float64 // root mean square of the raw samples
	Clipping bool    // true if any sample hit the 16-bit rails
}

// MeasureLevel computes the calibrated decibel level of a chunk of 16-bit
// little-endian PCM. The calibration offset is an externally supplied signed
// dB value applied uniformly. Results below the silence floor are clamped to
// it.
func MeasureLevel(samples []byte, calibrationOffset float64) LevelMeasurement {
	if len(samples) < 2 {
		return LevelMeasurement{DB: silenceFloorDB}
	}

	// Ensure an even number of bytes for 16-bit samples.
	if len(samples)%2 != 0 {
		samples = samples[:len(samples)-1]
	}

	var sum float64
	isClipping := false
	sampleCount := len(samples) / 2

	for i := 0; i < len(samples); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(samples[i : i+2]))
		v := float64(sample)
		sum += v * v

		if sample == math.MaxInt16 || sample == math.MinInt16 {
			isClipping = true
		}
	}

	rms := math.Sqrt(sum / float64(sampleCount))
	if rms == 0 {
		// avoid log10(0)
		return LevelMeasurement{DB: silenceFloorDB, Clipping: isClipping}
	}

	db := 20*math.Log10(rms/fullScale) + referenceDB + calibrationOffset
	if db < silenceFloorDB {
		db = silenceFloorDB
	}

	return LevelMeasurement{DB: db, RMS: rms, Clipping: isClipping}
}
