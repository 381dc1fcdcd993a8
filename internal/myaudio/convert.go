package myaudio

import (
	"encoding/binary"
)

// bytesToFloat64 converts little-endian 16-bit PCM to float64 samples in [-1, 1).
// A trailing odd byte is ignored.
func bytesToFloat64(samples []byte) []float64 {
	sampleCount := len(samples) / 2
	floatSamples := make([]float64, sampleCount)
	for i := 0; i < sampleCount*2; i += 2 {
		floatSamples[i/2] = float64(int16(binary.LittleEndian.Uint16(samples[i:]))) / 32768.0
	}
	return floatSamples
}

// float64ToBytes converts float64 samples back to little-endian 16-bit PCM,
// clamping to the valid range.
func float64ToBytes(floatSamples []float64) []byte {
	samples := make([]byte, len(floatSamples)*2)
	for i, sample := range floatSamples {
		if sample > 1.0 {
			sample = 1.0
		} else if sample < -1.0 {
			sample = -1.0
		}
		intSample := int16(sample * 32767.0)
		binary.LittleEndian.PutUint16(samples[i*2:], uint16(intSample))
	}
	return samples
}

// reverseFloat64 reverses samples in place.
func reverseFloat64(samples []float64) {
	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
}
