// spectral.go FFT based low frequency classification of finalized clips
package myaudio

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/DrewThomasson/sound-monitor/internal/conf"
	"github.com/DrewThomasson/sound-monitor/internal/errors"
)

// Sentinel errors for spectral classification
var (
	ErrClipTooShort = errors.NewStd("clip too short for spectral classification")
	ErrClipSilent   = errors.NewStd("clip has no spectral energy")
)

// minClassifyFrames is the shortest clip the classifier will accept. Below
// this the FFT resolution cannot separate the 20-200 Hz band.
const minClassifyFrames = 512

// SpectralClassifier decides whether a clip's energy is dominated by the low
// frequency band. It runs once per finalized clip over the full accumulated
// audio, not per chunk.
type SpectralClassifier struct {
	sampleRate  int
	energyRatio float64
}

// NewSpectralClassifier creates a classifier for the given sample rate. The
// energy ratio is the low band share of total energy required for a positive
// classification.
func NewSpectralClassifier(sampleRate int, settings *conf.ClassifierSettings) *SpectralClassifier {
	return &SpectralClassifier{
		sampleRate:  sampleRate,
		energyRatio: settings.EnergyRatio,
	}
}

// Classify computes the magnitude spectrum of the whole clip and reports
// whether the 20-200 Hz band holds at least the configured share of total
// energy. The DC bin is excluded from both numerator and denominator; the
// Nyquist bin is included. Degenerate input yields false with an error, and
// the caller defaults the event to not-low-frequency.
func (sc *SpectralClassifier) Classify(samples []byte) (bool, error) {
	floatSamples := bytesToFloat64(samples)
	n := len(floatSamples)
	if n < minClassifyFrames {
		return false, errors.New(ErrClipTooShort).
			Component("myaudio").
			Category(errors.CategoryAudioClassify).
			Context("frames", n).
			Context("min_frames", minClassifyFrames).
			Build()
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, floatSamples)

	binWidth := float64(sc.sampleRate) / float64(n)
	var total, low float64
	// bin 0 is DC and carries no acoustic information
	for k := 1; k < len(coeff); k++ {
		mag := cmplx.Abs(coeff[k])
		energy := mag * mag
		total += energy

		freq := float64(k) * binWidth
		if freq >= conf.LowBandMinFreq && freq <= conf.LowBandMaxFreq {
			low += energy
		}
	}

	if total == 0 {
		return false, errors.New(ErrClipSilent).
			Component("myaudio").
			Category(errors.CategoryAudioClassify).
			Context("frames", n).
			Build()
	}

	return low/total >= sc.energyRatio, nil
}
