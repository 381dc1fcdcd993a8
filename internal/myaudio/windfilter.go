// windfilter.go zero-phase high-pass filtering for wind noise suppression
package myaudio

import (
	"sync"

	"github.com/DrewThomasson/sound-monitor/internal/conf"
	"github.com/DrewThomasson/sound-monitor/internal/errors"
	"github.com/DrewThomasson/sound-monitor/internal/myaudio/equalizer"
)

// Butterworth pole Q values for a 4th order response realized as two
// cascaded biquad sections.
var butterworthQ = [2]float64{0.54119610, 1.30656296}

// minFilterFrames is the shortest chunk the forward-backward pass will
// accept; shorter chunks are returned unfiltered.
const minFilterFrames = 64

// Sentinel errors for wind filter operations
var (
	ErrChunkTooShort  = errors.NewStd("chunk too short for zero-phase filtering")
	ErrFilterUnstable = errors.NewStd("filter coefficients unstable at configured cutoff")
)

// WindFilter removes sub-cutoff energy from audio chunks using a 4th order
// Butterworth high-pass applied forward and backward, so the output stays
// time-aligned with the input. The filter fails open: on any error Apply
// returns the input unchanged together with the error, and monitoring
// continues on unfiltered audio.
type WindFilter struct {
	mu         sync.RWMutex
	enabled    bool
	cutoff     float64
	sampleRate float64
	sections   [2]*equalizer.Filter
}

// NewWindFilter builds a wind filter for the given sample rate and settings.
func NewWindFilter(sampleRate float64, settings *conf.WindFilterSettings) (*WindFilter, error) {
	wf := &WindFilter{sampleRate: sampleRate}
	if err := wf.Update(settings); err != nil {
		return nil, err
	}
	return wf, nil
}

// Update replaces the filter configuration. The new configuration takes
// effect on the next chunk, never retroactively. Invalid settings are
// rejected and the previous configuration stays in effect.
func (wf *WindFilter) Update(settings *conf.WindFilterSettings) error {
	if err := conf.ValidateWindFilterSettings(settings); err != nil {
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryConfiguration).
			Context("operation", "update_wind_filter").
			Context("cutoff", settings.Cutoff).
			Build()
	}

	var sections [2]*equalizer.Filter
	if settings.Enabled {
		for i, q := range butterworthQ {
			section, err := equalizer.NewHighPass(wf.sampleRate, settings.Cutoff, q, 1)
			if err != nil {
				return errors.New(err).
					Component("myaudio").
					Category(errors.CategoryConfiguration).
					Context("operation", "build_highpass_section").
					Context("cutoff", settings.Cutoff).
					Build()
			}
			if !section.Stable() {
				return errors.New(ErrFilterUnstable).
					Component("myaudio").
					Category(errors.CategoryConfiguration).
					Context("cutoff", settings.Cutoff).
					Context("sample_rate", wf.sampleRate).
					Build()
			}
			sections[i] = section
		}
	}

	wf.mu.Lock()
	defer wf.mu.Unlock()
	wf.enabled = settings.Enabled
	wf.cutoff = settings.Cutoff
	wf.sections = sections
	return nil
}

// Enabled reports whether filtering is currently active.
func (wf *WindFilter) Enabled() bool {
	wf.mu.RLock()
	defer wf.mu.RUnlock()
	return wf.enabled
}

// Apply runs the zero-phase high-pass over one chunk of 16-bit little-endian
// PCM and returns the filtered copy. When the filter is disabled the input
// is returned unchanged. On any failure the input is returned unchanged
// along with the error, so callers can always use the returned slice.
func (wf *WindFilter) Apply(samples []byte) ([]byte, error) {
	// full lock: the biquad sections carry mutable state
	wf.mu.Lock()
	defer wf.mu.Unlock()

	if !wf.enabled {
		return samples, nil
	}

	if len(samples)%2 != 0 {
		return samples, errors.Newf("invalid sample length: %d bytes, must be even for 16-bit samples", len(samples)).
			Component("myaudio").
			Category(errors.CategoryValidation).
			Context("operation", "apply_wind_filter").
			Build()
	}
	if len(samples)/2 < minFilterFrames {
		return samples, errors.New(ErrChunkTooShort).
			Component("myaudio").
			Category(errors.CategoryAudioFilter).
			Context("frames", len(samples)/2).
			Context("min_frames", minFilterFrames).
			Build()
	}

	floatSamples := bytesToFloat64(samples)

	// Forward pass, then reverse and filter again with cleared state. The
	// second pass cancels the phase shift of the first, so event boundaries
	// in the filtered audio do not drift against the raw input.
	for _, section := range wf.sections {
		section.Reset()
		section.ApplyBatch(floatSamples)
	}
	reverseFloat64(floatSamples)
	for _, section := range wf.sections {
		section.Reset()
		section.ApplyBatch(floatSamples)
	}
	reverseFloat64(floatSamples)

	return float64ToBytes(floatSamples), nil
}
