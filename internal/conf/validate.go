// validate.go settings bounds validation
package conf

import (
	"fmt"
)

// Validation bounds for runtime updatable settings. Out-of-range values are
// rejected at the boundary so the pipeline keeps its last valid configuration.
const (
	MinThresholdDB = 40.0
	MaxThresholdDB = 120.0
	MinCutoffHz    = 40.0
	MaxCutoffHz    = 200.0
)

// ValidateSettings checks the full settings struct and returns the first
// violation found.
func ValidateSettings(settings *Settings) error {
	if settings == nil {
		return fmt.Errorf("settings is nil")
	}
	if err := ValidateDetectorSettings(&settings.Realtime.Detector); err != nil {
		return err
	}
	if err := ValidateWindFilterSettings(&settings.Realtime.Audio.WindFilter); err != nil {
		return err
	}
	if err := validateClassifierSettings(&settings.Realtime.Classifier); err != nil {
		return err
	}
	if err := validateSegmentSettings(&settings.Realtime.Segment); err != nil {
		return err
	}
	if err := validateExportSettings(&settings.Realtime.Audio.Export); err != nil {
		return err
	}
	return nil
}

// ValidateDetectorSettings checks event detector bounds.
func ValidateDetectorSettings(detector *DetectorSettings) error {
	if detector.Threshold < MinThresholdDB || detector.Threshold > MaxThresholdDB {
		return fmt.Errorf("detector threshold %.1f dB out of range [%.0f, %.0f]",
			detector.Threshold, MinThresholdDB, MaxThresholdDB)
	}
	if detector.PreSeconds < 0 {
		return fmt.Errorf("detector preseconds must not be negative, got %.1f", detector.PreSeconds)
	}
	if detector.PostSeconds < 0 {
		return fmt.Errorf("detector postseconds must not be negative, got %.1f", detector.PostSeconds)
	}
	if detector.MinDuration < 1 {
		return fmt.Errorf("detector minduration must be at least 1 second, got %.1f", detector.MinDuration)
	}
	return nil
}

// ValidateWindFilterSettings checks wind filter bounds. Cutoff bounds apply
// also when the filter is disabled so enabling it later cannot surprise.
func ValidateWindFilterSettings(filter *WindFilterSettings) error {
	if filter.Cutoff < MinCutoffHz || filter.Cutoff > MaxCutoffHz {
		return fmt.Errorf("wind filter cutoff %.1f Hz out of range [%.0f, %.0f]",
			filter.Cutoff, MinCutoffHz, MaxCutoffHz)
	}
	return nil
}

func validateClassifierSettings(classifier *ClassifierSettings) error {
	if classifier.EnergyRatio <= 0 || classifier.EnergyRatio > 1 {
		return fmt.Errorf("classifier energyratio %.2f out of range (0, 1]", classifier.EnergyRatio)
	}
	return nil
}

func validateSegmentSettings(segment *SegmentSettings) error {
	if segment.Enabled && segment.Duration < 1 {
		return fmt.Errorf("segment duration must be at least 1 second, got %d", segment.Duration)
	}
	return nil
}

func validateExportSettings(export *ExportSettings) error {
	switch export.Type {
	case "opus", "wav":
		return nil
	default:
		return fmt.Errorf("unsupported export type %q, must be opus or wav", export.Type)
	}
}
