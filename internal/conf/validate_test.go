package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Realtime.Detector = DetectorSettings{
		Threshold:   70,
		PreSeconds:  2,
		PostSeconds: 2,
		MinDuration: 4,
	}
	s.Realtime.Audio.WindFilter = WindFilterSettings{Enabled: true, Cutoff: 80}
	s.Realtime.Audio.Export = ExportSettings{Path: "clips/", Type: "opus", Bitrate: "64k"}
	s.Realtime.Classifier = ClassifierSettings{EnergyRatio: 0.4}
	s.Realtime.Segment = SegmentSettings{Enabled: true, Duration: 300}
	return s
}

func TestValidateSettingsAcceptsDefaults(t *testing.T) {
	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateDetectorBounds(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DetectorSettings)
		wantErr bool
	}{
		{"threshold at lower bound", func(d *DetectorSettings) { d.Threshold = 40 }, false},
		{"threshold at upper bound", func(d *DetectorSettings) { d.Threshold = 120 }, false},
		{"threshold below range", func(d *DetectorSettings) { d.Threshold = 39.9 }, true},
		{"threshold above range", func(d *DetectorSettings) { d.Threshold = 121 }, true},
		{"negative pre roll", func(d *DetectorSettings) { d.PreSeconds = -1 }, true},
		{"negative post roll", func(d *DetectorSettings) { d.PostSeconds = -0.5 }, true},
		{"minimum duration too short", func(d *DetectorSettings) { d.MinDuration = 0.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s.Realtime.Detector)
			err := ValidateSettings(s)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateWindFilterCutoffBounds(t *testing.T) {
	s := validSettings()

	s.Realtime.Audio.WindFilter.Cutoff = 39
	assert.Error(t, ValidateSettings(s))

	s.Realtime.Audio.WindFilter.Cutoff = 201
	assert.Error(t, ValidateSettings(s))

	// bounds apply even while the filter is disabled
	s.Realtime.Audio.WindFilter.Enabled = false
	assert.Error(t, ValidateSettings(s))

	s.Realtime.Audio.WindFilter.Cutoff = 200
	assert.NoError(t, ValidateSettings(s))
}

func TestValidateExportType(t *testing.T) {
	s := validSettings()
	s.Realtime.Audio.Export.Type = "mp3"
	assert.Error(t, ValidateSettings(s))
}
