// config.go: This file contains the configuration for the sound-monitor application.
// It defines the settings struct and functions to load and save the settings.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// WindFilterSettings is a struct for the wind noise high-pass filter
type WindFilterSettings struct {
	Enabled bool    // true to remove sub-cutoff energy before measurement and storage
	Cutoff  float64 // high-pass cutoff frequency in Hz, valid range 40-200
}

// ExportSettings contains settings for audio clip export
type ExportSettings struct {
	Debug   bool   // true to enable audio export debug
	Path    string // path to audio clip export directory
	Type    string // audio file type, opus or wav
	Bitrate string // fixed bitrate for compressed export, e.g. "64k"
}

// AudioSettings contains settings for audio capture and processing
type AudioSettings struct {
	Source            string             // audio capture source to use
	FfmpegPath        string             // path to ffmpeg binary, runtime value
	CalibrationOffset float64            // signed calibration offset in dB applied to every level measurement
	Export            ExportSettings     // audio export settings
	WindFilter        WindFilterSettings // wind noise filter settings
}

// DetectorSettings contains settings for loud event detection
type DetectorSettings struct {
	Threshold   float64 // event trigger threshold in dB, valid range 40-120
	PreSeconds  float64 // seconds of audio retained before the trigger
	PostSeconds float64 // seconds of audio retained after the level drops below threshold
	MinDuration float64 // minimum event clip duration in seconds
}

// ClassifierSettings contains settings for the low frequency classifier
type ClassifierSettings struct {
	EnergyRatio float64 // low band energy share required to flag an event as low frequency, 0-1
}

// SegmentSettings contains settings for rolling ambient segments
type SegmentSettings struct {
	Enabled  bool // true to write fixed duration ambient segments
	Duration int  // ambient segment duration in seconds
}

// LevelSettings contains settings for level sample publication
type LevelSettings struct {
	Interval int // minimum milliseconds between published level samples, 0 publishes every chunk
}

// TelemetrySettings contains settings for the Prometheus scrape endpoint
type TelemetrySettings struct {
	Enabled bool   // true to expose metrics over HTTP
	Listen  string // IP address and port to listen on, e.g. "localhost:8090"
}

// RealtimeSettings contains all settings for the realtime monitoring pipeline
type RealtimeSettings struct {
	Audio      AudioSettings      // audio capture and processing settings
	Detector   DetectorSettings   // event detector settings
	Classifier ClassifierSettings // spectral classifier settings
	Segment    SegmentSettings    // ambient segment settings
	Level      LevelSettings      // level stream settings
	Telemetry  TelemetrySettings  // metrics endpoint settings
}

// SQLiteSettings contains settings for the SQLite event store
type SQLiteSettings struct {
	Enabled bool   // true to store finalized events and segments in SQLite
	Path    string // path to SQLite database file
}

// LogConfig defines the configuration for file logging
type LogConfig struct {
	Enabled bool   // true to enable file logging
	Path    string // path to log file
	MaxSize int64  // maximum log file size in bytes before rotation
}

// Settings contains all application settings
type Settings struct {
	Debug bool // true to enable debug mode

	Main struct {
		Name string    // name of this monitoring node
		Log  LogConfig // file logging configuration
	}

	Realtime RealtimeSettings // realtime pipeline settings

	Output struct {
		SQLite SQLiteSettings // SQLite settings
	}
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment, returning validated settings.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()
	return settings, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(configPaths)
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default configuration to the first
// config path and loads it, mirroring first-run behavior.
func createDefaultConfig(configPaths []string) error {
	configPath := filepath.Join(configPaths[0], "config.yaml")

	defaultConfig, err := getDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	log.Printf("Created default config file at: %s", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig returns the embedded default configuration as a string.
func getDefaultConfig() (string, error) {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return "", fmt.Errorf("error reading embedded config.yaml: %w", err)
	}
	return string(data), nil
}

// Setting returns the current settings instance, loading it if necessary.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("error loading settings: %v", err)
			}
		}
	})
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// GetDefaultConfigPaths returns the list of directories searched for a config file.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return []string{
			filepath.Join(configDir, "sound-monitor"),
			filepath.Join(homeDir, ".config", "sound-monitor"),
			".",
		}, nil
	}

	return []string{filepath.Join(homeDir, ".config", "sound-monitor"), "."}, nil
}
