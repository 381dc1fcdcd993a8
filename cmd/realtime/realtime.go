package realtime

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DrewThomasson/sound-monitor/internal/analysis"
	"github.com/DrewThomasson/sound-monitor/internal/conf"
)

// Command creates a new command for realtime sound monitoring.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Monitor sound levels in realtime mode",
		Long:  "Start continuous sound level monitoring, recording loud events and optional ambient segments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return analysis.RealtimeMonitor(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the realtime command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Realtime.Audio.Source, "source", viper.GetString("realtime.audio.source"), "Audio capture source (\"sysdefault\", \"USB Audio\", etc.)")
	cmd.Flags().StringVar(&settings.Realtime.Audio.Export.Path, "clippath", viper.GetString("realtime.audio.export.path"), "Path to save event clips and ambient segments")
	cmd.Flags().Float64VarP(&settings.Realtime.Detector.Threshold, "threshold", "t", viper.GetFloat64("realtime.detector.threshold"), "Event trigger threshold in dB")
	cmd.Flags().BoolVar(&settings.Realtime.Audio.WindFilter.Enabled, "windfilter", viper.GetBool("realtime.audio.windfilter.enabled"), "Enable high-pass wind noise filter")
	cmd.Flags().BoolVar(&settings.Realtime.Segment.Enabled, "segments", viper.GetBool("realtime.segment.enabled"), "Write rolling ambient segments")
	cmd.Flags().BoolVar(&settings.Realtime.Telemetry.Enabled, "telemetry", viper.GetBool("realtime.telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Realtime.Telemetry.Listen, "listen", viper.GetString("realtime.telemetry.listen"), "Listen address and port of telemetry endpoint")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
