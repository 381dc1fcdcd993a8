// defaults.go default values for viper settings
package conf

import "github.com/spf13/viper"

// setDefaultConfig sets viper defaults so a missing or partial config file
// still yields a runnable configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "sound-monitor")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "sound-monitor.log")
	viper.SetDefault("main.log.maxsize", 10*1024*1024)

	viper.SetDefault("realtime.audio.source", "sysdefault")
	viper.SetDefault("realtime.audio.ffmpegpath", "ffmpeg")
	viper.SetDefault("realtime.audio.calibrationoffset", 0.0)
	viper.SetDefault("realtime.audio.export.debug", false)
	viper.SetDefault("realtime.audio.export.path", "clips/")
	viper.SetDefault("realtime.audio.export.type", "opus")
	viper.SetDefault("realtime.audio.export.bitrate", "64k")
	viper.SetDefault("realtime.audio.windfilter.enabled", false)
	viper.SetDefault("realtime.audio.windfilter.cutoff", 80.0)

	viper.SetDefault("realtime.detector.threshold", 70.0)
	viper.SetDefault("realtime.detector.preseconds", 2.0)
	viper.SetDefault("realtime.detector.postseconds", 2.0)
	viper.SetDefault("realtime.detector.minduration", 4.0)

	viper.SetDefault("realtime.classifier.energyratio", 0.40)

	viper.SetDefault("realtime.segment.enabled", false)
	viper.SetDefault("realtime.segment.duration", 300)

	viper.SetDefault("realtime.level.interval", 50)

	viper.SetDefault("realtime.telemetry.enabled", false)
	viper.SetDefault("realtime.telemetry.listen", "localhost:8090")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "sound-monitor.db")
}
