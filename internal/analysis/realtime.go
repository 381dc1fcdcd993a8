package analysis

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/DrewThomasson/sound-monitor/internal/conf"
	"github.com/DrewThomasson/sound-monitor/internal/datastore"
	"github.com/DrewThomasson/sound-monitor/internal/detection"
	"github.com/DrewThomasson/sound-monitor/internal/logging"
	"github.com/DrewThomasson/sound-monitor/internal/myaudio"
	"github.com/DrewThomasson/sound-monitor/internal/observability"
)

// RealtimeMonitor starts the sound monitor in realtime mode and blocks until
// a termination signal arrives or the capture source fails.
func RealtimeMonitor(settings *conf.Settings) error {
	logger := logging.ForService("realtime")

	if settings.Main.Log.Enabled {
		level := slog.LevelInfo
		if settings.Debug {
			level = slog.LevelDebug
		}
		fileLogger, closeLogger, err := logging.NewFileLogger(&settings.Main.Log, settings.Main.Name, level)
		if err != nil {
			logger.Warn("file logging disabled", "error", err)
		} else {
			logger = fileLogger.With("service", "realtime")
			defer closeLogger() //nolint:errcheck
		}
	}

	logger.Info("starting realtime monitoring",
		"node", settings.Main.Name,
		"threshold_db", settings.Realtime.Detector.Threshold,
		"wind_filter", settings.Realtime.Audio.WindFilter.Enabled,
		"segments", settings.Realtime.Segment.Enabled)

	store := datastore.New(settings)
	if store != nil {
		if err := store.Open(); err != nil {
			return err
		}
		defer closeDataStore(store, logger)
	}

	quitChan := make(chan struct{})
	var wg sync.WaitGroup

	var metrics *observability.PipelineMetrics
	if settings.Realtime.Telemetry.Enabled {
		registry := prometheus.NewRegistry()
		m, err := observability.NewPipelineMetrics(registry)
		if err != nil {
			return err
		}
		metrics = m
		observability.NewEndpoint(settings.Realtime.Telemetry.Listen, registry, logger).Start(&wg, quitChan)
	}

	source := myaudio.NewMalgoSource(&settings.Realtime.Audio, settings.Debug, logger)
	pipeline, err := NewPipeline(source, settings, metrics, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := source.Start(ctx); err != nil {
		return err
	}

	runDone := make(chan error, 1)
	go func() { runDone <- pipeline.Run(ctx) }()

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		consumeResults(pipeline.Results(), store, settings, logger)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received termination signal, shutting down", "signal", sig.String())
		cancel()
		runErr = <-runDone
	case runErr = <-runDone:
		if runErr != nil {
			logger.Error("capture source failed, shutting down", "error", runErr)
		}
	}

	<-consumerDone
	close(quitChan)
	wg.Wait()
	logger.Info("realtime monitoring stopped")
	return runErr
}

// consumeResults drains the pipeline output, logging every result and
// persisting finalized events and segments.
func consumeResults(results <-chan detection.Result, store datastore.Interface, settings *conf.Settings, logger *slog.Logger) {
	for result := range results {
		switch v := result.(type) {
		case detection.Event:
			logger.Info("noise event",
				"id", v.ID.String(),
				"start", v.Start,
				"duration", v.Duration(),
				"peak_db", v.PeakDB,
				"avg_db", v.AvgDB,
				"low_frequency", v.LowFrequency,
				"clip", v.ClipPath)
			saveEvent(store, settings, &v, logger)

		case detection.Segment:
			logger.Info("ambient segment",
				"id", v.ID.String(),
				"start", v.Start,
				"duration", v.Duration,
				"partial", v.Partial,
				"clip", v.ClipPath)
			saveSegment(store, settings, &v, logger)

		case detection.Warning:
			logger.Warn(v.Message, "component", v.Component, "category", v.Category)

		case detection.LevelSample:
			logger.Debug("level", "db", v.DB, "clipping", v.Clipping)
		}
	}
}

func saveEvent(store datastore.Interface, settings *conf.Settings, event *detection.Event, logger *slog.Logger) {
	if store == nil {
		return
	}
	err := store.SaveNoiseEvent(&datastore.NoiseEvent{
		ID:           event.ID.String(),
		SourceNode:   settings.Main.Name,
		Start:        event.Start,
		End:          event.End,
		PeakDB:       event.PeakDB,
		AvgDB:        event.AvgDB,
		LowFrequency: event.LowFrequency,
		PreTruncated: event.PreTruncated,
		ClipPath:     event.ClipPath,
	})
	if err != nil {
		logger.Error("failed to save noise event", "id", event.ID.String(), "error", err)
	}
}

func saveSegment(store datastore.Interface, settings *conf.Settings, segment *detection.Segment, logger *slog.Logger) {
	if store == nil {
		return
	}
	err := store.SaveAmbientSegment(&datastore.AmbientSegment{
		ID:              segment.ID.String(),
		SourceNode:      settings.Main.Name,
		Start:           segment.Start,
		DurationSeconds: segment.Duration.Seconds(),
		Partial:         segment.Partial,
		ClipPath:        segment.ClipPath,
	})
	if err != nil {
		logger.Error("failed to save ambient segment", "id", segment.ID.String(), "error", err)
	}
}

func closeDataStore(store datastore.Interface, logger *slog.Logger) {
	if err := store.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	} else {
		logger.Info("database connection closed")
	}
}
