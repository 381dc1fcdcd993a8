package analysis

import (
	"bytes"
	"log/slog"
	"time"

	"github.com/DrewThomasson/sound-monitor/internal/conf"
	"github.com/DrewThomasson/sound-monitor/internal/myaudio"
)

type detectorState int

const (
	stateIdle detectorState = iota
	stateActive
	stateHangover
)

// EventClip is a finalized loud event as raw audio plus its measured
// statistics. Classification and export happen downstream.
type EventClip struct {
	Start        time.Time
	End          time.Time
	PeakDB       float64
	AvgDB        float64
	PreTruncated bool
	PCM          []byte
}

// Duration returns the clip span including pre and post roll.
func (c *EventClip) Duration() time.Duration { return c.End.Sub(c.Start) }

// openEvent tracks an event between its trigger and its finalization.
type openEvent struct {
	start        time.Time
	triggerTime  time.Time
	lastAbove    time.Time
	peakDB       float64
	sumDB        float64
	sampleCount  int
	preTruncated bool
	audio        bytes.Buffer
}

// EventDetector turns the per-chunk level stream into discrete loud events.
// A chunk at or above the threshold opens an event; the event stays open
// until the level has remained below the threshold for the full post-roll
// window. Clips carry pre-roll audio pulled from the capture ring buffer.
//
// Not safe for concurrent use; the pipeline drives it from a single goroutine.
type EventDetector struct {
	ring   *myaudio.CaptureBuffer
	logger *slog.Logger
	state  detectorState
	open   *openEvent
}

func NewEventDetector(ring *myaudio.CaptureBuffer, logger *slog.Logger) *EventDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventDetector{
		ring:   ring,
		logger: logger.With("service", "detector"),
		state:  stateIdle,
	}
}

// Active reports whether an event is currently open.
func (d *EventDetector) Active() bool { return d.state != stateIdle }

// Process advances the detector by one chunk. ts is the chunk start time and
// db its measured level, taken after any filtering. The chunk must already be
// written to the capture ring buffer. A non-nil return is a finalized event.
func (d *EventDetector) Process(ts time.Time, db float64, pcm []byte, cfg *conf.DetectorSettings) *EventClip {
	chunkDur := pcmDuration(len(pcm))
	above := db >= cfg.Threshold

	switch d.state {
	case stateIdle:
		if !above {
			return nil
		}
		d.trigger(ts, db, pcm, cfg)
		return nil

	case stateActive:
		d.open.audio.Write(pcm)
		d.accumulate(db)
		if above {
			d.open.lastAbove = ts
			return nil
		}
		d.state = stateHangover
		return d.maybeFinalize(ts.Add(chunkDur), cfg)

	case stateHangover:
		d.open.audio.Write(pcm)
		d.accumulate(db)
		if above {
			// the dip was shorter than the post-roll, keep the event open
			d.open.lastAbove = ts
			d.state = stateActive
			return nil
		}
		return d.maybeFinalize(ts.Add(chunkDur), cfg)
	}
	return nil
}

// Flush force-finalizes any open event, for shutdown and capture faults.
// The event ends at the last processed chunk rather than a full post-roll.
func (d *EventDetector) Flush(cfg *conf.DetectorSettings) *EventClip {
	if d.state == stateIdle {
		return nil
	}
	d.logger.Debug("force finalizing open event on shutdown")
	return d.finalize(cfg)
}

// trigger opens a new event at the first chunk at or above threshold,
// pulling pre-roll audio from the ring buffer.
func (d *EventDetector) trigger(ts time.Time, db float64, pcm []byte, cfg *conf.DetectorSettings) {
	preRoll := secondsToDuration(cfg.PreSeconds)

	ev := &openEvent{
		start:       ts.Add(-preRoll),
		triggerTime: ts,
		lastAbove:   ts,
		peakDB:      db,
		sumDB:       db,
		sampleCount: 1,
	}

	// The trigger chunk is already in the ring, so the pre-roll window ends
	// at the chunk start and the chunk itself is appended separately.
	pre, truncated, err := d.ring.Snapshot(ts.Add(-preRoll), preRoll)
	switch {
	case err != nil:
		d.logger.Warn("pre-roll unavailable, starting event at trigger", "error", err)
		ev.start = ts
		ev.preTruncated = true
	case truncated:
		ev.start = ts.Add(-pcmDuration(len(pre)))
		ev.preTruncated = true
		ev.audio.Write(pre)
	default:
		ev.audio.Write(pre)
	}

	ev.audio.Write(pcm)
	d.open = ev
	d.state = stateActive
	d.logger.Info("loud event triggered", "level_db", db, "threshold_db", cfg.Threshold)
}

func (d *EventDetector) accumulate(db float64) {
	if db > d.open.peakDB {
		d.open.peakDB = db
	}
	d.open.sumDB += db
	d.open.sampleCount++
}

// maybeFinalize closes the event once the level has stayed below threshold
// through the full post-roll window ending at chunkEnd.
func (d *EventDetector) maybeFinalize(chunkEnd time.Time, cfg *conf.DetectorSettings) *EventClip {
	hangoverUntil := d.open.lastAbove.Add(secondsToDuration(cfg.PostSeconds))
	if chunkEnd.Before(hangoverUntil) {
		return nil
	}
	return d.finalize(cfg)
}

// finalize produces the clip, padding with trailing silence when the captured
// audio is shorter than the configured minimum duration.
func (d *EventDetector) finalize(cfg *conf.DetectorSettings) *EventClip {
	ev := d.open
	d.open = nil
	d.state = stateIdle

	pcm := ev.audio.Bytes()
	end := ev.start.Add(pcmDuration(len(pcm)))

	minDur := secondsToDuration(cfg.MinDuration)
	if got := pcmDuration(len(pcm)); got < minDur {
		padBytes := pcmBytes(minDur - got)
		pcm = append(pcm, make([]byte, padBytes)...)
		end = ev.start.Add(minDur)
	}

	clip := &EventClip{
		Start:        ev.start,
		End:          end,
		PeakDB:       ev.peakDB,
		AvgDB:        ev.sumDB / float64(ev.sampleCount),
		PreTruncated: ev.preTruncated,
		PCM:          pcm,
	}
	d.logger.Info("loud event finalized",
		"start", clip.Start.Format(time.RFC3339),
		"duration", clip.End.Sub(clip.Start).Round(time.Millisecond),
		"peak_db", clip.PeakDB)
	return clip
}

// pcmDuration converts a 16-bit mono PCM byte count to wall-clock time.
func pcmDuration(byteLen int) time.Duration {
	frames := byteLen / (conf.BytesPerSample * conf.NumChannels)
	return time.Duration(frames) * time.Second / conf.SampleRate
}

// pcmBytes converts wall-clock time to a 16-bit mono PCM byte count.
func pcmBytes(d time.Duration) int {
	frames := int(d.Nanoseconds() * conf.SampleRate / 1e9)
	return frames * conf.BytesPerSample * conf.NumChannels
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
