// Package analysis contains the realtime monitoring pipeline: level
// measurement, loud event detection, ambient segment recording, and clip
// export.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/DrewThomasson/sound-monitor/internal/conf"
	"github.com/DrewThomasson/sound-monitor/internal/detection"
	"github.com/DrewThomasson/sound-monitor/internal/errors"
	"github.com/DrewThomasson/sound-monitor/internal/myaudio"
	"github.com/DrewThomasson/sound-monitor/internal/observability"
)

const (
	encodeWorkers   = 2
	encodeQueueSize = 8
	resultsCapacity = 64
)

// encodeJob carries a finalized clip to the encode workers. Exactly one of
// event or segment is set.
type encodeJob struct {
	event    *detection.Event
	segment  *detection.Segment
	pcm      []byte
	baseName string
}

// Pipeline consumes raw audio chunks and produces level samples, loud
// events, ambient segments, and warnings on a single results channel.
//
// The consumer must keep draining Results until it closes; event and segment
// delivery blocks, only level samples and warnings are dropped under
// back-pressure.
type Pipeline struct {
	source     myaudio.ChunkSource
	settings   atomic.Pointer[conf.Settings]
	windFilter *myaudio.WindFilter
	classifier atomic.Pointer[myaudio.SpectralClassifier]
	ring       *myaudio.CaptureBuffer
	detector   *EventDetector
	segments   segmentRecorder
	metrics    *observability.PipelineMetrics
	logger     *slog.Logger

	results    chan detection.Result
	encodeJobs chan encodeJob

	lastLevelPub time.Time
	lastDropped  uint64
}

// chunkDropCounter is implemented by sources that count chunks lost to
// consumer lag.
type chunkDropCounter interface {
	DroppedChunks() uint64
}

// NewPipeline wires the processing stages around the given chunk source.
func NewPipeline(source myaudio.ChunkSource, settings *conf.Settings, metrics *observability.PipelineMetrics, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", "pipeline")

	windFilter, err := myaudio.NewWindFilter(conf.SampleRate, &settings.Realtime.Audio.WindFilter)
	if err != nil {
		return nil, err
	}

	// The ring must cover the pre-roll window plus headroom for late reads.
	ringDur := secondsToDuration(settings.Realtime.Detector.PreSeconds) + 10*time.Second
	ring := myaudio.NewCaptureBuffer(ringDur, conf.SampleRate, conf.BytesPerSample*conf.NumChannels)

	p := &Pipeline{
		source:     source,
		windFilter: windFilter,
		ring:       ring,
		detector:   NewEventDetector(ring, logger),
		metrics:    metrics,
		logger:     logger,
		results:    make(chan detection.Result, resultsCapacity),
		encodeJobs: make(chan encodeJob, encodeQueueSize),
	}
	p.settings.Store(settings)
	p.classifier.Store(myaudio.NewSpectralClassifier(conf.SampleRate, &settings.Realtime.Classifier))
	return p, nil
}

// Results returns the output stream. It is closed after Run returns all
// pending results.
func (p *Pipeline) Results() <-chan detection.Result { return p.results }

// UpdateSettings swaps in new settings for subsequent chunks. Invalid
// settings are rejected and the previous configuration stays active.
func (p *Pipeline) UpdateSettings(settings *conf.Settings) error {
	if err := conf.ValidateSettings(settings); err != nil {
		return err
	}
	if err := p.windFilter.Update(&settings.Realtime.Audio.WindFilter); err != nil {
		return err
	}
	p.classifier.Store(myaudio.NewSpectralClassifier(conf.SampleRate, &settings.Realtime.Classifier))
	p.settings.Store(settings)
	p.logger.Info("pipeline settings updated")
	return nil
}

// Run processes chunks until the source closes or the context is canceled,
// then flushes any open event and partial segment before closing the results
// channel. The returned error is the capture fault, if any.
func (p *Pipeline) Run(ctx context.Context) error {
	defer close(p.results)

	var encodeWG sync.WaitGroup
	for i := 0; i < encodeWorkers; i++ {
		encodeWG.Add(1)
		go p.encodeWorker(&encodeWG)
	}

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			p.source.Stop()
			for chunk := range p.source.Chunks() {
				p.processChunk(chunk)
			}
			break loop
		case chunk, ok := <-p.source.Chunks():
			if !ok {
				if err := p.source.Err(); err != nil {
					runErr = err
					p.publishWarning("capture", string(errors.CategoryAudioCapture),
						fmt.Sprintf("capture source failed: %v", err))
				}
				break loop
			}
			p.processChunk(chunk)
		}
	}

	p.flush()
	close(p.encodeJobs)
	encodeWG.Wait()
	return runErr
}

// processChunk runs the per-chunk stages in order: filter, measure, retain,
// publish level, record segment, detect.
func (p *Pipeline) processChunk(chunk myaudio.Chunk) {
	settings := p.settings.Load()

	pcm, err := p.windFilter.Apply(chunk.PCM)
	if err != nil {
		p.metrics.RecordFilterError()
		p.publishWarning("windfilter", string(errors.CategoryAudioFilter),
			fmt.Sprintf("chunk bypassed wind filter: %v", err))
	}

	level := myaudio.MeasureLevel(pcm, settings.Realtime.Audio.CalibrationOffset)
	p.metrics.RecordChunkProcessed(level.DB, level.Clipping)
	p.recordDrops()

	p.ring.Write(pcm, chunk.Timestamp)
	p.publishLevel(chunk.Timestamp, level, settings)

	if seg := p.segments.Add(chunk.Timestamp, pcm, &settings.Realtime.Segment); seg != nil {
		p.handleSegmentClip(seg)
	}
	if clip := p.detector.Process(chunk.Timestamp, level.DB, pcm, &settings.Realtime.Detector); clip != nil {
		p.handleEventClip(clip)
	}
}

// flush force-finalizes the open event and partial segment on shutdown.
func (p *Pipeline) flush() {
	settings := p.settings.Load()
	if clip := p.detector.Flush(&settings.Realtime.Detector); clip != nil {
		p.handleEventClip(clip)
	}
	if seg := p.segments.Flush(); seg != nil {
		p.handleSegmentClip(seg)
	}
}

// handleEventClip classifies a finalized event and queues it for encoding.
// Classification failures degrade to a not-low-frequency event.
func (p *Pipeline) handleEventClip(clip *EventClip) {
	low, err := p.classifier.Load().Classify(clip.PCM)
	if err != nil {
		p.publishWarning("classifier", string(errors.CategoryAudioClassify),
			fmt.Sprintf("event not classified: %v", err))
		low = false
	}
	p.metrics.RecordEvent(low)

	event := &detection.Event{
		ID:           uuid.New(),
		Start:        clip.Start,
		End:          clip.End,
		PeakDB:       clip.PeakDB,
		AvgDB:        clip.AvgDB,
		LowFrequency: low,
		PreTruncated: clip.PreTruncated,
	}
	p.enqueueEncode(encodeJob{
		event:    event,
		pcm:      clip.PCM,
		baseName: clipBaseName("noise", clip.Start),
	})
}

func (p *Pipeline) handleSegmentClip(clip *SegmentClip) {
	p.metrics.RecordSegment()
	segment := &detection.Segment{
		ID:       uuid.New(),
		Start:    clip.Start,
		Duration: pcmDuration(len(clip.PCM)),
		Partial:  clip.Partial,
	}
	p.enqueueEncode(encodeJob{
		segment:  segment,
		pcm:      clip.PCM,
		baseName: clipBaseName("ambient", clip.Start),
	})
}

// enqueueEncode hands a clip to the encode workers. When the queue is full
// the clip is written synchronously as WAV instead, trading encode quality
// for never losing audio.
func (p *Pipeline) enqueueEncode(job encodeJob) {
	select {
	case p.encodeJobs <- job:
	default:
		p.logger.Warn("encode queue full, writing clip synchronously as wav",
			"clip", job.baseName)
		p.finishEncode(job, wavFallback(p.settings.Load()))
	}
}

// encodeWorker drains the encode queue until it closes.
func (p *Pipeline) encodeWorker(wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range p.encodeJobs {
		p.finishEncode(job, &p.settings.Load().Realtime.Audio)
	}
}

// finishEncode exports the clip and publishes the finalized result. The
// result is published even when export fails, with whatever path the
// fallback produced.
func (p *Pipeline) finishEncode(job encodeJob, audio *conf.AudioSettings) {
	path, err := myaudio.ExportClip(job.pcm, job.baseName, audio)
	if err != nil {
		p.metrics.RecordEncodeError()
		p.publishWarning("export", string(errors.CategoryAudioEncode),
			fmt.Sprintf("clip %s: %v", job.baseName, err))
	}

	switch {
	case job.event != nil:
		job.event.ClipPath = path
		p.results <- *job.event
	case job.segment != nil:
		job.segment.ClipPath = path
		p.results <- *job.segment
	}
}

// publishLevel emits a level sample, throttled to the configured interval
// and dropped outright when the consumer lags.
func (p *Pipeline) publishLevel(ts time.Time, level myaudio.LevelMeasurement, settings *conf.Settings) {
	if interval := settings.Realtime.Level.Interval; interval > 0 {
		if ts.Sub(p.lastLevelPub) < time.Duration(interval)*time.Millisecond {
			return
		}
	}
	p.lastLevelPub = ts

	select {
	case p.results <- detection.LevelSample{Timestamp: ts, DB: level.DB, Clipping: level.Clipping}:
	default:
	}
}

// publishWarning emits a warning without blocking the audio path.
func (p *Pipeline) publishWarning(component, category, message string) {
	p.metrics.RecordWarning(category)
	p.logger.Warn(message, "component", component, "category", category)

	select {
	case p.results <- detection.Warning{
		Timestamp: time.Now(),
		Component: component,
		Category:  category,
		Message:   message,
	}:
	default:
	}
}

// recordDrops forwards the source's drop counter delta to metrics.
func (p *Pipeline) recordDrops() {
	counter, ok := p.source.(chunkDropCounter)
	if !ok {
		return
	}
	if total := counter.DroppedChunks(); total > p.lastDropped {
		p.metrics.RecordChunksDropped(total - p.lastDropped)
		p.lastDropped = total
	}
}

// wavFallback copies the audio settings with export forced to uncompressed WAV.
func wavFallback(settings *conf.Settings) *conf.AudioSettings {
	audio := settings.Realtime.Audio
	audio.Export.Type = "wav"
	return &audio
}

// clipBaseName builds the on-disk clip name, e.g. "noise_20250110_120000".
func clipBaseName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s", prefix, t.Format("20060102_150405"))
}
