package analysis

import (
	"bytes"
	"time"

	"github.com/DrewThomasson/sound-monitor/internal/conf"
)

// SegmentClip is a finalized ambient recording as raw audio.
type SegmentClip struct {
	Start   time.Time
	PCM     []byte
	Partial bool
}

// segmentRecorder accumulates chunks into fixed-duration ambient segments.
// It runs on the pipeline goroutine and needs no locking.
type segmentRecorder struct {
	buf    bytes.Buffer
	start  time.Time
	active bool
}

// Add appends one chunk and returns a finalized segment once the configured
// duration is reached.
func (r *segmentRecorder) Add(ts time.Time, pcm []byte, cfg *conf.SegmentSettings) *SegmentClip {
	if !cfg.Enabled {
		if r.active {
			// recording was disabled mid-segment, discard the partial audio
			r.reset()
		}
		return nil
	}

	if !r.active {
		r.start = ts
		r.active = true
	}
	r.buf.Write(pcm)

	want := time.Duration(cfg.Duration) * time.Second
	if pcmDuration(r.buf.Len()) < want {
		return nil
	}

	clip := &SegmentClip{Start: r.start, PCM: append([]byte(nil), r.buf.Bytes()...)}
	r.reset()
	return clip
}

// Flush returns whatever partial segment is buffered, for shutdown.
func (r *segmentRecorder) Flush() *SegmentClip {
	if !r.active || r.buf.Len() == 0 {
		r.reset()
		return nil
	}
	clip := &SegmentClip{
		Start:   r.start,
		PCM:     append([]byte(nil), r.buf.Bytes()...),
		Partial: true,
	}
	r.reset()
	return clip
}

func (r *segmentRecorder) reset() {
	r.buf.Reset()
	r.active = false
	r.start = time.Time{}
}
