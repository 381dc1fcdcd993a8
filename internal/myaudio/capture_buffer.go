// capture_buffer.go defines the circular buffer used for event clip capture
package myaudio

import (
	"sync"
	"time"

	"github.com/DrewThomasson/sound-monitor/internal/errors"
)

// Sentinel errors for capture buffer operations
var (
	ErrBufferEmpty     = errors.NewStd("capture buffer holds no data yet")
	ErrWindowNotInRing = errors.NewStd("requested window is outside the buffer's retained history")
)

// CaptureBuffer is a circular buffer for PCM audio data with timestamp
// tracking. It retains at least the configured duration of the most recent
// audio so event finalization can pull pre-roll context. Writes never block
// and overwrite the oldest data once capacity is exceeded.
type CaptureBuffer struct {
	data          []byte
	writeIndex    int
	sampleRate    int
	bytesPerFrame int
	bufferSize    int
	endTime       time.Time // timestamp just past the most recent retained sample
	written       int64     // total bytes written over the buffer lifetime
	lock          sync.Mutex
}

// NewCaptureBuffer initializes a CaptureBuffer retaining the given duration
// of audio. The allocation is rounded up to a whole number of frames per
// 2048-byte block, matching the capture chunk granularity.
func NewCaptureBuffer(duration time.Duration, sampleRate, bytesPerFrame int) *CaptureBuffer {
	bufferSize := framesIn(duration, sampleRate) * bytesPerFrame
	alignedBufferSize := ((bufferSize + 2047) / 2048) * 2048

	return &CaptureBuffer{
		data:          make([]byte, alignedBufferSize),
		sampleRate:    sampleRate,
		bytesPerFrame: bytesPerFrame,
		bufferSize:    alignedBufferSize,
	}
}

// Write appends PCM data stamped with the chunk's start time. Old data is
// overwritten once the buffer wraps. If data exceeds the buffer capacity only
// its most recent portion is kept.
func (cb *CaptureBuffer) Write(data []byte, chunkStart time.Time) {
	cb.lock.Lock()
	defer cb.lock.Unlock()

	cb.endTime = chunkStart.Add(cb.bytesDuration(len(data)))
	cb.written += int64(len(data))

	if len(data) > cb.bufferSize {
		data = data[len(data)-cb.bufferSize:]
	}

	for len(data) > 0 {
		n := copy(cb.data[cb.writeIndex:], data)
		cb.writeIndex = (cb.writeIndex + n) % cb.bufferSize
		data = data[n:]
	}
}

// Snapshot returns a copy of the samples covering the requested window,
// clipped to whatever is actually retained. The boolean reports whether the
// returned audio was truncated relative to the request. The copy is taken
// under the buffer lock, so a concurrent Write never yields a half-written
// region.
func (cb *CaptureBuffer) Snapshot(from time.Time, duration time.Duration) ([]byte, bool, error) {
	cb.lock.Lock()
	defer cb.lock.Unlock()

	if cb.written == 0 {
		return nil, false, ErrBufferEmpty
	}

	retained := cb.bufferSize
	if cb.written < int64(cb.bufferSize) {
		retained = int(cb.written)
	}
	windowStart := cb.endTime.Add(-cb.bytesDuration(retained))

	reqStart, reqEnd := from, from.Add(duration)
	truncated := false
	if reqStart.Before(windowStart) {
		reqStart = windowStart
		truncated = true
	}
	if reqEnd.After(cb.endTime) {
		reqEnd = cb.endTime
		truncated = true
	}
	if !reqEnd.After(reqStart) {
		return nil, true, ErrWindowNotInRing
	}

	startOffset := framesIn(reqStart.Sub(windowStart), cb.sampleRate) * cb.bytesPerFrame
	length := framesIn(reqEnd.Sub(reqStart), cb.sampleRate) * cb.bytesPerFrame
	if length == 0 {
		return nil, true, ErrWindowNotInRing
	}
	if startOffset+length > retained {
		length = retained - startOffset
	}

	// Physical index of the oldest retained byte.
	tail := (cb.writeIndex - retained%cb.bufferSize + cb.bufferSize) % cb.bufferSize
	start := (tail + startOffset) % cb.bufferSize

	segment := make([]byte, length)
	firstPart := copy(segment, cb.data[start:min(start+length, cb.bufferSize)])
	if firstPart < length {
		copy(segment[firstPart:], cb.data[:length-firstPart])
	}
	return segment, truncated, nil
}

// Duration reports the length of audio currently retained.
func (cb *CaptureBuffer) Duration() time.Duration {
	cb.lock.Lock()
	defer cb.lock.Unlock()

	retained := cb.bufferSize
	if cb.written < int64(cb.bufferSize) {
		retained = int(cb.written)
	}
	return cb.bytesDuration(retained)
}

// bytesDuration converts a byte count to its audio duration.
func (cb *CaptureBuffer) bytesDuration(n int) time.Duration {
	frames := n / cb.bytesPerFrame
	return time.Duration(int64(frames) * int64(time.Second) / int64(cb.sampleRate))
}

// framesIn converts a duration to a whole frame count at the given rate.
func framesIn(d time.Duration, sampleRate int) int {
	return int(d.Nanoseconds() * int64(sampleRate) / int64(time.Second))
}
