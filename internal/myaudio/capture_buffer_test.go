package myaudio

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 1000 // frames per second, keeps test buffers small

// pcmRamp produces n frames of 16-bit PCM whose sample values count up from start.
func pcmRamp(start, n int) []byte {
	data := make([]byte, n*2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(start+i))
	}
	return data
}

func TestSnapshotEmptyBuffer(t *testing.T) {
	cb := NewCaptureBuffer(2*time.Second, testRate, 2)
	_, _, err := cb.Snapshot(time.Now(), time.Second)
	assert.ErrorIs(t, err, ErrBufferEmpty)
}

func TestSnapshotReturnsRequestedWindow(t *testing.T) {
	cb := NewCaptureBuffer(4*time.Second, testRate, 2)
	t0 := time.Unix(1000, 0)

	// two seconds of audio in one-second chunks
	cb.Write(pcmRamp(0, testRate), t0)
	cb.Write(pcmRamp(testRate, testRate), t0.Add(time.Second))

	// middle second: frames 500..1499
	segment, truncated, err := cb.Snapshot(t0.Add(500*time.Millisecond), time.Second)
	require.NoError(t, err)
	assert.False(t, truncated)
	require.Len(t, segment, testRate*2)
	assert.Equal(t, uint16(500), binary.LittleEndian.Uint16(segment))
	assert.Equal(t, uint16(1499), binary.LittleEndian.Uint16(segment[len(segment)-2:]))
}

func TestSnapshotOverflowKeepsMostRecent(t *testing.T) {
	// capacity rounds up to whole 2048-byte blocks
	cb := NewCaptureBuffer(2*time.Second, testRate, 2)
	require.Equal(t, 4096, cb.bufferSize)
	capacityFrames := cb.bufferSize / 2 // 4096 bytes -> 2048 frames

	t0 := time.Unix(2000, 0)
	totalFrames := 4 * testRate // write twice the capacity
	for i := 0; i < 4; i++ {
		cb.Write(pcmRamp(i*testRate, testRate), t0.Add(time.Duration(i)*time.Second))
	}

	// request far more than is retained
	segment, truncated, err := cb.Snapshot(t0, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, truncated, "overflowing request must signal truncation")
	require.Len(t, segment, capacityFrames*2)

	// the retained audio is exactly the most recent capacity worth of frames
	first := binary.LittleEndian.Uint16(segment)
	last := binary.LittleEndian.Uint16(segment[len(segment)-2:])
	assert.Equal(t, uint16(totalFrames-capacityFrames), first)
	assert.Equal(t, uint16(totalFrames-1), last)
}

func TestSnapshotWrapsAroundBoundary(t *testing.T) {
	cb := NewCaptureBuffer(2*time.Second, testRate, 2)
	t0 := time.Unix(3000, 0)
	for i := 0; i < 3; i++ {
		cb.Write(pcmRamp(i*testRate, testRate), t0.Add(time.Duration(i)*time.Second))
	}

	// a window that straddles the physical end of the ring
	segment, truncated, err := cb.Snapshot(t0.Add(1800*time.Millisecond), 400*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, truncated)
	require.Len(t, segment, 400*2)
	assert.Equal(t, uint16(1800), binary.LittleEndian.Uint16(segment))
	assert.Equal(t, uint16(2199), binary.LittleEndian.Uint16(segment[len(segment)-2:]))
}

func TestSnapshotWindowEntirelyBeforeRetained(t *testing.T) {
	cb := NewCaptureBuffer(1*time.Second, testRate, 2)
	t0 := time.Unix(4000, 0)
	for i := 0; i < 5; i++ {
		cb.Write(pcmRamp(i*testRate, testRate), t0.Add(time.Duration(i)*time.Second))
	}

	_, truncated, err := cb.Snapshot(t0, time.Second)
	assert.ErrorIs(t, err, ErrWindowNotInRing)
	assert.True(t, truncated)
}

func TestDurationTracksRetainedAudio(t *testing.T) {
	cb := NewCaptureBuffer(4*time.Second, testRate, 2)
	assert.Equal(t, time.Duration(0), cb.Duration())

	cb.Write(pcmRamp(0, testRate/2), time.Unix(5000, 0))
	assert.Equal(t, 500*time.Millisecond, cb.Duration())
}
