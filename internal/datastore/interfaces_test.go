package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrewThomasson/sound-monitor/internal/conf"
)

func openTestStore(t *testing.T) Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store := New(settings)
	require.NotNil(t, store)
	require.NoError(t, store.Open())
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func TestNewReturnsNilWhenDisabled(t *testing.T) {
	settings := &conf.Settings{}
	assert.Nil(t, New(settings))
}

func TestNoiseEventRoundTrip(t *testing.T) {
	store := openTestStore(t)

	start := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	event := &NoiseEvent{
		ID:           uuid.NewString(),
		SourceNode:   "test-node",
		Start:        start,
		End:          start.Add(5 * time.Second),
		PeakDB:       85.2,
		AvgDB:        74.8,
		LowFrequency: true,
		ClipPath:     "clips/noise_20250110_120000.opus",
	}
	require.NoError(t, store.SaveNoiseEvent(event))

	got, err := store.GetNoiseEvent(event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.SourceNode, got.SourceNode)
	assert.InDelta(t, event.PeakDB, got.PeakDB, 0.001)
	assert.InDelta(t, event.AvgDB, got.AvgDB, 0.001)
	assert.True(t, got.LowFrequency)
	assert.Equal(t, event.ClipPath, got.ClipPath)
	assert.True(t, got.Start.Equal(start))
}

func TestGetRecentNoiseEventsOrdering(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveNoiseEvent(&NoiseEvent{
			ID:    uuid.NewString(),
			Start: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := store.GetRecentNoiseEvents(3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	// newest first
	assert.True(t, events[0].Start.After(events[1].Start))
	assert.True(t, events[1].Start.After(events[2].Start))
}

func TestAmbientSegmentRoundTrip(t *testing.T) {
	store := openTestStore(t)

	segment := &AmbientSegment{
		ID:              uuid.NewString(),
		SourceNode:      "test-node",
		Start:           time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
		DurationSeconds: 300,
		Partial:         false,
		ClipPath:        "clips/ambient_20250110_120000.opus",
	}
	require.NoError(t, store.SaveAmbientSegment(segment))

	segments, err := store.GetRecentAmbientSegments(10)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, segment.ID, segments[0].ID)
	assert.InDelta(t, 300, segments[0].DurationSeconds, 0.001)
}

func TestOperationsFailBeforeOpen(t *testing.T) {
	var ds DataStore
	assert.Error(t, ds.SaveNoiseEvent(&NoiseEvent{ID: "x"}))
	_, err := ds.GetRecentNoiseEvents(1)
	assert.Error(t, err)
}

func TestGetNoiseEventMissingID(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetNoiseEvent(uuid.NewString())
	assert.Error(t, err)
}
