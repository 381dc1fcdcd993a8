package datastore

import "time"

// NoiseEvent is a finalized loud event row. One row is written per exported
// event clip.
type NoiseEvent struct {
	ID           string    `gorm:"primaryKey"`
	SourceNode   string    // name of the monitoring node that recorded the event
	Start        time.Time `gorm:"index:idx_noise_events_start"`
	End          time.Time
	PeakDB       float64
	AvgDB        float64
	LowFrequency bool
	PreTruncated bool
	ClipPath     string
}

// AmbientSegment is a finalized rolling ambient recording row.
type AmbientSegment struct {
	ID              string    `gorm:"primaryKey"`
	SourceNode      string
	Start           time.Time `gorm:"index:idx_ambient_segments_start"`
	DurationSeconds float64
	Partial         bool
	ClipPath        string
}
