// Package detection defines the result types emitted by the monitoring
// pipeline. Every value delivered on the pipeline's results channel is one of
// LevelSample, Event, Segment, or Warning.
package detection

import (
	"time"

	"github.com/google/uuid"
)

// Result is implemented by every pipeline output type.
type Result interface {
	resultKind() string
}

// LevelSample is a single loudness measurement of one audio chunk.
type LevelSample struct {
	Timestamp time.Time
	DB        float64
	Clipping  bool
}

func (LevelSample) resultKind() string { return "level" }

// Event is a finalized loud event with its exported clip.
type Event struct {
	ID           uuid.UUID
	Start        time.Time
	End          time.Time
	PeakDB       float64
	AvgDB        float64
	LowFrequency bool
	ClipPath     string
	// PreTruncated is set when the retained audio could not cover the full
	// pre-roll window, usually right after startup.
	PreTruncated bool
}

func (Event) resultKind() string { return "event" }

// Duration returns the event span including pre and post roll.
func (e Event) Duration() time.Duration { return e.End.Sub(e.Start) }

// Segment is a finalized fixed-duration ambient recording.
type Segment struct {
	ID       uuid.UUID
	Start    time.Time
	Duration time.Duration
	ClipPath string
	// Partial is set when the segment was cut short by shutdown.
	Partial bool
}

func (Segment) resultKind() string { return "segment" }

// Warning reports a non-fatal pipeline fault, such as a failed filter pass or
// a clip that could not be classified.
type Warning struct {
	Timestamp time.Time
	Component string
	Category  string
	Message   string
}

func (Warning) resultKind() string { return "warning" }
