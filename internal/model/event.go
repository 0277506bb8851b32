package model

import (
	"image"
	"time"
)

// TimestampLayout is the second-resolution layout used for stored timestamps
// and notification text.
const TimestampLayout = "2006-01-02 15:04:05"

// UnknownLabel is reported when the classifier is not confident enough.
const UnknownLabel = "unknown"

// Frame is one captured image, JPEG encoded.
type Frame struct {
	Data       []byte
	CapturedAt time.Time
}

// MotionSignal is the detector's verdict for a single frame.
type MotionSignal struct {
	Present bool
	Region  *image.Rectangle
}

// Classification is the classifier output for one motion episode.
type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Event represents a persisted detection.
type Event struct {
	ID             int64     `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	DetectedObject string    `json:"detected_object"`
	ImagePath      string    `json:"image_path"`
}

// FormattedTimestamp returns the event time in TimestampLayout.
func (e Event) FormattedTimestamp() string {
	return e.Timestamp.Format(TimestampLayout)
}
