package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/fretwise/internal/geometry"
)

// HandDetector finds hands in a video frame.
type HandDetector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// MarkerDetector finds the four fretboard fiducials in a video frame.
type MarkerDetector interface {
	// DetectMarkers returns the four corners of every visible marker with an
	// id in 0..3, keyed by id. Corners run clockwise from the marker's own
	// top-left.
	DetectMarkers(frame *gocv.Mat) (map[int][4]geometry.Point, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand and marker detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// PressMargin is how far (in normalized depth) a fingertip must sit in
	// front of its knuckle to count as pressing (default: 0.02).
	PressMargin float64

	// Mirror flips marker corners horizontally to match a mirrored display.
	Mirror bool

	// ScriptPath overrides the hand service script location.
	ScriptPath string

	// IdleTimeout stops the hand service after this long without frames.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		PressMargin:     DefaultPressMargin,
		Mirror:          true,
		IdleTimeout:     30 * time.Second,
	}
}
