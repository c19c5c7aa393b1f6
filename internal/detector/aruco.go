package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/fretwise/internal/geometry"
)

// ArucoDetector implements MarkerDetector with OpenCV's ArUco module using the
// 4x4_1000 dictionary.
type ArucoDetector struct {
	detector gocv.ArucoDetector
	mirror   bool
	mu       sync.Mutex
}

// NewArucoDetector creates a marker detector. With config.Mirror set, corners
// are flipped horizontally so they line up with a mirrored display frame.
func NewArucoDetector(config Config) *ArucoDetector {
	dict := gocv.GetPredefinedDictionary(gocv.ArucoDict4x4_1000)
	params := gocv.NewArucoDetectorParameters()
	return &ArucoDetector{
		detector: gocv.NewArucoDetectorWithParams(dict, params),
		mirror:   config.Mirror,
	}
}

// DetectMarkers runs detection on the unmirrored frame.
func (a *ArucoDetector) DetectMarkers(frame *gocv.Mat) (map[int][4]geometry.Point, error) {
	if frame == nil || frame.Empty() {
		return map[int][4]geometry.Point{}, nil
	}

	a.mu.Lock()
	corners, ids, _ := a.detector.DetectMarkers(*frame)
	a.mu.Unlock()

	raw := make(map[int][]gocv.Point2f, len(ids))
	for i, id := range ids {
		if i < len(corners) {
			raw[id] = corners[i]
		}
	}

	width := 0
	if a.mirror {
		width = frame.Cols()
	}
	return markerCorners(raw, width), nil
}

// Close releases the OpenCV detector.
func (a *ArucoDetector) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.detector.Close()
}

// markerCorners keeps markers 0..3 with exactly four corners. A positive
// mirrorWidth maps x to mirrorWidth - x.
func markerCorners(raw map[int][]gocv.Point2f, mirrorWidth int) map[int][4]geometry.Point {
	out := make(map[int][4]geometry.Point, len(raw))
	for id, pts := range raw {
		if id < 0 || id > 3 || len(pts) != 4 {
			continue
		}
		var c [4]geometry.Point
		for i, p := range pts {
			x := float64(p.X)
			if mirrorWidth > 0 {
				x = float64(mirrorWidth) - x
			}
			c[i] = geometry.Pt(x, float64(p.Y))
		}
		out[id] = c
	}
	return out
}
