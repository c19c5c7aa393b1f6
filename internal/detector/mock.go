package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/fretwise/internal/geometry"
)

// MockHandDetector is a test implementation of the HandDetector interface.
// It allows tests to control the detection results.
type MockHandDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockHandDetector creates a new MockHandDetector instance.
func NewMockHandDetector() *MockHandDetector {
	return &MockHandDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockHandDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockHandDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockHandDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockHandDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockHandDetector) Close() error {
	return nil
}

// MockMarkerDetector is a test implementation of the MarkerDetector interface.
type MockMarkerDetector struct {
	mu      sync.Mutex
	markers map[int][4]geometry.Point
	err     error
}

// NewMockMarkerDetector creates a new MockMarkerDetector instance.
func NewMockMarkerDetector() *MockMarkerDetector {
	return &MockMarkerDetector{}
}

// SetMarkers sets the markers that will be returned by DetectMarkers.
func (m *MockMarkerDetector) SetMarkers(markers map[int][4]geometry.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers = markers
}

// SetError sets the error that will be returned by DetectMarkers.
func (m *MockMarkerDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// DetectMarkers returns the pre-configured markers or error.
func (m *MockMarkerDetector) DetectMarkers(frame *gocv.Mat) (map[int][4]geometry.Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.markers, nil
}

// Close is a no-op for the mock detector.
func (m *MockMarkerDetector) Close() error {
	return nil
}

// MarkersForQuad returns marker detections whose inner corners land exactly
// on the given fretboard corners (tl, tr, br, bl). Each marker is a size x size
// square sitting outside the fretboard.
func MarkersForQuad(tl, tr, br, bl geometry.Point, size float64) map[int][4]geometry.Point {
	square := func(origin geometry.Point) [4]geometry.Point {
		return [4]geometry.Point{
			origin,
			origin.Add(geometry.Pt(size, 0)),
			origin.Add(geometry.Pt(size, size)),
			origin.Add(geometry.Pt(0, size)),
		}
	}
	return map[int][4]geometry.Point{
		0: square(tl.Sub(geometry.Pt(size, 0))),    // corner 1 is tl
		1: square(tr),                              // corner 0 is tr
		2: square(br.Sub(geometry.Pt(0, size))),    // corner 3 is br
		3: square(bl.Sub(geometry.Pt(size, size))), // corner 2 is bl
	}
}

// FrettingHand returns a right hand whose fingertips sit at the given pixel
// positions in a width x height frame. Digits listed in pressing are curled
// towards the fretboard; the rest are extended.
func FrettingHand(tips map[Digit]geometry.Point, pressing map[Digit]bool, width, height int) HandLandmarks {
	hand := HandLandmarks{Handedness: "Right", Score: 0.95}

	w, h := float64(width), float64(height)
	hand.Points[Wrist] = Point3D{X: 0.5, Y: 0.95, Z: 0}

	for _, d := range Digits {
		idx := digitLandmarks[d]
		p, ok := tips[d]
		if !ok {
			// Off to the side and extended.
			p = geometry.Pt(w*0.9, h*0.9)
		}

		tipZ := 0.0
		if pressing[d] {
			tipZ = -0.1
		}
		hand.Points[idx[0]] = Point3D{X: p.X / w, Y: p.Y / h, Z: tipZ}
		hand.Points[idx[1]] = Point3D{X: p.X / w, Y: p.Y/h + 0.1, Z: 0}
	}

	return hand
}
