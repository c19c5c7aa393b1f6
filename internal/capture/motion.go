package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion detection constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
)

// MotionGate reports whether a frame differs enough from the last accepted
// frame to be worth running hand detection on. A held chord produces a still
// frame, so the previous hand result can be reused.
//
// The gate forces a pass every maxSkip frames so that a slow drift is never
// ignored for long.
type MotionGate struct {
	threshold float64
	maxSkip   int
	skipped   int
	baseline  gocv.Mat
	hasBase   bool
	mu        sync.Mutex
}

// NewMotionGate creates a gate. threshold is the percentage of pixels that
// must change; a threshold <= 0 lets every frame through.
func NewMotionGate(threshold float64, maxSkip int) *MotionGate {
	return &MotionGate{
		threshold: threshold,
		maxSkip:   maxSkip,
		baseline:  gocv.NewMat(),
	}
}

// Pass reports whether frame should be processed, and the percentage of
// pixels that changed since the last accepted frame.
func (m *MotionGate) Pass(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}
	if m.threshold <= 0 {
		return true, 100
	}

	blurred := blurGray(frame)
	defer blurred.Close()

	if !m.hasBase || blurred.Rows() != m.baseline.Rows() || blurred.Cols() != m.baseline.Cols() {
		blurred.CopyTo(&m.baseline)
		m.hasBase = true
		m.skipped = 0
		return true, 100
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.baseline, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0

	if changed > m.threshold || (m.maxSkip > 0 && m.skipped >= m.maxSkip) {
		blurred.CopyTo(&m.baseline)
		m.skipped = 0
		return true, changed
	}
	m.skipped++
	return false, changed
}

// Reset forgets the baseline so the next frame always passes.
func (m *MotionGate) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasBase = false
	m.skipped = 0
}

// Close releases resources used by the gate.
func (m *MotionGate) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseline.Close()
	m.baseline = gocv.NewMat()
	m.hasBase = false
}

// blurGray converts frame to a blurred grayscale image.
func blurGray(frame *gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)
	return blurred
}
