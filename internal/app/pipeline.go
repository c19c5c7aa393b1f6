package app

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/fretwise/internal/capture"
	"github.com/ayusman/fretwise/internal/detector"
	"github.com/ayusman/fretwise/internal/geometry"
)

// Start opens the camera and begins the capture pipeline in a new session.
// Calling Start on a running App is a no-op.
func (a *App) Start() error {
	if a.config.Camera == nil {
		return ErrNoCamera
	}

	a.mu.Lock()
	if a.stopCh != nil {
		a.mu.Unlock()
		return nil
	}
	if err := a.config.Camera.Open(); err != nil {
		a.mu.Unlock()
		return fmt.Errorf("open camera: %w", err)
	}
	session := uuid.NewString()
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	a.sessionID = session
	a.stopCh, a.doneCh = stopCh, doneCh
	a.mu.Unlock()

	// procMu is never taken while holding mu.
	a.procMu.Lock()
	a.tracker.Reset()
	a.procMu.Unlock()
	a.motion.Reset()

	go a.runPipeline(stopCh, doneCh)

	log.Printf("Pipeline started, session %s", session)
	return nil
}

// Stop halts the pipeline and closes the camera. Calling Stop on a stopped
// App is a no-op.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh

	if err := a.config.Camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	log.Println("Pipeline stopped")
}

// IsRunning reports whether the pipeline goroutine is active.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// runPipeline reads frames at the camera rate until stop is closed.
func (a *App) runPipeline(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	fps := a.config.Camera.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var hands []detector.HandLandmarks
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			hands = a.step(hands)
		}
	}
}

// step processes one camera frame. Hand detection only runs when the motion
// gate lets the frame through; otherwise the previous hands are reused. It
// returns the hands used for this frame.
func (a *App) step(prev []detector.HandLandmarks) []detector.HandLandmarks {
	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		if !errors.Is(err, capture.ErrFrameUnavailable) {
			log.Printf("Error reading frame: %v", err)
		}
		a.SkipFrame()
		return prev
	}
	defer frame.Close()

	// Markers are found on the raw frame; the detector mirrors their corners.
	var markers map[int][4]geometry.Point
	if a.config.Markers != nil {
		markers, err = a.config.Markers.DetectMarkers(frame)
		if err != nil {
			log.Printf("Error detecting markers: %v", err)
			markers = nil
		}
	}

	var display gocv.Mat
	if a.config.Mirror {
		display = capture.Mirror(frame)
	} else {
		display = frame.Clone()
	}
	defer display.Close()

	hands := prev
	if a.config.Hands != nil {
		if pass, _ := a.motion.Pass(&display); pass {
			detected, err := a.config.Hands.Detect(&display)
			if err != nil {
				log.Printf("Error detecting hands: %v", err)
			} else {
				hands = detected
			}
		}
	}

	res := a.process(markers, hands, display.Cols(), display.Rows())

	drawOverlay(&display, res)
	var jpeg []byte
	if buf, err := gocv.IMEncode(gocv.JPEGFileExt, display); err == nil {
		jpeg = bytes.Clone(buf.GetBytes())
		buf.Close()
	}

	a.publish(res, jpeg)
	return hands
}
