package app

import (
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/fretwise/internal/capture"
	"github.com/ayusman/fretwise/internal/detector"
	"github.com/ayusman/fretwise/internal/geometry"
)

func TestApp_Pipeline_FreePlay(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frame := gocv.NewMatWithSize(frameHeight, frameWidth, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.SetFPS(30)

	markers := detector.NewMockMarkerDetector()
	markers.SetMarkers(testMarkers())

	g := testGrid(t)
	hands := detector.NewMockHandDetector()
	hands.SetHands([]detector.HandLandmarks{
		eMajorHand(t, func(s, f int) geometry.Point { return cellCentre(t, g, s, f) }),
	})

	a := newTestApp(t, Config{Camera: cam, Markers: markers, Hands: hands})
	defer a.Close()

	results, unsubscribe := a.Subscribe()
	defer unsubscribe()

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !a.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}

	timeout := time.After(3 * time.Second)
	for {
		select {
		case res := <-results:
			if res.TrackingLost || res.Chord == nil {
				continue
			}
			if res.Chord.Key != "E" {
				t.Fatalf("Chord = %s, want E", res.Chord.Key)
			}
			if res.SessionID != a.SessionID() {
				t.Errorf("SessionID = %q, want %q", res.SessionID, a.SessionID())
			}
			jpeg, _ := a.LatestJPEG()
			if len(jpeg) == 0 {
				t.Error("expected an encoded display frame")
			}
			a.Stop()
			if a.IsRunning() {
				t.Error("IsRunning() = true after Stop")
			}
			if cam.IsOpen() {
				t.Error("camera left open after Stop")
			}
			return
		case <-timeout:
			t.Fatal("timed out waiting for E Major")
		}
	}
}

func TestApp_Pipeline_SkipsUnavailableFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frame := gocv.NewMatWithSize(frameHeight, frameWidth, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.SetFPS(60)
	cam.SetError(capture.ErrFrameUnavailable)

	hands := detector.NewMockHandDetector()
	a := newTestApp(t, Config{Camera: cam, Markers: detector.NewMockMarkerDetector(), Hands: hands})
	defer a.Close()

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for cam.Reads() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	a.Stop()

	if cam.Reads() < 3 {
		t.Fatalf("Reads() = %d, want at least 3", cam.Reads())
	}
	if hands.Calls() != 0 {
		t.Errorf("hand detector called %d times on unavailable frames", hands.Calls())
	}
	if seq := a.Latest().Sequence; seq != 0 {
		t.Errorf("Latest().Sequence = %d, want 0 with no frames processed", seq)
	}
}
