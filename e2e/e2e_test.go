package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/fretwise/internal/app"
	"github.com/ayusman/fretwise/internal/capture"
	"github.com/ayusman/fretwise/internal/chord"
	"github.com/ayusman/fretwise/internal/detector"
	"github.com/ayusman/fretwise/internal/scene"
	"github.com/ayusman/fretwise/internal/server"
)

func TestE2E_FreePlayRecognisesEveryChord(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	lib := chord.DefaultLibrary()
	application, err := app.New(app.Config{Library: lib})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	for _, def := range lib.Definitions() {
		t.Run(def.Key, func(t *testing.T) {
			s, err := scene.Chord(def, scene.Fretboard())
			if err != nil {
				t.Fatalf("scene.Chord() error = %v", err)
			}

			res := application.ProcessFrame(s.Markers, s.Hands, scene.Width, scene.Height)
			if res.TrackingLost {
				t.Fatal("tracking lost")
			}
			if res.Chord == nil {
				t.Fatalf("no chord matched, assignments %+v", res.Assignments())
			}
			if res.Chord.Key != def.Key {
				t.Errorf("matched %s, want %s", res.Chord.Key, def.Key)
			}
		})
	}
}

func TestE2E_PracticeScoresEveryChord(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	lib := chord.DefaultLibrary()
	application, err := app.New(app.Config{Library: lib, Mode: app.ModePractice})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	for _, def := range lib.Definitions() {
		t.Run(def.Key, func(t *testing.T) {
			if err := application.SetTarget(def.Key); err != nil {
				t.Fatalf("SetTarget() error = %v", err)
			}
			s, err := scene.Chord(def, scene.Fretboard())
			if err != nil {
				t.Fatalf("scene.Chord() error = %v", err)
			}

			res := application.ProcessFrame(s.Markers, s.Hands, scene.Width, scene.Height)
			if res.Practice == nil {
				t.Fatal("expected a practice result")
			}
			if res.Practice.Percent != 100 {
				t.Errorf("Percent = %d, want 100: %+v", res.Practice.Percent, res.Practice.Details)
			}
		})
	}
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	frames := scene.Frames(1)
	defer scene.Close(frames)
	cam := capture.NewMockCamera(frames, true)
	cam.SetFPS(30)

	am, err := chord.DefaultLibrary().Lookup("Am")
	if err != nil {
		t.Fatal(err)
	}
	s, err := scene.Chord(am, scene.Fretboard())
	if err != nil {
		t.Fatal(err)
	}

	markers := detector.NewMockMarkerDetector()
	markers.SetMarkers(s.Markers)
	hands := detector.NewMockHandDetector()
	hands.SetHands(s.Hands)

	application, err := app.New(app.Config{Camera: cam, Markers: markers, Hands: hands})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	defer application.Close()

	ts := httptest.NewServer(server.New(server.Config{App: application}))
	defer ts.Close()
	client := ts.Client()

	t.Run("SelectTarget", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/target",
			strings.NewReader(`{"mode": "practice", "target": "Am"}`))
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("PUT /api/target error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	t.Run("StartPipeline", func(t *testing.T) {
		if err := application.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	})

	t.Run("ScoreTarget", func(t *testing.T) {
		deadline := time.Now().Add(3 * time.Second)
		for time.Now().Before(deadline) {
			resp, err := client.Get(ts.URL + "/api/frame")
			if err != nil {
				t.Fatalf("GET /api/frame error = %v", err)
			}
			var res app.FrameResult
			err = json.NewDecoder(resp.Body).Decode(&res)
			resp.Body.Close()
			if err != nil {
				t.Fatalf("decode frame: %v", err)
			}

			if res.Practice != nil {
				if res.Practice.Chord != "Am" {
					t.Errorf("scored %s, want Am", res.Practice.Chord)
				}
				if res.Practice.Percent != 100 {
					t.Errorf("Percent = %d, want 100", res.Practice.Percent)
				}
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
		t.Fatal("timed out waiting for a practice score")
	})

	t.Run("Health", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("GET /api/health error = %v", err)
		}
		defer resp.Body.Close()

		var health map[string]any
		json.NewDecoder(resp.Body).Decode(&health)
		if health["running"] != true {
			t.Errorf("running = %v, want true", health["running"])
		}
	})

	t.Run("Stop", func(t *testing.T) {
		application.Stop()
		if application.IsRunning() {
			t.Error("pipeline still running after Stop")
		}
	})
}

