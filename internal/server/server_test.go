package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/fretwise/internal/app"
)

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("reports ok and uptime", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response["status"] != "ok" {
			t.Errorf("status = %v, want ok", response["status"])
		}
		if _, exists := response["uptime"]; !exists {
			t.Error("missing uptime")
		}
		if _, exists := response["session"]; exists {
			t.Error("session reported without an app")
		}
	})

	t.Run("rejects writes", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s: status = %d, want %d", method, rec.Code, http.StatusMethodNotAllowed)
			}
		}
	})
}

func TestServer_WithoutApp(t *testing.T) {
	s := New(Config{})

	// Chord and frame routes need an app; only health is mounted.
	for _, path := range []string{"/api/chords", "/api/target", "/api/frame", "/api/nonexistent", "/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s: status = %d, want %d", path, rec.Code, http.StatusNotFound)
		}
	}
}

func TestServer_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"index.html": "<html><body>fretwise</body></html>",
		"app.js":     "const ws = new WebSocket('/api/frames');",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	s := New(Config{StaticDir: dir})

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/", http.StatusOK, files["index.html"]},
		{"/app.js", http.StatusOK, files["app.js"]},
		{"/missing.css", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestNew(t *testing.T) {
	cfg := Config{StaticDir: "/srv/fretwise/web"}
	s := New(cfg)

	if s.config.StaticDir != cfg.StaticDir {
		t.Errorf("StaticDir = %s, want %s", s.config.StaticDir, cfg.StaticDir)
	}
	var _ http.Handler = s
}

func newTestServer(t *testing.T) (*Server, *app.App) {
	t.Helper()
	a, err := app.New(app.Config{})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	return New(Config{App: a}), a
}

func TestServer_HealthWithApp(t *testing.T) {
	s, a := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["session"] != a.SessionID() {
		t.Errorf("session = %v, want %s", response["session"], a.SessionID())
	}
	if response["running"] != false {
		t.Errorf("running = %v, want false", response["running"])
	}
}

func TestServer_Routes(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/chords", http.StatusOK},
		{http.MethodGet, "/api/chords/G", http.StatusOK},
		{http.MethodGet, "/api/chords/Gsus", http.StatusNotFound},
		{http.MethodGet, "/api/target", http.StatusOK},
		{http.MethodGet, "/api/frame", http.StatusOK},
		{http.MethodPost, "/api/frame", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/stream", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestServer_Frame(t *testing.T) {
	s, a := newTestServer(t)

	a.ProcessFrame(nil, nil, 640, 480)

	req := httptest.NewRequest(http.MethodGet, "/api/frame", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	var response struct {
		SessionID    string `json:"session_id"`
		Sequence     uint64 `json:"sequence"`
		TrackingLost bool   `json:"tracking_lost"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Sequence != 1 {
		t.Errorf("sequence = %d, want 1", response.Sequence)
	}
	if !response.TrackingLost {
		t.Error("expected tracking_lost with no markers")
	}
	if response.SessionID != a.SessionID() {
		t.Errorf("session_id = %q, want %q", response.SessionID, a.SessionID())
	}
}
