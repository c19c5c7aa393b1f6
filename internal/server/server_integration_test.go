package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/fretwise/internal/app"
)

// fakeSource serves a fixed JPEG payload with a settable sequence.
type fakeSource struct {
	mu   sync.Mutex
	jpeg []byte
	seq  uint64
}

func (f *fakeSource) set(jpeg []byte, seq uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jpeg, f.seq = jpeg, seq
}

func (f *fakeSource) LatestJPEG() ([]byte, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jpeg, f.seq
}

func TestAPI_PracticeWorkflow(t *testing.T) {
	a, err := app.New(app.Config{})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	ts := httptest.NewServer(New(Config{App: a}))
	defer ts.Close()

	client := ts.Client()

	// 1. Pick a chord from the library
	resp, err := client.Get(ts.URL + "/api/chords/D")
	if err != nil {
		t.Fatalf("GET /api/chords/D error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	// 2. Make it the practice target
	body := bytes.NewBufferString(`{"mode": "practice", "target": "D"}`)
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/target", body)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/target error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	// 3. Read it back
	resp, _ = client.Get(ts.URL + "/api/target")
	var state struct {
		Mode   string `json:"mode"`
		Target struct {
			Key string `json:"key"`
		} `json:"target"`
	}
	json.NewDecoder(resp.Body).Decode(&state)
	resp.Body.Close()

	if state.Mode != "practice" || state.Target.Key != "D" {
		t.Errorf("state = %+v, want practice/D", state)
	}
}

func TestFramesHandler_Broadcast(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping websocket integration test")
	}

	a, err := app.New(app.Config{})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	ts := httptest.NewServer(New(Config{App: a}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/frames"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	// The subscription is registered asynchronously after the upgrade, so keep
	// publishing until a result arrives.
	received := make(chan app.FrameResult, 1)
	go func() {
		var res app.FrameResult
		if err := conn.ReadJSON(&res); err == nil {
			received <- res
		}
	}()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case res := <-received:
			if res.SessionID != a.SessionID() {
				t.Errorf("SessionID = %q, want %q", res.SessionID, a.SessionID())
			}
			if !res.TrackingLost {
				t.Error("expected tracking lost with no markers")
			}
			return
		case <-ticker.C:
			a.ProcessFrame(nil, nil, 640, 480)
		case <-timeout:
			t.Fatal("timed out waiting for a frame result")
		}
	}
}

func TestStreamHandler_MJPEG(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping streaming integration test")
	}

	source := &fakeSource{}
	source.set([]byte{0xff, 0xd8, 0xff, 0xd9}, 1)

	ts := httptest.NewServer(NewStreamHandler(source))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %q, want multipart/x-mixed-replace", ct)
	}

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read boundary: %v", err)
	}
	if line != "--frame\r\n" {
		t.Errorf("boundary line = %q, want --frame", line)
	}

	var length string
	for {
		line, err = r.ReadString('\n')
		if err != nil {
			t.Fatalf("read header: %v", err)
		}
		if line == "\r\n" {
			break
		}
		if strings.HasPrefix(line, "Content-Length:") {
			length = strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:"))
		}
	}
	if length != "4" {
		t.Errorf("Content-Length = %q, want 4", length)
	}

	payload := make([]byte, 4)
	if _, err := io.ReadFull(r, payload); err != nil {
		t.Fatalf("read payload: %v", err)
	}
	if !bytes.Equal(payload, []byte{0xff, 0xd8, 0xff, 0xd9}) {
		t.Errorf("payload = %x", payload)
	}
}
