// Package app ties the fretboard engine to the camera and detectors: one
// tracking session, one frame at a time.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/fretwise/internal/capture"
	"github.com/ayusman/fretwise/internal/chord"
	"github.com/ayusman/fretwise/internal/detector"
	"github.com/ayusman/fretwise/internal/fretboard"
	"github.com/ayusman/fretwise/internal/geometry"
)

// Mode selects what the pipeline does with resolved fingertips.
type Mode string

const (
	// ModeFree identifies whichever library chord is being played.
	ModeFree Mode = "free"
	// ModePractice scores the fingertips against a target chord.
	ModePractice Mode = "practice"
)

var (
	// ErrUnknownMode is returned by SetMode for anything but ModeFree or ModePractice.
	ErrUnknownMode = errors.New("unknown mode")
	// ErrNoCamera is returned by Start when the App was built without a camera.
	ErrNoCamera = errors.New("no camera configured")
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFree, ModePractice:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Config holds configuration options for the application.
type Config struct {
	Library *chord.Library
	Camera  capture.Camera
	Hands   detector.HandDetector
	Markers detector.MarkerDetector

	TrackerHistory int
	Projector      fretboard.ProjectorConfig
	Resolver       fretboard.ResolverConfig
	// AxisTolerance enables the axis-aligned resolver when positive.
	AxisTolerance float64
	// MaxDistance is a fixed practice radius in pixels; zero scales it from
	// the grid.
	MaxDistance float64
	PressMargin   float64
	// Mirror flips the display frame horizontally. Marker corners must be
	// mirrored to match by the marker detector.
	Mirror bool

	MotionThreshold float64
	MotionMaxSkip   int

	Mode   Mode
	Target string
}

// FingerResult is one fingertip and where it landed.
type FingerResult struct {
	detector.Fingertip
	Assignment fretboard.Assignment `json:"assignment"`
	Label      string               `json:"label"`
}

// FrameResult is everything one core pass produced.
type FrameResult struct {
	SessionID    string            `json:"session_id"`
	Sequence     uint64            `json:"sequence"`
	Timestamp    time.Time         `json:"timestamp"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	TrackingLost bool              `json:"tracking_lost"`
	LostReason   string            `json:"lost_reason,omitempty"`
	Quad         *fretboard.Quad   `json:"quad,omitempty"`
	Grid         *fretboard.Grid   `json:"grid,omitempty"`
	Fingers      []FingerResult    `json:"fingers"`
	Mode         Mode              `json:"mode"`
	Chord        *chord.Definition `json:"chord,omitempty"`
	Target       string            `json:"target,omitempty"`
	Practice     *chord.Result     `json:"practice,omitempty"`
}

// Assignments returns the on-grid assignments of the frame.
func (r FrameResult) Assignments() []fretboard.Assignment {
	var out []fretboard.Assignment
	for _, f := range r.Fingers {
		if f.Assignment.OK {
			out = append(out, f.Assignment)
		}
	}
	return out
}

// App is the fretboard tracking application.
type App struct {
	config    Config
	library   *chord.Library
	projector *fretboard.Projector
	resolver  *fretboard.Resolver
	matcher   *chord.Matcher
	motion    *capture.MotionGate

	// procMu serialises core passes; the tracker has a single writer.
	procMu   sync.Mutex
	tracker  *fretboard.QuadTracker
	sequence uint64

	mu        sync.RWMutex
	mode      Mode
	target    *chord.Definition
	sessionID string
	latest    FrameResult
	jpeg      []byte
	jpegSeq   uint64
	stopCh    chan struct{}
	doneCh    chan struct{}

	subMu  sync.Mutex
	subs   map[int]chan FrameResult
	nextID int
}

// New creates an App. A nil library falls back to chord.DefaultLibrary; an
// unknown initial target is an error.
func New(config Config) (*App, error) {
	lib := config.Library
	if lib == nil {
		lib = chord.DefaultLibrary()
	}
	if config.PressMargin <= 0 {
		config.PressMargin = detector.DefaultPressMargin
	}
	if config.Mode == "" {
		config.Mode = ModeFree
	}
	if _, err := ParseMode(string(config.Mode)); err != nil {
		return nil, err
	}

	a := &App{
		config:    config,
		library:   lib,
		projector: fretboard.NewProjector(config.Projector),
		resolver:  fretboard.NewResolver(config.Resolver),
		matcher:   chord.NewMatcher(lib),
		motion:    capture.NewMotionGate(config.MotionThreshold, config.MotionMaxSkip),
		tracker:   fretboard.NewQuadTracker(config.TrackerHistory),
		mode:      config.Mode,
		sessionID: uuid.NewString(),
		subs:      make(map[int]chan FrameResult),
	}

	if config.Target != "" {
		if err := a.SetTarget(config.Target); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Library returns the chord library.
func (a *App) Library() *chord.Library {
	return a.library
}

// SessionID identifies the current tracking session. It changes on Start and Reset.
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID
}

// Mode returns the current mode.
func (a *App) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

// SetMode switches between free play and practice.
func (a *App) SetMode(m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != m {
		log.Printf("Mode changed to %s", m)
	}
	a.mode = m
	return nil
}

// Target returns the practice target, if one is set.
func (a *App) Target() (chord.Definition, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.target == nil {
		return chord.Definition{}, false
	}
	return *a.target, true
}

// SetTarget selects the practice chord by key or display name. An empty key
// clears the target. Unknown keys return chord.ErrNotFound.
func (a *App) SetTarget(key string) error {
	if key == "" {
		a.mu.Lock()
		a.target = nil
		a.mu.Unlock()
		return nil
	}

	def, err := a.library.Lookup(key)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.target = &def
	a.mu.Unlock()
	log.Printf("Practice target set to %s", def.Name)
	return nil
}

// Reset forgets tracking history and starts a new session.
func (a *App) Reset() {
	a.procMu.Lock()
	a.tracker.Reset()
	a.procMu.Unlock()

	a.motion.Reset()

	a.mu.Lock()
	a.sessionID = uuid.NewString()
	a.mu.Unlock()
}

// ProcessFrame runs one pass of the engine: markers into the tracker, the
// tracked quad into a grid, pressing fingertips into cells, then chord
// matching or scoring depending on the mode. The result is published to
// subscribers.
func (a *App) ProcessFrame(markers map[int][4]geometry.Point, hands []detector.HandLandmarks, width, height int) FrameResult {
	res := a.process(markers, hands, width, height)
	a.publish(res, nil)
	return res
}

func (a *App) process(markers map[int][4]geometry.Point, hands []detector.HandLandmarks, width, height int) FrameResult {
	a.procMu.Lock()
	defer a.procMu.Unlock()

	a.tracker.ObserveFrame(fretboard.RolesFromMarkers(markers))
	return a.evaluate(hands, width, height)
}

// SkipFrame records a dropped frame: the tracker ages every corner.
func (a *App) SkipFrame() {
	a.procMu.Lock()
	defer a.procMu.Unlock()
	a.tracker.SkipFrame()
}

// evaluate builds the FrameResult from the tracker's current state.
// procMu must be held.
func (a *App) evaluate(hands []detector.HandLandmarks, width, height int) FrameResult {
	a.sequence++

	a.mu.RLock()
	mode, target, session := a.mode, a.target, a.sessionID
	a.mu.RUnlock()

	res := FrameResult{
		SessionID: session,
		Sequence:  a.sequence,
		Timestamp: time.Now(),
		Width:     width,
		Height:    height,
		Mode:      mode,
		Fingers:   []FingerResult{},
	}
	if target != nil {
		res.Target = target.Key
	}

	var region fretboard.Region
	var grid fretboard.Grid
	quad, err := a.tracker.Quad()
	if err == nil {
		grid, err = a.projector.Project(quad)
	}
	if err != nil {
		res.TrackingLost = true
		res.LostReason = err.Error()
	} else {
		region = fretboard.RegionFor(quad, grid, a.config.AxisTolerance)
		res.Quad = &quad
		res.Grid = &grid
	}

	var pressed []geometry.Point
	var assignments []fretboard.Assignment
	for _, hand := range hands {
		for _, tip := range detector.Fingertips(hand, width, height, a.config.PressMargin) {
			fr := FingerResult{Fingertip: tip, Assignment: fretboard.OffGrid}
			if tip.Pressing {
				pressed = append(pressed, tip.Point)
				if region != nil {
					fr.Assignment = a.resolver.Resolve(tip.Point, region)
				}
				assignments = append(assignments, fr.Assignment)
			}
			fr.Label = fr.Assignment.Label()
			res.Fingers = append(res.Fingers, fr)
		}
	}

	if res.TrackingLost {
		return res
	}

	switch mode {
	case ModeFree:
		if def, found := a.matcher.Match(assignments); found {
			res.Chord = &def
		}
	case ModePractice:
		if target != nil {
			score := chord.Score(*target, grid, pressed, a.config.MaxDistance)
			res.Practice = &score
		}
	}
	return res
}

// Latest returns the most recent published frame result.
func (a *App) Latest() FrameResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// LatestJPEG returns the most recent annotated display frame and the sequence
// number of the result it was drawn from. The slice must not be modified.
func (a *App) LatestJPEG() ([]byte, uint64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.jpeg, a.jpegSeq
}

// Subscribe registers for frame results. Slow subscribers miss frames rather
// than stall the pipeline. Call the returned function to unsubscribe.
func (a *App) Subscribe() (<-chan FrameResult, func()) {
	ch := make(chan FrameResult, 1)

	a.subMu.Lock()
	id := a.nextID
	a.nextID++
	a.subs[id] = ch
	a.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subs, id)
			a.subMu.Unlock()
			close(ch)
		})
	}
}

// publish stores res (and the encoded frame, if any) and fans it out. Results
// older than the latest one are dropped, so Latest and subscribers never see
// the sequence go backwards when frames are pushed from several goroutines.
func (a *App) publish(res FrameResult, jpeg []byte) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	a.mu.Lock()
	if jpeg != nil && res.Sequence > a.jpegSeq {
		a.jpeg = jpeg
		a.jpegSeq = res.Sequence
	}
	if res.Sequence <= a.latest.Sequence {
		a.mu.Unlock()
		return
	}
	a.latest = res
	a.mu.Unlock()

	for _, ch := range a.subs {
		select {
		case ch <- res:
		default:
			// Drop the stale result and deliver the fresh one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- res:
			default:
			}
		}
	}
}

// Close stops the pipeline and releases detectors.
func (a *App) Close() error {
	a.Stop()
	a.motion.Close()

	var errs []error
	if a.config.Hands != nil {
		errs = append(errs, a.config.Hands.Close())
	}
	if a.config.Markers != nil {
		errs = append(errs, a.config.Markers.Close())
	}
	return errors.Join(errs...)
}
