// Package scene builds synthetic capture fixtures: a tracked fretboard and a
// hand fretting a chord on it.
package scene

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/fretwise/internal/chord"
	"github.com/ayusman/fretwise/internal/detector"
	"github.com/ayusman/fretwise/internal/fretboard"
	"github.com/ayusman/fretwise/internal/geometry"
)

// Frame size of every scene.
const (
	Width  = 640
	Height = 480
)

// MarkerSize is the side of each synthetic marker in pixels.
const MarkerSize = 20

// Scene is one frame worth of detector output.
type Scene struct {
	Quad    fretboard.Quad
	Markers map[int][4]geometry.Point
	Hands   []detector.HandLandmarks
}

// Fretboard returns the upright fretboard used by the fixtures.
func Fretboard() fretboard.Quad {
	return fretboard.Quad{
		TL: geometry.Pt(100, 100),
		TR: geometry.Pt(500, 100),
		BR: geometry.Pt(500, 300),
		BL: geometry.Pt(100, 300),
	}
}

// Empty returns a scene with the fretboard in view and no hands.
func Empty(q fretboard.Quad) Scene {
	return Scene{
		Quad:    q,
		Markers: detector.MarkersForQuad(q.TL, q.TR, q.BR, q.BL, MarkerSize),
	}
}

// CellCentre returns the middle of the cell for (str, fret) on g, measured
// along the string.
func CellCentre(g fretboard.Grid, str, fret int) (geometry.Point, error) {
	cell, err := g.Cell(str, fret)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("cell centre: %w", err)
	}
	return cell.Midpoint(), nil
}

// Chord returns a scene of def being fretted on q: each fretted note gets the
// chord's finger pressing at the centre of its cell. Notes without a finger
// use the first free digit.
func Chord(def chord.Definition, q fretboard.Quad) (Scene, error) {
	s := Empty(q)

	g, err := fretboard.NewProjector(fretboard.DefaultProjectorConfig()).Project(q)
	if err != nil {
		return Scene{}, err
	}

	tips := make(map[detector.Digit]geometry.Point)
	pressing := make(map[detector.Digit]bool)
	for _, r := range def.Requirements() {
		d, ok := digitFor(r.Finger, pressing)
		if !ok {
			return Scene{}, fmt.Errorf("%s needs more than four fingers", def.Key)
		}
		p, err := CellCentre(g, r.String, r.Fret)
		if err != nil {
			return Scene{}, err
		}
		tips[d] = p
		pressing[d] = true
	}

	s.Hands = []detector.HandLandmarks{detector.FrettingHand(tips, pressing, Width, Height)}
	return s, nil
}

func digitFor(finger int, used map[detector.Digit]bool) (detector.Digit, bool) {
	if finger >= int(detector.Index) && finger <= int(detector.Pinky) && !used[detector.Digit(finger)] {
		return detector.Digit(finger), true
	}
	for _, d := range detector.Digits {
		if !used[d] {
			return d, true
		}
	}
	return 0, false
}

// Frames returns n blank frames for camera playback. The caller closes them.
func Frames(n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		m := gocv.NewMatWithSize(Height, Width, gocv.MatTypeCV8UC3)
		frames = append(frames, &m)
	}
	return frames
}

// Close releases frames returned by Frames.
func Close(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
