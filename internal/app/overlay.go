package app

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/fretwise/internal/geometry"
)

var (
	colorFret     = color.RGBA{R: 200, G: 200, B: 200}
	colorNut      = color.RGBA{R: 255, G: 255, B: 255}
	colorString   = color.RGBA{R: 0, G: 200, B: 255}
	colorPressed  = color.RGBA{R: 0, G: 255, B: 0}
	colorHovering = color.RGBA{R: 255, G: 0, B: 0}
	colorTarget   = color.RGBA{R: 255, G: 255, B: 0}
	colorText     = color.RGBA{R: 255, G: 255, B: 255}
)

func toImagePoint(p geometry.Point) image.Point {
	return image.Pt(int(p.X+0.5), int(p.Y+0.5))
}

func drawSegment(img *gocv.Mat, s geometry.Segment, c color.RGBA, thickness int) {
	gocv.Line(img, toImagePoint(s.A), toImagePoint(s.B), c, thickness)
}

// drawOverlay paints the grid, fingertips and status text for the stream.
func drawOverlay(img *gocv.Mat, res FrameResult) {
	if img == nil || img.Empty() {
		return
	}

	if res.Grid != nil {
		drawSegment(img, res.Grid.Nut, colorNut, 3)
		for _, f := range res.Grid.Frets {
			drawSegment(img, f, colorFret, 1)
		}
		for _, s := range res.Grid.Strings {
			drawSegment(img, s, colorString, 1)
		}
	}

	if res.Practice != nil {
		for _, d := range res.Practice.Details {
			c := colorTarget
			if d.Matched {
				c = colorPressed
			}
			gocv.Circle(img, toImagePoint(d.Expected), 10, c, 2)
		}
	}

	for _, f := range res.Fingers {
		c := colorHovering
		if f.Pressing {
			c = colorPressed
		}
		gocv.Circle(img, toImagePoint(f.Point), 6, c, -1)
	}

	gocv.PutText(img, res.Status(), image.Pt(10, 24), gocv.FontHersheySimplex, 0.7, colorText, 2)
}

// Status is a one-line summary of the result: the matched chord, the practice
// score or the tracking state.
func (r FrameResult) Status() string {
	if r.TrackingLost {
		return "Tracking lost"
	}
	switch r.Mode {
	case ModePractice:
		if r.Practice == nil {
			return "Practice: no target"
		}
		return fmt.Sprintf("%s: %s", r.Practice.Chord, r.Practice.Summary())
	default:
		if r.Chord == nil {
			return "No chord"
		}
		return r.Chord.Name
	}
}
