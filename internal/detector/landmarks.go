// Package detector wraps the hand-pose and marker models and converts their
// output into fretboard pixel coordinates.
package detector

import "github.com/ayusman/fretwise/internal/geometry"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// DefaultPressMargin is the depth lead a fingertip needs over its knuckle to
// count as pressing a string.
const DefaultPressMargin = 0.02

// Point3D is a landmark in normalized image coordinates. X and Y are in
// [0, 1]; Z is relative depth, smaller is closer to the camera.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Digit names a fretting finger. The thumb never frets.
type Digit int

const (
	Index Digit = iota + 1
	Middle
	Ring
	Pinky
)

// Digits lists the fretting fingers in order.
var Digits = []Digit{Index, Middle, Ring, Pinky}

func (d Digit) String() string {
	switch d {
	case Index:
		return "index"
	case Middle:
		return "middle"
	case Ring:
		return "ring"
	case Pinky:
		return "pinky"
	default:
		return "unknown"
	}
}

// tip and knuckle landmark indices per digit.
var digitLandmarks = map[Digit][2]int{
	Index:  {IndexTip, IndexMCP},
	Middle: {MiddleTip, MiddleMCP},
	Ring:   {RingTip, RingMCP},
	Pinky:  {PinkyTip, PinkyMCP},
}

// Fingertip is one fretting fingertip in display pixels.
type Fingertip struct {
	Hand     string         `json:"hand"`
	Digit    Digit          `json:"digit"`
	Point    geometry.Point `json:"point"`
	Depth    float64        `json:"depth"`
	Pressing bool           `json:"pressing"`
}

// Fingertips converts a hand into its four fretting fingertips scaled to a
// width x height frame. A fingertip is pressing when its depth is more than
// pressMargin in front of its knuckle.
func Fingertips(hand HandLandmarks, width, height int, pressMargin float64) []Fingertip {
	tips := make([]Fingertip, 0, len(Digits))
	for _, d := range Digits {
		idx := digitLandmarks[d]
		tip, mcp := hand.Points[idx[0]], hand.Points[idx[1]]
		tips = append(tips, Fingertip{
			Hand:     hand.Handedness,
			Digit:    d,
			Point:    geometry.Pt(tip.X*float64(width), tip.Y*float64(height)),
			Depth:    tip.Z,
			Pressing: tip.Z < mcp.Z-pressMargin,
		})
	}
	return tips
}

// Pressing filters tips down to those pressing a string.
func Pressing(tips []Fingertip) []Fingertip {
	var out []Fingertip
	for _, t := range tips {
		if t.Pressing {
			out = append(out, t)
		}
	}
	return out
}
