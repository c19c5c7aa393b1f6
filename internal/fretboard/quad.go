// Package fretboard turns tracked marker corners into a fret/string grid and
// resolves pixel positions into logical (string, fret) cells.
package fretboard

import (
	"errors"
	"fmt"

	"github.com/ayusman/fretwise/internal/geometry"
)

var (
	// ErrTrackingLost is returned when fewer than four corner roles resolve.
	ErrTrackingLost = errors.New("tracking lost")
	// ErrDegenerateGeometry is returned for zero-length edges, coincident corners
	// or a collapsed quadrilateral. Callers treat it like ErrTrackingLost.
	ErrDegenerateGeometry = errors.New("degenerate fretboard geometry")
)

// Role identifies which fretboard corner a marker is glued to.
// The numeric value is the marker id printed on the fiducial.
type Role int

const (
	TopLeft Role = iota
	TopRight
	BottomRight
	BottomLeft
	NumRoles
)

// Roles lists every role in marker id order.
var Roles = [NumRoles]Role{TopLeft, TopRight, BottomRight, BottomLeft}

func (r Role) String() string {
	switch r {
	case TopLeft:
		return "TL"
	case TopRight:
		return "TR"
	case BottomRight:
		return "BR"
	case BottomLeft:
		return "BL"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Valid reports whether r is one of the four corner roles.
func (r Role) Valid() bool {
	return r >= TopLeft && r < NumRoles
}

// innerCorner is the index of the marker corner that touches the fretboard,
// for each role. Detected marker corners run clockwise from the marker's own
// top-left.
var innerCorner = [NumRoles]int{
	TopLeft:     1,
	TopRight:    0,
	BottomRight: 3,
	BottomLeft:  2,
}

// MarkerObservation is one marker corner seen in one frame.
type MarkerObservation struct {
	Role  Role           `json:"role"`
	Point geometry.Point `json:"point"`
}

// RolesFromMarkers converts raw marker detections (id -> four corners) into
// per-role observations. Ids outside 0..3 are ignored.
func RolesFromMarkers(markers map[int][4]geometry.Point) []MarkerObservation {
	obs := make([]MarkerObservation, 0, NumRoles)
	for _, role := range Roles {
		corners, ok := markers[int(role)]
		if !ok {
			continue
		}
		obs = append(obs, MarkerObservation{Role: role, Point: corners[innerCorner[role]]})
	}
	return obs
}

// Quad is the fretboard face for one frame. The nut runs along the left edge
// (TL-BL) and the 12th fret along the right edge (TR-BR).
type Quad struct {
	TL geometry.Point `json:"tl"`
	TR geometry.Point `json:"tr"`
	BR geometry.Point `json:"br"`
	BL geometry.Point `json:"bl"`
}

// Corner returns the corner for a role.
func (q Quad) Corner(r Role) geometry.Point {
	switch r {
	case TopRight:
		return q.TR
	case BottomRight:
		return q.BR
	case BottomLeft:
		return q.BL
	default:
		return q.TL
	}
}

// Polygon returns the corners in TL, TR, BR, BL order.
func (q Quad) Polygon() []geometry.Point {
	return []geometry.Point{q.TL, q.TR, q.BR, q.BL}
}

// Top is the long edge running from the nut to the body along the top.
func (q Quad) Top() geometry.Segment { return geometry.Segment{A: q.TL, B: q.TR} }

// Bottom is the long edge running from the nut to the body along the bottom.
func (q Quad) Bottom() geometry.Segment { return geometry.Segment{A: q.BL, B: q.BR} }

// Nut is the short edge at the headstock end, top to bottom.
func (q Quad) Nut() geometry.Segment { return geometry.Segment{A: q.TL, B: q.BL} }

// Body is the short edge at the body end, top to bottom.
func (q Quad) Body() geometry.Segment { return geometry.Segment{A: q.TR, B: q.BR} }

// Validate returns ErrDegenerateGeometry when any edge has zero length or the
// four corners enclose no area.
func (q Quad) Validate() error {
	for _, edge := range []geometry.Segment{q.Top(), q.Body(), q.Bottom(), q.Nut()} {
		if edge.Degenerate() {
			return fmt.Errorf("edge %v-%v: %w", edge.A, edge.B, ErrDegenerateGeometry)
		}
	}
	if d := q.TL.Distance(q.BR); d < geometry.Epsilon {
		return fmt.Errorf("diagonal TL-BR: %w", ErrDegenerateGeometry)
	}
	if d := q.TR.Distance(q.BL); d < geometry.Epsilon {
		return fmt.Errorf("diagonal TR-BL: %w", ErrDegenerateGeometry)
	}
	if area := geometry.SignedArea(q.Polygon()); area > -geometry.Epsilon && area < geometry.Epsilon {
		return fmt.Errorf("zero area: %w", ErrDegenerateGeometry)
	}
	return nil
}

// AxisAligned reports whether every edge is within tol pixels of horizontal
// or vertical.
func (q Quad) AxisAligned(tol float64) bool {
	abs := func(v float64) float64 {
		if v < 0 {
			return -v
		}
		return v
	}
	return abs(q.TL.Y-q.TR.Y) <= tol && abs(q.BL.Y-q.BR.Y) <= tol &&
		abs(q.TL.X-q.BL.X) <= tol && abs(q.TR.X-q.BR.X) <= tol
}
