package fretboard

import (
	"fmt"
	"math"

	"github.com/ayusman/fretwise/internal/geometry"
)

// DefaultNearestThreshold is the maximum pixel distance from a cell centre or
// string line accepted by axis-aligned resolution.
const DefaultNearestThreshold = 55.0

// Assignment is a resolved (string, fret) cell. The zero value is off-grid.
type Assignment struct {
	String int  `json:"string"` // 0 = low E
	Fret   int  `json:"fret"`   // 1..12
	OK     bool `json:"ok"`
}

// OffGrid is the assignment for a point that could not be placed on the grid.
var OffGrid = Assignment{}

// At returns an on-grid assignment.
func At(str, fret int) Assignment {
	return Assignment{String: str, Fret: fret, OK: true}
}

// Label returns a short human-readable form such as "A string fret 2".
func (a Assignment) Label() string {
	if !a.OK {
		return "off-grid"
	}
	if a.String < 0 || a.String >= NumStrings {
		return fmt.Sprintf("string %d fret %d", a.String, a.Fret)
	}
	return fmt.Sprintf("%s string fret %d", StringNames[a.String], a.Fret)
}

// Region is the area a Resolver maps points into. It is either a
// PerspectiveRegion or an AxisAlignedRegion.
type Region interface {
	region()
}

// PerspectiveRegion is a tracked quad and the grid projected from it.
type PerspectiveRegion struct {
	Quad Quad
	Grid Grid
}

func (PerspectiveRegion) region() {}

// AxisAlignedRegion is an unrotated rectangle with vertical fret lines and
// horizontal string lines. FretX holds the x of each fret cell's centre, not
// of the fret wire.
type AxisAlignedRegion struct {
	Left, Top, Right, Bottom float64
	FretX                    []float64 // fret 1 first
	StringY                  []float64 // string 0 first
}

// Contains reports whether p lies in the region's box, edges included.
func (r AxisAlignedRegion) Contains(p geometry.Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

func (AxisAlignedRegion) region() {}

// NewAxisAlignedRegion builds an AxisAlignedRegion from the bounding box of q,
// the centres between consecutive fret boundaries and the string midpoints.
func NewAxisAlignedRegion(q Quad, g Grid) AxisAlignedRegion {
	r := AxisAlignedRegion{
		Left:   math.Inf(1),
		Top:    math.Inf(1),
		Right:  math.Inf(-1),
		Bottom: math.Inf(-1),
	}
	// The board may be upside down, so take the box over every corner.
	for _, c := range []geometry.Point{q.TL, q.TR, q.BR, q.BL} {
		r.Left, r.Right = math.Min(r.Left, c.X), math.Max(r.Right, c.X)
		r.Top, r.Bottom = math.Min(r.Top, c.Y), math.Max(r.Bottom, c.Y)
	}
	bounds := g.Boundaries()
	r.FretX = make([]float64, len(g.Frets))
	for i := range g.Frets {
		r.FretX[i] = (bounds[i].Midpoint().X + bounds[i+1].Midpoint().X) / 2
	}
	r.StringY = make([]float64, len(g.Strings))
	for i, s := range g.Strings {
		r.StringY[i] = s.Midpoint().Y
	}
	return r
}

// RegionFor picks the region variant for a frame: axis-aligned when every quad
// edge is within tol pixels of horizontal or vertical and tol is positive,
// perspective otherwise.
func RegionFor(q Quad, g Grid, tol float64) Region {
	if tol > 0 && q.AxisAligned(tol) {
		return NewAxisAlignedRegion(q, g)
	}
	return PerspectiveRegion{Quad: q, Grid: g}
}

// ResolverConfig holds configuration for position resolution.
type ResolverConfig struct {
	// NearestThreshold is the axis-aligned rejection distance in pixels
	// (default: 55).
	NearestThreshold float64
}

// DefaultResolverConfig returns a ResolverConfig with sensible default values.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{NearestThreshold: DefaultNearestThreshold}
}

// Resolver maps pixel positions to (string, fret) assignments.
type Resolver struct {
	config ResolverConfig
}

// NewResolver creates a Resolver. A non-positive threshold takes the default.
func NewResolver(config ResolverConfig) *Resolver {
	if config.NearestThreshold <= 0 {
		config.NearestThreshold = DefaultNearestThreshold
	}
	return &Resolver{config: config}
}

// Resolve maps p into region. A nil region resolves to OffGrid.
func (r *Resolver) Resolve(p geometry.Point, region Region) Assignment {
	switch reg := region.(type) {
	case PerspectiveRegion:
		return r.resolvePerspective(p, reg.Quad, reg.Grid)
	case AxisAlignedRegion:
		return r.resolveNearest(p, reg)
	default:
		return OffGrid
	}
}

// ResolveQuad resolves p against a tracked quad and its grid.
func (r *Resolver) ResolveQuad(p geometry.Point, q Quad, g Grid) Assignment {
	return r.resolvePerspective(p, q, g)
}

// resolvePerspective parametrises p along both axes of the quad.
//
// The string axis is the average of p's clamped projections onto the nut and
// body edges. The fret axis is found by walking the fret boundaries (nut,
// fret 1, ..., fret 12) and keeping the last one p lies on or beyond.
func (r *Resolver) resolvePerspective(p geometry.Point, q Quad, g Grid) Assignment {
	if len(g.Strings) == 0 || len(g.Frets) == 0 {
		return OffGrid
	}
	if !geometry.PointInPolygon(p, q.Polygon()) {
		return OffGrid
	}

	tNear, ok := q.Nut().ProjectClamped(p)
	if !ok {
		return OffGrid
	}
	tFar, ok := q.Body().ProjectClamped(p)
	if !ok {
		return OffGrid
	}

	numStrings := len(g.Strings)
	tString := (tNear + tFar) / 2
	str := int(math.Floor(tString * float64(numStrings)))
	str = max(0, min(numStrings-1, str))

	// Direction from nut to body, used to orient each boundary.
	axis := q.Body().Midpoint().Sub(q.Nut().Midpoint())

	bounds := g.Boundaries()
	fret := 1
	for k := 1; k < len(bounds)-1; k++ {
		b := bounds[k]
		if b.Degenerate() {
			return OffGrid
		}
		side := b.Side(p)
		if b.Vector().Cross(axis) < 0 {
			side = -side
		}
		if side < -geometry.Epsilon*b.Length() {
			break
		}
		fret = k + 1
	}

	return At(str, fret)
}

// resolveNearest snaps p to the nearest fret cell centre and string line.
// Points outside the box are off-grid.
func (r *Resolver) resolveNearest(p geometry.Point, reg AxisAlignedRegion) Assignment {
	if !reg.Contains(p) {
		return OffGrid
	}
	fretIdx, fretDist := nearest(p.X, reg.FretX)
	if fretIdx < 0 || fretDist > r.config.NearestThreshold {
		return OffGrid
	}
	strIdx, strDist := nearest(p.Y, reg.StringY)
	if strIdx < 0 || strDist > r.config.NearestThreshold {
		return OffGrid
	}
	return At(strIdx, fretIdx+1)
}

// nearest returns the index of the value closest to v and its distance.
// It returns -1 for an empty slice.
func nearest(v float64, values []float64) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	for i, x := range values {
		if d := math.Abs(v - x); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, bestDist
}
