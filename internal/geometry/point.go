// Package geometry provides the 2D pixel-space primitives shared by the fretboard
// and chord packages.
package geometry

import "math"

// Epsilon is the tolerance used for degenerate-length and on-edge checks, in pixels.
const Epsilon = 1e-9

// Point represents a 2D point in camera-display pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns the difference of two points.
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Scale returns the point scaled by a factor.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Dot returns the dot product of p and o treated as vectors.
func (p Point) Dot(o Point) float64 {
	return p.X*o.X + p.Y*o.Y
}

// Cross returns the z component of the cross product of p and o.
func (p Point) Cross(o Point) float64 {
	return p.X*o.Y - p.Y*o.X
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(o Point) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Lerp returns the point a fraction t of the way from a to b.
func Lerp(a, b Point, t float64) Point {
	return a.Add(b.Sub(a).Scale(t))
}

// Segment is a line segment between two points.
type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Vector returns B - A.
func (s Segment) Vector() Point {
	return s.B.Sub(s.A)
}

// Length returns the length of the segment.
func (s Segment) Length() float64 {
	return s.A.Distance(s.B)
}

// Degenerate reports whether the segment has (near) zero length.
func (s Segment) Degenerate() bool {
	return s.Length() < Epsilon
}

// Midpoint returns the point halfway between A and B.
func (s Segment) Midpoint() Point {
	return Lerp(s.A, s.B, 0.5)
}

// Side returns the signed area of the triangle (A, B, p). Positive values lie to
// the left of A→B in a y-up frame (to the right on screen, where y grows down).
func (s Segment) Side(p Point) float64 {
	return s.Vector().Cross(p.Sub(s.A))
}

// ProjectClamped returns the fractional position of p's orthogonal projection onto
// the segment, clamped to [0, 1]. ok is false when the segment is degenerate.
func (s Segment) ProjectClamped(p Point) (t float64, ok bool) {
	v := s.Vector()
	lenSq := v.Dot(v)
	if lenSq < Epsilon*Epsilon {
		return 0, false
	}
	t = p.Sub(s.A).Dot(v) / lenSq
	return math.Max(0, math.Min(1, t)), true
}

// DistanceTo returns the shortest distance from p to the segment.
func (s Segment) DistanceTo(p Point) float64 {
	t, ok := s.ProjectClamped(p)
	if !ok {
		return p.Distance(s.A)
	}
	return p.Distance(Lerp(s.A, s.B, t))
}
