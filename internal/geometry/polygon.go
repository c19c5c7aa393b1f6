package geometry

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrParallel is returned by Intersect when the two lines do not cross.
var ErrParallel = errors.New("lines are parallel")

// PointInPolygon tests if a point is inside a polygon using ray casting.
// Points lying on an edge count as inside.
func PointInPolygon(p Point, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}

	n := len(polygon)
	for i := 0; i < n; i++ {
		edge := Segment{A: polygon[i], B: polygon[(i+1)%n]}
		if edge.DistanceTo(p) < 1e-6 {
			return true
		}
	}

	inside := false
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// SignedArea returns the signed shoelace area of the polygon.
func SignedArea(polygon []Point) float64 {
	var sum float64
	n := len(polygon)
	for i := 0; i < n; i++ {
		sum += polygon[i].Cross(polygon[(i+1)%n])
	}
	return sum / 2
}

// Intersect returns the point where the infinite lines through a and b cross.
// It solves a.A + s*(a.B-a.A) = b.A + u*(b.B-b.A) for s and u.
func Intersect(a, b Segment) (Point, error) {
	va := a.Vector()
	vb := b.Vector()

	det := va.Cross(vb)
	if math.Abs(det) < Epsilon {
		return Point{}, ErrParallel
	}

	A := mat.NewDense(2, 2, []float64{
		va.X, -vb.X,
		va.Y, -vb.Y,
	})
	rhs := mat.NewVecDense(2, []float64{b.A.X - a.A.X, b.A.Y - a.A.Y})

	var params mat.VecDense
	if err := params.SolveVec(A, rhs); err != nil {
		return Point{}, err
	}

	return Lerp(a.A, a.B, params.AtVec(0)), nil
}
