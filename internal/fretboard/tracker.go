package fretboard

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/fretwise/internal/geometry"
)

// DefaultHistorySize is the number of raw corner samples averaged per role.
const DefaultHistorySize = 5

// smoothedCorner holds the recent history for one role.
type smoothedCorner struct {
	xs, ys   []float64 // oldest first
	lastGood geometry.Point
	seen     bool
}

func (c *smoothedCorner) push(p geometry.Point, capacity int) {
	if len(c.xs) >= capacity {
		c.xs = c.xs[1:]
		c.ys = c.ys[1:]
	}
	c.xs = append(c.xs, p.X)
	c.ys = append(c.ys, p.Y)

	c.lastGood = geometry.Point{X: stat.Mean(c.xs, nil), Y: stat.Mean(c.ys, nil)}
	c.seen = true
}

func (c *smoothedCorner) age() {
	if len(c.xs) == 0 {
		return
	}
	c.xs = c.xs[1:]
	c.ys = c.ys[1:]
}

// QuadTracker smooths the four fretboard corners across frames.
//
// Each role keeps a moving average over the last HistorySize observations and
// remembers its last good value indefinitely, so a briefly occluded marker
// keeps the grid alive. A QuadTracker must have a single writer.
type QuadTracker struct {
	capacity int
	corners  [NumRoles]smoothedCorner
}

// NewQuadTracker creates a tracker averaging over historySize frames.
// Values less than 1 fall back to DefaultHistorySize.
func NewQuadTracker(historySize int) *QuadTracker {
	if historySize < 1 {
		historySize = DefaultHistorySize
	}
	return &QuadTracker{capacity: historySize}
}

// Observe records a fresh corner point for role.
func (t *QuadTracker) Observe(role Role, p geometry.Point) {
	if !role.Valid() {
		return
	}
	t.corners[role].push(p, t.capacity)
}

// Miss records that role was not seen this frame. The oldest sample leaves the
// smoothing window; the last good value is kept.
func (t *QuadTracker) Miss(role Role) {
	if !role.Valid() {
		return
	}
	t.corners[role].age()
}

// ObserveFrame applies one frame worth of observations. Roles without an
// observation are treated as missed.
func (t *QuadTracker) ObserveFrame(obs []MarkerObservation) {
	var seen [NumRoles]bool
	for _, o := range obs {
		if !o.Role.Valid() || seen[o.Role] {
			continue
		}
		seen[o.Role] = true
		t.Observe(o.Role, o.Point)
	}
	for _, role := range Roles {
		if !seen[role] {
			t.Miss(role)
		}
	}
}

// SkipFrame handles a dropped or unreadable frame: every role is missed.
func (t *QuadTracker) SkipFrame() {
	t.ObserveFrame(nil)
}

// Corner returns the current smoothed point for role, or false if the role has
// never been observed.
func (t *QuadTracker) Corner(role Role) (geometry.Point, bool) {
	if !role.Valid() || !t.corners[role].seen {
		return geometry.Point{}, false
	}
	return t.corners[role].lastGood, true
}

// CurrentQuad returns the smoothed quadrilateral. It returns false when any
// role has never been observed or the corners are degenerate.
func (t *QuadTracker) CurrentQuad() (Quad, bool) {
	q, err := t.Quad()
	return q, err == nil
}

// Quad is CurrentQuad with the reason for failure: ErrTrackingLost when a role
// has never been observed, ErrDegenerateGeometry when the corners collapse.
func (t *QuadTracker) Quad() (Quad, error) {
	var pts [NumRoles]geometry.Point
	for _, role := range Roles {
		p, ok := t.Corner(role)
		if !ok {
			return Quad{}, fmt.Errorf("%s never observed: %w", role, ErrTrackingLost)
		}
		pts[role] = p
	}

	q := Quad{TL: pts[TopLeft], TR: pts[TopRight], BR: pts[BottomRight], BL: pts[BottomLeft]}
	if err := q.Validate(); err != nil {
		return Quad{}, err
	}
	return q, nil
}

// Reset forgets all history.
func (t *QuadTracker) Reset() {
	t.corners = [NumRoles]smoothedCorner{}
}
