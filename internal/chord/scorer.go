package chord

import (
	"fmt"
	"math"

	"github.com/ayusman/fretwise/internal/fretboard"
	"github.com/ayusman/fretwise/internal/geometry"
)

const (
	// DefaultMaxDistance is the configured cutoff that selects a radius scaled
	// from the grid. Any positive value is used as a fixed pixel radius.
	DefaultMaxDistance = 0.0

	// DefaultCellFraction is the scaled radius as a fraction of the length of
	// the note's cell along its string. A finger centred in the cell sits half
	// a cell from the fret wire.
	DefaultCellFraction = 0.75
)

// Detail is the outcome for one fretted note of the target chord.
type Detail struct {
	String   int            `json:"string"`
	Fret     int            `json:"fret"`
	Finger   int            `json:"finger"`
	Expected geometry.Point `json:"expected"`
	Distance float64        `json:"distance"` // Only meaningful when Observed is true
	Radius   float64        `json:"radius"`   // Cutoff applied to this note
	Matched  bool           `json:"matched"`
	Observed bool           `json:"observed"` // False when there were no observed points
}

// Result is the accuracy of one practice attempt.
type Result struct {
	Chord      string   `json:"chord"`
	Percent    int      `json:"percent"`    // 0..100, only meaningful when Applicable
	Applicable bool     `json:"applicable"` // False for chords without fretted notes
	Matched    int      `json:"matched"`
	Total      int      `json:"total"`
	Details    []Detail `json:"details"`
}

// Summary renders the percentage, or "n/a" when the chord has no fretted notes.
func (r Result) Summary() string {
	if !r.Applicable {
		return "n/a"
	}
	return fmt.Sprintf("%d%%", r.Percent)
}

// Score compares observed pixel points with the expected position of every
// fretted note of target on grid. A note is matched when the nearest observed
// point lies within maxDistance pixels, or, when maxDistance is not positive,
// within DefaultCellFraction of the note's cell length.
func Score(target Definition, grid fretboard.Grid, observed []geometry.Point, maxDistance float64) Result {
	reqs := target.Requirements()
	res := Result{
		Chord:      target.Key,
		Applicable: len(reqs) > 0,
		Total:      len(reqs),
		Details:    make([]Detail, 0, len(reqs)),
	}

	for _, r := range reqs {
		d := Detail{String: r.String, Fret: r.Fret, Finger: r.Finger}

		// A note the grid cannot place counts as missed.
		expected, err := grid.NotePosition(r.String, r.Fret)
		if err == nil {
			d.Radius, err = noteRadius(grid, r.String, r.Fret, maxDistance)
		}
		if err == nil {
			d.Expected = expected
			if len(observed) > 0 {
				d.Distance = nearestDistance(expected, observed)
				d.Observed = true
				d.Matched = d.Distance <= d.Radius
			}
		}

		if d.Matched {
			res.Matched++
		}
		res.Details = append(res.Details, d)
	}

	if res.Applicable {
		res.Percent = int(math.Round(100 * float64(res.Matched) / float64(res.Total)))
	}
	return res
}

// noteRadius is maxDistance when positive, otherwise the scaled cell length.
func noteRadius(grid fretboard.Grid, str, fret int, maxDistance float64) (float64, error) {
	if maxDistance > 0 {
		return maxDistance, nil
	}
	cell, err := grid.Cell(str, fret)
	if err != nil {
		return 0, err
	}
	return DefaultCellFraction * cell.Length(), nil
}

func nearestDistance(p geometry.Point, points []geometry.Point) float64 {
	best := math.Inf(1)
	for _, o := range points {
		best = math.Min(best, p.Distance(o))
	}
	return best
}
