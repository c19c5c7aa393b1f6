package fretboard

import (
	"fmt"

	"github.com/ayusman/fretwise/internal/geometry"
)

// Grid defaults.
const (
	// NumStrings is the number of strings on a standard guitar.
	NumStrings = 6
	// NumFrets is the number of frets covered by the tracked quad.
	NumFrets = 12
	// DefaultFretRatio approximates 1/(1-2^(-1/12)), the factor by which each
	// remaining scale length shrinks per fret.
	DefaultFretRatio = 17.817
)

// StringNames holds the open-string pitch per string index, low to high.
var StringNames = [NumStrings]string{"E", "A", "D", "G", "B", "e"}

// FretFractions returns f_1..f_n where f_0 = 0 and
// f_k = f_{k-1} + (1 - f_{k-1}) / ratio. Each value is the distance from the nut
// to fret k as a fraction of the full scale length.
func FretFractions(ratio float64, n int) []float64 {
	fractions := make([]float64, n)
	f := 0.0
	for i := 0; i < n; i++ {
		f += (1 - f) / ratio
		fractions[i] = f
	}
	return fractions
}

// EdgeFractions returns the fret positions normalised so that the last fret
// lands on the far short edge of the quad. The quad spans the nut to fret n.
func EdgeFractions(ratio float64, n int) []float64 {
	fractions := FretFractions(ratio, n)
	if n == 0 {
		return fractions
	}
	last := fractions[n-1]
	for i := range fractions {
		fractions[i] /= last
	}
	fractions[n-1] = 1
	return fractions
}

// Grid is the fret and string geometry derived from one Quad.
//
// Frets[k] is the line for fret k+1, running from the top edge to the bottom
// edge. Strings[i] is string i (0 = low E) running from the nut to the body.
// Low E lies nearest the top edge.
type Grid struct {
	Nut     geometry.Segment   `json:"nut"`
	Frets   []geometry.Segment `json:"frets"`
	Strings []geometry.Segment `json:"strings"`
}

// Boundaries returns the nut followed by every fret line. Boundary k and k+1
// bracket fret k+1.
func (g Grid) Boundaries() []geometry.Segment {
	out := make([]geometry.Segment, 0, len(g.Frets)+1)
	out = append(out, g.Nut)
	return append(out, g.Frets...)
}

// NotePosition returns the pixel where string crosses fret.
// Fret must be in 1..len(Frets) and string in 0..len(Strings)-1.
func (g Grid) NotePosition(str, fret int) (geometry.Point, error) {
	if str < 0 || str >= len(g.Strings) {
		return geometry.Point{}, fmt.Errorf("string %d out of range", str)
	}
	if fret < 1 || fret > len(g.Frets) {
		return geometry.Point{}, fmt.Errorf("fret %d out of range", fret)
	}
	p, err := geometry.Intersect(g.Strings[str], g.Frets[fret-1])
	if err != nil {
		return geometry.Point{}, fmt.Errorf("string %d fret %d: %w", str, fret, ErrDegenerateGeometry)
	}
	return p, nil
}

// Cell returns the stretch of string str between the boundary behind fret and
// the fret line itself. Its midpoint is where a finger presses that note.
func (g Grid) Cell(str, fret int) (geometry.Segment, error) {
	if str < 0 || str >= len(g.Strings) {
		return geometry.Segment{}, fmt.Errorf("string %d out of range", str)
	}
	if fret < 1 || fret > len(g.Frets) {
		return geometry.Segment{}, fmt.Errorf("fret %d out of range", fret)
	}
	b := g.Boundaries()
	lo, err := geometry.Intersect(g.Strings[str], b[fret-1])
	if err != nil {
		return geometry.Segment{}, fmt.Errorf("string %d fret %d: %w", str, fret, ErrDegenerateGeometry)
	}
	hi, err := geometry.Intersect(g.Strings[str], b[fret])
	if err != nil {
		return geometry.Segment{}, fmt.Errorf("string %d fret %d: %w", str, fret, ErrDegenerateGeometry)
	}
	return geometry.Segment{A: lo, B: hi}, nil
}

// ProjectorConfig holds configuration for grid projection.
type ProjectorConfig struct {
	// FretRatio is the semitone length ratio R (default: 17.817).
	FretRatio float64
	// Frets is the number of fret lines to project (default: 12).
	Frets int
	// Strings is the number of string lines to project (default: 6).
	Strings int
}

// DefaultProjectorConfig returns a ProjectorConfig for a standard six-string
// guitar tracked from the nut to the 12th fret.
func DefaultProjectorConfig() ProjectorConfig {
	return ProjectorConfig{
		FretRatio: DefaultFretRatio,
		Frets:     NumFrets,
		Strings:   NumStrings,
	}
}

// Projector derives Grid geometry from a Quad.
type Projector struct {
	config    ProjectorConfig
	fractions []float64
}

// NewProjector creates a Projector. Zero or invalid fields take their defaults.
func NewProjector(config ProjectorConfig) *Projector {
	def := DefaultProjectorConfig()
	if config.FretRatio <= 1 {
		config.FretRatio = def.FretRatio
	}
	if config.Frets <= 0 {
		config.Frets = def.Frets
	}
	if config.Strings <= 0 {
		config.Strings = def.Strings
	}
	return &Projector{
		config:    config,
		fractions: EdgeFractions(config.FretRatio, config.Frets),
	}
}

// Config returns the effective configuration.
func (p *Projector) Config() ProjectorConfig {
	return p.config
}

// Fractions returns a copy of the normalised fret positions along a long edge.
func (p *Projector) Fractions() []float64 {
	out := make([]float64, len(p.fractions))
	copy(out, p.fractions)
	return out
}

// Project computes fret and string lines for q.
func (p *Projector) Project(q Quad) (Grid, error) {
	if err := q.Validate(); err != nil {
		return Grid{}, err
	}

	top, bottom := q.Top(), q.Bottom()
	frets := make([]geometry.Segment, len(p.fractions))
	for i, f := range p.fractions {
		frets[i] = geometry.Segment{
			A: geometry.Lerp(top.A, top.B, f),
			B: geometry.Lerp(bottom.A, bottom.B, f),
		}
	}

	nut, body := q.Nut(), q.Body()
	n := p.config.Strings
	strings := make([]geometry.Segment, n)
	for i := 0; i < n; i++ {
		t := (float64(i) + 0.5) / float64(n)
		strings[i] = geometry.Segment{
			A: geometry.Lerp(nut.A, nut.B, t),
			B: geometry.Lerp(body.A, body.B, t),
		}
	}

	return Grid{Nut: nut, Frets: frets, Strings: strings}, nil
}
