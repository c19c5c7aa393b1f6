// Package chord holds the chord-shape library and compares observed finger
// positions against it.
package chord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/fretwise/internal/fretboard"
)

// Muted marks a string that is not played.
const Muted = -1

var (
	// ErrNotFound is returned when a chord key is not in the library.
	ErrNotFound = errors.New("chord not found")
	// ErrInvalidDefinition is returned by NewLibrary for malformed definitions.
	ErrInvalidDefinition = errors.New("invalid chord definition")
)

// Definition is one chord shape. Index 0 of Frets and Fingers is the low E
// string.
type Definition struct {
	Key     string                    `json:"key"`     // Short name, e.g. "Em"
	Name    string                    `json:"name"`    // Display name, e.g. "E Minor"
	Frets   [fretboard.NumStrings]int `json:"frets"`   // Muted, 0 (open) or fret number
	Fingers [fretboard.NumStrings]int `json:"fingers"` // 0 = none, 1..4 = index..pinky
}

// Requirement is a fretted note a chord needs.
type Requirement struct {
	String int `json:"string"`
	Fret   int `json:"fret"`
	Finger int `json:"finger"`
}

// Requirements returns the fretted notes of d from low E to high e. Open and
// muted strings impose nothing.
func (d Definition) Requirements() []Requirement {
	var reqs []Requirement
	for str, fret := range d.Frets {
		if fret > 0 {
			reqs = append(reqs, Requirement{String: str, Fret: fret, Finger: d.Fingers[str]})
		}
	}
	return reqs
}

// Instructions returns one line per fretted note using guitarist string
// numbering (1 = high e, 6 = low E).
func (d Definition) Instructions() []string {
	reqs := d.Requirements()
	if len(reqs) == 0 {
		return []string{"Open strings or muted"}
	}

	lines := make([]string, 0, len(reqs))
	for _, r := range reqs {
		num := fretboard.NumStrings - r.String
		if r.Finger == 0 {
			lines = append(lines, fmt.Sprintf("String %d fret %d", num, r.Fret))
			continue
		}
		lines = append(lines, fmt.Sprintf("Finger %d on string %d fret %d", r.Finger, num, r.Fret))
	}
	return lines
}

func (d Definition) validate() error {
	if strings.TrimSpace(d.Key) == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidDefinition)
	}
	for str := 0; str < fretboard.NumStrings; str++ {
		fret, finger := d.Frets[str], d.Fingers[str]
		if fret < Muted || fret > fretboard.NumFrets {
			return fmt.Errorf("%w: %s string %d fret %d", ErrInvalidDefinition, d.Key, str, fret)
		}
		if finger < 0 || finger > 4 {
			return fmt.Errorf("%w: %s string %d finger %d", ErrInvalidDefinition, d.Key, str, finger)
		}
		if fret <= 0 && finger != 0 {
			return fmt.Errorf("%w: %s string %d has a finger but no fret", ErrInvalidDefinition, d.Key, str)
		}
	}
	return nil
}

// Library is an immutable, ordered set of chord definitions.
// Declaration order is the iteration and tie-break order.
type Library struct {
	defs  []Definition
	index map[string]int
}

// NewLibrary validates defs and freezes them in the given order.
func NewLibrary(defs ...Definition) (*Library, error) {
	lib := &Library{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := lib.index[d.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidDefinition, d.Key)
		}
		if d.Name == "" {
			d.Name = d.Key
		}
		lib.index[d.Key] = len(lib.defs)
		lib.defs = append(lib.defs, d)
	}
	return lib, nil
}

// defaultDefinitions returns the open major and minor shapes.
func defaultDefinitions() []Definition {
	const x = Muted
	return []Definition{
		{Key: "C", Name: "C Major", Frets: [6]int{x, 3, 2, 0, 1, 0}, Fingers: [6]int{0, 3, 2, 0, 1, 0}},
		{Key: "D", Name: "D Major", Frets: [6]int{x, x, 0, 2, 3, 2}, Fingers: [6]int{0, 0, 0, 1, 3, 2}},
		{Key: "E", Name: "E Major", Frets: [6]int{0, 2, 2, 1, 0, 0}, Fingers: [6]int{0, 2, 3, 1, 0, 0}},
		{Key: "G", Name: "G Major", Frets: [6]int{3, 2, 0, 0, 0, 3}, Fingers: [6]int{3, 2, 0, 0, 0, 4}},
		{Key: "A", Name: "A Major", Frets: [6]int{x, 0, 2, 2, 2, 0}, Fingers: [6]int{0, 0, 1, 2, 3, 0}},
		{Key: "Em", Name: "E Minor", Frets: [6]int{0, 2, 2, 0, 0, 0}, Fingers: [6]int{0, 2, 3, 0, 0, 0}},
		{Key: "Am", Name: "A Minor", Frets: [6]int{x, 0, 2, 2, 1, 0}, Fingers: [6]int{0, 0, 2, 3, 1, 0}},
		{Key: "Dm", Name: "D Minor", Frets: [6]int{x, x, 0, 2, 3, 1}, Fingers: [6]int{0, 0, 0, 2, 4, 1}},
	}
}

// DefaultLibrary returns the built-in library: C, D, E, G, A, Em, Am, Dm.
func DefaultLibrary() *Library {
	lib, err := NewLibrary(defaultDefinitions()...)
	if err != nil {
		panic(fmt.Sprintf("chord: default library: %v", err))
	}
	return lib
}

// Lookup returns the definition for key. An exact key match wins; otherwise
// key is compared case-insensitively against keys and display names.
func (l *Library) Lookup(key string) (Definition, error) {
	if i, ok := l.index[key]; ok {
		return l.defs[i], nil
	}
	for _, d := range l.defs {
		if strings.EqualFold(d.Key, key) || strings.EqualFold(d.Name, key) {
			return d, nil
		}
	}
	return Definition{}, fmt.Errorf("%q: %w", key, ErrNotFound)
}

// Definitions returns a copy of every definition in declaration order.
func (l *Library) Definitions() []Definition {
	out := make([]Definition, len(l.defs))
	copy(out, l.defs)
	return out
}

// Keys returns every chord key in declaration order.
func (l *Library) Keys() []string {
	keys := make([]string, len(l.defs))
	for i, d := range l.defs {
		keys[i] = d.Key
	}
	return keys
}

// Len returns the number of definitions.
func (l *Library) Len() int {
	return len(l.defs)
}
