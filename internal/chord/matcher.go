package chord

import (
	"github.com/ayusman/fretwise/internal/fretboard"
)

// Matcher identifies which library chord a set of assignments forms.
type Matcher struct {
	library *Library
}

// NewMatcher creates a Matcher over lib.
func NewMatcher(lib *Library) *Matcher {
	return &Matcher{library: lib}
}

// Match returns the first chord, in library declaration order, whose fretted
// notes are all present in observed. Off-grid assignments are ignored. Chords
// without fretted notes never match.
func (m *Matcher) Match(observed []fretboard.Assignment) (Definition, bool) {
	set := assignmentSet(observed)
	if len(set) == 0 {
		return Definition{}, false
	}
	for _, d := range m.library.defs {
		if d.satisfiedBy(set) {
			return d, true
		}
	}
	return Definition{}, false
}

// MatchAll returns every satisfied chord in declaration order.
func (m *Matcher) MatchAll(observed []fretboard.Assignment) []Definition {
	set := assignmentSet(observed)
	if len(set) == 0 {
		return nil
	}
	var out []Definition
	for _, d := range m.library.defs {
		if d.satisfiedBy(set) {
			out = append(out, d)
		}
	}
	return out
}

// assignmentSet keeps the on-grid assignments as (string, fret) keys.
func assignmentSet(observed []fretboard.Assignment) map[fretboard.Assignment]struct{} {
	set := make(map[fretboard.Assignment]struct{}, len(observed))
	for _, a := range observed {
		if a.OK {
			set[fretboard.At(a.String, a.Fret)] = struct{}{}
		}
	}
	return set
}

func (d Definition) satisfiedBy(set map[fretboard.Assignment]struct{}) bool {
	reqs := d.Requirements()
	if len(reqs) == 0 {
		return false
	}
	for _, r := range reqs {
		if _, ok := set[fretboard.At(r.String, r.Fret)]; !ok {
			return false
		}
	}
	return true
}
