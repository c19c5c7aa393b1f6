package chord

import (
	"testing"

	"github.com/ayusman/fretwise/internal/fretboard"
)

func TestMatcher_Match(t *testing.T) {
	m := NewMatcher(DefaultLibrary())

	tests := []struct {
		name     string
		observed []fretboard.Assignment
		want     string
		wantOK   bool
	}{
		{
			name:     "E major",
			observed: []fretboard.Assignment{fretboard.At(1, 2), fretboard.At(2, 2), fretboard.At(3, 1)},
			want:     "E",
			wantOK:   true,
		},
		{
			name:     "E minor",
			observed: []fretboard.Assignment{fretboard.At(1, 2), fretboard.At(2, 2)},
			want:     "Em",
			wantOK:   true,
		},
		{
			name:     "order does not matter",
			observed: []fretboard.Assignment{fretboard.At(4, 1), fretboard.At(1, 3), fretboard.At(2, 2)},
			want:     "C",
			wantOK:   true,
		},
		{
			name: "extra fingers are allowed",
			observed: []fretboard.Assignment{
				fretboard.At(2, 2), fretboard.At(3, 2), fretboard.At(4, 1), fretboard.At(0, 7),
			},
			want:   "Am",
			wantOK: true,
		},
		{
			name:     "off-grid assignments are ignored",
			observed: []fretboard.Assignment{fretboard.OffGrid, fretboard.At(3, 2), fretboard.At(5, 2), fretboard.At(4, 3)},
			want:     "D",
			wantOK:   true,
		},
		{
			name:     "partial shape",
			observed: []fretboard.Assignment{fretboard.At(1, 2)},
		},
		{
			name:     "wrong fret",
			observed: []fretboard.Assignment{fretboard.At(1, 3), fretboard.At(2, 3)},
		},
		{
			name: "nothing observed",
		},
		{
			name:     "only off-grid",
			observed: []fretboard.Assignment{fretboard.OffGrid, fretboard.OffGrid},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Match(tt.observed)
			if ok != tt.wantOK {
				t.Fatalf("Match() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Key != tt.want {
				t.Errorf("Match() = %q, want %q", got.Key, tt.want)
			}
		})
	}
}

func TestMatcher_TieBreakIsDeclarationOrder(t *testing.T) {
	// E major also satisfies E minor; E is declared first.
	observed := []fretboard.Assignment{fretboard.At(1, 2), fretboard.At(2, 2), fretboard.At(3, 1)}

	m := NewMatcher(DefaultLibrary())
	all := m.MatchAll(observed)
	if len(all) != 2 || all[0].Key != "E" || all[1].Key != "Em" {
		t.Fatalf("MatchAll() = %v, want [E Em]", keys(all))
	}

	// Reversing the declaration order flips the winner.
	em, _ := DefaultLibrary().Lookup("Em")
	e, _ := DefaultLibrary().Lookup("E")
	reversed, err := NewLibrary(em, e)
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	got, ok := NewMatcher(reversed).Match(observed)
	if !ok || got.Key != "Em" {
		t.Errorf("expected Em to win when declared first, got %q (ok=%v)", got.Key, ok)
	}

	// Repeated calls are deterministic.
	for i := 0; i < 10; i++ {
		if got, _ := m.Match(observed); got.Key != "E" {
			t.Fatalf("call %d: expected E, got %q", i, got.Key)
		}
	}
}

func TestMatcher_OpenChordNeverMatches(t *testing.T) {
	lib, err := NewLibrary(
		Definition{Key: "open", Frets: [6]int{0, 0, 0, 0, 0, 0}},
		Definition{Key: "muted", Frets: [6]int{Muted, Muted, Muted, Muted, Muted, Muted}},
	)
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}

	m := NewMatcher(lib)
	if got, ok := m.Match([]fretboard.Assignment{fretboard.At(0, 1)}); ok {
		t.Errorf("expected no match, got %q", got.Key)
	}
	if all := m.MatchAll([]fretboard.Assignment{fretboard.At(0, 1)}); len(all) != 0 {
		t.Errorf("expected no matches, got %v", keys(all))
	}
}

func keys(defs []Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Key
	}
	return out
}
