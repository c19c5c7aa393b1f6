package scene

import (
	"testing"

	"github.com/ayusman/fretwise/internal/chord"
	"github.com/ayusman/fretwise/internal/detector"
	"github.com/ayusman/fretwise/internal/fretboard"
)

func TestChord_PressesEveryFrettedNote(t *testing.T) {
	for _, def := range chord.DefaultLibrary().Definitions() {
		t.Run(def.Key, func(t *testing.T) {
			s, err := Chord(def, Fretboard())
			if err != nil {
				t.Fatalf("Chord() error = %v", err)
			}
			if len(s.Markers) != 4 {
				t.Errorf("len(Markers) = %d, want 4", len(s.Markers))
			}
			if len(s.Hands) != 1 {
				t.Fatalf("len(Hands) = %d, want 1", len(s.Hands))
			}

			tips := detector.Fingertips(s.Hands[0], Width, Height, detector.DefaultPressMargin)
			pressed := detector.Pressing(tips)
			if len(pressed) != len(def.Requirements()) {
				t.Errorf("pressing %d fingers, want %d", len(pressed), len(def.Requirements()))
			}
		})
	}
}

func TestChord_UsesChordFingering(t *testing.T) {
	e, err := chord.DefaultLibrary().Lookup("E")
	if err != nil {
		t.Fatal(err)
	}
	s, err := Chord(e, Fretboard())
	if err != nil {
		t.Fatalf("Chord() error = %v", err)
	}

	g, _ := fretboard.NewProjector(fretboard.DefaultProjectorConfig()).Project(Fretboard())
	want, _ := CellCentre(g, 3, 1) // index finger on G fret 1

	for _, tip := range detector.Fingertips(s.Hands[0], Width, Height, detector.DefaultPressMargin) {
		if tip.Digit != detector.Index {
			continue
		}
		if tip.Point.Distance(want) > 1e-6 {
			t.Errorf("index fingertip at %v, want %v", tip.Point, want)
		}
	}
}

func TestChord_TooManyFingers(t *testing.T) {
	def := chord.Definition{
		Key:   "X",
		Frets: [6]int{1, 1, 1, 1, 1, 0},
	}
	if _, err := Chord(def, Fretboard()); err == nil {
		t.Error("expected an error for five fretted notes")
	}
}

func TestCellCentre_OutOfRange(t *testing.T) {
	g, err := fretboard.NewProjector(fretboard.DefaultProjectorConfig()).Project(Fretboard())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct{ str, fret int }{{-1, 1}, {6, 1}, {0, 0}, {0, 13}}
	for _, tt := range tests {
		if _, err := CellCentre(g, tt.str, tt.fret); err == nil {
			t.Errorf("CellCentre(%d, %d) expected error", tt.str, tt.fret)
		}
	}
}

func TestFrames(t *testing.T) {
	frames := Frames(3)
	defer Close(frames)

	if len(frames) != 3 {
		t.Fatalf("len(Frames(3)) = %d", len(frames))
	}
	for i, f := range frames {
		if f.Cols() != Width || f.Rows() != Height {
			t.Errorf("frame %d is %dx%d, want %dx%d", i, f.Cols(), f.Rows(), Width, Height)
		}
	}
}
