package tray

import (
	"testing"

	"github.com/ayusman/fretwise/internal/chord"
)

func TestTray_Practice(t *testing.T) {
	tr := New(chord.DefaultLibrary().Definitions())
	if tr.Practice() {
		t.Fatal("expected free play by default")
	}

	var got []bool
	tr.OnMode(func(practice bool) { got = append(got, practice) })

	tr.handlePractice()
	tr.handlePractice()

	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("mode callbacks = %v, want [true false]", got)
	}
	if tr.Practice() {
		t.Error("expected free play after two toggles")
	}
}

func TestTray_Target(t *testing.T) {
	tr := New(chord.DefaultLibrary().Definitions())

	var picked string
	tr.OnTarget(func(key string) { picked = key })

	tr.handleTarget("Am")

	if picked != "Am" {
		t.Errorf("target callback = %q, want Am", picked)
	}
	if tr.Target() != "Am" {
		t.Errorf("Target() = %q, want Am", tr.Target())
	}
}

func TestTray_NoMenu(t *testing.T) {
	tr := New(nil)

	// Without Run there are no menu items; updates must not panic.
	tr.SetStatus("E Major")
	tr.SetStatus("")
	tr.handleOpen()
	tr.handleTarget("C")
}
