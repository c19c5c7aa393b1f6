package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func solidFrame(v float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), 120, 160, gocv.MatTypeCV8UC3)
}

func TestMotionGate_FirstFramePasses(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	gate := NewMotionGate(1.0, 0)
	defer gate.Close()

	frame := solidFrame(0)
	defer frame.Close()

	if pass, _ := gate.Pass(&frame); !pass {
		t.Error("first frame should pass")
	}
	if pass, changed := gate.Pass(&frame); pass {
		t.Errorf("identical frame should be gated, changed = %f", changed)
	}
}

func TestMotionGate_Motion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	gate := NewMotionGate(1.0, 0)
	defer gate.Close()

	black := solidFrame(0)
	defer black.Close()
	white := solidFrame(255)
	defer white.Close()

	gate.Pass(&black)
	pass, changed := gate.Pass(&white)
	if !pass {
		t.Errorf("black to white should pass, changed = %f", changed)
	}
	if changed < 50.0 {
		t.Errorf("changed = %f, expected > 50%% for black to white", changed)
	}
}

func TestMotionGate_MaxSkip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	gate := NewMotionGate(1.0, 2)
	defer gate.Close()

	frame := solidFrame(0)
	defer frame.Close()

	var got []bool
	for i := 0; i < 5; i++ {
		pass, _ := gate.Pass(&frame)
		got = append(got, pass)
	}

	want := []bool{true, false, false, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pass sequence = %v, want %v", got, want)
		}
	}
}

func TestMotionGate_Disabled(t *testing.T) {
	gate := NewMotionGate(0, 0)
	defer gate.Close()

	frame := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for i := 0; i < 3; i++ {
		if pass, _ := gate.Pass(&frame); !pass {
			t.Fatal("disabled gate should pass every frame")
		}
	}
}

func TestMotionGate_ResetAndEmpty(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	gate := NewMotionGate(1.0, 0)
	defer gate.Close()

	if pass, _ := gate.Pass(nil); pass {
		t.Error("nil frame should not pass")
	}

	frame := solidFrame(0)
	defer frame.Close()

	gate.Pass(&frame)
	gate.Reset()
	if pass, _ := gate.Pass(&frame); !pass {
		t.Error("frame after Reset should pass")
	}

	// Close twice should not panic.
	gate.Close()
	gate.Close()
}
