package converter

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuildSpeedMarkersDefault(t *testing.T) {
	marks := BuildSpeedMarkers(nil, 120)
	if len(marks) != 1 {
		t.Fatalf("got %d markers, want 1", len(marks))
	}
	if marks[0] != (SpeedMarker{Beat: 0, Forward: 1, Reverse: DefaultReverse}) {
		t.Errorf("marker = %+v", marks[0])
	}
}

func TestBuildSpeedMarkers(t *testing.T) {
	objs := []Object{
		&BPMChange{Beat: 0, BPM: 120},
		&TimeScaleGroup{Changes: []TimeScaleChange{
			{Beat: 0, TimeScale: 2},
			{Beat: 8, TimeScale: 0.5},
			{Beat: 4, TimeScale: 1.5},
		}},
		&BPMChange{Beat: 8, BPM: 240},
		&BPMChange{Beat: 12, BPM: 0},
	}
	marks := BuildSpeedMarkers(objs, 120)

	want := []SpeedMarker{
		{Beat: 0, Forward: 2, Reverse: DefaultReverse * 2},
		{Beat: 4, Forward: 1.5, Reverse: DefaultReverse * 1.5},
		{Beat: 8, Forward: 0.25, Reverse: DefaultReverse * 0.25},
	}
	if len(marks) != len(want) {
		t.Fatalf("got %d markers %+v, want %d", len(marks), marks, len(want))
	}
	for i := range want {
		if marks[i].Beat != want[i].Beat || !approx(marks[i].Forward, want[i].Forward) || !approx(marks[i].Reverse, want[i].Reverse) {
			t.Errorf("marks[%d] = %+v, want %+v", i, marks[i], want[i])
		}
	}
}

func TestBuildSpeedMarkersBeatZeroFromTempo(t *testing.T) {
	marks := BuildSpeedMarkers([]Object{&BPMChange{Beat: 0, BPM: 60}}, 120)
	if len(marks) != 1 || !approx(marks[0].Forward, 2) {
		t.Errorf("markers = %+v, want forward 2 at beat 0", marks)
	}
}
