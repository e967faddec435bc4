package converter

import (
	"reflect"
	"testing"
)

func TestGroupRuns(t *testing.T) {
	tests := []struct {
		name  string
		beats []float64
		want  [][]float64
	}{
		{"empty", nil, nil},
		{"single", []float64{3}, [][]float64{{3}}},
		{"split on gap", []float64{0, 0.125, 0.25, 1.0}, [][]float64{{0, 0.125, 0.25}, {1.0}}},
		{"unsorted with duplicates", []float64{1, 0.5, 0.75, 0.5, 3}, [][]float64{{0.5, 0.75, 1}, {3}}},
		{"gap within tolerance", []float64{0, 0.2500005}, [][]float64{{0, 0.2500005}}},
		{"gap beyond tolerance", []float64{0, 0.251}, [][]float64{{0}, {0.251}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GroupRuns(tt.beats, 0.25, 1e-6)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GroupRuns(%v) = %v, want %v", tt.beats, got, tt.want)
			}
		})
	}
}

func TestDedup(t *testing.T) {
	points := []Point{
		{Beat: 0, Lane: 0.5, Size: 1.5},
		{Beat: 1, Lane: 0.5, Size: 1.5},
		{Beat: 0, Lane: 0.5, Size: 1.5},
		{Beat: 0, Lane: 1.5, Size: 1.5},
	}
	once := Dedup(points)
	want := []Point{points[0], points[1], points[3]}
	if !reflect.DeepEqual(once, want) {
		t.Errorf("Dedup() = %v, want %v", once, want)
	}
	if twice := Dedup(once); !reflect.DeepEqual(twice, once) {
		t.Errorf("Dedup is not idempotent: %v", twice)
	}
}

func TestBuildSlides(t *testing.T) {
	points := []Point{
		{Beat: 2, Lane: 1.5},
		{Beat: 0, Lane: -2.5},
		{Beat: 0, Lane: 1.5},
		{Beat: 0.25, Lane: 1.5},
	}
	objs := BuildSlides(points, DefaultOptions())

	type entry struct {
		typ  ObjectType
		beat float64
		lane float64
	}
	var got []entry
	for _, o := range objs {
		var p SlidePoint
		switch v := o.(type) {
		case *SlideStart:
			p = v.SlidePoint
		case *SlideTick:
			p = v.SlidePoint
		case *SlideEnd:
			p = v.SlidePoint
		default:
			t.Fatalf("unexpected object %T", o)
		}
		if p.Size != 1.5 {
			t.Errorf("%s at %v: size %v, want 1.5", o.Type(), p.Beat, p.Size)
		}
		got = append(got, entry{o.Type(), p.Beat, p.Lane})
	}

	// Lane 1.5 appeared first, so its runs come first
	want := []entry{
		{TypeStart, 0, 1.5}, {TypeTick, 0, 1.5}, {TypeTick, 0.25, 1.5}, {TypeEnd, 0.25, 1.5},
		{TypeStart, 2, 1.5}, {TypeTick, 2, 1.5}, {TypeEnd, 2, 1.5},
		{TypeStart, 0, -2.5}, {TypeTick, 0, -2.5}, {TypeEnd, 0, -2.5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildSlides() =\n%v\nwant\n%v", got, want)
	}
}
