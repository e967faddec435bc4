package converter

import "sort"

// Point is a tap or slide tick placed on the continuous lane axis
type Point struct {
	Beat float64
	Lane float64
	Size float64
}

// Dedup drops repeated (beat, lane, size) points, keeping first occurrences
func Dedup(points []Point) []Point {
	seen := make(map[Point]struct{}, len(points))
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// GroupRuns sorts and de-duplicates beats, then splits them wherever two
// neighbours are more than gap+tolerance apart.
// Gaps shorter than the threshold cannot separate two gestures.
func GroupRuns(beats []float64, gap, tolerance float64) [][]float64 {
	if len(beats) == 0 {
		return nil
	}

	uniq := make([]float64, 0, len(beats))
	seen := make(map[float64]struct{}, len(beats))
	for _, b := range beats {
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		uniq = append(uniq, b)
	}
	sort.Float64s(uniq)

	var runs [][]float64
	cur := []float64{uniq[0]}
	for i := 1; i < len(uniq); i++ {
		if uniq[i]-uniq[i-1] <= gap+tolerance {
			cur = append(cur, uniq[i])
			continue
		}
		runs = append(runs, cur)
		cur = []float64{uniq[i]}
	}
	return append(runs, cur)
}

// BuildSlides groups slide ticks per lane into start/tick.../end objects.
// Lanes are visited in order of first appearance.
func BuildSlides(points []Point, opts Options) []Object {
	var lanes []float64
	byLane := make(map[float64][]float64)
	for _, p := range points {
		if _, ok := byLane[p.Lane]; !ok {
			lanes = append(lanes, p.Lane)
		}
		byLane[p.Lane] = append(byLane[p.Lane], p.Beat)
	}

	var objs []Object
	for _, lane := range lanes {
		for _, run := range GroupRuns(byLane[lane], opts.SlideGap, opts.SlideTolerance) {
			point := func(beat float64) SlidePoint {
				return SlidePoint{Beat: beat, Lane: lane, Size: opts.SlideSize}
			}
			objs = append(objs, &SlideStart{point(run[0])})
			for _, b := range run {
				objs = append(objs, &SlideTick{point(b)})
			}
			objs = append(objs, &SlideEnd{point(run[len(run)-1])})
		}
	}
	return objs
}
