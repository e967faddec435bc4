package converter

import "sort"

// DefaultReverse is the reverse scroll scale of an untouched marker
const DefaultReverse = 1.0 / 6.0

// BuildSpeedMarkers folds tempo changes (relative to baseBPM) and time-scale
// changes into beat-ordered speed markers. Beat 0 is always present.
func BuildSpeedMarkers(objs []Object, baseBPM float64) []SpeedMarker {
	marks := make(map[float64]*SpeedMarker)
	touch := func(beat, scale float64) {
		m, ok := marks[beat]
		if !ok {
			m = &SpeedMarker{Beat: beat, Forward: 1.0, Reverse: DefaultReverse}
			marks[beat] = m
		}
		m.Forward *= scale
		m.Reverse *= scale
	}

	for _, o := range objs {
		if bpm, ok := o.(*BPMChange); ok && bpm.BPM > 0 && baseBPM > 0 {
			touch(bpm.Beat, baseBPM/bpm.BPM)
		}
	}
	for _, o := range objs {
		if g, ok := o.(*TimeScaleGroup); ok {
			for _, ch := range g.Changes {
				touch(ch.Beat, ch.TimeScale)
			}
		}
	}

	beats := make([]float64, 0, len(marks))
	for b := range marks {
		beats = append(beats, b)
	}
	sort.Float64s(beats)

	out := []SpeedMarker{{Beat: 0, Forward: 1.0, Reverse: DefaultReverse}}
	for _, b := range beats {
		m := *marks[b]
		if b == 0 {
			out[0] = SpeedMarker{Beat: 0, Forward: m.Forward, Reverse: m.Reverse}
			continue
		}
		out = append(out, m)
	}
	return out
}
