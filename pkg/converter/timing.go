package converter

import "strconv"

// Beats assumed for a measure without a #MEASURE directive
const defaultMeasureBeats = 4.0

// TimingTable holds the tempo and measure-length directives of a SUS chart
type TimingTable struct {
	TicksPerBeat int
	BPMs         map[string]float64 // Keyed by slot tag, e.g. "BPM01"
	DefaultBPM   float64
	HasDefault   bool
	MeasureBeats map[int]float64
}

// NewTimingTable creates an empty table
func NewTimingTable(ticksPerBeat int) *TimingTable {
	return &TimingTable{
		TicksPerBeat: ticksPerBeat,
		BPMs:         make(map[string]float64),
		MeasureBeats: make(map[int]float64),
	}
}

// BeatsForMeasure returns how many beats the given measure spans
func (t *TimingTable) BeatsForMeasure(measure int) float64 {
	if b, ok := t.MeasureBeats[measure]; ok {
		return b
	}
	return defaultMeasureBeats
}

// BeatAt converts a token position inside a measure to an absolute beat.
// Measures always start at measure*4 regardless of earlier measure lengths.
func (t *TimingTable) BeatAt(measure, index, count int) float64 {
	beat := float64(measure)*4.0 + (float64(index)/float64(count))*t.BeatsForMeasure(measure)
	return roundBeat(beat)
}

// ResolveBPM picks the chart tempo: #BPMDEFAULT, then slot 01, then fallback
func (t *TimingTable) ResolveBPM(fallback float64) float64 {
	if t.HasDefault {
		return t.DefaultBPM
	}
	if bpm, ok := t.BPMs["BPM01"]; ok {
		return bpm
	}
	return fallback
}

// roundBeat rounds to 6 decimals using correctly rounded decimal conversion
func roundBeat(beat float64) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(beat, 'f', 6, 64), 64)
	if err != nil {
		return beat
	}
	return v
}
