package converter

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Preview note mapping
const (
	PreviewBaseKey      = 47 // Lane 1 -> C3 (48)
	PreviewTapBeats     = 0.25
	PreviewVelocity     = 100
	PreviewAccent       = 127
	previewChannel      = 0
	previewGuideChannel = 1
)

// MIDIRenderer renders target charts as single-track MIDI files
type MIDIRenderer struct {
	ticksPerQuarter uint16
}

// NewMIDIRenderer creates a renderer with the given resolution
func NewMIDIRenderer(ticksPerQuarter int) *MIDIRenderer {
	if ticksPerQuarter <= 0 || ticksPerQuarter > math.MaxUint16 {
		ticksPerQuarter = 480
	}
	return &MIDIRenderer{ticksPerQuarter: uint16(ticksPerQuarter)}
}

type previewEvent struct {
	tick uint32
	off  bool
	msg  []byte
}

func (m *MIDIRenderer) beatToTick(beat float64) uint32 {
	if beat <= 0 {
		return 0
	}
	return uint32(math.Round(beat * float64(m.ticksPerQuarter)))
}

// GenerateMIDI creates MIDI data from a Chart
func (m *MIDIRenderer) GenerateMIDI(chart *Chart) ([]byte, error) {
	if chart == nil {
		return nil, errors.New("nil chart")
	}

	tempo := chart.Metadata.BPM
	if tempo <= 0 {
		tempo = 120.0
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(m.ticksPerQuarter)

	var track smf.Track
	if chart.Metadata.Title != "" {
		track.Add(0, smf.MetaTrackSequenceName(chart.Metadata.Title))
	}
	track.Add(0, smf.MetaTempo(tempo))
	track.Add(0, smf.MetaMeter(4, 4))

	var events []previewEvent
	for _, mk := range chart.Metadata.SpeedScaleMarkers {
		if mk.Beat == 0 && mk.Forward == 1.0 {
			continue
		}
		events = append(events, previewEvent{
			tick: m.beatToTick(mk.Beat),
			msg:  smf.MetaMarker(fmt.Sprintf("speed x%.3f", mk.Forward)),
		})
	}

	for _, n := range chart.Notes {
		key := uint8(PreviewBaseKey + n.Lane)
		channel := uint8(previewChannel)
		if n.Type == NoteGuide {
			channel = previewGuideChannel
		}
		velocity := uint8(PreviewVelocity)
		if n.Type == NoteCritical || n.Type == NoteFlick {
			velocity = PreviewAccent
		}

		length := PreviewTapBeats
		if n.HasHold() && n.Hold > 0 {
			length = n.Hold
		}

		start := m.beatToTick(n.Time)
		end := m.beatToTick(n.Time + length)
		if end <= start {
			end = start + 1
		}
		events = append(events,
			previewEvent{tick: start, msg: midi.NoteOn(channel, key, velocity)},
			previewEvent{tick: end, off: true, msg: midi.NoteOff(channel, key)},
		)
	}

	// Note-offs go first so retriggered keys are released before they restart
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	var currentTick uint32
	for _, ev := range events {
		track.Add(ev.tick-currentTick, ev.msg)
		currentTick = ev.tick
	}

	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, errors.Wrap(err, "failed to add track")
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "failed to write MIDI")
	}

	return buf.Bytes(), nil
}

// WriteMIDIFile writes a preview MIDI file
func (m *MIDIRenderer) WriteMIDIFile(chart *Chart, filename string) error {
	data, err := m.GenerateMIDI(chart)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
