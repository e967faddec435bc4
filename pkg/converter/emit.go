package converter

import "sort"

// classifySingle decides the note type of a tap.
// A direction makes a flick even when the tap is also critical.
func classifySingle(s *Single) NoteType {
	hasDir := s.Direction != nil
	switch {
	case !s.Critical && !hasDir:
		return NoteNormal
	case s.Critical && !hasDir:
		return NoteCritical
	case hasDir:
		return NoteFlick
	default:
		return NoteNormal
	}
}

func holdNote(span Span, typ NoteType) Note {
	lane, width := CenterSizeToLane(span.Lane, span.Size)
	hold := span.EndBeat - span.StartBeat
	if hold < 0 {
		hold = 0
	}
	return Note{Time: span.StartBeat, Lane: lane, Width: width, Type: typ, Hold: hold}
}

// EmitNotes converts USC objects into target notes ordered by (time, lane).
// Trace objects and object types without a note representation are skipped.
func EmitNotes(objs []Object) []Note {
	notes := make([]Note, 0, len(objs))

	for _, o := range objs {
		if o.Traced() {
			continue
		}
		switch obj := o.(type) {
		case *Single:
			lane, width := CenterSizeToLane(obj.Lane, obj.Size)
			notes = append(notes, Note{
				Time:  obj.Beat,
				Lane:  lane,
				Width: width,
				Type:  classifySingle(obj),
			})
		case *Slide:
			notes = append(notes, holdNote(obj.Span(), NoteLong))
		case *Guide:
			notes = append(notes, holdNote(obj.Span(), NoteGuide))
		}
	}

	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].Time != notes[j].Time {
			return notes[i].Time < notes[j].Time
		}
		return notes[i].Lane < notes[j].Lane
	})
	return notes
}

// FirstBPM returns the first positive tempo of the document, or fallback
func FirstBPM(objs []Object, fallback float64) float64 {
	for _, o := range objs {
		if bpm, ok := o.(*BPMChange); ok && bpm.BPM > 0 {
			return bpm.BPM
		}
	}
	return fallback
}

// BuildMetadata derives the song metadata of a document. name is used as the
// title when the document carries none.
func BuildMetadata(doc *Document, name string, fallbackBPM float64) Metadata {
	bpm := FirstBPM(doc.Objects, fallbackBPM)
	title := doc.Title
	if title == "" {
		title = name
	}
	return Metadata{
		Title:             title,
		BPM:               bpm,
		Offset:            doc.Offset,
		SpeedScaleMarkers: BuildSpeedMarkers(doc.Objects, bpm),
	}
}
