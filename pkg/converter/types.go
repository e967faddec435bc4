// Package converter provides conversion between SUS charts, USC interchange
// documents and flat game note lists
package converter

import "go.uber.org/zap"

// NoteType is the kind of a target-format note
type NoteType string

const (
	NoteNormal   NoteType = "normal"
	NoteCritical NoteType = "critical"
	NoteFlick    NoteType = "flick"
	NoteLong     NoteType = "long"
	NoteGuide    NoteType = "guide"
)

// Note is a single note of the target format
type Note struct {
	Time  float64  // Beats, quarter note = 1
	Lane  int      // Leftmost lane (1-12)
	Width int      // Lanes covered (1-12)
	Type  NoteType // Note kind
	Hold  float64  // Hold length in beats (long/guide only)
}

// HasHold reports whether the note carries a hold length
func (n Note) HasHold() bool {
	return n.Type == NoteLong || n.Type == NoteGuide
}

// SpeedMarker is a beat-stamped scroll-speed multiplier pair
type SpeedMarker struct {
	Beat    float64 `json:"beat"`
	Forward float64 `json:"forward"`
	Reverse float64 `json:"reverse"`
}

// Metadata describes a converted song
type Metadata struct {
	Title             string        `json:"title"`
	BPM               float64       `json:"bpm"`
	Offset            float64       `json:"offset"`
	SpeedScaleMarkers []SpeedMarker `json:"speedScaleMarkers"`
}

// Chart is the result of converting one interchange document
type Chart struct {
	Notes    []Note
	Metadata Metadata

	// SourceTitle is the title carried by the document itself, empty when the
	// title fell back to the file name.
	SourceTitle string
}

// Target interface for target-profile specific note handling
type Target interface {
	Name() string
	ID() string
	Normalize(notes []Note) []Note
	EncodeChart(notes []Note) ([]byte, error)
	EncodeMetadata(meta *Metadata) ([]byte, error)
}

// Converter handles format conversions
type Converter struct {
	target Target
	opts   Options
	log    *zap.Logger
}

// New creates a new Converter with the specified target
func New(target Target, opts ...Option) *Converter {
	c := &Converter{
		target: target,
		opts:   DefaultOptions(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetTarget returns the current target
func (c *Converter) GetTarget() Target {
	return c.target
}

// SetTarget sets the target for conversion
func (c *Converter) SetTarget(target Target) {
	c.target = target
}

// Options returns the tuning constants in use
func (c *Converter) Options() Options {
	return c.opts
}
