// Package targets provides target-profile specific chart encoders
package targets

import (
	"bytes"
	"encoding/json"

	"github.com/james-see/chartbridge/pkg/converter"
)

// MyGame profile constants
const (
	MyGameID   = "mygame"
	MyGameName = "MyGame 12-lane"
)

// noteRecord is one entry of a chart file
type noteRecord struct {
	Time  float64  `json:"time"`
	Lane  int      `json:"lane"`
	Width int      `json:"width"`
	Type  string   `json:"type"`
	Hold  *float64 `json:"hold,omitempty"`
}

// MyGame implements the Target interface for the 12-lane note list
type MyGame struct{}

// NewMyGame creates a new MyGame target
func NewMyGame() *MyGame {
	return &MyGame{}
}

// Name returns the profile name
func (t *MyGame) Name() string {
	return MyGameName
}

// ID returns the profile id
func (t *MyGame) ID() string {
	return MyGameID
}

// Normalize returns the notes unchanged
func (t *MyGame) Normalize(notes []converter.Note) []converter.Note {
	return notes
}

// EncodeChart writes notes as an indented JSON array.
// Only long and guide notes carry a hold field.
func (t *MyGame) EncodeChart(notes []converter.Note) ([]byte, error) {
	return encodeNotes(notes)
}

// EncodeMetadata writes the song metadata record
func (t *MyGame) EncodeMetadata(meta *converter.Metadata) ([]byte, error) {
	return encodeMetadata(meta)
}

func encodeNotes(notes []converter.Note) ([]byte, error) {
	records := make([]noteRecord, 0, len(notes))
	for _, n := range notes {
		r := noteRecord{Time: n.Time, Lane: n.Lane, Width: n.Width, Type: string(n.Type)}
		if n.HasHold() {
			hold := n.Hold
			r.Hold = &hold
		}
		records = append(records, r)
	}
	return marshalIndent(records)
}

func encodeMetadata(meta *converter.Metadata) ([]byte, error) {
	out := *meta
	if out.SpeedScaleMarkers == nil {
		out.SpeedScaleMarkers = []converter.SpeedMarker{}
	}
	return marshalIndent(out)
}

func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
