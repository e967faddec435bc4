package targets

import "github.com/james-see/chartbridge/pkg/converter"

// FourLane profile constants
const (
	FourLaneID    = "fourlane"
	FourLaneName  = "MyGame 4-lane"
	FourLaneWidth = 3
)

// FourLaneAnchors are the lanes notes are snapped to
var FourLaneAnchors = []int{1, 4, 7, 10}

// FourLane implements the Target interface for the simplified 4-lane layout.
// Every note is snapped to the nearest anchor lane with a fixed width.
type FourLane struct{}

// NewFourLane creates a new FourLane target
func NewFourLane() *FourLane {
	return &FourLane{}
}

// Name returns the profile name
func (t *FourLane) Name() string {
	return FourLaneName
}

// ID returns the profile id
func (t *FourLane) ID() string {
	return FourLaneID
}

// NearestAnchor returns the anchor closest to lane; ties go to the smaller
func NearestAnchor(lane int) int {
	best := FourLaneAnchors[0]
	for _, a := range FourLaneAnchors[1:] {
		if abs(a-lane) < abs(best-lane) {
			best = a
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Normalize snaps lanes and fixes widths, keeping the note order
func (t *FourLane) Normalize(notes []converter.Note) []converter.Note {
	out := make([]converter.Note, len(notes))
	for i, n := range notes {
		n.Lane = NearestAnchor(n.Lane)
		n.Width = FourLaneWidth
		out[i] = n
	}
	return out
}

// EncodeChart writes notes as an indented JSON array
func (t *FourLane) EncodeChart(notes []converter.Note) ([]byte, error) {
	return encodeNotes(notes)
}

// EncodeMetadata writes the song metadata record
func (t *FourLane) EncodeMetadata(meta *converter.Metadata) ([]byte, error) {
	return encodeMetadata(meta)
}
