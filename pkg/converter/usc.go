package converter

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// USCVersion is the interchange schema version written by this package
const USCVersion = 2

// ObjectType is the "type" field of a USC object
type ObjectType string

const (
	TypeBPM            ObjectType = "bpm"
	TypeTimeScaleGroup ObjectType = "timeScaleGroup"
	TypeSingle         ObjectType = "single"
	TypeStart          ObjectType = "start"
	TypeTick           ObjectType = "tick"
	TypeEnd            ObjectType = "end"
	TypeSlide          ObjectType = "slide"
	TypeGuide          ObjectType = "guide"
)

// Object is one entry of a USC document. The set of implementations is closed.
type Object interface {
	Type() ObjectType
	Position() float64 // Beat used for ordering
	Traced() bool      // Trace objects are not rendered
	isObject()
}

// Number is a JSON float that also accepts numeric strings
type Number float64

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return errors.Wrapf(err, "invalid number %q", s)
		}
		*n = Number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

// pick returns the first present value, or def
func pick(def float64, vals ...*Number) float64 {
	for _, v := range vals {
		if v != nil {
			return float64(*v)
		}
	}
	return def
}

// BPMChange sets the tempo from Beat onwards
type BPMChange struct {
	Beat float64
	BPM  float64
}

func (o *BPMChange) Type() ObjectType  { return TypeBPM }
func (o *BPMChange) Position() float64 { return o.Beat }
func (o *BPMChange) Traced() bool      { return false }
func (o *BPMChange) isObject()         {}

// MarshalJSON implements json.Marshaler
func (o *BPMChange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type ObjectType `json:"type"`
		Beat float64    `json:"beat"`
		BPM  float64    `json:"bpm"`
	}{TypeBPM, o.Beat, o.BPM})
}

// TimeScaleChange is one scroll-scale step inside a TimeScaleGroup
type TimeScaleChange struct {
	Beat      float64 `json:"beat"`
	TimeScale float64 `json:"timeScale"`
}

// TimeScaleGroup holds scroll-speed changes
type TimeScaleGroup struct {
	Changes []TimeScaleChange
}

func (o *TimeScaleGroup) Type() ObjectType  { return TypeTimeScaleGroup }
func (o *TimeScaleGroup) Position() float64 { return 0 }
func (o *TimeScaleGroup) Traced() bool      { return false }
func (o *TimeScaleGroup) isObject()         {}

// MarshalJSON implements json.Marshaler
func (o *TimeScaleGroup) MarshalJSON() ([]byte, error) {
	changes := o.Changes
	if changes == nil {
		changes = []TimeScaleChange{}
	}
	return json.Marshal(struct {
		Type    ObjectType        `json:"type"`
		Changes []TimeScaleChange `json:"changes"`
	}{TypeTimeScaleGroup, changes})
}

// Single is a tap note
type Single struct {
	Beat           float64
	Lane           float64 // Continuous center
	Size           float64 // Half-width
	Critical       bool
	Direction      *string // Set for flicks
	TimeScaleGroup int
	Trace          bool
}

func (o *Single) Type() ObjectType  { return TypeSingle }
func (o *Single) Position() float64 { return o.Beat }
func (o *Single) Traced() bool      { return o.Trace }
func (o *Single) isObject()         {}

// MarshalJSON implements json.Marshaler
func (o *Single) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type           ObjectType `json:"type"`
		Beat           float64    `json:"beat"`
		Lane           float64    `json:"lane"`
		Size           float64    `json:"size"`
		Critical       bool       `json:"critical"`
		Direction      *string    `json:"direction,omitempty"`
		TimeScaleGroup int        `json:"timeScaleGroup"`
		Trace          bool       `json:"trace"`
	}{TypeSingle, o.Beat, o.Lane, o.Size, o.Critical, o.Direction, o.TimeScaleGroup, o.Trace})
}

// SlidePoint is the geometry shared by standalone slide start/tick/end objects
type SlidePoint struct {
	Beat           float64
	Lane           float64
	Size           float64
	Critical       bool
	TimeScaleGroup int
	Trace          bool
}

func (p *SlidePoint) Position() float64 { return p.Beat }
func (p *SlidePoint) Traced() bool      { return p.Trace }
func (p *SlidePoint) isObject()         {}

func (p *SlidePoint) marshal(t ObjectType) ([]byte, error) {
	return json.Marshal(struct {
		Type           ObjectType `json:"type"`
		Beat           float64    `json:"beat"`
		Lane           float64    `json:"lane"`
		Size           float64    `json:"size"`
		Critical       bool       `json:"critical"`
		TimeScaleGroup int        `json:"timeScaleGroup"`
		Trace          bool       `json:"trace,omitempty"`
	}{t, p.Beat, p.Lane, p.Size, p.Critical, p.TimeScaleGroup, p.Trace})
}

// SlideStart opens a grouped slide run
type SlideStart struct{ SlidePoint }

// SlideTick is one point of a grouped slide run
type SlideTick struct{ SlidePoint }

// SlideEnd closes a grouped slide run
type SlideEnd struct{ SlidePoint }

func (o *SlideStart) Type() ObjectType { return TypeStart }
func (o *SlideTick) Type() ObjectType  { return TypeTick }
func (o *SlideEnd) Type() ObjectType   { return TypeEnd }

// MarshalJSON implements json.Marshaler
func (o *SlideStart) MarshalJSON() ([]byte, error) { return o.marshal(TypeStart) }

// MarshalJSON implements json.Marshaler
func (o *SlideTick) MarshalJSON() ([]byte, error) { return o.marshal(TypeTick) }

// MarshalJSON implements json.Marshaler
func (o *SlideEnd) MarshalJSON() ([]byte, error) { return o.marshal(TypeEnd) }

// Connection is a step of a composite slide or guide
type Connection struct {
	Type string  `json:"type"`
	Beat *Number `json:"beat"`
	Lane *Number `json:"lane"`
	Size *Number `json:"size"`
}

// spanFallback holds the flat endpoint fields some exporters write instead of
// connections
type spanFallback struct {
	StartBeat *Number `json:"startBeat"`
	Beat      *Number `json:"beat"`
	Time      *Number `json:"time"`
	EndBeat   *Number `json:"endBeat"`
	EndTime   *Number `json:"endTime"`
	End       *Number `json:"end"`
	Lane      *Number `json:"lane"`
	Size      *Number `json:"size"`
}

// Span is the resolved extent of a slide or guide, using the start endpoint's
// geometry
type Span struct {
	StartBeat float64
	EndBeat   float64
	Lane      float64
	Size      float64
}

func resolveSpan(conns, midpoints []Connection, fb spanFallback) Span {
	var starts, ends []Connection
	for _, c := range conns {
		switch ObjectType(c.Type) {
		case TypeStart:
			starts = append(starts, c)
		case TypeEnd:
			ends = append(ends, c)
		}
	}
	if len(starts) > 0 && len(ends) > 0 {
		s, e := starts[0], ends[len(ends)-1]
		start := pick(0, s.Beat, fb.Beat)
		return Span{
			StartBeat: start,
			EndBeat:   pick(start, e.Beat),
			Lane:      pick(0, s.Lane, fb.Lane),
			Size:      pick(1, s.Size, fb.Size),
		}
	}

	if len(midpoints) > 0 {
		s, e := midpoints[0], midpoints[len(midpoints)-1]
		start := pick(0, s.Beat, fb.Beat)
		return Span{
			StartBeat: start,
			EndBeat:   pick(start, e.Beat),
			Lane:      pick(0, s.Lane, fb.Lane),
			Size:      pick(1, s.Size, fb.Size),
		}
	}

	start := pick(0, fb.StartBeat, fb.Beat, fb.Time)
	return Span{
		StartBeat: start,
		EndBeat:   pick(start, fb.EndBeat, fb.EndTime, fb.End),
		Lane:      pick(0, fb.Lane),
		Size:      pick(1, fb.Size),
	}
}

// Slide is a composite hold gesture
type Slide struct {
	Critical    bool
	Connections []Connection
	Trace       bool

	fallback spanFallback
	raw      json.RawMessage
}

func (o *Slide) Type() ObjectType  { return TypeSlide }
func (o *Slide) Position() float64 { return o.Span().StartBeat }
func (o *Slide) Traced() bool      { return o.Trace }
func (o *Slide) isObject()         {}

// Span resolves the slide's start beat, end beat and start geometry
func (o *Slide) Span() Span {
	return resolveSpan(o.Connections, nil, o.fallback)
}

// MarshalJSON implements json.Marshaler
func (o *Slide) MarshalJSON() ([]byte, error) {
	if o.raw != nil {
		return o.raw, nil
	}
	return json.Marshal(struct {
		Type        ObjectType   `json:"type"`
		Critical    bool         `json:"critical"`
		Connections []Connection `json:"connections"`
	}{TypeSlide, o.Critical, o.Connections})
}

// Guide is a non-judged guide line
type Guide struct {
	Color       string
	Fade        string
	Midpoints   []Connection
	Connections []Connection
	Trace       bool

	fallback spanFallback
	raw      json.RawMessage
}

func (o *Guide) Type() ObjectType  { return TypeGuide }
func (o *Guide) Position() float64 { return o.Span().StartBeat }
func (o *Guide) Traced() bool      { return o.Trace }
func (o *Guide) isObject()         {}

// Span resolves the guide's extent. Connections win over midpoints.
func (o *Guide) Span() Span {
	return resolveSpan(o.Connections, o.Midpoints, o.fallback)
}

// MarshalJSON implements json.Marshaler
func (o *Guide) MarshalJSON() ([]byte, error) {
	if o.raw != nil {
		return o.raw, nil
	}
	return json.Marshal(struct {
		Type      ObjectType   `json:"type"`
		Color     string       `json:"color,omitempty"`
		Fade      string       `json:"fade,omitempty"`
		Midpoints []Connection `json:"midpoints"`
	}{TypeGuide, o.Color, o.Fade, o.Midpoints})
}

// Unrecognized keeps an object of a type this package does not model
type Unrecognized struct {
	Kind  string
	Beat  float64
	Trace bool
	Raw   json.RawMessage
}

func (o *Unrecognized) Type() ObjectType  { return ObjectType(o.Kind) }
func (o *Unrecognized) Position() float64 { return o.Beat }
func (o *Unrecognized) Traced() bool      { return o.Trace }
func (o *Unrecognized) isObject()         {}

// MarshalJSON implements json.Marshaler
func (o *Unrecognized) MarshalJSON() ([]byte, error) {
	return o.Raw, nil
}

type objectHeader struct {
	Type  string          `json:"type"`
	Beat  *Number         `json:"beat"`
	Trace json.RawMessage `json:"trace"`
}

// DecodeObject decodes one USC object by its type field
func DecodeObject(raw json.RawMessage) (Object, error) {
	var hdr objectHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return nil, errors.Wrap(err, "invalid object")
	}
	trace := bytes.Equal(bytes.TrimSpace(hdr.Trace), []byte("true"))

	switch ObjectType(hdr.Type) {
	case TypeBPM:
		var w struct {
			Beat *Number `json:"beat"`
			BPM  *Number `json:"bpm"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, errors.Wrap(err, "invalid bpm object")
		}
		return &BPMChange{Beat: pick(0, w.Beat), BPM: pick(0, w.BPM)}, nil

	case TypeTimeScaleGroup:
		var w struct {
			Changes []struct {
				Beat      *Number `json:"beat"`
				TimeScale *Number `json:"timeScale"`
			} `json:"changes"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, errors.Wrap(err, "invalid timeScaleGroup object")
		}
		g := &TimeScaleGroup{Changes: make([]TimeScaleChange, 0, len(w.Changes))}
		for _, ch := range w.Changes {
			g.Changes = append(g.Changes, TimeScaleChange{
				Beat:      pick(0, ch.Beat),
				TimeScale: pick(1, ch.TimeScale),
			})
		}
		return g, nil

	case TypeSingle:
		var w struct {
			Beat           *Number `json:"beat"`
			Lane           *Number `json:"lane"`
			Size           *Number `json:"size"`
			Critical       bool    `json:"critical"`
			Direction      *string `json:"direction"`
			TimeScaleGroup int     `json:"timeScaleGroup"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, errors.Wrap(err, "invalid single object")
		}
		return &Single{
			Beat:           pick(0, w.Beat),
			Lane:           pick(0, w.Lane),
			Size:           pick(1, w.Size),
			Critical:       w.Critical,
			Direction:      w.Direction,
			TimeScaleGroup: w.TimeScaleGroup,
			Trace:          trace,
		}, nil

	case TypeStart, TypeTick, TypeEnd:
		var w struct {
			Beat           *Number `json:"beat"`
			Lane           *Number `json:"lane"`
			Size           *Number `json:"size"`
			Critical       bool    `json:"critical"`
			TimeScaleGroup int     `json:"timeScaleGroup"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, errors.Wrapf(err, "invalid %s object", hdr.Type)
		}
		p := SlidePoint{
			Beat:           pick(0, w.Beat),
			Lane:           pick(0, w.Lane),
			Size:           pick(1, w.Size),
			Critical:       w.Critical,
			TimeScaleGroup: w.TimeScaleGroup,
			Trace:          trace,
		}
		switch ObjectType(hdr.Type) {
		case TypeStart:
			return &SlideStart{p}, nil
		case TypeTick:
			return &SlideTick{p}, nil
		default:
			return &SlideEnd{p}, nil
		}

	case TypeSlide:
		var w struct {
			spanFallback
			Critical    bool         `json:"critical"`
			Connections []Connection `json:"connections"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, errors.Wrap(err, "invalid slide object")
		}
		return &Slide{
			Critical:    w.Critical,
			Connections: w.Connections,
			Trace:       trace,
			fallback:    w.spanFallback,
			raw:         append(json.RawMessage(nil), raw...),
		}, nil

	case TypeGuide:
		var w struct {
			spanFallback
			Color       string       `json:"color"`
			Fade        string       `json:"fade"`
			Midpoints   []Connection `json:"midpoints"`
			Connections []Connection `json:"connections"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, errors.Wrap(err, "invalid guide object")
		}
		return &Guide{
			Color:       w.Color,
			Fade:        w.Fade,
			Midpoints:   w.Midpoints,
			Connections: w.Connections,
			Trace:       trace,
			fallback:    w.spanFallback,
			raw:         append(json.RawMessage(nil), raw...),
		}, nil
	}

	return &Unrecognized{
		Kind:  hdr.Type,
		Beat:  pick(0, hdr.Beat),
		Trace: trace,
		Raw:   append(json.RawMessage(nil), raw...),
	}, nil
}

// typePriority orders tempo before scroll groups before everything else
func typePriority(o Object) int {
	switch o.Type() {
	case TypeBPM:
		return 0
	case TypeTimeScaleGroup:
		return 1
	default:
		return 2
	}
}

// SortObjects stable-sorts objects by (beat, type priority)
func SortObjects(objs []Object) {
	sort.SliceStable(objs, func(i, j int) bool {
		bi, bj := objs[i].Position(), objs[j].Position()
		if bi != bj {
			return bi < bj
		}
		return typePriority(objs[i]) < typePriority(objs[j])
	})
}

// Document is a USC interchange document
type Document struct {
	Version int
	Objects []Object
	Offset  float64
	Title   string // Optional, trimmed
}

// NewDocument creates an empty version 2 document with offset -0.0
func NewDocument() *Document {
	return &Document{
		Version: USCVersion,
		Offset:  math.Copysign(0, -1),
	}
}

type documentWire struct {
	Version int      `json:"version"`
	USC     *uscWire `json:"usc"`
}

type uscWire struct {
	Objects []json.RawMessage `json:"objects"`
	Offset  *Number           `json:"offset"`
	Title   json.RawMessage   `json:"title,omitempty"`
}

// DecodeDocument parses USC JSON
func DecodeDocument(data []byte) (*Document, error) {
	var w documentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(err, "failed to parse USC")
	}

	doc := &Document{Version: w.Version}
	if w.USC == nil {
		return doc, nil
	}

	doc.Offset = pick(0, w.USC.Offset)

	var title string
	if len(w.USC.Title) > 0 && json.Unmarshal(w.USC.Title, &title) == nil {
		doc.Title = strings.TrimSpace(title)
	}

	doc.Objects = make([]Object, 0, len(w.USC.Objects))
	for i, raw := range w.USC.Objects {
		obj, err := DecodeObject(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "object %d", i)
		}
		doc.Objects = append(doc.Objects, obj)
	}

	return doc, nil
}

// Encode writes the document as indented USC JSON
func (d *Document) Encode() ([]byte, error) {
	objs := make([]json.RawMessage, 0, len(d.Objects))
	for i, o := range d.Objects {
		b, err := json.Marshal(o)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode object %d", i)
		}
		objs = append(objs, b)
	}

	offset := Number(d.Offset)
	w := documentWire{
		Version: d.Version,
		USC: &uscWire{
			Objects: objs,
			Offset:  &offset,
		},
	}
	if d.Title != "" {
		title, err := json.Marshal(d.Title)
		if err != nil {
			return nil, err
		}
		w.USC.Title = title
	}

	return encodeIndented(w)
}

// encodeIndented marshals with two-space indentation and no HTML escaping
func encodeIndented(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
