package converter

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSortObjects(t *testing.T) {
	objs := []Object{
		&Single{Beat: 1},
		&Single{Beat: 0, Lane: 1},
		&TimeScaleGroup{},
		&BPMChange{Beat: 0, BPM: 120},
		&Single{Beat: 0, Lane: 2},
		&BPMChange{Beat: 1, BPM: 140},
	}
	SortObjects(objs)

	want := []struct {
		typ  ObjectType
		beat float64
	}{
		{TypeBPM, 0}, {TypeTimeScaleGroup, 0}, {TypeSingle, 0}, {TypeSingle, 0}, {TypeBPM, 1}, {TypeSingle, 1},
	}
	for i, w := range want {
		if objs[i].Type() != w.typ || objs[i].Position() != w.beat {
			t.Errorf("objs[%d] = %s@%v, want %s@%v", i, objs[i].Type(), objs[i].Position(), w.typ, w.beat)
		}
	}

	// Equal keys keep their input order
	if objs[2].(*Single).Lane != 1 || objs[3].(*Single).Lane != 2 {
		t.Error("SortObjects() is not stable")
	}
}

func TestDecodeDocument(t *testing.T) {
	data := []byte(`{
		"version": 2,
		"usc": {
			"offset": 0.25,
			"title": "  Song  ",
			"objects": [
				{"type": "bpm", "beat": 0, "bpm": "160"},
				{"type": "timeScaleGroup", "changes": [{"beat": 4, "timeScale": 2}]},
				{"type": "single", "beat": 1.5, "lane": -2, "size": 1, "critical": true, "direction": "left", "trace": false},
				{"type": "damage", "beat": 3, "lane": 0}
			]
		}
	}`)

	doc, err := DecodeDocument(data)
	if err != nil {
		t.Fatalf("DecodeDocument() error = %v", err)
	}
	if doc.Version != 2 || doc.Offset != 0.25 || doc.Title != "Song" {
		t.Errorf("document = v%d offset %v title %q", doc.Version, doc.Offset, doc.Title)
	}
	if len(doc.Objects) != 4 {
		t.Fatalf("got %d objects, want 4", len(doc.Objects))
	}

	if bpm := doc.Objects[0].(*BPMChange); bpm.BPM != 160 {
		t.Errorf("string bpm decoded as %v", bpm.BPM)
	}
	if g := doc.Objects[1].(*TimeScaleGroup); len(g.Changes) != 1 || g.Changes[0].TimeScale != 2 {
		t.Errorf("changes = %+v", g.Changes)
	}
	single := doc.Objects[2].(*Single)
	if !single.Critical || single.Direction == nil || *single.Direction != "left" {
		t.Errorf("single = %+v", single)
	}
	unknown, ok := doc.Objects[3].(*Unrecognized)
	if !ok || unknown.Type() != "damage" || unknown.Position() != 3 {
		t.Fatalf("objects[3] = %#v, want unrecognized damage at beat 3", doc.Objects[3])
	}

	out, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(string(out), `"type":"damage"`) && !strings.Contains(string(out), `"type": "damage"`) {
		t.Errorf("unrecognized object was not preserved:\n%s", out)
	}
	if !strings.Contains(string(out), `"title": "Song"`) {
		t.Errorf("title missing from output:\n%s", out)
	}
}

func TestDecodeDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `usc`},
		{"bad number", `{"version": 2, "usc": {"objects": [{"type": "single", "beat": "soon"}]}}`},
		{"object is not an object", `{"version": 2, "usc": {"objects": [42]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeDocument([]byte(tt.data)); err == nil {
				t.Error("DecodeDocument() should fail")
			}
		})
	}
}

func TestDecodeDocumentWithoutUSC(t *testing.T) {
	doc, err := DecodeDocument([]byte(`{"version": 2}`))
	if err != nil {
		t.Fatalf("DecodeDocument() error = %v", err)
	}
	if len(doc.Objects) != 0 || doc.Offset != 0 {
		t.Errorf("document = %+v, want empty", doc)
	}
}

func TestSlideSpan(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Span
	}{
		{
			"connections",
			`{"type": "slide", "connections": [
				{"type": "start", "beat": 2, "lane": 1, "size": 1},
				{"type": "tick", "beat": 3, "lane": 2, "size": 1},
				{"type": "end", "beat": 4, "lane": 3, "size": 2}
			]}`,
			Span{StartBeat: 2, EndBeat: 4, Lane: 1, Size: 1},
		},
		{
			"flat fields",
			`{"type": "slide", "startBeat": 1, "endBeat": 5, "lane": -1, "size": 0.5}`,
			Span{StartBeat: 1, EndBeat: 5, Lane: -1, Size: 0.5},
		},
		{
			"time fields",
			`{"type": "slide", "time": 2, "endTime": 3}`,
			Span{StartBeat: 2, EndBeat: 3, Lane: 0, Size: 1},
		},
		{
			"start without end uses flat fields",
			`{"type": "slide", "beat": 6, "connections": [{"type": "start", "beat": 7, "lane": 2, "size": 3}]}`,
			Span{StartBeat: 6, EndBeat: 6, Lane: 0, Size: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := DecodeObject(json.RawMessage(tt.json))
			if err != nil {
				t.Fatalf("DecodeObject() error = %v", err)
			}
			slide, ok := obj.(*Slide)
			if !ok {
				t.Fatalf("got %T, want *Slide", obj)
			}
			if got := slide.Span(); got != tt.want {
				t.Errorf("Span() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGuideSpanFromMidpoints(t *testing.T) {
	obj, err := DecodeObject(json.RawMessage(`{"type": "guide", "color": "green", "fade": "out", "midpoints": [
		{"beat": 1, "lane": -2, "size": 0.5},
		{"beat": 3, "lane": 0, "size": 0.5}
	]}`))
	if err != nil {
		t.Fatalf("DecodeObject() error = %v", err)
	}
	guide := obj.(*Guide)
	want := Span{StartBeat: 1, EndBeat: 3, Lane: -2, Size: 0.5}
	if got := guide.Span(); got != want {
		t.Errorf("Span() = %+v, want %+v", got, want)
	}
	if guide.Color != "green" || guide.Position() != 1 {
		t.Errorf("guide = %+v", guide)
	}
}

func TestTraceFlag(t *testing.T) {
	for _, raw := range []string{
		`{"type": "single", "beat": 0, "trace": true}`,
		`{"type": "slide", "trace": true, "connections": []}`,
		`{"type": "tick", "beat": 0, "trace": true}`,
	} {
		obj, err := DecodeObject(json.RawMessage(raw))
		if err != nil {
			t.Fatalf("DecodeObject(%s) error = %v", raw, err)
		}
		if !obj.Traced() {
			t.Errorf("%s should be traced", raw)
		}
	}
}
