package targets

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/james-see/chartbridge/pkg/converter"
)

func TestMyGameName(t *testing.T) {
	target := NewMyGame()
	if target.Name() != MyGameName {
		t.Errorf("Name() = %q, want %q", target.Name(), MyGameName)
	}
	if target.ID() != MyGameID {
		t.Errorf("ID() = %q, want %q", target.ID(), MyGameID)
	}
}

func TestMyGameEncodeChart(t *testing.T) {
	notes := []converter.Note{
		{Time: 0, Lane: 6, Width: 3, Type: converter.NoteNormal},
		{Time: 1, Lane: 7, Width: 2, Type: converter.NoteLong, Hold: 0},
		{Time: 2, Lane: 4, Width: 2, Type: converter.NoteGuide, Hold: 1.5},
	}
	data, err := NewMyGame().EncodeChart(notes)
	if err != nil {
		t.Fatalf("EncodeChart() error = %v", err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if _, ok := records[0]["hold"]; ok {
		t.Error("tap notes must not carry a hold field")
	}
	if hold, ok := records[1]["hold"]; !ok || hold.(float64) != 0 {
		t.Errorf("long note hold = %v, want explicit 0", records[1]["hold"])
	}
	if records[2]["type"] != "guide" || records[2]["hold"].(float64) != 1.5 {
		t.Errorf("guide record = %v", records[2])
	}
	if !strings.HasPrefix(string(data), "[\n  {") {
		t.Errorf("output should be indented:\n%s", data)
	}
}

func TestMyGameEncodeEmptyChart(t *testing.T) {
	data, err := NewMyGame().EncodeChart(nil)
	if err != nil {
		t.Fatalf("EncodeChart() error = %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("empty chart = %s, want []", data)
	}
}

func TestEncodeMetadata(t *testing.T) {
	meta := &converter.Metadata{Title: "Tell Your World & <More>", BPM: 150, Offset: 0}
	data, err := NewMyGame().EncodeMetadata(meta)
	if err != nil {
		t.Fatalf("EncodeMetadata() error = %v", err)
	}

	out := string(data)
	if !strings.Contains(out, `"speedScaleMarkers": []`) {
		t.Errorf("nil markers should encode as an empty list:\n%s", out)
	}
	if !strings.Contains(out, "& <More>") {
		t.Errorf("title should not be HTML escaped:\n%s", out)
	}
	if meta.SpeedScaleMarkers != nil {
		t.Error("EncodeMetadata() must not modify its input")
	}
}

func TestNearestAnchor(t *testing.T) {
	tests := []struct {
		lane, want int
	}{
		{1, 1}, {2, 1}, {3, 4}, {4, 4}, {5, 4}, {6, 7}, {8, 7}, {9, 10}, {12, 10},
	}
	for _, tt := range tests {
		if got := NearestAnchor(tt.lane); got != tt.want {
			t.Errorf("NearestAnchor(%d) = %d, want %d", tt.lane, got, tt.want)
		}
	}
}

func TestFourLaneNormalize(t *testing.T) {
	in := []converter.Note{
		{Time: 0, Lane: 6, Width: 3, Type: converter.NoteNormal},
		{Time: 1, Lane: 11, Width: 2, Type: converter.NoteLong, Hold: 2},
	}
	out := NewFourLane().Normalize(in)

	if out[0].Lane != 7 || out[0].Width != FourLaneWidth {
		t.Errorf("out[0] = %+v", out[0])
	}
	if out[1].Lane != 10 || out[1].Hold != 2 || out[1].Type != converter.NoteLong {
		t.Errorf("out[1] = %+v", out[1])
	}
	if in[0].Lane != 6 {
		t.Error("Normalize() must not modify its input")
	}
}

func TestByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"mygame", MyGameID},
		{"", MyGameID},
		{"unknown", MyGameID},
		{"fourlane", FourLaneID},
		{"4LANE", FourLaneID},
		{"four-lane", FourLaneID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ByName(tt.name).ID(); got != tt.want {
				t.Errorf("ByName(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestAvailable(t *testing.T) {
	infos := Available()
	if len(infos) != 2 {
		t.Fatalf("Available() returned %d targets, want 2", len(infos))
	}
	for _, info := range infos {
		if ByName(info.ID).ID() != info.ID {
			t.Errorf("target %q is listed but not resolvable", info.ID)
		}
	}
}
