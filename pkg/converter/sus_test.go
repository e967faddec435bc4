package converter

import (
	"reflect"
	"testing"

	"golang.org/x/text/encoding/japanese"
)

func TestDecodeSource(t *testing.T) {
	t.Run("utf8 with BOM and CRLF", func(t *testing.T) {
		lines := DecodeSource([]byte("\xef\xbb\xbf#BPM01: 140\r\n#00011: 01 \r\n"))
		want := []string{"#BPM01: 140", "#00011: 01"}
		if !reflect.DeepEqual(lines, want) {
			t.Errorf("DecodeSource() = %q, want %q", lines, want)
		}
	})

	t.Run("shift_jis", func(t *testing.T) {
		sjis, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte("#TITLE \"千本桜\"\n#00011: 01"))
		if err != nil {
			t.Fatal(err)
		}
		lines := DecodeSource(sjis)
		if len(lines) != 2 || lines[0] != "#TITLE \"千本桜\"" {
			t.Errorf("DecodeSource() = %q", lines)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if lines := DecodeSource(nil); len(lines) != 0 {
			t.Errorf("DecodeSource(nil) = %q, want none", lines)
		}
	})
}

func TestScanDirectives(t *testing.T) {
	lines := []string{
		`#REQUEST "ticks_per_beat 192"`,
		"#BPM01: 140",
		"#BPM02: abc",
		"#BPM03: -10",
		"#BPMDEFAULT 150",
		"#MEASURE002: 3/4",
		"#MEASURE003: 3/0",
		"#MEASURE004: x",
	}
	timing := NewSusParser(480, nil).ScanDirectives(lines)

	if timing.TicksPerBeat != 192 {
		t.Errorf("TicksPerBeat = %d, want 192", timing.TicksPerBeat)
	}
	if timing.BPMs["BPM01"] != 140 {
		t.Errorf("BPM01 = %v, want 140", timing.BPMs["BPM01"])
	}
	if _, ok := timing.BPMs["BPM02"]; ok {
		t.Error("non-numeric tempo slot should be ignored")
	}
	if _, ok := timing.BPMs["BPM03"]; ok {
		t.Error("negative tempo slot should be ignored")
	}
	if !timing.HasDefault || timing.DefaultBPM != 150 {
		t.Errorf("default = %v/%v, want 150", timing.HasDefault, timing.DefaultBPM)
	}
	if b := timing.BeatsForMeasure(2); b != 3 {
		t.Errorf("BeatsForMeasure(2) = %v, want 3", b)
	}
	if b := timing.BeatsForMeasure(3); b != 4 {
		t.Errorf("BeatsForMeasure(3) = %v, want 4 (zero denominator ignored)", b)
	}
	if b := timing.BeatsForMeasure(4); b != 4 {
		t.Errorf("BeatsForMeasure(4) = %v, want 4", b)
	}
}

func TestExtractEvents(t *testing.T) {
	lines := []string{
		"#00011: 0100",
		"#0015c: 00000001",
		"#00021: 01",   // unsupported channel group
		"#0001D: 01",   // lane 13
		"#00010: 01",   // lane 0
		"#TITLE \"x\"", // directive
		"#00113: abc",  // odd length is left-padded
	}
	events := NewSusParser(480, nil).ExtractEvents(lines)

	want := []RawEvent{
		{Measure: 0, Group: GroupTap, LaneHex: 1, TokenIndex: 0, TokenCount: 2},
		{Measure: 1, Group: GroupSlideTick, LaneHex: 12, TokenIndex: 3, TokenCount: 4},
		{Measure: 1, Group: GroupTap, LaneHex: 3, TokenIndex: 0, TokenCount: 2},
		{Measure: 1, Group: GroupTap, LaneHex: 3, TokenIndex: 1, TokenCount: 2},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("ExtractEvents() =\n%+v\nwant\n%+v", events, want)
	}
}

func TestSplitTokens(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"0100", []string{"01", "00"}},
		{"abc", []string{"0A", "BC"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := splitTokens(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitTokens(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
