package converter

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/japanese"
	xunicode "golang.org/x/text/encoding/unicode"
)

// EventGroup is the channel group of a SUS data line
type EventGroup int

const (
	GroupTap       EventGroup = iota // Channel 1x
	GroupSlideTick                   // Channel 5x
)

// RawEvent is one non-zero token of a SUS data line
type RawEvent struct {
	Measure    int
	Group      EventGroup
	LaneHex    int
	TokenIndex int
	TokenCount int
}

var (
	ticksPerBeatRe = regexp.MustCompile(`ticks_per_beat\s+(\d+)`)
	bpmSlotRe      = regexp.MustCompile(`^#BPM[0-9A-Fa-f]{2}:`)
	measureRe      = regexp.MustCompile(`^#MEASURE(\d{3}):\s*(\d+)\s*/\s*(\d+)`)
	dataLineRe     = regexp.MustCompile(`^#(\d{3})([0-9A-Fa-f]{2,3}):\s*([0-9A-Fa-f]+)`)
)

// DecodeSource turns raw SUS bytes into right-trimmed lines.
// Payloads that are not valid UTF-8 are read as Shift_JIS.
func DecodeSource(data []byte) []string {
	var text []byte
	if utf8.Valid(data) {
		text, _ = xunicode.UTF8BOM.NewDecoder().Bytes(data)
	} else if sjis, err := japanese.ShiftJIS.NewDecoder().Bytes(data); err == nil {
		text = sjis
	} else {
		text = bytes.ToValidUTF8(data, nil)
	}

	s := strings.ReplaceAll(string(text), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}

	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRightFunc(ln, unicode.IsSpace)
	}
	return lines
}

// SusParser reads the directive and data lines of a SUS chart
type SusParser struct {
	ticksPerBeat int
	log          *zap.Logger
}

// NewSusParser creates a parser
func NewSusParser(ticksPerBeat int, log *zap.Logger) *SusParser {
	if log == nil {
		log = zap.NewNop()
	}
	return &SusParser{ticksPerBeat: ticksPerBeat, log: log.Named("sus")}
}

// ScanDirectives collects tick resolution, tempo and measure-length directives.
// Malformed directives are skipped.
func (p *SusParser) ScanDirectives(lines []string) *TimingTable {
	t := NewTimingTable(p.ticksPerBeat)

	for _, ln := range lines {
		switch {
		case strings.HasPrefix(ln, "#REQUEST") && strings.Contains(ln, "ticks_per_beat"):
			if m := ticksPerBeatRe.FindStringSubmatch(ln); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					t.TicksPerBeat = n
				}
			}
		case strings.HasPrefix(ln, "#BPM") && strings.Contains(ln, ":") && bpmSlotRe.MatchString(ln):
			tag, val, _ := strings.Cut(ln, ":")
			bpm, ok := parseTempo(val)
			if !ok {
				p.log.Debug("ignoring tempo slot", zap.String("line", ln))
				continue
			}
			t.BPMs[strings.TrimSpace(tag[1:])] = bpm
		case strings.HasPrefix(ln, "#BPMDEFAULT"):
			fields := strings.Fields(ln)
			if len(fields) < 2 {
				p.log.Debug("ignoring default tempo", zap.String("line", ln))
				continue
			}
			bpm, ok := parseTempo(fields[1])
			if !ok {
				p.log.Debug("ignoring default tempo", zap.String("line", ln))
				continue
			}
			t.DefaultBPM = bpm
			t.HasDefault = true
		case strings.HasPrefix(ln, "#MEASURE"):
			m := measureRe.FindStringSubmatch(ln)
			if m == nil {
				p.log.Debug("ignoring measure directive", zap.String("line", ln))
				continue
			}
			meas, _ := strconv.Atoi(m[1])
			num, err1 := strconv.Atoi(m[2])
			den, err2 := strconv.Atoi(m[3])
			if err1 != nil || err2 != nil || den == 0 {
				p.log.Debug("ignoring measure directive", zap.String("line", ln))
				continue
			}
			t.MeasureBeats[meas] = 4.0 * float64(num) / float64(den)
		}
	}

	return t
}

func parseTempo(s string) (float64, bool) {
	bpm, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !(bpm > 0) {
		return 0, false
	}
	return bpm, true
}

// ExtractEvents emits one RawEvent per non-zero token of tap and slide lines.
// Other channel groups and lane codes outside 1-12 are dropped.
func (p *SusParser) ExtractEvents(lines []string) []RawEvent {
	var events []RawEvent

	for _, ln := range lines {
		m := dataLineRe.FindStringSubmatch(ln)
		if m == nil {
			continue
		}
		meas, _ := strconv.Atoi(m[1])
		ch := strings.ToUpper(m[2])

		var group EventGroup
		switch ch[0] {
		case '1':
			group = GroupTap
		case '5':
			group = GroupSlideTick
		default:
			continue
		}

		laneHex, err := strconv.ParseInt(ch[len(ch)-1:], 16, 0)
		if err != nil || !ValidLaneHex(int(laneHex)) {
			p.log.Debug("dropping lane code", zap.String("channel", ch), zap.Int("measure", meas))
			continue
		}

		tokens := splitTokens(m[3])
		for idx, tok := range tokens {
			if tok == "00" {
				continue
			}
			events = append(events, RawEvent{
				Measure:    meas,
				Group:      group,
				LaneHex:    int(laneHex),
				TokenIndex: idx,
				TokenCount: len(tokens),
			})
		}
	}

	return events
}

// splitTokens cuts a hex payload into upper-cased two-character tokens
func splitTokens(data string) []string {
	data = strings.ToUpper(data)
	if len(data)%2 != 0 {
		data = "0" + data
	}
	tokens := make([]string, 0, len(data)/2)
	for i := 0; i < len(data); i += 2 {
		tokens = append(tokens, data[i:i+2])
	}
	return tokens
}
