package converter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Format represents a file format
type Format string

const (
	FormatSUS     Format = "sus"
	FormatUSC     Format = "usc"
	FormatJSON    Format = "json" // USC on input, target chart on output
	FormatChart   Format = "chart"
	FormatMIDI    Format = "midi"
	FormatUnknown Format = "unknown"
)

// MetadataFile is the name of the song metadata written beside charts
const MetadataFile = "metadata.json"

// ErrUnsupported is returned for conversions without a pipeline
var ErrUnsupported = errors.New("unsupported conversion")

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".sus":
		return FormatSUS
	case ".usc":
		return FormatUSC
	case ".json":
		return FormatJSON
	case ".mid", ".midi":
		return FormatMIDI
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(trimmed) < 2 {
		return FormatUnknown
	}

	switch {
	case bytes.HasPrefix(trimmed, []byte("MThd")):
		return FormatMIDI
	case trimmed[0] == '{' && bytes.Contains(trimmed, []byte(`"usc"`)):
		return FormatUSC
	case trimmed[0] == '[':
		return FormatChart
	case trimmed[0] == '#':
		return FormatSUS
	default:
		return FormatUnknown
	}
}

// ChartName returns the base name of a path without its extension
func ChartName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ConvertFile converts a file from one format to another, chosen by the
// extensions of both paths. Chart outputs get a metadata.json beside them.
func (c *Converter) ConvertFile(inputPath, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return errors.Wrap(err, "failed to read input file")
	}

	inputFormat := DetectFormat(inputPath)
	switch inputFormat {
	case FormatUnknown:
		inputFormat = DetectFormatFromContent(data)
	case FormatJSON:
		inputFormat = FormatUSC
	}

	outputFormat := DetectFormat(outputPath)
	if outputFormat == FormatUnknown {
		return errors.New("cannot determine output format from filename")
	}
	if outputFormat == FormatJSON {
		outputFormat = FormatChart
	}

	name := ChartName(inputPath)

	var chart *Chart
	switch {
	case inputFormat == FormatSUS && outputFormat == FormatUSC:
		out, err := c.SusToUSC(data)
		if err != nil {
			return errors.Wrap(err, "conversion failed")
		}
		return writeOutput(outputPath, out)
	case inputFormat == FormatSUS && (outputFormat == FormatChart || outputFormat == FormatMIDI):
		chart, err = c.SusToChart(data, name)
	case inputFormat == FormatUSC && (outputFormat == FormatChart || outputFormat == FormatMIDI):
		chart, err = c.USCToChart(data, name)
	default:
		return errors.Wrapf(ErrUnsupported, "%s to %s", inputFormat, outputFormat)
	}
	if err != nil {
		return errors.Wrap(err, "conversion failed")
	}

	if outputFormat == FormatMIDI {
		out, err := c.ChartToMIDI(chart)
		if err != nil {
			return errors.Wrap(err, "conversion failed")
		}
		return writeOutput(outputPath, out)
	}

	notes, meta, err := c.EncodeChart(chart)
	if err != nil {
		return errors.Wrap(err, "conversion failed")
	}
	if err := writeOutput(outputPath, notes); err != nil {
		return err
	}
	return writeOutput(filepath.Join(filepath.Dir(outputPath), MetadataFile), meta)
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write output file")
	}
	return nil
}

// SusToDocument builds the sorted USC document of a SUS chart
func (c *Converter) SusToDocument(data []byte) *Document {
	lines := DecodeSource(data)
	parser := NewSusParser(c.opts.TicksPerBeat, c.log)
	timing := parser.ScanDirectives(lines)
	events := parser.ExtractEvents(lines)

	var taps, ticks []Point
	for _, ev := range events {
		p := Point{
			Beat: timing.BeatAt(ev.Measure, ev.TokenIndex, ev.TokenCount),
			Lane: HexToCenter(ev.LaneHex),
		}
		switch ev.Group {
		case GroupTap:
			p.Size = c.opts.NoteSize
			taps = append(taps, p)
		case GroupSlideTick:
			p.Size = c.opts.SlideSize
			ticks = append(ticks, p)
		}
	}
	taps = Dedup(taps)
	ticks = Dedup(ticks)

	doc := NewDocument()
	doc.Objects = make([]Object, 0, len(taps)+len(ticks)+2)
	doc.Objects = append(doc.Objects,
		&BPMChange{Beat: 0, BPM: timing.ResolveBPM(c.opts.DefaultBPM)},
		&TimeScaleGroup{},
	)
	for _, p := range taps {
		doc.Objects = append(doc.Objects, &Single{Beat: p.Beat, Lane: p.Lane, Size: p.Size})
	}
	doc.Objects = append(doc.Objects, BuildSlides(ticks, c.opts)...)
	SortObjects(doc.Objects)

	c.log.Debug("built document",
		zap.Int("lines", len(lines)),
		zap.Int("events", len(events)),
		zap.Int("taps", len(taps)),
		zap.Int("objects", len(doc.Objects)),
	)
	return doc
}

// SusToUSC converts SUS data to USC JSON
func (c *Converter) SusToUSC(susData []byte) ([]byte, error) {
	return c.SusToDocument(susData).Encode()
}

// DocumentToChart emits the target chart of a document
func (c *Converter) DocumentToChart(doc *Document, name string) *Chart {
	notes := EmitNotes(doc.Objects)
	if c.target != nil {
		notes = c.target.Normalize(notes)
	}
	return &Chart{
		Notes:       notes,
		Metadata:    BuildMetadata(doc, name, c.opts.FallbackBPM),
		SourceTitle: doc.Title,
	}
}

// USCToChart converts USC data to a target chart
func (c *Converter) USCToChart(uscData []byte, name string) (*Chart, error) {
	doc, err := DecodeDocument(uscData)
	if err != nil {
		return nil, err
	}
	return c.DocumentToChart(doc, name), nil
}

// SusToChart converts SUS data straight to a target chart
func (c *Converter) SusToChart(susData []byte, name string) (*Chart, error) {
	return c.DocumentToChart(c.SusToDocument(susData), name), nil
}

// EncodeChart serialises the chart notes and metadata with the target
func (c *Converter) EncodeChart(chart *Chart) (notes, meta []byte, err error) {
	if c.target == nil {
		return nil, nil, errors.New("no target configured")
	}
	if chart == nil {
		return nil, nil, errors.New("nil chart")
	}
	notes, err = c.target.EncodeChart(chart.Notes)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to encode chart")
	}
	meta, err = c.target.EncodeMetadata(&chart.Metadata)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to encode metadata")
	}
	return notes, meta, nil
}

// EncodeMetadata serialises song metadata with the target
func (c *Converter) EncodeMetadata(meta *Metadata) ([]byte, error) {
	if c.target == nil {
		return nil, errors.New("no target configured")
	}
	out, err := c.target.EncodeMetadata(meta)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode metadata")
	}
	return out, nil
}

// ChartToMIDI renders a chart as a preview MIDI file
func (c *Converter) ChartToMIDI(chart *Chart) ([]byte, error) {
	return NewMIDIRenderer(c.opts.TicksPerBeat).GenerateMIDI(chart)
}

// GetSupportedConversions returns a list of supported conversion paths
func GetSupportedConversions() []string {
	return []string{
		"sus -> usc",
		"sus -> chart",
		"usc -> chart",
		"sus -> midi",
		"usc -> midi",
	}
}
