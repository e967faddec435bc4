// Package batch converts single charts or whole chart folders and reports
// per-file outcomes
package batch

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/james-see/chartbridge/pkg/converter"
	"github.com/james-see/chartbridge/pkg/logging"
	"github.com/pkg/errors"
	"github.com/remeh/sizedwaitgroup"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// Input extensions per pipeline
var (
	SUSExts = []string{".sus"}
	USCExts = []string{".usc", ".json"}
)

// Fallback chart file name when no difficulty keyword is found
const DefaultChartFile = "chart.json"

const maxFolderName = 100

var (
	// ErrMissingInput is returned when the input path does not exist
	ErrMissingInput = errors.New("input path does not exist")
	// ErrNoInputs is returned when no file with a matching extension was found
	ErrNoInputs = errors.New("no matching input files found")
)

// difficultyKeys is checked in order; the first substring hit wins
var difficultyKeys = []struct{ key, name string }{
	{"master", "master"},
	{"expert", "expert"},
	{"extreme", "expert"},
	{"hard", "hard"},
	{"normal", "normal"},
	{"easy", "easy"},
}

var unsafeNameRe = regexp.MustCompile(`[\\/:*?"<>|\n\r\t]`)

// DetectDifficulty infers a difficulty name from a file name, or ""
func DetectDifficulty(path string) string {
	fn := strings.ToLower(filepath.Base(path))
	for _, d := range difficultyKeys {
		if strings.Contains(fn, d.key) {
			return d.name
		}
	}
	return ""
}

// InferOutName returns "<difficulty>.json", or defaultName
func InferOutName(path, defaultName string) string {
	if diff := DetectDifficulty(path); diff != "" {
		return diff + ".json"
	}
	return defaultName
}

// SafeFolderName makes a title usable as a directory name
func SafeFolderName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	name = unsafeNameRe.ReplaceAllString(name, "_")
	if r := []rune(name); len(r) > maxFolderName {
		name = string(r[:maxFolderName])
	}
	return name
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// CollectInputs returns target itself when it is a file with a matching
// extension, or every matching file below it when it is a directory
func CollectInputs(target string, exts []string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrMissingInput, target)
		}
		return nil, errors.Wrapf(err, "failed to stat %s", target)
	}

	if !info.IsDir() {
		if !hasExt(target, exts) {
			return nil, nil
		}
		abs, err := filepath.Abs(target)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve input path")
		}
		return []string{abs}, nil
	}

	var paths []string
	err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && hasExt(path, exts) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to walk %s", target)
	}
	return paths, nil
}

// Result is the outcome of one input file
type Result struct {
	Source string
	Output string
	Bytes  int64
	Chart  *converter.Chart
	Err    error
}

// OK reports whether the file converted
func (r Result) OK() bool {
	return r.Err == nil
}

// Summary aggregates a batch run
type Summary struct {
	Total    int
	OK       int
	NG       int
	Bytes    int64
	Elapsed  time.Duration
	Metadata string // Shared metadata.json path, empty when none was written
	Results  []Result
}

func (s *Summary) add(r Result) {
	s.Total++
	s.Results = append(s.Results, r)
	if r.OK() {
		s.OK++
		s.Bytes += r.Bytes
	} else {
		s.NG++
	}
}

// Runner executes conversions over collected inputs
type Runner struct {
	conv *converter.Converter
	log  *zap.Logger
	jobs int
}

// NewRunner creates a runner. jobs > 1 converts files concurrently.
func NewRunner(conv *converter.Converter, log *zap.Logger, jobs int) *Runner {
	if jobs < 1 {
		jobs = 1
	}
	return &Runner{conv: conv, log: logging.OrNop(log).Named("batch"), jobs: jobs}
}

// each runs fn for every input and returns the results in input order
func (r *Runner) each(inputs []string, fn func(src string) Result) []Result {
	results := make([]Result, len(inputs))
	if r.jobs == 1 {
		for i, src := range inputs {
			results[i] = fn(src)
		}
		return results
	}

	wg := sizedwaitgroup.New(r.jobs)
	for i, src := range inputs {
		wg.Add()
		go func(i int, src string) {
			defer wg.Done()
			results[i] = fn(src)
		}(i, src)
	}
	wg.Wait()
	return results
}

func (r *Runner) report(res Result) {
	if res.OK() {
		r.log.Info("converted",
			zap.String("file", res.Source),
			zap.String("output", res.Output),
		)
		return
	}
	r.log.Error("conversion failed", zap.String("file", res.Source), zap.Error(res.Err))
}

func writeFile(path string, data []byte) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, errors.Wrap(err, "failed to create output directory")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, errors.Wrap(err, "failed to write output file")
	}
	return int64(len(data)), nil
}

// SusToUSC converts every .sus file below root (or root itself) into a
// same-name .usc beside it
func (r *Runner) SusToUSC(root string) (*Summary, error) {
	start := time.Now()
	inputs, err := CollectInputs(root, SUSExts)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return &Summary{}, ErrNoInputs
	}

	results := r.each(inputs, func(src string) Result {
		res := Result{Source: src}
		data, err := os.ReadFile(src)
		if err != nil {
			res.Err = errors.Wrap(err, "failed to read input file")
			return res
		}
		doc := r.conv.SusToDocument(data)
		out, err := doc.Encode()
		if err != nil {
			res.Err = err
			return res
		}
		res.Output = strings.TrimSuffix(src, filepath.Ext(src)) + ".usc"
		res.Bytes, res.Err = writeFile(res.Output, out)
		if res.Err == nil {
			r.log.Debug("objects", zap.String("file", src), zap.Any("types", countTypes(doc.Objects)))
		}
		return res
	})

	summary := &Summary{}
	for _, res := range results {
		r.report(res)
		summary.add(res)
	}
	summary.Elapsed = time.Since(start)
	return summary, nil
}

func countTypes(objs []converter.Object) map[string]int {
	counts := make(map[string]int)
	for _, o := range objs {
		counts[string(o.Type())]++
	}
	return counts
}

// convertChart reads one SUS or USC file and emits its chart
func (r *Runner) convertChart(src string) (*converter.Chart, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read input file")
	}
	name := converter.ChartName(src)
	if converter.DetectFormat(src) == converter.FormatSUS {
		return r.conv.SusToChart(data, name)
	}
	return r.conv.USCToChart(data, name)
}

// ToChart converts input into target charts under outRoot.
//
// A single file is written to outRoot/<title or stem>/<difficulty or chart>.json
// with its own metadata.json. A directory is converted flat into
// outRoot/<difficulty or stem>.json with one shared metadata.json, titled
// after the directory and taken from the first input that converted.
func (r *Runner) ToChart(input, outRoot string, exts []string) (*Summary, error) {
	start := time.Now()
	info, err := os.Stat(input)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrMissingInput, input)
		}
		return nil, errors.Wrapf(err, "failed to stat %s", input)
	}

	inputs, err := CollectInputs(input, exts)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return &Summary{}, ErrNoInputs
	}
	if err := os.MkdirAll(outRoot, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create output root")
	}

	var summary *Summary
	if info.IsDir() {
		summary, err = r.toChartFlat(input, outRoot, inputs)
	} else {
		summary, err = r.toChartSongs(outRoot, inputs)
	}
	if summary != nil {
		summary.Elapsed = time.Since(start)
	}
	return summary, err
}

// toChartSongs writes each input into its own song folder
func (r *Runner) toChartSongs(outRoot string, inputs []string) (*Summary, error) {
	results := r.each(inputs, func(src string) Result {
		res := Result{Source: src}
		chart, err := r.convertChart(src)
		if err != nil {
			res.Err = err
			return res
		}
		res.Chart = chart

		folder := chart.SourceTitle
		if folder == "" {
			folder = converter.ChartName(src)
		}
		folder = SafeFolderName(folder)
		if chart.SourceTitle == "" {
			chart.Metadata.Title = folder
		}
		songDir := filepath.Join(outRoot, folder)

		notes, meta, err := r.conv.EncodeChart(chart)
		if err != nil {
			res.Err = err
			return res
		}

		res.Output = filepath.Join(songDir, InferOutName(src, DefaultChartFile))
		n, err := writeFile(res.Output, notes)
		if err != nil {
			res.Err = err
			return res
		}
		m, err := writeFile(filepath.Join(songDir, converter.MetadataFile), meta)
		res.Bytes, res.Err = n+m, err
		return res
	})

	summary := &Summary{}
	for _, res := range results {
		r.report(res)
		summary.add(res)
	}
	return summary, nil
}

// toChartFlat writes every input straight into outRoot and one shared
// metadata.json seeded from the first successful input
func (r *Runner) toChartFlat(dir, outRoot string, inputs []string) (*Summary, error) {
	folderTitle := filepath.Base(filepath.Clean(dir))

	results := r.each(inputs, func(src string) Result {
		res := Result{Source: src}
		chart, err := r.convertChart(src)
		if err != nil {
			res.Err = err
			return res
		}
		res.Chart = chart

		notes, _, err := r.conv.EncodeChart(chart)
		if err != nil {
			res.Err = err
			return res
		}
		res.Output = filepath.Join(outRoot, InferOutName(src, converter.ChartName(src)+".json"))
		res.Bytes, res.Err = writeFile(res.Output, notes)
		return res
	})

	summary := &Summary{}
	var shared *converter.Metadata
	for _, res := range results {
		r.report(res)
		summary.add(res)
		if shared == nil && res.OK() {
			meta := res.Chart.Metadata
			shared = &meta
		}
	}

	if shared == nil {
		r.log.Warn("nothing converted, metadata.json not written", zap.String("dir", dir))
		return summary, nil
	}

	shared.Title = folderTitle
	meta, err := r.conv.EncodeMetadata(shared)
	if err != nil {
		return summary, err
	}
	path := filepath.Join(outRoot, converter.MetadataFile)
	n, err := writeFile(path, meta)
	if err != nil {
		return summary, err
	}
	summary.Bytes += n
	summary.Metadata = path
	r.log.Info("metadata written", zap.String("path", path), zap.String("title", folderTitle))
	return summary, nil
}
