// Package main is the entry point for chartbridge CLI
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/james-see/chartbridge/pkg/api"
	"github.com/james-see/chartbridge/pkg/batch"
	"github.com/james-see/chartbridge/pkg/converter"
	"github.com/james-see/chartbridge/pkg/converter/targets"
	"github.com/james-see/chartbridge/pkg/logging"
	"github.com/james-see/chartbridge/pkg/tui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputFile string
	targetName string
	verbose    bool
	slideGap   float64
	slideSize  float64
	jobs       int
	serverPort int
)

var (
	okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#33CCBB")).Bold(true)
	ngStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chartbridge",
	Short: "Convert SUS rhythm-game charts to USC and game note lists",
	Long: `chartbridge converts SUS score files into the USC interchange format
and flattens SUS or USC charts into a game note list plus song metadata.

Files and whole folders are accepted; folders are converted flat into one
output directory sharing a single metadata.json.

Examples:
  chartbridge sus2usc charts/
  chartbridge usc2chart song_master.usc out/
  chartbridge sus2chart charts/ out/ --jobs 4
  chartbridge convert song.sus -o song.usc
  chartbridge preview song.usc -o song.mid
  chartbridge tui
  chartbridge serve --port 8080`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Auto-detect and convert between formats",
	Long:  `Automatically detects input format and converts to the output format based on file extension.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var sus2uscCmd = &cobra.Command{
	Use:   "sus2usc <file|dir>",
	Short: "Convert .sus charts to .usc documents beside them",
	Args:  cobra.ExactArgs(1),
	RunE:  runSusToUSC,
}

var usc2chartCmd = &cobra.Command{
	Use:   "usc2chart <file|dir> <output-dir>",
	Short: "Convert .usc/.json documents to game charts",
	Args:  cobra.ExactArgs(2),
	RunE:  runToChart(batch.USCExts),
}

var sus2chartCmd = &cobra.Command{
	Use:   "sus2chart <file|dir> <output-dir>",
	Short: "Convert .sus charts straight to game charts",
	Args:  cobra.ExactArgs(2),
	RunE:  runToChart(batch.SUSExts),
}

var previewCmd = &cobra.Command{
	Use:   "preview <input>",
	Short: "Render a .sus or .usc chart as a preview MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List chart target profiles",
	Args:  cobra.NoArgs,
	Run:   runTargets,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	defaults := converter.DefaultOptions()

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&targetName, "target", "t", targets.MyGameID, "Target profile (mygame, fourlane)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Float64Var(&slideGap, "slide-gap", defaults.SlideGap, "Max beat gap between ticks of one slide")
	rootCmd.PersistentFlags().Float64Var(&slideSize, "slide-size", defaults.SlideSize, "Width of generated slides in lanes")

	// Convert command
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (required)")
	_ = convertCmd.MarkFlagRequired("output")

	// Preview command
	previewCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")

	// Batch commands
	for _, c := range []*cobra.Command{sus2uscCmd, usc2chartCmd, sus2chartCmd} {
		c.Flags().IntVarP(&jobs, "jobs", "j", 1, "Files converted in parallel")
	}

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(sus2uscCmd)
	rootCmd.AddCommand(usc2chartCmd)
	rootCmd.AddCommand(sus2chartCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(targetsCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func newConverter(log *zap.Logger) *converter.Converter {
	opts := converter.DefaultOptions()
	opts.SlideGap = slideGap
	opts.SlideSize = slideSize
	return converter.New(targets.ByName(targetName),
		converter.WithOptions(opts),
		converter.WithLogger(log))
}

func getOutputPath(input, defaultExt string) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + defaultExt
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	log := logging.New(verbose)
	defer func() { _ = log.Sync() }()

	fmt.Printf("Converting %s -> %s\n", input, outputFile)
	if err := newConverter(log).ConvertFile(input, outputFile); err != nil {
		return err
	}
	fmt.Println("Conversion complete!")
	return nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, ".mid")
	log := logging.New(verbose)
	defer func() { _ = log.Sync() }()

	if err := newConverter(log).ConvertFile(input, output); err != nil {
		return err
	}
	fmt.Printf("Converted %s -> %s\n", input, output)
	return nil
}

func runSusToUSC(cmd *cobra.Command, args []string) error {
	log := logging.New(verbose)
	defer func() { _ = log.Sync() }()

	runner := batch.NewRunner(newConverter(log), log, jobs)
	summary, err := runner.SusToUSC(args[0])
	return finish(log, summary, err)
}

func runToChart(exts []string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log := logging.New(verbose)
		defer func() { _ = log.Sync() }()

		runner := batch.NewRunner(newConverter(log), log, jobs)
		summary, err := runner.ToChart(args[0], args[1], exts)
		return finish(log, summary, err)
	}
}

// finish prints the batch summary. Finding nothing to convert is not a failure.
func finish(log *zap.Logger, summary *batch.Summary, err error) error {
	if errors.Is(err, batch.ErrNoInputs) {
		log.Warn("no matching input files found")
		return nil
	}
	if summary != nil {
		printSummary(summary)
	}
	return err
}

func printSummary(s *batch.Summary) {
	ng := fmt.Sprintf("ng=%d", s.NG)
	if s.NG > 0 {
		ng = ngStyle.Render(ng)
	}
	fmt.Printf("total=%d, %s, %s\n", s.Total, okStyle.Render(fmt.Sprintf("ok=%d", s.OK)), ng)
	fmt.Printf("wrote %s in %s\n",
		humanize.Bytes(uint64(s.Bytes)),
		durafmt.Parse(s.Elapsed).LimitFirstN(2).String())
	if s.Metadata != "" {
		fmt.Printf("metadata: %s\n", s.Metadata)
	}
}

func runTargets(cmd *cobra.Command, args []string) {
	for _, info := range targets.Available() {
		fmt.Printf("%-10s %s\n", info.ID, info.Description)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run(newConverter(nil))
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.New(verbose)
	defer func() { _ = log.Sync() }()

	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort, log)
}
