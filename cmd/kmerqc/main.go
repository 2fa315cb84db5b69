// Package main provides the CLI entrypoint for kmerqc.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/kmerqc/internal/config"
	"github.com/verte-zerg/kmerqc/internal/discovery"
	"github.com/verte-zerg/kmerqc/internal/host"
	"github.com/verte-zerg/kmerqc/internal/jellyfish"
	"github.com/verte-zerg/kmerqc/internal/model"
	"github.com/verte-zerg/kmerqc/internal/report"
	"github.com/verte-zerg/kmerqc/internal/reportui"
	"github.com/verte-zerg/kmerqc/internal/store"
)

const (
	defaultOutdir      = "."
	defaultJellyfishFn = "*_jf.hist"
	defaultRunsLimit   = 20
	defaultFileWidth   = 100
	defaultTermWidth   = 80
	reportTitle        = "kmerqc report"
)

var defaultCleanExts = []string{".gz", ".hist", ".histo", "_jf"}

var (
	runOutdir      string
	runPNG         bool
	runCorrectXMax bool
	runProgress    bool
	runVerbose     bool
	runQuiet       bool
	runIgnore      []string
	runNoSave      bool
	runView        bool
	runWidth       int

	runsLast int

	sourcesRun int64

	showView  bool
	showPNG   string
	showWidth int
)

var log = logrus.New()

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kmerqc [dir...]",
		Short:         "Aggregate jellyfish k-mer histograms into a report",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.ArbitraryArgs,
		RunE:          runReportCmd,
	}
	addRunFlags(rootCmd)

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newSourcesCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [dir...]",
		Short: "Search directories for k-mer histograms and write a report",
		Args:  cobra.ArbitraryArgs,
		RunE:  runReportCmd,
	}
	addRunFlags(cmd)
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&runOutdir, "outdir", "o", defaultOutdir, "directory for report files")
	cmd.Flags().BoolVar(&runPNG, "png", false, "also write one PNG per plot")
	cmd.Flags().BoolVar(&runCorrectXMax, "correct-xmax", false, "size the x axis from the largest peak across all samples")
	cmd.Flags().BoolVar(&runProgress, "progress", false, "show a progress bar while parsing files")
	cmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "debug logging")
	cmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "only log warnings and errors")
	cmd.Flags().StringSliceVar(&runIgnore, "ignore", nil, "glob of paths to skip (repeatable)")
	cmd.Flags().BoolVar(&runNoSave, "no-save", false, "do not record the run in the history database")
	cmd.Flags().BoolVar(&runView, "view", false, "open the report in an interactive viewer")
	cmd.Flags().IntVar(&runWidth, "width", 0, "text report width (default: terminal width)")
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "outdir", &runOutdir, fileCfg.Run.Outdir)
	applyBoolConfig(cmd, "png", &runPNG, fileCfg.Run.PNG)
	applyBoolConfig(cmd, "progress", &runProgress, fileCfg.Run.Progress)
	applyBoolConfig(cmd, "verbose", &runVerbose, fileCfg.Run.Verbose)
	applyBoolConfig(cmd, "quiet", &runQuiet, fileCfg.Run.Quiet)
	applySliceConfig(cmd, "ignore", &runIgnore, fileCfg.Run.Ignore)
	applyIntConfig(cmd, "width", &runWidth, fileCfg.Run.Width)
	applyBoolConfig(cmd, "correct-xmax", &runCorrectXMax, fileCfg.Jellyfish.CorrectXMax)

	if runWidth < 0 {
		return fmt.Errorf("--width must be >= 0")
	}
	if runOutdir == "" {
		return fmt.Errorf("--outdir must not be empty")
	}
	configureLogger(runVerbose, runQuiet)

	dirs := args
	if len(dirs) == 0 {
		dirs = fileCfg.Run.AnalysisDirs
	}
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	finder, err := discovery.NewFinder(dirs, discoveryOptions(fileCfg))
	if err != nil {
		return fmt.Errorf("failed to set up file search: %w", err)
	}

	var hostOpts host.FileHostOptions
	if runProgress {
		hostOpts.Progress = os.Stderr
	}
	rep := report.New(reportTitle)
	h := host.NewFileHost(finder, rep, log, hostOpts)
	jf := jellyfish.New(jellyfish.Options{CorrectXMax: runCorrectXMax})

	started := time.Now()
	log.Infof("Searching %s", strings.Join(dirs, ", "))
	summary := host.NewRunner(h, rep).Run(jf)
	if err := summary.Err(); err != nil {
		return fmt.Errorf("report failed: %w", err)
	}
	if rep.Empty() {
		log.Warn("No analysis results found")
		return nil
	}

	fileWidth := runWidth
	if fileWidth <= 0 {
		fileWidth = defaultFileWidth
	}
	written, err := rep.WriteDir(runOutdir, report.DirOptions{
		Text: report.TextOptions{Width: fileWidth},
		PNG:  runPNG,
	})
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	for _, path := range written {
		log.Infof("Wrote %s", path)
	}

	subtitle := strings.Join(dirs, ", ")
	if !runNoSave {
		id, err := saveRun(cmd.Context(), started, dirs, jf, rep)
		if err != nil {
			log.Warnf("failed to save run: %v", err)
		} else {
			log.Infof("Saved run %d", id)
			subtitle = fmt.Sprintf("Run %d: %s", id, subtitle)
		}
	}

	if runView {
		return runViewer(rep, subtitle)
	}
	width := runWidth
	if width <= 0 {
		width = terminalWidth()
	}
	if err := rep.WriteText(cmd.OutOrStdout(), report.TextOptions{Width: width, Color: useColor()}); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func discoveryOptions(fileCfg config.FileConfig) discovery.Options {
	pattern := discovery.Pattern{Fn: defaultJellyfishFn}
	if fileCfg.Jellyfish.Contents != nil {
		pattern.Contents = *fileCfg.Jellyfish.Contents
	}
	if fileCfg.Jellyfish.NumLines != nil {
		pattern.NumLines = *fileCfg.Jellyfish.NumLines
	}
	patterns := []discovery.Pattern{pattern}
	if fileCfg.Jellyfish.Fn != nil {
		patterns[0].Fn = *fileCfg.Jellyfish.Fn
	} else {
		gz := pattern
		gz.Fn += ".gz"
		patterns = append(patterns, gz)
	}
	cleanExts := defaultCleanExts
	if fileCfg.Jellyfish.CleanExts != nil {
		cleanExts = fileCfg.Jellyfish.CleanExts
	}
	opts := discovery.Options{
		Patterns:  map[string][]discovery.Pattern{jellyfish.SearchKey: patterns},
		Ignore:    runIgnore,
		CleanExts: cleanExts,
		Log:       log,
	}
	if fileCfg.Run.FilesizeLimit != nil {
		opts.FilesizeLimit = *fileCfg.Run.FilesizeLimit
	}
	return opts
}

func saveRun(ctx context.Context, started time.Time, dirs []string, jf *jellyfish.Module, rep *report.Report) (int64, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return 0, fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Warnf("failed to close db: %v", cerr)
		}
	}()

	absDirs := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			abs = dir
		}
		absDirs = append(absDirs, abs)
	}
	xmin, xmax := jf.XRange()
	return st.SaveRun(ctx, store.Run{
		StartedAt:    started,
		AnalysisDirs: absDirs,
		XMin:         xmin,
		XMax:         xmax,
		Sources:      rep.Sources(),
		Dataset:      jf.Dataset(),
	})
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Args:  cobra.NoArgs,
		RunE:  runRunsCmd,
	}
	cmd.Flags().IntVar(&runsLast, "last", defaultRunsLimit, "number of runs to list (0 for all)")
	return cmd
}

func runRunsCmd(cmd *cobra.Command, _ []string) error {
	if runsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	runs, err := st.ListRuns(cmd.Context(), runsLast)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		return printLines(cmd, []string{"No runs stored."})
	}
	return printLines(cmd, report.RunsTable(runs, time.Now()))
}

func newSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Print the data sources of a stored run",
		Args:  cobra.NoArgs,
		RunE:  runSourcesCmd,
	}
	cmd.Flags().Int64Var(&sourcesRun, "run", 0, "run id (default: latest)")
	return cmd
}

func runSourcesCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	runID := sourcesRun
	if runID <= 0 {
		runID, err = st.LatestRunID(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to find latest run: %w", err)
		}
	}
	sources, err := st.ListSources(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}
	if len(sources) == 0 {
		return printLines(cmd, []string{fmt.Sprintf("No data sources recorded for run %d.", runID)})
	}
	return printLines(cmd, report.SourcesTable(sources))
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Re-render a stored run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runShowCmd,
	}
	cmd.Flags().BoolVar(&showView, "view", false, "open the run in an interactive viewer")
	cmd.Flags().StringVar(&showPNG, "png", "", "write the k-mer plot as PNG to this file")
	cmd.Flags().IntVar(&showWidth, "width", 0, "text report width (default: terminal width)")
	return cmd
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	if showWidth < 0 {
		return fmt.Errorf("--width must be >= 0")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	var runID int64
	if len(args) == 1 {
		runID, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil || runID <= 0 {
			return fmt.Errorf("invalid run id %q", args[0])
		}
	} else {
		runID, err = st.LatestRunID(ctx)
		if err != nil {
			return fmt.Errorf("failed to find latest run: %w", err)
		}
	}

	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	data, err := st.LoadDataset(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", runID, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("run %d has no stored histograms", runID)
	}
	sources, err := st.ListSources(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	sec, err := jellyfish.NewSection(data, run.XMin, run.XMax)
	if err != nil {
		return err
	}
	info := jellyfish.New(jellyfish.Options{}).Info()
	rep := report.New(fmt.Sprintf("%s: run %d", reportTitle, runID))
	rep.DescribeModule(info)
	rep.AddSection(info.Anchor, sec)
	for _, src := range sources {
		rep.AddDataSource(src)
	}

	if showPNG != "" {
		if err := writePNG(showPNG, sec.Plot); err != nil {
			return err
		}
	}
	if showView {
		subtitle := fmt.Sprintf("Run %d: %s", runID, strings.Join(run.AnalysisDirs, ", "))
		return runViewer(rep, subtitle)
	}
	width := showWidth
	if width <= 0 {
		width = terminalWidth()
	}
	if err := rep.WriteText(cmd.OutOrStdout(), report.TextOptions{Width: width, Color: useColor()}); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writePNG(path string, plot model.Plot) error {
	png, ok := plot.(report.PNGPlot)
	if !ok {
		return fmt.Errorf("plot cannot be rendered as PNG")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.RenderPNG(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func runViewer(rep *report.Report, subtitle string) error {
	program := tea.NewProgram(reportui.NewModel(rep, reportui.Options{Subtitle: subtitle}), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run report viewer: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# kmerqc configuration
# Uncomment a value to enable it. CLI flags override config values.

[run]
# analysis-dirs = ["."]       # Directories searched when none are given
# outdir = %q                # Directory for report files
# png = false                 # Also write one PNG per plot
# progress = false            # Progress bar while parsing files
# verbose = false             # Debug logging
# quiet = false               # Only warnings and errors
# ignore = []                 # Globs of paths to skip
# filesize-limit = %d   # Skip files larger than this many bytes
# width = 0                   # Text report width (0: terminal width)

[jellyfish]
# fn = %q           # Filename glob for histogram files
# contents = ""               # Required text near the top of the file
# num-lines = 0               # Lines searched for contents (0: whole file)
# clean-exts = [%s]
# correct-xmax = false        # Size the x axis from the largest peak of all samples
`,
		defaultOutdir,
		discovery.DefaultFilesizeLimit,
		defaultJellyfishFn,
		quotedList(defaultCleanExts),
	)
}

func quotedList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, item := range items {
		quoted = append(quoted, strconv.Quote(item))
	}
	return strings.Join(quoted, ", ")
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		log.Warnf("failed to close db: %v", cerr)
	}
}

func printLines(cmd *cobra.Command, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func configureLogger(verbose, quiet bool) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	switch {
	case verbose:
		log.SetLevel(logrus.DebugLevel)
	case quiet:
		log.SetLevel(logrus.WarnLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultTermWidth
	}
	return width
}

func useColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applySliceConfig(cmd *cobra.Command, name string, target *[]string, value []string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), value...)
}
