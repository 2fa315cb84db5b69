package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kmerqc/internal/model"
)

const (
	// ReportFile is the text report written by WriteDir.
	ReportFile = "kmerqc_report.txt"
	// SourcesFile lists the input files behind each section.
	SourcesFile = "kmerqc_sources.txt"

	defaultTextWidth  = 80
	defaultPlotHeight = 12
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	moduleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C0C0C0"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// TextOptions controls text rendering.
type TextOptions struct {
	Width      int
	PlotHeight int
	Color      bool
}

func (o TextOptions) normalized() TextOptions {
	if o.Width <= 0 {
		o.Width = defaultTextWidth
	}
	if o.PlotHeight <= 0 {
		o.PlotHeight = defaultPlotHeight
	}
	return o
}

func styled(opts TextOptions, style lipgloss.Style, text string) string {
	if !opts.Color {
		return text
	}
	return style.Render(text)
}

// WriteText writes the report in a human readable text layout.
func (r *Report) WriteText(w io.Writer, opts TextOptions) error {
	opts = opts.normalized()
	if r.Title != "" {
		if _, err := fmt.Fprintf(w, "%s\n\n", styled(opts, titleStyle, r.Title)); err != nil {
			return err
		}
	}
	if r.Empty() {
		_, err := fmt.Fprintln(w, "No sections found.")
		return err
	}
	for _, m := range r.modules {
		if err := writeModule(w, m, opts); err != nil {
			return err
		}
	}
	return nil
}

func writeModule(w io.Writer, m *ModuleReport, opts TextOptions) error {
	header := m.Info.Name
	if m.Info.Info != "" {
		header = fmt.Sprintf("%s %s", m.Info.Name, m.Info.Info)
	}
	if _, err := fmt.Fprintln(w, styled(opts, moduleStyle, wrapText(header, opts.Width))); err != nil {
		return err
	}
	if m.Info.Href != "" {
		if _, err := fmt.Fprintln(w, styled(opts, mutedStyle, m.Info.Href)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	for _, s := range m.Sections {
		if err := WriteSection(w, s, opts); err != nil {
			return err
		}
	}
	return nil
}

// WriteSection writes one section: heading, description, help and plot.
func WriteSection(w io.Writer, s model.Section, opts TextOptions) error {
	opts = opts.normalized()
	name := s.Name
	if name == "" {
		name = s.Anchor
	}
	if _, err := fmt.Fprintln(w, styled(opts, sectionStyle, name)); err != nil {
		return err
	}
	if s.Description != "" {
		if _, err := fmt.Fprintln(w, wrapText(s.Description, opts.Width)); err != nil {
			return err
		}
	}
	if s.HelpText != "" {
		if _, err := fmt.Fprintf(w, "\n%s\n", styled(opts, mutedStyle, wrapText(s.HelpText, opts.Width))); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	if plot, ok := s.Plot.(TextPlot); ok {
		if err := plot.RenderText(w, plotWidth(opts.Width), opts.PlotHeight, opts.Color); err != nil {
			return fmt.Errorf("failed to render %s: %w", s.Anchor, err)
		}
		if _, err := fmt.Fprintln(w, ""); err != nil {
			return err
		}
	}
	return nil
}

// plotWidth leaves room for y axis labels next to the plot area.
func plotWidth(total int) int {
	const axisAllowance = 10
	if total <= axisAllowance*2 {
		return total
	}
	return total - axisAllowance
}

// WriteSources writes data sources as tab-separated values.
func (r *Report) WriteSources(w io.Writer) error {
	if _, err := fmt.Fprintln(w, strings.Join([]string{"Module", "Section", "Sample Name", "Source"}, "\t")); err != nil {
		return err
	}
	for _, s := range r.sources {
		if _, err := fmt.Fprintln(w, strings.Join([]string{s.Module, s.Section, s.SampleName, s.Path}, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// DirOptions controls WriteDir.
type DirOptions struct {
	Text TextOptions
	PNG  bool
}

// WriteDir writes the text report, the sources listing and optionally one
// PNG per plot into dir. It returns the paths written.
func (r *Report) WriteDir(dir string, opts DirOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	var written []string
	textOpts := opts.Text
	textOpts.Color = false

	reportPath := filepath.Join(dir, ReportFile)
	if err := writeFileAtomic(reportPath, func(w io.Writer) error {
		return r.WriteText(w, textOpts)
	}); err != nil {
		return written, err
	}
	written = append(written, reportPath)

	sourcesPath := filepath.Join(dir, SourcesFile)
	if err := writeFileAtomic(sourcesPath, r.WriteSources); err != nil {
		return written, err
	}
	written = append(written, sourcesPath)

	if !opts.PNG {
		return written, nil
	}
	for _, s := range r.Sections() {
		plot, ok := s.Plot.(PNGPlot)
		if !ok {
			continue
		}
		pngPath := filepath.Join(dir, s.Plot.PlotID()+".png")
		if err := writeFileAtomic(pngPath, plot.RenderPNG); err != nil {
			return written, err
		}
		written = append(written, pngPath)
	}
	return written, nil
}

func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "kmerqc-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := write(writer); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", filepath.Base(path), err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
