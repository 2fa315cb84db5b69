// Package jellyfish aggregates k-mer occurrence histograms written by
// `jellyfish histo` and plots them per sample.
package jellyfish

import (
	"fmt"
	"io"

	"github.com/verte-zerg/kmerqc/internal/host"
	"github.com/verte-zerg/kmerqc/internal/linegraph"
	"github.com/verte-zerg/kmerqc/internal/model"
)

// SearchKey is the discovery key for jellyfish histogram files.
const SearchKey = "jellyfish"

const (
	plotID      = "Jellyfish_kmer_plot"
	plotTitle   = "Jellyfish: K-mer plot"
	plotYLab    = "Counts"
	plotXLab    = "k-mer frequency"
	sectionName = "K-mer plot"
	anchor      = "jellyfish_kmer_plot"
	description = "Estimate library complexity and coverage from k-mer content."
)

const helpText = `A possible way to assess the complexity of a library even in absence of a reference sequence is to look at the k-mer profile of the reads.

The idea is to count all the k-mers (i.e., sequences of length k) that occur in the reads. In this way it is possible to know how many k-mers occur 1, 2, ..., N times and represent this as a plot. This plot tells us, for each x, how many k-mers (y-axis) are present in the dataset in exactly x copies.

In an ideal world (no errors in sequencing, no bias, no repeated regions) this plot should be as close as possible to a gaussian distribution. In reality we will always see a peak for x=1 (i.e., the errors) and another peak close to the expected coverage. If the genome is highly heterozygous a second peak at half of the coverage can be expected.`

var moduleInfo = model.ModuleInfo{
	Name:   "Jellyfish",
	Anchor: "jellyfish",
	Href:   "http://www.cbcb.umd.edu/software/jellyfish/",
	Info:   "is a tool for fast, memory-efficient counting of k-mers in DNA.",
}

// Options configures the module.
type Options struct {
	CorrectXMax bool
}

// Module is the jellyfish report module.
type Module struct {
	opts Options

	data model.Dataset
	xmin int
	xmax int
}

// New constructs the module.
func New(opts Options) *Module {
	return &Module{opts: opts}
}

// Info implements host.Module.
func (m *Module) Info() model.ModuleInfo {
	return moduleInfo
}

// Run implements host.Module.
func (m *Module) Run(h host.Host) error {
	log := h.Logger().WithField("module", moduleInfo.Anchor)
	agg := NewAggregator(log, m.opts.CorrectXMax)

	err := h.FindLogFiles(SearchKey, func(f model.LogFile, r io.Reader) error {
		stored, err := agg.Add(f.SampleName, r)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", f.Path, err)
		}
		if stored {
			h.AddDataSource(moduleInfo.Anchor, anchor, f)
		}
		return nil
	})
	if err != nil {
		return err
	}

	xmax := agg.FinalizeXMax()
	data := agg.Dataset()
	if len(data) == 0 {
		log.Debug("Could not find any data")
		return host.ErrNoData
	}
	log.Infof("Found %d reports", len(data))
	if err := m.Render(h, data, 0, xmax); err != nil {
		return err
	}
	m.data, m.xmin, m.xmax = data, 0, xmax
	return nil
}

// Dataset returns the histograms plotted by the last successful Run.
func (m *Module) Dataset() model.Dataset {
	return m.data
}

// XRange returns the x axis range of the last successful Run.
func (m *Module) XRange() (xmin, xmax int) {
	return m.xmin, m.xmax
}

// Render builds the k-mer line chart and registers it as a section.
func (m *Module) Render(h host.Host, data model.Dataset, xmin, xmax int) error {
	sec, err := NewSection(data, xmin, xmax)
	if err != nil {
		return err
	}
	h.AddSection(moduleInfo.Anchor, sec)
	return nil
}

// NewSection builds the k-mer plot section for a dataset and x range.
func NewSection(data model.Dataset, xmin, xmax int) (model.Section, error) {
	chart, err := linegraph.Plot(data, PlotConfig(xmin, xmax))
	if err != nil {
		return model.Section{}, fmt.Errorf("failed to build k-mer plot: %w", err)
	}
	return model.Section{
		Name:        sectionName,
		Anchor:      anchor,
		Description: description,
		HelpText:    helpText,
		Plot:        chart,
	}, nil
}

// PlotConfig returns the k-mer chart configuration for an x range.
func PlotConfig(xmin, xmax int) linegraph.Config {
	return linegraph.Config{
		ID:        plotID,
		Title:     plotTitle,
		XLab:      plotXLab,
		YLab:      plotYLab,
		XDecimals: false,
		XMin:      float64(xmin),
		XMax:      float64(xmax),
	}
}
