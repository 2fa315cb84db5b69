// Package report collects module sections and data sources and writes
// them out as text, TSV and PNG files.
package report

import (
	"io"

	"github.com/verte-zerg/kmerqc/internal/model"
)

// TextPlot is a plot that can draw itself in a terminal.
type TextPlot interface {
	RenderText(w io.Writer, width, height int, forceColor bool) error
}

// PNGPlot is a plot that can render a PNG image.
type PNGPlot interface {
	RenderPNG(w io.Writer) error
}

// ModuleReport is one module's header and sections.
type ModuleReport struct {
	Info     model.ModuleInfo
	Sections []model.Section
}

// Report is the assembled output of a run.
type Report struct {
	Title   string
	modules []*ModuleReport
	sources []model.DataSource
}

// New returns an empty report.
func New(title string) *Report {
	return &Report{Title: title}
}

func (r *Report) module(anchor string) *ModuleReport {
	for _, m := range r.modules {
		if m.Info.Anchor == anchor {
			return m
		}
	}
	m := &ModuleReport{Info: model.ModuleInfo{Anchor: anchor, Name: anchor}}
	r.modules = append(r.modules, m)
	return m
}

// DescribeModule sets the header for a module, adding it if needed.
func (r *Report) DescribeModule(info model.ModuleInfo) {
	r.module(info.Anchor).Info = info
}

// AddSection appends a section to a module.
func (r *Report) AddSection(module string, s model.Section) {
	m := r.module(module)
	m.Sections = append(m.Sections, s)
}

// AddDataSource records an input file.
func (r *Report) AddDataSource(src model.DataSource) {
	r.sources = append(r.sources, src)
}

// RemoveModule drops a module's sections and data sources.
func (r *Report) RemoveModule(anchor string) {
	modules := r.modules[:0]
	for _, m := range r.modules {
		if m.Info.Anchor != anchor {
			modules = append(modules, m)
		}
	}
	r.modules = modules
	sources := r.sources[:0]
	for _, s := range r.sources {
		if s.Module != anchor {
			sources = append(sources, s)
		}
	}
	r.sources = sources
}

// Modules returns the modules in registration order.
func (r *Report) Modules() []ModuleReport {
	out := make([]ModuleReport, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, *m)
	}
	return out
}

// Sections returns every section across modules.
func (r *Report) Sections() []model.Section {
	var out []model.Section
	for _, m := range r.modules {
		out = append(out, m.Sections...)
	}
	return out
}

// Sources returns the recorded data sources.
func (r *Report) Sources() []model.DataSource {
	out := make([]model.DataSource, len(r.sources))
	copy(out, r.sources)
	return out
}

// Empty reports whether no module produced a section.
func (r *Report) Empty() bool {
	return len(r.Sections()) == 0
}
