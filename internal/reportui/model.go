// Package reportui provides the Bubble Tea report viewer.
package reportui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kmerqc/internal/model"
	"github.com/verte-zerg/kmerqc/internal/report"
)

const (
	plotHeight   = 14
	sourcesTitle = "Sources"
	fallbackW    = 80
)

var activeTab = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#F0F0F0")).
	Border(lipgloss.RoundedBorder(), true).
	BorderForeground(lipgloss.Color("#C89A3A")).
	Padding(0, 1)

var idleTab = activeTab.
	Bold(false).
	Foreground(lipgloss.Color("#B0B0B0")).
	BorderForeground(lipgloss.Color("#4A4A4A"))

var (
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	sourcesStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Options configures the viewer.
type Options struct {
	// Subtitle is shown under the tabs, e.g. the run being viewed.
	Subtitle string
}

// Model is a tabbed viewer with one tab per report section and a final
// tab listing data sources.
type Model struct {
	sections []model.Section
	sources  []model.DataSource
	subtitle string
	tabs     []string
	active   int

	pages  []viewport.Model
	table  table.Model
	keys   keyMap
	help   help.Model
	width  int
	height int
}

// NewModel builds a viewer over the sections and sources of rep.
func NewModel(rep *report.Report, opts Options) *Model {
	m := &Model{
		sections: rep.Sections(),
		sources:  rep.Sources(),
		subtitle: opts.Subtitle,
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
	m.pages = make([]viewport.Model, len(m.sections))
	for i, s := range m.sections {
		m.tabs = append(m.tabs, sectionTitle(s))
		m.pages[i] = viewport.New(0, 0)
	}
	m.tabs = append(m.tabs, sourcesTitle)
	m.table = newSourcesTable(m.sources, 0, 1)
	return m
}

func sectionTitle(s model.Section) string {
	if s.Name != "" {
		return s.Name
	}
	return s.Anchor
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Prev):
			m.selectTab(m.active - 1)
			return m, tea.ClearScreen
		case key.Matches(msg, m.keys.Next):
			m.selectTab(m.active + 1)
			return m, tea.ClearScreen
		case key.Matches(msg, m.keys.Top):
			m.scrollTo(true)
			return m, nil
		case key.Matches(msg, m.keys.Bottom):
			m.scrollTo(false)
			return m, nil
		}
	}
	return m, m.forward(msg)
}

// forward passes scrolling input to the active tab.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.sourcesActive() {
		m.table, cmd = m.table.Update(msg)
		return cmd
	}
	m.pages[m.active], cmd = m.pages[m.active].Update(msg)
	return cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := m.header()
	footer := m.help.View(m.keys)
	bodyHeight := m.bodyHeight(header)
	parts := []string{
		header,
		fitBlock(m.body(), m.width, bodyHeight),
		fitBlock(subtleStyle.Render(footer), m.width, 1),
	}
	return strings.Join(parts, "\n")
}

func (m *Model) sourcesActive() bool {
	return m.active == len(m.tabs)-1
}

func (m *Model) selectTab(idx int) {
	n := len(m.tabs)
	m.active = ((idx % n) + n) % n
	if m.sourcesActive() {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *Model) scrollTo(top bool) {
	switch {
	case m.sourcesActive() && top:
		m.table.GotoTop()
	case m.sourcesActive():
		m.table.GotoBottom()
	case top:
		m.pages[m.active].GotoTop()
	default:
		m.pages[m.active].GotoBottom()
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width
	bodyHeight := m.bodyHeight(m.header())
	for i, s := range m.sections {
		m.pages[i].Width = width
		m.pages[i].Height = bodyHeight
		m.pages[i].SetContent(renderSection(s, width))
	}
	m.table = newSourcesTable(m.sources, width, bodyHeight)
	if m.sourcesActive() {
		m.table.Focus()
	}
}

func (m *Model) bodyHeight(header string) int {
	h := m.height - lipgloss.Height(header) - 1
	if h < 1 {
		return 1
	}
	return h
}

func (m *Model) header() string {
	rendered := make([]string, len(m.tabs))
	for i, title := range m.tabs {
		style := idleTab
		if i == m.active {
			style = activeTab
		}
		rendered[i] = style.Render(title)
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Bottom, rendered...)
	subtitle := m.subtitle
	if subtitle == "" {
		subtitle = fmt.Sprintf("%d sections, %d data sources", len(m.sections), len(m.sources))
	}
	return tabs + "\n" + subtleStyle.Render(truncateLine(subtitle, m.width))
}

func (m *Model) body() string {
	if !m.sourcesActive() {
		return m.pages[m.active].View()
	}
	if len(m.sources) == 0 {
		return "No data sources recorded."
	}
	return sourcesStyle.Render(m.table.View())
}

func renderSection(s model.Section, width int) string {
	if width <= 0 {
		width = fallbackW
	}
	var buf bytes.Buffer
	opts := report.TextOptions{Width: width, PlotHeight: plotHeight, Color: true}
	if err := report.WriteSection(&buf, s, opts); err != nil {
		return fmt.Sprintf("Failed to render section: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func newSourcesTable(sources []model.DataSource, width, height int) table.Model {
	cols := []table.Column{
		{Title: "Module", Width: len("Module")},
		{Title: "Section", Width: len("Section")},
		{Title: "Sample Name", Width: len("Sample Name")},
		{Title: "Source", Width: len("Source")},
	}
	rows := make([]table.Row, 0, len(sources))
	for _, src := range sources {
		row := table.Row{src.Module, src.Section, src.SampleName, src.Path}
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > cols[i].Width {
				cols[i].Width = w
			}
		}
		rows = append(rows, row)
	}
	if width > 0 {
		// The path column takes whatever the other columns leave.
		rest := width - cols[0].Width - cols[1].Width - cols[2].Width - 2*len(cols)
		if rest < len("Source") {
			rest = len("Source")
		}
		if cols[3].Width > rest {
			cols[3].Width = rest
		}
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Bold(true).
		Foreground(lipgloss.Color("#C0C0C0")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		PaddingLeft(0)
	styles.Cell = styles.Cell.PaddingLeft(0)
	styles.Selected = styles.Selected.Bold(true).Foreground(lipgloss.Color("#F0F0F0"))

	if height < 1 {
		height = 1
	}
	return table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(height),
		table.WithStyles(styles),
	)
}

// fitBlock pads or cuts s to exactly height lines of at least width cells.
func fitBlock(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		if gap := width - lipgloss.Width(line); gap > 0 {
			lines[i] = line + strings.Repeat(" ", gap)
		}
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	runes := []rune(s)
	switch {
	case width <= 0 || len(runes) <= width:
		return s
	case width <= 3:
		return string(runes[:width])
	default:
		return string(runes[:width-3]) + "..."
	}
}
