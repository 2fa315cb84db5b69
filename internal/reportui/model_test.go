package reportui

import (
	"fmt"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/kmerqc/internal/model"
	"github.com/verte-zerg/kmerqc/internal/report"
)

type stubPlot struct{}

func (stubPlot) PlotID() string { return "stub" }

func (stubPlot) RenderText(w io.Writer, width, height int, _ bool) error {
	_, err := fmt.Fprintf(w, "plot %dx%d\n", width, height)
	return err
}

func testReport() *report.Report {
	rep := report.New("")
	rep.AddSection("jellyfish", model.Section{Name: "K-mer plot", Anchor: "jellyfish_kmer_plot", Plot: stubPlot{}})
	rep.AddDataSource(model.DataSource{Module: "jellyfish", Section: "jellyfish_kmer_plot", SampleName: "s1", Path: "/data/s1_jf.hist"})
	return rep
}

func TestTabsIncludeSources(t *testing.T) {
	m := NewModel(testReport(), Options{})
	if len(m.tabs) != 2 || m.tabs[0] != "K-mer plot" || m.tabs[1] != "Sources" {
		t.Fatalf("unexpected tabs: %v", m.tabs)
	}
}

func TestViewRendersSectionAndSources(t *testing.T) {
	m := NewModel(testReport(), Options{Subtitle: "run 1"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	view := m.View()
	if !strings.Contains(view, "run 1") || !strings.Contains(view, "plot 90x14") {
		t.Fatalf("unexpected section view:\n%s", view)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if !m.sourcesActive() {
		t.Fatalf("expected sources tab active")
	}
	if view := m.View(); !strings.Contains(view, "/data/s1_jf.hist") {
		t.Fatalf("expected source path in view:\n%s", view)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.active != 0 {
		t.Fatalf("expected tabs to wrap around, got %d", m.active)
	}
}

func TestQuitKey(t *testing.T) {
	m := NewModel(testReport(), Options{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("abcdefgh", 6); got != "abc..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateLine("abc", 6); got != "abc" {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func TestFitBlock(t *testing.T) {
	got := fitBlock("ab\ncd\nef", 4, 2)
	if got != "ab  \ncd  " {
		t.Fatalf("unexpected block %q", got)
	}
	if got := fitBlock("x", 2, 3); got != "x \n  \n  " {
		t.Fatalf("unexpected padding %q", got)
	}
}
