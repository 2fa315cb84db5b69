package host_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/kmerqc/internal/discovery"
	"github.com/verte-zerg/kmerqc/internal/host"
	"github.com/verte-zerg/kmerqc/internal/jellyfish"
	"github.com/verte-zerg/kmerqc/internal/model"
	"github.com/verte-zerg/kmerqc/internal/report"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newHost(t *testing.T, dir string, progress io.Writer) (*host.FileHost, *report.Report) {
	t.Helper()
	finder, err := discovery.NewFinder([]string{dir}, discovery.Options{
		Patterns: map[string][]discovery.Pattern{
			jellyfish.SearchKey: {{Fn: "*_jf.hist"}},
		},
		CleanExts: []string{".hist", "_jf"},
	})
	if err != nil {
		t.Fatalf("NewFinder: %v", err)
	}
	rep := report.New("test")
	return host.NewFileHost(finder, rep, quietLogger(), host.FileHostOptions{Progress: progress}), rep
}

func TestFileHostRunsJellyfish(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a_jf.hist"), "1 5\n2 3\n3 1\n")
	writeFile(t, filepath.Join(dir, "sub", "b_jf.hist"), "1 2\n2 9\n3 1\n")
	writeFile(t, filepath.Join(dir, "single_jf.hist"), "4 4\n")

	var progress bytes.Buffer
	h, rep := newHost(t, dir, &progress)
	summary := host.NewRunner(h, rep).Run(jellyfish.New(jellyfish.Options{}))
	if err := summary.Err(); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	if len(summary.Ran) != 1 || summary.Ran[0] != "jellyfish" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	modules := rep.Modules()
	if len(modules) != 1 || modules[0].Info.Name != "Jellyfish" {
		t.Fatalf("unexpected modules: %+v", modules)
	}
	if len(modules[0].Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(modules[0].Sections))
	}
	sources := rep.Sources()
	if len(sources) != 2 {
		t.Fatalf("expected 2 data sources (single-line file dropped), got %+v", sources)
	}
	if sources[0].SampleName != "a" || sources[1].SampleName != "b" {
		t.Fatalf("unexpected sample names: %+v", sources)
	}
}

func TestRunnerNoData(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "unrelated.txt"), "hello\n")

	h, rep := newHost(t, dir, nil)
	summary := host.NewRunner(h, rep).Run(jellyfish.New(jellyfish.Options{}))
	if summary.Err() != nil {
		t.Fatalf("no data must not be an error: %v", summary.Err())
	}
	if len(summary.NoData) != 1 {
		t.Fatalf("expected module to report no data: %+v", summary)
	}
	if !rep.Empty() || len(rep.Modules()) != 0 {
		t.Fatalf("expected empty report")
	}
}

func TestRunnerFailureRemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a_jf.hist"), "1 5\n2 3\n3 1\n")
	writeFile(t, filepath.Join(dir, "b_jf.hist"), "1 5\nbroken line here\n")

	h, rep := newHost(t, dir, nil)
	summary := host.NewRunner(h, rep).Run(jellyfish.New(jellyfish.Options{}))
	err := summary.Err()
	if err == nil {
		t.Fatalf("expected failure")
	}
	var modErr host.ModuleError
	if !errors.As(err, &modErr) || modErr.Module != "jellyfish" {
		t.Fatalf("expected module error, got %v", err)
	}
	if len(rep.Sources()) != 0 {
		t.Fatalf("expected data sources of failed module removed, got %+v", rep.Sources())
	}
}

type stubModule struct {
	info model.ModuleInfo
	err  error
}

func (m stubModule) Info() model.ModuleInfo { return m.info }

func (m stubModule) Run(h host.Host) error {
	if m.err == nil {
		h.AddSection(m.info.Anchor, model.Section{Anchor: m.info.Anchor + "_section"})
	}
	return m.err
}

func TestRunnerContinuesAfterFailure(t *testing.T) {
	h, rep := newHost(t, t.TempDir(), nil)
	summary := host.NewRunner(h, rep).Run(
		stubModule{info: model.ModuleInfo{Name: "Broken", Anchor: "broken"}, err: errors.New("boom")},
		stubModule{info: model.ModuleInfo{Name: "Fine", Anchor: "fine"}},
	)
	if len(summary.Failed) != 1 || len(summary.Ran) != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(rep.Sections()) != 1 || rep.Sections()[0].Anchor != "fine_section" {
		t.Fatalf("unexpected sections: %+v", rep.Sections())
	}
}
