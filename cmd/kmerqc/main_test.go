package main

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/kmerqc/internal/config"
	"github.com/verte-zerg/kmerqc/internal/report"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv("NO_COLOR", "1")
	log.SetOutput(io.Discard)
	return root
}

func writeHist(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	writeHist(t, path, buf.String())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	log.SetOutput(io.Discard)
	return out.String(), err
}

func TestRunWritesReportAndSavesRun(t *testing.T) {
	root := setupEnv(t)
	data := filepath.Join(root, "analysis")
	writeHist(t, filepath.Join(data, "s1_jf.hist"), "1 5\n2 3\n3 1\n")
	writeHist(t, filepath.Join(data, "s2_jf.hist"), "1 2\n2 9\n3 1\n")
	writeGzip(t, filepath.Join(data, "nested", "s3_jf.hist.gz"), "1 4\n2 2\n3 1\n")
	outdir := filepath.Join(root, "out")

	out, err := execute(t, "run", data, "--outdir", outdir, "--width", "80", "--png")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out, "Jellyfish: K-mer plot") {
		t.Fatalf("expected chart in output:\n%s", out)
	}
	for _, name := range []string{report.ReportFile, report.SourcesFile, "Jellyfish_kmer_plot.png"} {
		if _, err := os.Stat(filepath.Join(outdir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	out, err = execute(t, "runs")
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(strings.TrimSpace(lines[1]), "1 ") {
		t.Fatalf("unexpected runs output:\n%s", out)
	}

	out, err = execute(t, "sources")
	if err != nil {
		t.Fatalf("sources failed: %v", err)
	}
	if !strings.Contains(out, "s1_jf.hist") || !strings.Contains(out, "s3_jf.hist.gz") {
		t.Fatalf("unexpected sources output:\n%s", out)
	}

	pngPath := filepath.Join(root, "replay.png")
	out, err = execute(t, "show", "1", "--width", "80", "--png", pngPath)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "run 1") || !strings.Contains(out, "Jellyfish: K-mer plot") {
		t.Fatalf("unexpected show output:\n%s", out)
	}
	if _, err := os.Stat(pngPath); err != nil {
		t.Fatalf("expected png: %v", err)
	}
}

func TestRunNoDataIsNotAnError(t *testing.T) {
	root := setupEnv(t)
	data := filepath.Join(root, "empty")
	writeHist(t, filepath.Join(data, "notes.txt"), "nothing here\n")

	out, err := execute(t, data, "--outdir", filepath.Join(root, "out"), "--no-save")
	if err != nil {
		t.Fatalf("expected success without data, got %v", err)
	}
	if out != "" {
		t.Fatalf("expected no report output, got:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(root, "out", report.ReportFile)); !os.IsNotExist(err) {
		t.Fatalf("expected no report file, got %v", err)
	}
}

func TestRunParseFailureExitsWithError(t *testing.T) {
	root := setupEnv(t)
	data := filepath.Join(root, "analysis")
	writeHist(t, filepath.Join(data, "bad_jf.hist"), "1 5\nnot a number\n")

	_, err := execute(t, data, "--outdir", filepath.Join(root, "out"), "--no-save")
	if err == nil {
		t.Fatalf("expected parse failure")
	}
	if !strings.Contains(err.Error(), "bad_jf.hist") {
		t.Fatalf("expected file path in error, got %v", err)
	}
}

func TestConfigFileSuppliesDefaults(t *testing.T) {
	root := setupEnv(t)
	data := filepath.Join(root, "analysis")
	writeHist(t, filepath.Join(data, "s1.histo"), "1 5\n2 3\n3 1\n")
	cfgPath := filepath.Join(root, "config", "kmerqc", "config.toml")
	writeHist(t, cfgPath, "[run]\nanalysis-dirs = ["+`"`+filepath.ToSlash(data)+`"`+"]\n\n[jellyfish]\nfn = \"*.histo\"\n")

	out, err := execute(t, "--outdir", filepath.Join(root, "out"), "--no-save", "--width", "80")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out, "s1") {
		t.Fatalf("expected sample from configured pattern:\n%s", out)
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	root := setupEnv(t)
	path := filepath.Join(root, "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template must decode: %v", err)
	}
	if cfg.Run.Outdir != nil || cfg.Jellyfish.Fn != nil {
		t.Fatalf("template values must be commented out: %+v", cfg)
	}
	if !strings.Contains(defaultConfigTemplate(), `".histo"`) {
		t.Fatalf("expected clean extensions in template")
	}
}
