package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if cfg.Run.Outdir != nil || cfg.Jellyfish.Fn != nil {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[run]
analysis-dirs = ["data", "more"]
outdir = "out"
png = true
ignore = ["*tmp*"]
filesize-limit = 2048
width = 100

[jellyfish]
fn = "*.histo"
num-lines = 3
clean-exts = [".histo"]
correct-xmax = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Run.AnalysisDirs) != 2 || cfg.Run.AnalysisDirs[1] != "more" {
		t.Fatalf("unexpected analysis dirs: %v", cfg.Run.AnalysisDirs)
	}
	if cfg.Run.Outdir == nil || *cfg.Run.Outdir != "out" {
		t.Fatalf("unexpected outdir")
	}
	if cfg.Run.PNG == nil || !*cfg.Run.PNG {
		t.Fatalf("expected png enabled")
	}
	if cfg.Run.Progress != nil {
		t.Fatalf("progress must stay unset")
	}
	if cfg.Run.FilesizeLimit == nil || *cfg.Run.FilesizeLimit != 2048 {
		t.Fatalf("unexpected filesize limit")
	}
	if cfg.Jellyfish.Fn == nil || *cfg.Jellyfish.Fn != "*.histo" {
		t.Fatalf("unexpected fn")
	}
	if cfg.Jellyfish.CorrectXMax == nil || !*cfg.Jellyfish.CorrectXMax {
		t.Fatalf("expected correct-xmax")
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[run]\nwords = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "run.words") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadConfigNegativeNumLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[jellyfish]\nnum-lines = -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "kmerqc", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "kmerqc", "kmerqc.db") {
		t.Fatalf("unexpected db path %q", got)
	}
}
