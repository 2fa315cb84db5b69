// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Run       RunConfig       `toml:"run"`
	Jellyfish JellyfishConfig `toml:"jellyfish"`
}

// RunConfig maps report run settings.
type RunConfig struct {
	AnalysisDirs  []string `toml:"analysis-dirs"`
	Outdir        *string  `toml:"outdir"`
	PNG           *bool    `toml:"png"`
	Progress      *bool    `toml:"progress"`
	Verbose       *bool    `toml:"verbose"`
	Quiet         *bool    `toml:"quiet"`
	Ignore        []string `toml:"ignore"`
	FilesizeLimit *int64   `toml:"filesize-limit"`
	Width         *int     `toml:"width"`
}

// JellyfishConfig maps the jellyfish search pattern and module options.
type JellyfishConfig struct {
	Fn          *string  `toml:"fn"`
	Contents    *string  `toml:"contents"`
	NumLines    *int     `toml:"num-lines"`
	CleanExts   []string `toml:"clean-exts"`
	CorrectXMax *bool    `toml:"correct-xmax"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	if cfg.Jellyfish.NumLines != nil && *cfg.Jellyfish.NumLines < 0 {
		return FileConfig{}, fmt.Errorf("jellyfish.num-lines must be >= 0")
	}
	if cfg.Run.FilesizeLimit != nil && *cfg.Run.FilesizeLimit < 0 {
		return FileConfig{}, fmt.Errorf("run.filesize-limit must be >= 0")
	}
	return cfg, nil
}
