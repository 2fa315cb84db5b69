// Package discovery finds module input files under analysis directories.
package discovery

import (
	"bufio"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shenwei356/util/pathutil"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/kmerqc/internal/model"
)

// DefaultFilesizeLimit skips files larger than this many bytes.
const DefaultFilesizeLimit int64 = 10_000_000

// Pattern selects files for a module search key.
type Pattern struct {
	// Fn is a glob matched against the base filename.
	Fn string
	// Contents, when set, must appear within the first NumLines lines
	// (the whole file when NumLines is zero).
	Contents string
	NumLines int
}

// Options configures a Finder.
type Options struct {
	Patterns      map[string][]Pattern
	Ignore        []string
	FilesizeLimit int64
	CleanExts     []string
	// Log receives warnings for entries skipped during the walk.
	Log           logrus.FieldLogger
}

// Finder walks analysis directories once and matches files per search key.
type Finder struct {
	dirs  []string
	opts  Options
	files []string
	built bool
}


// NewFinder validates dirs and returns a Finder.
func NewFinder(dirs []string, opts Options) (*Finder, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no analysis directories given")
	}
	for _, dir := range dirs {
		ok, err := pathutil.IsDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
		}
		if !ok {
			return nil, fmt.Errorf("not a directory: %s", dir)
		}
	}
	if opts.FilesizeLimit <= 0 {
		opts.FilesizeLimit = DefaultFilesizeLimit
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	return &Finder{dirs: dirs, opts: opts}, nil
}

// Find returns the files matching key's patterns, sorted by path.
func (f *Finder) Find(key string) ([]model.LogFile, error) {
	patterns, ok := f.opts.Patterns[key]
	if !ok {
		return nil, fmt.Errorf("no search pattern for %q", key)
	}
	if err := f.walk(); err != nil {
		return nil, err
	}
	var out []model.LogFile
	for _, path := range f.files {
		matched, err := f.matchAny(patterns, path)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		out = append(out, model.LogFile{
			SampleName: CleanSampleName(filepath.Base(path), f.opts.CleanExts),
			Path:       path,
		})
	}
	return out, nil
}

func (f *Finder) walk() error {
	if f.built {
		return nil
	}
	var files []string
	for _, root := range f.dirs {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Only an unreadable root aborts the search.
				if path == root {
					return err
				}
				f.opts.Log.Warnf("Skipping %s: %v", path, err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if path != root && f.ignored(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				f.opts.Log.Warnf("Skipping %s: %v", path, err)
				return nil
			}
			if info.Size() > f.opts.FilesizeLimit {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to search %s: %w", root, err)
		}
	}
	sort.Strings(files)
	f.files = files
	f.built = true
	return nil
}

func (f *Finder) ignored(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range f.opts.Ignore {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

func (f *Finder) matchAny(patterns []Pattern, path string) (bool, error) {
	base := filepath.Base(path)
	for _, p := range patterns {
		if p.Fn != "" {
			ok, err := filepath.Match(p.Fn, base)
			if err != nil {
				return false, fmt.Errorf("invalid pattern %q: %w", p.Fn, err)
			}
			if !ok {
				continue
			}
		}
		if p.Contents == "" {
			return true, nil
		}
		found, err := containsText(path, p.Contents, p.NumLines)
		if err != nil {
			f.opts.Log.Warnf("Skipping %s: %v", path, err)
			return false, nil
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

func containsText(path, text string, numLines int) (bool, error) {
	rc, err := Open(path)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = rc.Close()
	}()
	scanner := bufio.NewScanner(rc)
	for n := 0; scanner.Scan(); n++ {
		if numLines > 0 && n >= numLines {
			return false, nil
		}
		if strings.Contains(scanner.Text(), text) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return false, nil
}

// CleanSampleName strips known extensions from a filename, repeatedly and
// in any order, then trims leftover separators.
func CleanSampleName(name string, exts []string) string {
	for {
		trimmed := name
		for _, ext := range exts {
			if ext != "" && strings.HasSuffix(trimmed, ext) && len(trimmed) > len(ext) {
				trimmed = strings.TrimSuffix(trimmed, ext)
			}
		}
		if trimmed == name {
			break
		}
		name = trimmed
	}
	return strings.Trim(name, "._- ")
}
