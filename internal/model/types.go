// Package model defines shared data structures.
package model

import "time"

// Histogram maps an occurrence count to the number of k-mer bases observed
// at that occurrence. Keys keep their first insertion order.
type Histogram struct {
	keys   []int
	values map[int]int64
}

// NewHistogram returns an empty histogram.
func NewHistogram() *Histogram {
	return &Histogram{values: map[int]int64{}}
}

// Set stores value under key. Overwriting keeps the key's first position.
func (h *Histogram) Set(key int, value int64) {
	if h.values == nil {
		h.values = map[int]int64{}
	}
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

// Get returns the value stored under key.
func (h *Histogram) Get(key int) (int64, bool) {
	v, ok := h.values[key]
	return v, ok
}

// Delete removes key and reports whether it was present.
func (h *Histogram) Delete(key int) bool {
	if _, ok := h.values[key]; !ok {
		return false
	}
	delete(h.values, key)
	for i, k := range h.keys {
		if k == key {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of keys.
func (h *Histogram) Len() int {
	if h == nil {
		return 0
	}
	return len(h.keys)
}

// Keys returns the keys in insertion order.
func (h *Histogram) Keys() []int {
	if h == nil {
		return nil
	}
	out := make([]int, len(h.keys))
	copy(out, h.keys)
	return out
}

// Dataset maps a sample name to its histogram.
type Dataset map[string]*Histogram

// LogFile is a discovered input file handed to a module.
type LogFile struct {
	SampleName string
	Path       string
}

// DataSource records which file fed a module section.
type DataSource struct {
	Module     string
	Section    string
	SampleName string
	Path       string
}

// Plot is implemented by renderable charts attached to a section.
type Plot interface {
	PlotID() string
}

// Section is a block of a module's report output.
type Section struct {
	Name        string
	Anchor      string
	Description string
	HelpText    string
	Plot        Plot
}

// ModuleInfo describes a module header in the report.
type ModuleInfo struct {
	Name   string
	Anchor string
	Href   string
	Info   string
}

// RunSummary describes a stored run.
type RunSummary struct {
	ID           int64
	StartedAt    time.Time
	AnalysisDirs []string
	XMin         int
	XMax         int
	Samples      int
}
