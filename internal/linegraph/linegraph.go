// Package linegraph builds line charts from per-sample histograms and
// renders them to the terminal or to PNG.
package linegraph

import (
	"fmt"
	"sort"

	"github.com/verte-zerg/kmerqc/internal/model"
)

// Config describes a line chart and its axes.
type Config struct {
	ID        string
	Title     string
	XLab      string
	YLab      string
	XDecimals bool
	XMin      float64
	XMax      float64
}

// Series is one sample's line, sorted by x.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// Chart is a renderable line chart.
type Chart struct {
	Config Config
	Series []Series
}

// PlotID implements model.Plot.
func (c *Chart) PlotID() string {
	return c.Config.ID
}

// Plot builds a chart with one series per sample.
func Plot(data model.Dataset, cfg Config) (*Chart, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("plot id is required")
	}
	if cfg.XMax <= cfg.XMin {
		return nil, fmt.Errorf("invalid x range [%v, %v]", cfg.XMin, cfg.XMax)
	}
	names := make([]string, 0, len(data))
	for name, h := range data {
		if h.Len() == 0 {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	series := make([]Series, 0, len(names))
	for _, name := range names {
		series = append(series, histogramSeries(name, data[name]))
	}
	return &Chart{Config: cfg, Series: series}, nil
}

func histogramSeries(name string, h *model.Histogram) Series {
	keys := h.Keys()
	sort.Ints(keys)
	s := Series{
		Name: name,
		X:    make([]float64, 0, len(keys)),
		Y:    make([]float64, 0, len(keys)),
	}
	for _, k := range keys {
		v, _ := h.Get(k)
		s.X = append(s.X, float64(k))
		s.Y = append(s.Y, float64(v))
	}
	return s
}

// visible returns the points of s that fall inside [xmin, xmax].
func (s Series) visible(xmin, xmax float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(s.X))
	ys := make([]float64, 0, len(s.Y))
	for i, x := range s.X {
		if x < xmin || x > xmax {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, s.Y[i])
	}
	return xs, ys
}
