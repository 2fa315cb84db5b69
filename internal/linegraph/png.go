package linegraph

import (
	"fmt"
	"io"
	"math"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	pngWidth  = 1024
	pngHeight = 512
)

var pngPalette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorCyan,
	chart.ColorGreen,
	chart.ColorRed,
	chart.ColorOrange,
	chart.ColorYellow,
	chart.ColorAlternateGray,
}

// RenderPNG renders the chart as a PNG image.
func (c *Chart) RenderPNG(w io.Writer) error {
	cfg := c.Config
	series := make([]chart.Series, 0, len(c.Series))
	maxY := 0.0
	for i, s := range c.Series {
		xs, ys := s.visible(cfg.XMin, cfg.XMax)
		if len(xs) == 0 {
			continue
		}
		for _, y := range ys {
			maxY = math.Max(maxY, y)
		}
		// go-chart needs at least two points to draw a line.
		if len(xs) == 1 {
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: pngPalette[i%len(pngPalette)],
				StrokeWidth: 1.5,
			},
		})
	}
	if len(series) == 0 {
		return fmt.Errorf("chart %s has no data in range", cfg.ID)
	}
	if maxY <= 0 {
		maxY = 1
	}

	xAxis := chart.XAxis{
		Name:  cfg.XLab,
		Range: &chart.ContinuousRange{Min: cfg.XMin, Max: cfg.XMax},
	}
	if !cfg.XDecimals {
		xAxis.ValueFormatter = func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return strconv.Itoa(int(math.Round(f)))
			}
			return fmt.Sprintf("%v", v)
		}
	}

	ch := chart.Chart{
		Title:      cfg.Title,
		Width:      pngWidth,
		Height:     pngHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      xAxis,
		YAxis:      chart.YAxis{Name: cfg.YLab, Range: &chart.ContinuousRange{Min: 0, Max: maxY}},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render %s: %w", cfg.ID, err)
	}
	return nil
}
