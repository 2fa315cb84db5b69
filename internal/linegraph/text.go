package linegraph

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

type lineStyle struct {
	name   string
	period int
	on     int
}

type ansiColor struct {
	name string
	code string
}

const (
	defaultPlotHeight   = 12
	minPlotWidth        = 10
	axisSeparator       = " │ "
	axisCorner          = " └─"
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

var colorPalette = []ansiColor{
	{name: "cyan", code: "\x1b[36m"},
	{name: "magenta", code: "\x1b[35m"},
	{name: "yellow", code: "\x1b[33m"},
	{name: "green", code: "\x1b[32m"},
	{name: "blue", code: "\x1b[34m"},
}

// RenderText draws the chart as braille line art. A width or height of zero
// picks a default; width defaults to the terminal width.
func (c *Chart) RenderText(w io.Writer, width, height int, forceColor bool) error {
	cfg := c.Config
	if height <= 0 {
		height = defaultPlotHeight
	}

	type visibleSeries struct {
		name string
		xs   []float64
		ys   []float64
	}
	series := make([]visibleSeries, 0, len(c.Series))
	maxY := 0.0
	for _, s := range c.Series {
		xs, ys := s.visible(cfg.XMin, cfg.XMax)
		if len(xs) == 0 {
			continue
		}
		for _, y := range ys {
			if y > maxY {
				maxY = y
			}
		}
		series = append(series, visibleSeries{name: s.Name, xs: xs, ys: ys})
	}

	if cfg.Title != "" {
		if _, err := fmt.Fprintln(w, cfg.Title); err != nil {
			return err
		}
	}
	if len(series) == 0 {
		_, err := fmt.Fprintln(w, "No data in range.")
		return err
	}
	if maxY <= 0 {
		maxY = 1
	}

	axisLabels := makeAxisLabels(height, maxY)
	leftAxisWidth := 0
	for _, label := range axisLabels {
		if n := utf8.RuneCountInString(label); n > leftAxisWidth {
			leftAxisWidth = n
		}
	}
	if width <= 0 {
		width = plotWidthFor(terminalWidth(), leftAxisWidth)
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	xDots := width * 2
	yDots := height * 4
	seriesCells := make([][][]uint8, 0, len(series))
	for si, s := range series {
		cells := makeCells(height, width)
		style := lineStyles[si%len(lineStyles)]
		prevX, prevY := -1, -1
		for i, x := range s.xs {
			px := valueToCol(x, cfg.XMin, cfg.XMax, xDots)
			py := valueToRow(s.ys[i], 0, maxY, yDots)
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					if style.shouldPlot(dx) {
						setBrailleDot(cells, dx, dy)
					}
				})
			} else if style.shouldPlot(px) {
				setBrailleDot(cells, px, py)
			}
			prevX, prevY = px, py
		}
		seriesCells = append(seriesCells, cells)
	}

	useColor := shouldUseColor(w, forceColor)
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%*s%s", leftAxisWidth, axisLabels[y], axisSeparator))
		for x := 0; x < width; x++ {
			mask, colorIdx := composeCell(seriesCells, x, y)
			ch := brailleFromMask(mask)
			if useColor && colorIdx >= 0 {
				row.WriteString(colorPalette[colorIdx%len(colorPalette)].code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}

	pad := strings.Repeat(" ", leftAxisWidth)
	if _, err := fmt.Fprintln(w, pad+axisCorner+strings.Repeat("─", width)); err != nil {
		return err
	}
	ticks := xTickLine(cfg, width)
	if _, err := fmt.Fprintln(w, pad+strings.Repeat(" ", utf8.RuneCountInString(axisSeparator))+ticks); err != nil {
		return err
	}
	if cfg.XLab != "" || cfg.YLab != "" {
		if _, err := fmt.Fprintf(w, "x: %s  y: %s\n", cfg.XLab, cfg.YLab); err != nil {
			return err
		}
	}
	names := make([]string, len(series))
	for i, s := range series {
		names[i] = s.name
	}
	if _, err := fmt.Fprintln(w, renderLegend(names, useColor)); err != nil {
		return err
	}
	return nil
}

// plotWidthFor fits the plot area next to y axis labels of labelWidth.
func plotWidthFor(totalWidth, labelWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - labelWidth - utf8.RuneCountInString(axisSeparator)
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makeAxisLabels(height int, maxY float64) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = formatY(maxY)
	if height > 2 {
		labels[height/2] = formatY(maxY * float64(height-1-height/2) / float64(height-1))
	}
	if height > 1 {
		labels[height-1] = "0"
	}
	return labels
}

func formatY(v float64) string {
	if v < 1000 {
		return strconv.FormatFloat(math.Round(v), 'f', -1, 64)
	}
	return strings.ReplaceAll(strings.TrimSpace(humanize.SIWithDigits(v, 1, "")), " ", "")
}

func formatX(cfg Config, v float64) string {
	if cfg.XDecimals {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.Itoa(int(math.Round(v)))
}

// xTickLine places the xmin, midpoint and xmax labels under the plot.
func xTickLine(cfg Config, width int) string {
	line := []rune(strings.Repeat(" ", width))
	place := func(col int, label string) {
		runes := []rune(label)
		if col+len(runes) > len(line) {
			col = len(line) - len(runes)
		}
		if col < 0 {
			col = 0
		}
		for i, r := range runes {
			if col+i < len(line) {
				line[col+i] = r
			}
		}
	}
	mid := cfg.XMin + (cfg.XMax-cfg.XMin)/2
	place(0, formatX(cfg, cfg.XMin))
	midLabel := formatX(cfg, mid)
	place(width/2-utf8.RuneCountInString(midLabel)/2, midLabel)
	place(width, formatX(cfg, cfg.XMax))
	return strings.TrimRight(string(line), " ")
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func composeCell(seriesCells [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	colorIdx := -1
	for i, cells := range seriesCells {
		if y < 0 || y >= len(cells) {
			continue
		}
		if x < 0 || x >= len(cells[y]) {
			continue
		}
		cellMask := cells[y][x]
		if cellMask == 0 {
			continue
		}
		if colorIdx == -1 {
			colorIdx = i
		}
		mask |= cellMask
	}
	return mask, colorIdx
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

func valueToCol(v, minVal, maxVal float64, width int) int {
	if width <= 1 || maxVal <= minVal {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	col := int(math.Round(pos * float64(width-1)))
	if col < 0 {
		col = 0
	}
	if col >= width {
		col = width - 1
	}
	return col
}

func valueToRow(v, minVal, maxVal float64, height int) int {
	if height <= 1 || maxVal <= minVal {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	row := int(math.Round((1 - pos) * float64(height-1)))
	if row < 0 {
		row = 0
	}
	if row >= height {
		row = height - 1
	}
	return row
}

func renderLegend(names []string, useColor bool) string {
	parts := make([]string, 0, len(names))
	marker := brailleFromMask(0x01)
	for i, name := range names {
		styleName := lineStyles[i%len(lineStyles)].name
		label := fmt.Sprintf("%c %s (%s)", marker, name, styleName)
		if useColor {
			color := colorPalette[i%len(colorPalette)].code
			label = color + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) {
		return
	}
	if cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
