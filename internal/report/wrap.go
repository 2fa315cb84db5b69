package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText greedily wraps each paragraph of text to width display cells.
// Paragraphs are separated by blank lines; words longer than width are
// placed on their own line.
func wrapText(text string, width int) string {
	paragraphs := splitParagraphs(text)
	if width <= 0 {
		return strings.Join(paragraphs, "\n\n")
	}
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		out = append(out, wrapParagraph(p, width))
	}
	return strings.Join(out, "\n\n")
}

func splitParagraphs(text string) []string {
	var paragraphs []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return paragraphs
}

func wrapParagraph(p string, width int) string {
	var out strings.Builder
	lineWidth := 0
	for _, word := range strings.Fields(p) {
		w := runewidth.StringWidth(word)
		if lineWidth > 0 && lineWidth+1+w > width {
			out.WriteByte('\n')
			lineWidth = 0
		}
		if lineWidth > 0 {
			out.WriteByte(' ')
			lineWidth++
		}
		out.WriteString(word)
		lineWidth += w
	}
	return out.String()
}
