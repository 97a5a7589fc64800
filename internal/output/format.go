package output

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/quarrysearch/quarry/internal/search"
)

// TextFormatter writes search results the way grep does: one line per
// match, `file:line: text`, with optional score prefixes. Multi-line
// previews number each line of the span.
type TextFormatter struct {
	Out         io.Writer
	ShowScores  bool
	LineNumbers bool
	NoFilename  bool
	FilesOnly   bool
	Color       bool

	// Highlight marks pattern matches inside previews. Set for regex
	// mode only; scored previews are whole chunks.
	Highlight *regexp.Regexp
}

var (
	fileStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	matchStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Write renders the whole response.
func (f *TextFormatter) Write(resp *search.Response) error {
	if f.FilesOnly {
		for _, r := range resp.Results {
			if _, err := fmt.Fprintln(f.Out, r.File); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range resp.Results {
		if err := f.writeResult(r); err != nil {
			return err
		}
	}

	if len(resp.Results) == 0 && resp.BestBelowThreshold != nil {
		best := resp.BestBelowThreshold
		hint := fmt.Sprintf("no results above threshold; best was %s:%d at %.3f (try a lower --threshold)",
			best.File, best.Span.StartLine, best.Score)
		if f.Color {
			hint = dimStyle.Render(hint)
		}
		if _, err := fmt.Fprintln(f.Out, hint); err != nil {
			return err
		}
	}
	return nil
}

// writeResult prints one result, one output line per preview line.
func (f *TextFormatter) writeResult(r search.Result) error {
	lines := strings.Split(r.Preview, "\n")
	for i, line := range lines {
		var b strings.Builder

		if f.ShowScores {
			score := fmt.Sprintf("[%.3f] ", r.Score)
			if f.Color {
				score = scoreStyle(r.Score).Render(score)
			}
			b.WriteString(score)
		}

		lineNo := r.Span.StartLine + i
		switch {
		case !f.NoFilename && f.LineNumbers:
			b.WriteString(f.location(fmt.Sprintf("%s:%d: ", r.File, lineNo)))
		case !f.NoFilename:
			b.WriteString(f.location(r.File + ": "))
		case f.LineNumbers:
			b.WriteString(f.location(fmt.Sprintf("%d: ", lineNo)))
		}

		b.WriteString(f.highlight(line))

		if _, err := fmt.Fprintln(f.Out, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func (f *TextFormatter) location(text string) string {
	if f.Color {
		return fileStyle.Render(text)
	}
	return text
}

// highlight wraps pattern matches in the match style.
func (f *TextFormatter) highlight(line string) string {
	if f.Highlight == nil || !f.Color {
		return line
	}

	var b strings.Builder
	last := 0
	for _, loc := range f.Highlight.FindAllStringIndex(line, -1) {
		b.WriteString(line[last:loc[0]])
		b.WriteString(matchStyle.Render(line[loc[0]:loc[1]]))
		last = loc[1]
	}
	b.WriteString(line[last:])
	return b.String()
}

// scoreStyle fades from red at 0 to green at 1.
func scoreStyle(score float64) lipgloss.Style {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	level := uint8(score * 255)
	hex := fmt.Sprintf("#%02x%02x00", 255-level, level)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}
