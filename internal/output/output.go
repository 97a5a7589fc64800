// Package output formats CLI output: status lines for humans, search
// results as grep-style text, JSON, or JSON Lines.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Status line icons.
const (
	IconOK   = "✓"
	IconWarn = "!"
	IconFail = "✗"
	IconInfo = "·"
)

// Writer prints status lines for maintenance commands. Write errors on
// console output are ignored.
type Writer struct {
	out io.Writer
}

// New creates a Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a line with an icon column.
func (w *Writer) Status(icon, msg string) {
	if icon == "" {
		icon = " "
	}
	_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
}

// Statusf prints a formatted status line.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a checked line.
func (w *Writer) Success(msg string) { w.Status(IconOK, msg) }

// Successf prints a formatted checked line.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning line.
func (w *Writer) Warning(msg string) { w.Status(IconWarn, msg) }

// Warningf prints a formatted warning line.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints a failure line.
func (w *Writer) Error(msg string) { w.Status(IconFail, msg) }

// Errorf prints a formatted failure line.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Detail prints an indented line under the preceding status.
func (w *Writer) Detail(msg string) {
	_, _ = fmt.Fprintf(w.out, "    %s\n", msg)
}

// Newline prints a blank line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Progress redraws a progress bar in place. Used by model pulls, where
// total is the download size in bytes.
func (w *Writer) Progress(current, total int64, msg string) {
	if total <= 0 {
		_, _ = fmt.Fprintf(w.out, "\r%s...", msg)
		return
	}

	pct := float64(current) / float64(total) * 100
	_, _ = fmt.Fprintf(w.out, "\r[%s] %3.0f%% %s", bar(current, total, 30), pct, msg)
	if current >= total {
		_, _ = fmt.Fprintln(w.out)
	}
}

// bar renders the filled portion of a progress bar.
func bar(current, total int64, width int) string {
	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
