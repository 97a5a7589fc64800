package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// StatusInfo describes the index under a project root.
type StatusInfo struct {
	Root          string         `json:"root"`
	Files         int            `json:"files"`
	Chunks        int            `json:"chunks"`
	EmbeddedFiles int            `json:"embedded_files"`
	SizeBytes     int64          `json:"size_bytes"`
	LastIndexed   time.Time      `json:"last_indexed"`
	Models        map[string]int `json:"models,omitempty"`
	Orphans       int            `json:"orphans"`
	Unreadable    int            `json:"unreadable"`

	// Configured embedding backend and its probed state.
	Model         string `json:"model"`
	Backend       string `json:"backend"`
	BackendStatus string `json:"backend_status"` // ready, offline, unreachable
	Dimensions    int    `json:"dimensions,omitempty"`
}

// StatusRenderer prints index status as text or JSON.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{out: out, styles: GetStyles(noColor)}
}

// Render writes the human-readable status.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("index: "+info.Root))

	_, _ = fmt.Fprintf(r.out, "  files:    %d (%d with vectors)\n", info.Files, info.EmbeddedFiles)
	_, _ = fmt.Fprintf(r.out, "  chunks:   %d\n", info.Chunks)
	_, _ = fmt.Fprintf(r.out, "  size:     %s\n", FormatBytes(info.SizeBytes))
	if !info.LastIndexed.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  updated:  %s\n", formatAge(info.LastIndexed))
	}

	if len(info.Models) > 1 {
		names := make([]string, 0, len(info.Models))
		for name := range info.Models {
			names = append(names, name)
		}
		sort.Strings(names)
		_, _ = fmt.Fprintf(r.out, "  models:  ")
		for _, name := range names {
			_, _ = fmt.Fprintf(r.out, " %s (%d)", name, info.Models[name])
		}
		_, _ = fmt.Fprintln(r.out)
	}

	if info.Orphans > 0 {
		_, _ = fmt.Fprintf(r.out, "  %s\n", r.styles.Warning.Render(
			fmt.Sprintf("orphans:  %d entries for deleted files", info.Orphans)))
	}
	if info.Unreadable > 0 {
		_, _ = fmt.Fprintf(r.out, "  %s\n", r.styles.Warning.Render(
			fmt.Sprintf("stale:    %d unreadable entries, will rebuild", info.Unreadable)))
	}

	_, _ = fmt.Fprintf(r.out, "\n  model:    %s (%s", info.Model, info.Backend)
	if info.Dimensions > 0 {
		_, _ = fmt.Fprintf(r.out, ", %d dims", info.Dimensions)
	}
	_, _ = fmt.Fprintf(r.out, ")\n")
	_, _ = fmt.Fprintf(r.out, "  backend:  %s\n", r.renderBackend(info.BackendStatus))

	return nil
}

// RenderJSON writes the status as indented JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func (r *StatusRenderer) renderBackend(status string) string {
	switch status {
	case "ready":
		return r.styles.Success.Render(status)
	case "offline", "unreachable":
		return r.styles.Warning.Render(status)
	default:
		return status
	}
}

// formatAge renders a timestamp relative to now.
func formatAge(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day") + " ago"
	default:
		return t.Format("2006-01-02 15:04")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(n int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.1f GB", float64(n)/gb)
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.1f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
