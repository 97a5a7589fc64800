package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quarrysearch/quarry/internal/index"
)

// TUI renders a live indexing view with bubbletea.
type TUI struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *indexModel
	tracker *Tracker
	started bool
	done    chan struct{}
}

// NewTUI creates the interactive renderer. Errors when the output is
// not a terminal.
func NewTUI(cfg Config) (*TUI, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a terminal")
	}

	tracker := NewTracker()
	model := newIndexModel(tracker, cfg.Root)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUI{
		cfg:     cfg,
		tracker: tracker,
		model:   model,
		done:    make(chan struct{}),
	}, nil
}

// Start implements Renderer. The bubbletea program runs on its own
// goroutine until Complete or Stop.
func (t *TUI) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return nil
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if f, ok := t.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	t.program = tea.NewProgram(t.model, opts...)
	t.started = true

	go func() {
		defer close(t.done)
		_, _ = t.program.Run()
	}()
	return nil
}

// OnFileProgress implements Renderer. The render tick picks the change
// up, so no message is sent.
func (t *TUI) OnFileProgress(done, total int, path string) {
	t.tracker.FileProgress(done, total, path)
}

// OnChunkProgress implements Renderer.
func (t *TUI) OnChunkProgress(done, total int) {
	t.tracker.ChunkProgress(done, total)
}

// Complete implements Renderer.
func (t *TUI) Complete(stats *index.Stats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.program != nil {
		t.program.Send(doneMsg{stats: stats})
	}
}

// Stop implements Renderer. Waits briefly for the program to exit so a
// wedged terminal cannot hang shutdown.
func (t *TUI) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.program == nil {
		return nil
	}

	t.program.Quit()
	select {
	case <-t.done:
	case <-time.After(2 * time.Second):
	}
	return nil
}

type doneMsg struct{ stats *index.Stats }
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(ts time.Time) tea.Msg {
		return tickMsg(ts)
	})
}

// indexModel is the bubbletea model behind the indexing view.
type indexModel struct {
	tracker  *Tracker
	root     string
	width    int
	spinner  spinner.Model
	bar      progress.Model
	styles   Styles
	quitting bool
	stats    *index.Stats
}

func newIndexModel(tracker *Tracker, root string) *indexModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAmber))

	bar := progress.New(
		progress.WithSolidFill(colorAmber),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return &indexModel{
		tracker: tracker,
		root:    root,
		width:   80,
		spinner: s,
		bar:     bar,
		styles:  DefaultStyles(),
	}
}

// Init implements tea.Model.
func (m *indexModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// Update implements tea.Model.
func (m *indexModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 20
		if m.bar.Width < 20 {
			m.bar.Width = 20
		}

	case doneMsg:
		m.stats = msg.stats
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m *indexModel) View() string {
	if m.quitting {
		return "canceled\n"
	}
	if m.stats != nil {
		return m.viewComplete()
	}

	width := m.width - 4
	if width < 40 {
		width = 40
	}
	snap := m.tracker.Snapshot()

	var sections []string
	sections = append(sections, m.viewFiles(snap))
	if snap.ChunksTotal > 0 {
		sections = append(sections, m.viewChunks(snap))
	}
	sections = append(sections, m.styles.Border.Render(strings.Repeat("─", width)))
	sections = append(sections, m.styles.Spark.Render(m.tracker.Sparkline(width-12))+" "+m.styles.Dim.Render("chunks/s"))
	if snap.CurrentFile != "" {
		sections = append(sections, m.styles.Dim.Render(truncatePath(snap.CurrentFile, width-2)))
	}

	title := "quarry index"
	if m.root != "" {
		title += "  " + m.styles.Label.Render(m.root)
	}
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colorDarkGray)).
		Padding(0, 1).
		Width(width)

	body := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render(title),
		panel.Render(strings.Join(sections, "\n")),
	)
	return body + "\n" + m.styles.Dim.Render("q to quit")
}

// viewFiles renders the file counter and its bar.
func (m *indexModel) viewFiles(snap Progress) string {
	if snap.FilesTotal == 0 {
		return fmt.Sprintf("%s discovering files...", m.spinner.View())
	}

	frac := float64(snap.FilesDone) / float64(snap.FilesTotal)
	if frac > 1 {
		frac = 1
	}
	count := m.styles.Label.Render(fmt.Sprintf("%d / %d files", snap.FilesDone, snap.FilesTotal))
	return fmt.Sprintf("%s %s\n%s", m.spinner.View(), count, m.bar.ViewAs(frac))
}

// viewChunks renders the embedding counters and rate.
func (m *indexModel) viewChunks(snap Progress) string {
	line := fmt.Sprintf("embedded %d / %d chunks", snap.ChunksDone, snap.ChunksTotal)
	if snap.Speed > 0 {
		line += fmt.Sprintf("  %.0f/s (avg %.0f, peak %.0f)", snap.Speed, snap.AvgSpeed, snap.PeakSpeed)
	}
	if snap.ETA > 0 {
		line += "  eta " + formatDuration(snap.ETA)
	}
	return m.styles.Label.Render(line)
}

// viewComplete renders the closing summary panel.
func (m *indexModel) viewComplete() string {
	width := m.width - 4
	if width < 40 {
		width = 40
	}
	s := m.stats

	var lines []string
	lines = append(lines, m.styles.Success.Render("✓ index complete"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("%s %s",
		m.styles.Label.Render("files:"),
		m.styles.Accent.Render(fmt.Sprintf("%d indexed, %d refreshed, %d unchanged",
			s.FilesIndexed, s.FilesRefreshed, s.FilesSkipped))))
	lines = append(lines, fmt.Sprintf("%s %s",
		m.styles.Label.Render("chunks:"),
		m.styles.Accent.Render(fmt.Sprintf("%d parsed, %d embedded", s.ChunksCreated, s.ChunksEmbedded))))
	lines = append(lines, fmt.Sprintf("%s %s",
		m.styles.Label.Render("model:"),
		m.styles.Accent.Render(s.Model)))
	lines = append(lines, fmt.Sprintf("%s %s",
		m.styles.Label.Render("took:"),
		m.styles.Accent.Render(formatDuration(s.Duration))))

	if s.Degraded {
		lines = append(lines, "")
		lines = append(lines, m.styles.Warning.Render("⚠ embedding degraded, rerun once the backend is up"))
	}
	if len(s.Failures) > 0 {
		lines = append(lines, "")
		lines = append(lines, m.styles.Error.Render(fmt.Sprintf("✗ %d files failed", len(s.Failures))))
		for i, f := range s.Failures {
			if i == 5 {
				lines = append(lines, m.styles.Dim.Render(fmt.Sprintf("  ... and %d more", len(s.Failures)-i)))
				break
			}
			lines = append(lines, m.styles.Dim.Render("  "+truncatePath(f.Path, width-4)))
		}
	}

	border := colorGreen
	if len(s.Failures) > 0 {
		border = colorRed
	}
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(1, 2).
		Width(width)
	return panel.Render(strings.Join(lines, "\n")) + "\n"
}

// formatDuration prints a duration the way people read one.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		if secs == 0 {
			return fmt.Sprintf("%dm", mins)
		}
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// truncatePath shortens a path from the left, keeping the filename.
func truncatePath(path string, max int) string {
	if len(path) <= max {
		return path
	}
	if max < 4 {
		return "..."
	}

	parts := strings.Split(path, "/")
	name := parts[len(parts)-1]
	if len(name)+4 > max {
		return "..." + name[len(name)-max+3:]
	}

	keep := max - len(name) - 4
	prefix := strings.Join(parts[:len(parts)-1], "/")
	if len(prefix) <= keep {
		return path
	}
	return "..." + prefix[len(prefix)-keep:] + "/" + name
}

var _ Renderer = (*TUI)(nil)
