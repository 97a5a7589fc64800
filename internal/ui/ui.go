// Package ui renders indexing progress and index status to the terminal.
// Interactive terminals get a live TUI; pipes and CI get plain lines.
package ui

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/quarrysearch/quarry/internal/index"
)

// Renderer displays the progress of one index run. Its progress methods
// satisfy index.Observer, so a Renderer can be handed to the indexer
// directly. Calls arrive from worker goroutines.
type Renderer interface {
	// Start begins rendering. For the TUI this takes over the terminal
	// until Stop.
	Start(ctx context.Context) error

	// OnFileProgress reports a finished file. The total grows while
	// discovery is still streaming.
	OnFileProgress(done, total int, path string)

	// OnChunkProgress reports embedded chunks after each batch.
	OnChunkProgress(done, total int)

	// Complete shows the final summary, including per-file failures.
	Complete(stats *index.Stats)

	// Stop tears the renderer down. Safe to call after Complete.
	Stop() error
}

// Config selects and configures a renderer.
type Config struct {
	Output  io.Writer
	Plain   bool // force plain output
	NoColor bool
	Root    string // project root shown in the header
}

// NewRenderer picks the renderer for the environment: the TUI on an
// interactive terminal, plain lines for pipes, CI, or --plain.
func NewRenderer(cfg Config) Renderer {
	if cfg.Plain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlain(cfg)
	}
	tui, err := NewTUI(cfg)
	if err != nil {
		return NewPlain(cfg)
	}
	return tui
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor honors the NO_COLOR convention.
func DetectNoColor() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}

// DetectCI reports whether the process runs under a known CI system.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, set := os.LookupEnv(v); set {
			return true
		}
	}
	return false
}
