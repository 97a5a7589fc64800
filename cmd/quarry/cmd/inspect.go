package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarrysearch/quarry/internal/chunk"
	"github.com/quarrysearch/quarry/internal/config"
	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/scanner"
	"github.com/quarrysearch/quarry/internal/store"
)

func newInspectCmd() *cobra.Command {
	var (
		stored     bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show how a file chunks",
		Long: `Chunk a file the way indexing would and print the resulting spans,
symbols, and token estimates. This runs offline against the live file;
no index or embedding backend is needed.

--stored prints the persisted sidecar entry instead, showing exactly
what search currently sees for the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), cmd, args[0], stored, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&stored, "stored", false, "Show the persisted sidecar entry")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// inspectReport is the JSON shape of an inspect run.
type inspectReport struct {
	File     string         `json:"file"`
	Language string         `json:"language,omitempty"`
	Model    string         `json:"model,omitempty"`
	Embedded bool           `json:"embedded,omitempty"`
	Chunks   []inspectChunk `json:"chunks"`
}

type inspectChunk struct {
	Span   chunk.Span    `json:"span"`
	Symbol *chunk.Symbol `json:"symbol,omitempty"`
	Tokens int           `json:"tokens"`
}

func runInspect(ctx context.Context, cmd *cobra.Command, path string, stored, jsonOutput bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	root, err := config.FindProjectRoot(filepath.Dir(abs))
	if err != nil {
		root = filepath.Dir(abs)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return qerrors.New(qerrors.ErrCodeInvalidPath,
			fmt.Sprintf("%s is outside the project root %s", path, root), nil)
	}
	rel = filepath.ToSlash(rel)

	if stored {
		return inspectStored(cmd.OutOrStdout(), root, rel, jsonOutput)
	}
	return inspectLive(ctx, cmd.OutOrStdout(), abs, rel, jsonOutput)
}

// inspectLive chunks the file now, with the same configuration an index
// run would use.
func inspectLive(ctx context.Context, w io.Writer, abs, rel string, jsonOutput bool) error {
	content, err := os.ReadFile(abs)
	if err != nil {
		return qerrors.FileAccessError(rel, "read", err)
	}

	chunker := chunk.New(chunk.DefaultConfig())
	defer chunker.Close()

	chunks, err := chunker.Chunk(ctx, rel, content)
	if err != nil {
		return err
	}

	report := inspectReport{
		File:     rel,
		Language: scanner.DetectLanguage(rel),
		Chunks:   make([]inspectChunk, 0, len(chunks)),
	}
	for _, c := range chunks {
		report.Chunks = append(report.Chunks, inspectChunk{
			Span:   c.Span,
			Symbol: c.Symbol,
			Tokens: chunk.EstimateTokens(c.Text),
		})
	}

	if jsonOutput {
		return writeIndentedJSON(w, report)
	}
	printInspectReport(w, report)
	return nil
}

// inspectStored dumps the sidecar entry for the file.
func inspectStored(w io.Writer, root, rel string, jsonOutput bool) error {
	entry, err := store.Read(root, rel)
	if err != nil {
		return err
	}
	if entry == nil {
		return qerrors.New(qerrors.ErrCodeNotIndexed,
			fmt.Sprintf("no index entry for %s", rel), nil).
			WithSuggestion("run 'quarry index' first, or drop --stored to chunk the live file")
	}

	if jsonOutput {
		// The raw entry, minus embedding vectors: the shape matters,
		// hundreds of float rows do not.
		trimmed := *entry
		trimmed.Embeddings = nil
		return writeIndentedJSON(w, trimmed)
	}

	report := inspectReport{
		File:     rel,
		Language: entry.Language,
		Model:    entry.Fingerprint.Model,
		Embedded: entry.Embedded(),
		Chunks:   make([]inspectChunk, 0, len(entry.Chunks)),
	}
	for _, c := range entry.Chunks {
		report.Chunks = append(report.Chunks, inspectChunk{
			Span:   c.Span,
			Symbol: c.Symbol,
			Tokens: chunk.EstimateTokens(c.Text),
		})
	}
	printInspectReport(w, report)
	return nil
}

// printInspectReport renders the chunk listing for the terminal.
func printInspectReport(w io.Writer, report inspectReport) {
	header := report.File
	if report.Language != "" {
		header += " (" + report.Language + ")"
	}
	_, _ = fmt.Fprintf(w, "%s: %d chunks\n", header, len(report.Chunks))
	if report.Model != "" {
		vectors := "no vectors"
		if report.Embedded {
			vectors = "embedded"
		}
		_, _ = fmt.Fprintf(w, "indexed with %s, %s\n", report.Model, vectors)
	}
	_, _ = fmt.Fprintln(w)

	for i, c := range report.Chunks {
		symbol := ""
		if c.Symbol != nil {
			symbol = fmt.Sprintf("  %s %s", c.Symbol.Kind, c.Symbol.Name)
		}
		_, _ = fmt.Fprintf(w, "  %3d  lines %d-%d  ~%d tokens%s\n",
			i+1, c.Span.StartLine, c.Span.EndLine, c.Tokens, symbol)
	}
}

// writeIndentedJSON encodes v as indented JSON.
func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
