package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarrysearch/quarry/internal/config"
	"github.com/quarrysearch/quarry/internal/embed"
	"github.com/quarrysearch/quarry/internal/output"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List embedding models",
		Long: `List the embedding models quarry can index with, their vector
dimensions, and the backend that serves them. Pick one with --model
on 'quarry index' or set it in .quarry.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runModelsList(cmd)
		},
	}

	cmd.AddCommand(newModelsPullCmd())

	return cmd
}

func runModelsList(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	for _, m := range embed.Models() {
		marker := ""
		if m.IsDefault() {
			marker = "  (default)"
		}
		dims := "-"
		if m.Dimensions > 0 {
			dims = fmt.Sprintf("%d", m.Dimensions)
		}
		_, _ = fmt.Fprintf(w, "%-45s %5s dims  %s%s\n", m.Name, dims, m.Provider, marker)
	}
	return nil
}

func newModelsPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull NAME",
		Short: "Download a model through Ollama",
		Long: `Download the named model to the configured Ollama server so
indexing and semantic search can use it. Interrupted downloads resume;
already-installed models return immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelsPull(cmd.Context(), cmd, args[0])
		},
	}
	return cmd
}

func runModelsPull(ctx context.Context, cmd *cobra.Command, name string) error {
	model, err := embed.Resolve(name)
	if err != nil {
		return err
	}

	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}
	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	out := output.New(cmd.OutOrStdout())
	if model.Provider != embed.ProviderOllama {
		out.Statusf(output.IconInfo, "model %s is built in, nothing to pull", model.Name)
		return nil
	}

	out.Statusf(output.IconInfo, "pulling %s (%s)", model.Name, model.Tag)
	err = embed.Pull(ctx, cfg.Embedding.OllamaHost, model.Name, func(p embed.PullProgress) {
		out.Progress(p.Completed, p.Total, p.Status)
	})
	if err != nil {
		return err
	}

	out.Successf("model %s ready (%d dims)", model.Name, model.Dimensions)
	return nil
}
