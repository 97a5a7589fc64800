package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quarrysearch/quarry/configs"
	"github.com/quarrysearch/quarry/internal/config"
	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/output"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .quarry.yaml",
		Long: `Write a commented .quarry.yaml into the current directory. The file
documents every setting with its default; quarry works without it,
so edit only what should differ.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing .quarry.yaml")

	return cmd
}

func runInit(cmd *cobra.Command, force bool) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	path := filepath.Join(dir, ".quarry.yaml")
	exists := fileExists(path)
	if exists && !force {
		return qerrors.New(qerrors.ErrCodeInvalidOptions,
			fmt.Sprintf("%s already exists", path), nil).
			WithSuggestion("pass --force to overwrite it")
	}

	var backupPath string
	if exists {
		backupPath, err = config.BackupProjectConfig(dir)
		if err != nil {
			return qerrors.FileAccessError(path, "backup", err)
		}
	}

	if err := os.WriteFile(path, configs.DefaultConfig, 0o644); err != nil {
		return qerrors.FileAccessError(path, "write", err)
	}

	out := output.New(cmd.OutOrStdout())
	out.Successf("wrote %s", path)
	if backupPath != "" {
		out.Detail(fmt.Sprintf("previous config saved to %s", backupPath))
	}
	if pt := config.DetectProjectType(dir); pt.IsKnown() {
		out.Detail(fmt.Sprintf("%s project detected", pt))
	}
	out.Detail("run 'quarry index' to build the index")
	return nil
}
