package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarrysearch/quarry/internal/config"
	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/output"
	"github.com/quarrysearch/quarry/internal/store"
	"github.com/quarrysearch/quarry/internal/ui"
)

func newCleanCmd() *cobra.Command {
	var (
		yes     bool
		orphans bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the index",
		Long: `Remove the project's index data under .quarry/.

With --orphans only sidecar entries whose source file no longer
exists are removed; the rest of the index stays. Without it the whole
index is deleted after confirmation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClean(cmd, yes, orphans)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&orphans, "orphans", false, "Remove only entries for deleted files")

	return cmd
}

func runClean(cmd *cobra.Command, yes, orphans bool) error {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}

	out := output.New(cmd.OutOrStdout())

	if orphans {
		removed, err := store.CleanOrphans(root)
		if err != nil {
			return err
		}
		if removed == 0 {
			out.Status(output.IconInfo, "no orphaned entries")
			return nil
		}
		out.Successf("%d orphaned entries removed", removed)
		return nil
	}

	dataDir := store.DataDir(root)
	if !fileExists(dataDir) {
		out.Statusf(output.IconInfo, "no index under %s", root)
		return nil
	}

	if !yes {
		ok, err := confirmClean(cmd, dataDir)
		if err != nil {
			return err
		}
		if !ok {
			out.Status(output.IconInfo, "aborted")
			return nil
		}
	}

	if err := store.Clean(root); err != nil {
		return err
	}
	out.Successf("index removed from %s", dataDir)
	return nil
}

// confirmClean asks before deleting the whole index. Without a terminal
// there is nobody to ask, so the command refuses unless --yes was
// given.
func confirmClean(cmd *cobra.Command, dataDir string) (bool, error) {
	if !ui.IsTTY(os.Stdin) {
		return false, qerrors.New(qerrors.ErrCodeInvalidOptions,
			fmt.Sprintf("refusing to remove %s without confirmation", dataDir), nil).
			WithSuggestion("pass --yes to skip the prompt")
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "This removes the entire index under %s.\nContinue? [y/N] ", dataDir)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
