package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrysearch/quarry/internal/logging"
	"github.com/quarrysearch/quarry/internal/ui"
)

func newLogsCmd() *cobra.Command {
	var (
		lines    int
		level    string
		file     string
		pathOnly bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log entries",
		Long: `Show the tail of the quarry log file. Runs with --debug and the MCP
server write JSON entries there; this renders them readably.

--path prints where logs are written without reading anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, file, lines, level, pathOnly)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of entries to show")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&file, "file", "", "Read this log file instead of the default")
	cmd.Flags().BoolVar(&pathOnly, "path", false, "Print the log file path and exit")

	return cmd
}

func runLogs(cmd *cobra.Command, file string, lines int, level string, pathOnly bool) error {
	w := cmd.OutOrStdout()

	if pathOnly {
		path := file
		if path == "" {
			path = logging.DefaultLogPath()
		}
		_, _ = fmt.Fprintln(w, path)
		return nil
	}

	path, err := logging.FindLogFile(file)
	if err != nil {
		return err
	}

	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   level,
		NoColor: ui.DetectNoColor() || !ui.IsTTY(w),
	}, w)

	entries, err := viewer.Tail(path, lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)
	return nil
}
