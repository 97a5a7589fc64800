// Package cmd provides the CLI commands for quarry. The root command is
// the search surface itself; maintenance lives in subcommands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/logging"
	"github.com/quarrysearch/quarry/internal/profiling"
	"github.com/quarrysearch/quarry/pkg/version"
)

// Profiling flags, available on every command.
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     = profiling.NewProfiler()
	cpuCleanup   func()
	traceCleanup func()
)

// Debug logging flag.
var (
	debugMode      bool
	loggingCleanup func()
)

// errNoMatches distinguishes an empty search result from a real failure
// so Execute can exit 1 the way grep does.
var errNoMatches = errors.New("no matches found")

// NewRootCmd creates the root command. Running quarry without a
// subcommand searches: `quarry [flags] PATTERN [PATH...]`.
func NewRootCmd() *cobra.Command {
	flags := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "quarry [flags] PATTERN [PATH...]",
		Short: "Code-aware search: regex, lexical, semantic, or hybrid",
		Long: `Quarry searches a project tree in four modes: exact/regex line
matching like grep, BM25 lexical ranking, embedding-based semantic
ranking, and a hybrid fusing the last two.

The scored modes read a sidecar index under .quarry/; build it with
'quarry index'. Regex and lexical search work without an index.

Exit status is 0 when at least one match was found, 1 when none was,
and 2 on errors, so quarry composes in scripts the way grep does.`,
		Example: `  # Exact text, grep-style
  quarry -n 'NewServer' internal/

  # Ranked BM25 over code tokens
  quarry --lex 'retry backoff jitter'

  # Meaning, not spelling (needs an index)
  quarry --sem 'where do we invalidate the cache'

  # Best of both
  quarry --hybrid 'parse the config file' --topk 5 --scores`,
		Version:       version.Version,
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, args[0], args[1:], flags)
		},
	}

	cmd.SetVersionTemplate("quarry version {{.Version}}\n")
	addSearchFlags(cmd, flags)

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to the quarry log file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newCleanCmd())
	cmd.AddCommand(newModelsCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging starts CPU/trace profiling and debug logging
// if the flags are set.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if debugMode {
		cleanup, err := logging.SetupDefault()
		if err != nil {
			return fmt.Errorf("setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	}

	var err error
	if profileCPU != "" {
		cpuCleanup, err = profiler.StartCPU(profileCPU)
		if err != nil {
			return fmt.Errorf("start CPU profile: %w", err)
		}
	}

	if profileTrace != "" {
		traceCleanup, err = profiler.StartTrace(profileTrace)
		if err != nil {
			if cpuCleanup != nil {
				cpuCleanup()
			}
			return fmt.Errorf("start trace: %w", err)
		}
	}

	return nil
}

// stopProfilingAndLogging flushes profiles and closes the debug log.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}

	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}

	if profileMem != "" {
		if err := profiler.WriteHeap(profileMem); err != nil {
			return fmt.Errorf("write memory profile: %w", err)
		}
	}

	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}

	return nil
}

// Execute runs the root command and returns the process exit code:
// 0 with at least one match, 1 with none, 2 on any error.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errNoMatches):
		return 1
	default:
		printError(os.Stderr, err)
		return 2
	}
}

// printError renders an error for the terminal.
func printError(w io.Writer, err error) {
	_, _ = io.WriteString(w, qerrors.FormatForCLI(err))
}

// fileExists reports whether path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
