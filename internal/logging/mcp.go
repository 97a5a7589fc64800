package logging

import (
	"log/slog"
)

// SetupServeMode initializes logging for the MCP stdio server.
// The protocol owns stdout exclusively and treats stderr as noise, so logs
// go to the rotating file only. Debug level is forced for full diagnostics
// since the file is the only place to look when a session misbehaves.
func SetupServeMode() (func(), error) {
	cfg := Config{
		Level:         "debug",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)

	slog.Info("serve mode logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))

	return cleanup, nil
}
