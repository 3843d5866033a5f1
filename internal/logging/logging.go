package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
)

// LevelTrace is below debug and logs every texture record touched.
const LevelTrace = slog.LevelDebug - 4

// Setup configures the global slog logger writing to stdout.
// If logOutputDir is non-empty, logs are also written as JSON to a timestamped file in that directory.
// The returned function closes the log file and switches the default logger back to
// console only. It is safe to call when no file was opened.
func Setup(levelStr string, logOutputDir string) (func() error, error) {
	return setup(os.Stdout, levelStr, logOutputDir)
}

func setup(console io.Writer, levelStr string, logOutputDir string) (func() error, error) {
	level := parseLogLevel(levelStr)

	consoleHandler := tint.NewHandler(console, &tint.Options{
		Level:       level,
		TimeFormat:  time.TimeOnly,
		ReplaceAttr: replaceLevelName,
	})

	if logOutputDir == "" {
		slog.SetDefault(slog.New(consoleHandler))
		return func() error { return nil }, nil
	}

	logDir := os.ExpandEnv(logOutputDir)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	logFilePath := filepath.Join(logDir, fmt.Sprintf("waddle_%s.log", timestamp))

	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	fileHandler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelName,
	})

	slog.SetDefault(slog.New(
		slogmulti.Fanout(consoleHandler, fileHandler),
	))

	fmt.Fprintf(os.Stderr, "Logging to file: %s\n", logFilePath)

	// drop the file handler before the file goes away
	return func() error {
		slog.SetDefault(slog.New(consoleHandler))
		return logFile.Close()
	}, nil
}

// parseLogLevel converts a string log level to slog.Level
func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// replaceLevelName prints LevelTrace as TRACE instead of DEBUG-4.
func replaceLevelName(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) != 0 {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}
