package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/clog"
)

// ConsoleTarget selects the colored console handler instead of a log file.
const ConsoleTarget = "stderr"

// ParseLevel maps a config level string to a slog level. Unknown values
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewConsoleLogger creates a colored, human-oriented logger writing to w.
func NewConsoleLogger(level string, w io.Writer) *slog.Logger {
	handler := clog.New(
		clog.WithWriter(w),
		clog.WithLevel(ParseLevel(level)),
		clog.WithTimeFmt("15:04:05"),
		clog.WithSource(false),
	)
	return slog.New(handler)
}

// SetupLoggerWithFile creates a structured logger that writes to a file or discards output.
// If logFile is empty, output is discarded (useful for keeping REPL clean).
// If logFile is "stderr", logs go to the console through clog.
// Otherwise logs are appended as JSON to that file.
// Returns the logger and a cleanup function that must be called to close the file.
func SetupLoggerWithFile(level, logFile string) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	switch logFile {
	case "":
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	case ConsoleTarget:
		return NewConsoleLogger(level, os.Stderr), func() {}
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// Fall back to discarding if file open fails
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	}
	return slog.New(slog.NewJSONHandler(file, opts)), func() { file.Close() }
}
