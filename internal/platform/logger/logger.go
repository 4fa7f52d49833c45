package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the service logger. Level is one of debug, info, warn,
// error; anything else falls back to info. Output is JSON on stdout so
// log shippers can ingest it without extra parsing.
func New(level string) *slog.Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter is New with an explicit destination, used by tests to
// capture or discard output.
func NewWithWriter(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
