package logger

import (
	"io"
	"log/slog"
	"os"
)

var Logger *slog.Logger

// Init builds the process logger on stderr and makes it the slog default.
func Init(debug bool, format string) *slog.Logger {
	Logger = New(os.Stderr, debug, format)
	slog.SetDefault(Logger)
	return Logger
}

// New builds a logger writing to w, as text unless format is "json".
func New(w io.Writer, debug bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard is a logger for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
