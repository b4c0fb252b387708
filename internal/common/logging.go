package common

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the default JSON logger. The level comes from LOG_LEVEL
// (debug, info, warn, error); logs go to stderr so result output on stdout
// stays machine-readable.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
