// Package log configures the process-wide slog logger for flowbot binaries.
package log

import (
	"log/slog"
	"os"
)

// Setup installs the default slog logger. Generated bot programs call this
// with the level taken from their environment config; the CLI passes the
// --log-level flag through.
func Setup(logLevel string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(logLevel),
	})))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(logLevel string) slog.Level {
	switch logLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithModule returns a logger tagged with the owning component name.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
