// Package logging configures the process-wide slog logger.
//
// Output goes to stderr through a tint handler since stdout carries the
// JSON-RPC stream. Records are tagged with a component attribute so the
// server, the tool handlers, and the quantize command can be told apart.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// ParseLevel maps debug, info, warn/warning, and error to a slog level.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// NewHandler returns a tint handler writing to w. Colour is disabled unless
// w is a terminal.
func NewHandler(w io.Writer, level slog.Level) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !isTerminal(w),
	})
}

// Setup installs a stderr logger at the named level as the slog default and
// returns it.
func Setup(level string) *slog.Logger {
	logger := slog.New(NewHandler(os.Stderr, ParseLevel(level)))
	slog.SetDefault(logger)
	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
