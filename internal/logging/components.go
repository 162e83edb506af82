package logging

import (
	"context"
	"log/slog"
)

// Component identifies the part of the program emitting a record.
type Component string

const (
	ComponentStartup  Component = "startup"
	ComponentServer   Component = "server"
	ComponentTools    Component = "tools"
	ComponentQuantize Component = "quantize"
	ComponentCache    Component = "cache"
	ComponentConfig   Component = "config"
)

// ComponentKey is the attribute key carrying the component.
const ComponentKey = "component"

// With returns the default logger tagged with c.
func With(c Component) *slog.Logger {
	return slog.Default().With(ComponentKey, string(c))
}

func DebugWithComponent(c Component, msg string, args ...any) {
	logWithComponent(context.Background(), slog.LevelDebug, c, msg, args)
}

func InfoWithComponent(c Component, msg string, args ...any) {
	logWithComponent(context.Background(), slog.LevelInfo, c, msg, args)
}

func WarnWithComponent(c Component, msg string, args ...any) {
	logWithComponent(context.Background(), slog.LevelWarn, c, msg, args)
}

func ErrorWithComponent(c Component, msg string, args ...any) {
	logWithComponent(context.Background(), slog.LevelError, c, msg, args)
}

func logWithComponent(ctx context.Context, level slog.Level, c Component, msg string, args []any) {
	logger := slog.Default()
	if !logger.Enabled(ctx, level) {
		return
	}
	logger.Log(ctx, level, msg, append([]any{ComponentKey, string(c)}, args...)...)
}
