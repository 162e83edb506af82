// Package config reads process settings from the environment.
//
// Every setting can also be supplied through a file named by the same
// variable with a _FILE suffix, and a .env file in the working directory is
// loaded first when present. Values already set in the environment win over
// the .env file.
package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvMaxColors   = "QUANTIZE_MCP_MAX_COLORS"
	EnvDitherLevel = "QUANTIZE_MCP_DITHER_LEVEL"
	EnvWorkers     = "QUANTIZE_MCP_WORKERS"
	EnvToolTimeout = "QUANTIZE_MCP_TOOL_TIMEOUT"
	EnvLogLevel    = "QUANTIZE_MCP_LOG_LEVEL"
)

// Defaults applied when a variable is unset or invalid.
const (
	DefaultMaxColors   = 256
	DefaultDitherLevel = 8
	DefaultToolTimeout = 2 * time.Minute
	DefaultLogLevel    = "info"
)

// Config holds the settings shared by the server and the quantize command.
type Config struct {
	// MaxColors is the default palette size, 2-256.
	MaxColors int

	// DitherLevel is the default Floyd-Steinberg strength, 0-8.
	DitherLevel int

	// Workers bounds histogram concurrency; 0 means GOMAXPROCS.
	Workers int

	// ToolTimeout limits a single tool call.
	ToolTimeout time.Duration

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// LoadDotEnv loads path (".env" when empty) into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Load reads Config from the environment. Out-of-range values fall back to
// the defaults.
func Load() Config {
	c := Config{
		MaxColors:   GetInt(EnvMaxColors, DefaultMaxColors),
		DitherLevel: GetInt(EnvDitherLevel, DefaultDitherLevel),
		Workers:     GetInt(EnvWorkers, 0),
		ToolTimeout: GetDuration(EnvToolTimeout, DefaultToolTimeout),
		LogLevel:    Get(EnvLogLevel, DefaultLogLevel),
	}
	if c.MaxColors < 2 || c.MaxColors > 256 {
		c.MaxColors = DefaultMaxColors
	}
	if c.DitherLevel < 0 || c.DitherLevel > 8 {
		c.DitherLevel = DefaultDitherLevel
	}
	if c.Workers < 0 {
		c.Workers = 0
	}
	if c.ToolTimeout <= 0 {
		c.ToolTimeout = DefaultToolTimeout
	}
	return c
}
