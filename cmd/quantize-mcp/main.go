package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/quantize-mcp/internal/config"
	"github.com/ironsheep/quantize-mcp/internal/logging"
	"github.com/ironsheep/quantize-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version, --help, and subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("quantize-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	if err := config.LoadDotEnv(""); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "quantize" {
		if err := runQuantize(ctx, cfg, os.Args[2:]); err != nil {
			logging.ErrorWithComponent(logging.ComponentQuantize, "quantize failed", "error", err)
			os.Exit(1)
		}
		return
	}

	logging.InfoWithComponent(logging.ComponentStartup, "starting server",
		"version", Version, "build_time", BuildTime, "commit", GitCommit,
		"max_colors", cfg.MaxColors, "dither_level", cfg.DitherLevel, "tool_timeout", cfg.ToolTimeout)

	srv := server.New(cfg, Version)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logging.ErrorWithComponent(logging.ComponentServer, "server error", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("quantize-mcp - MCP server for octree color quantization")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  quantize-mcp [options]            Serve MCP over stdin/stdout")
	fmt.Println("  quantize-mcp quantize [flags]     Quantize one image file")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from .env, or from a file named by <VAR>_FILE):")
	fmt.Printf("  %-28s Default palette size (default %d)\n", config.EnvMaxColors, config.DefaultMaxColors)
	fmt.Printf("  %-28s Default dither level 0-8 (default %d)\n", config.EnvDitherLevel, config.DefaultDitherLevel)
	fmt.Printf("  %-28s Histogram workers (default GOMAXPROCS)\n", config.EnvWorkers)
	fmt.Printf("  %-28s Per-tool timeout (default %s)\n", config.EnvToolTimeout, config.DefaultToolTimeout)
	fmt.Printf("  %-28s debug, info, warn, error (default %s)\n", config.EnvLogLevel, config.DefaultLogLevel)
	fmt.Println()
	fmt.Println("Run 'quantize-mcp quantize -h' for the quantize flags.")
}
