// Package server implements the MCP (Model Context Protocol) server for the
// color quantization tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Color Analysis:
//   - image_histogram: Distinct color count and most frequent colors
//   - image_dominant_colors: Representative colors with coverage
//
// Quantization:
//   - image_generate_palette: Octree palette for an image
//   - image_quantize: Palette reduction with optional dithering, written to
//     a file or returned as base64 PNG
//
// Optional arguments such as max_colors and dither_level fall back to the
// values in config.Config. Each tool call runs under config.Config.ToolTimeout.
//
// # Image Caching
//
// Images are cached by path and reused across tool calls for the lifetime of
// the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(config.Load(), version)
//	if err := srv.Run(ctx); err != nil {
//	    slog.Error("server stopped", "error", err)
//	    os.Exit(1)
//	}
package server
