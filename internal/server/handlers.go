package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ironsheep/quantize-mcp/internal/fault"
	"github.com/ironsheep/quantize-mcp/internal/histogram"
	"github.com/ironsheep/quantize-mcp/internal/imaging"
	"github.com/ironsheep/quantize-mcp/internal/logging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_quantize").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// The call runs under the configured tool timeout.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ToolTimeout)
	defer cancel()

	log := logging.With(logging.ComponentTools).With("tool", params.Name)
	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		log.Warn("tool failed", "error", err, "elapsed", time.Since(start))
		return s.errorResponse(req.ID, codeToolFailure, "Tool execution failed", err.Error())
	}
	log.Debug("tool finished", "elapsed", time.Since(start))

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies configured defaults for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the appropriate imaging function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Color Analysis
	case "image_histogram":
		return s.handleImageHistogram(ctx, args)
	case "image_dominant_colors":
		return s.handleImageDominantColors(ctx, args)

	// Quantization
	case "image_generate_palette":
		return s.handleImageGeneratePalette(ctx, args)
	case "image_quantize":
		return s.handleImageQuantize(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(args, v); err != nil {
		return fault.InvalidArgument("invalid arguments: %v", err)
	}
	return nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Color Analysis Handlers ===

type imageHistogramArgs struct {
	Path string `json:"path"`
	Top  *int   `json:"top"`
}

func (s *Server) handleImageHistogram(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageHistogramArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	top := 16
	if a.Top != nil {
		top = *a.Top
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Summarize(ctx, img, top, histogram.WithWorkers(s.cfg.Workers))
}

type imageDominantColorsArgs struct {
	Path   string          `json:"path"`
	Count  int             `json:"count"`
	Region *imaging.Region `json:"region"`
}

func (s *Server) handleImageDominantColors(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageDominantColorsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 5
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.DominantColors(ctx, img, a.Count, a.Region)
}

// === Quantization Handlers ===

type imageGeneratePaletteArgs struct {
	Path           string `json:"path"`
	MaxColors      int    `json:"max_colors"`
	AddTransparent bool   `json:"add_transparent"`
}

func (s *Server) handleImageGeneratePalette(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageGeneratePaletteArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.MaxColors == 0 {
		a.MaxColors = s.cfg.MaxColors
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.GeneratePalette(ctx, img, a.MaxColors, a.AddTransparent, s.cfg.Workers)
}

type imageQuantizeArgs struct {
	Path           string          `json:"path"`
	MaxColors      int             `json:"max_colors"`
	AddTransparent bool            `json:"add_transparent"`
	DitherLevel    *int            `json:"dither_level"`
	Matrix         string          `json:"matrix"`
	Region         *imaging.Region `json:"region"`
	Scale          float64         `json:"scale"`
	OutputPath     string          `json:"output_path"`
}

// QuantizeToolResult is returned by image_quantize. Exactly one of
// OutputPath and Image is set.
type QuantizeToolResult struct {
	Width      int                   `json:"width"`
	Height     int                   `json:"height"`
	Palette    []imaging.ColorResult `json:"palette"`
	OutputPath string                `json:"output_path,omitempty"`
	Image      *imaging.EncodedImage `json:"image,omitempty"`
}

func (s *Server) handleImageQuantize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageQuantizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.MaxColors == 0 {
		a.MaxColors = s.cfg.MaxColors
	}
	level := s.cfg.DitherLevel
	if a.DitherLevel != nil {
		level = *a.DitherLevel
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	area, err := imaging.PrepareRegion(img, a.Region, a.Scale)
	if err != nil {
		return nil, err
	}

	q, err := imaging.QuantizeImage(ctx, area, imaging.QuantizeOptions{
		MaxColors:      a.MaxColors,
		AddTransparent: a.AddTransparent,
		DitherLevel:    level,
		Matrix:         a.Matrix,
		Workers:        s.cfg.Workers,
	})
	if err != nil {
		return nil, err
	}

	result := &QuantizeToolResult{
		Width:   q.Image.Bounds().Dx(),
		Height:  q.Image.Bounds().Dy(),
		Palette: imaging.DescribePalette(q.Palette),
	}
	if a.OutputPath != "" {
		if err := imaging.Save(q.Image, a.OutputPath); err != nil {
			return nil, err
		}
		result.OutputPath = a.OutputPath
		return result, nil
	}
	result.Image, err = imaging.EncodePNG(q.Image)
	if err != nil {
		return nil, err
	}
	return result, nil
}
