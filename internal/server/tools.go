package server

import "github.com/ironsheep/quantize-mcp/internal/imaging"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func regionProperty() map[string]interface{} {
	coord := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "integer", "description": desc}
	}
	return map[string]interface{}{
		"type":        "object",
		"description": "Optional rectangle to restrict the operation to. Defaults to the whole image.",
		"properties": map[string]interface{}{
			"x1": coord("Left edge X coordinate (0-based)"),
			"y1": coord("Top edge Y coordinate (0-based)"),
			"x2": coord("Right edge X coordinate (exclusive)"),
			"y2": coord("Bottom edge Y coordinate (exclusive)"),
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, alpha usage, and palette size. The image is cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Color Analysis
		{
			Name:        "image_histogram",
			Description: "Count the distinct opaque colors of an image and list the most frequent ones. Pixels with alpha below 128 are not counted.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"top": map[string]interface{}{
						"type":        "integer",
						"description": "Number of most frequent colors to list. Default 16",
						"default":     16,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dominant_colors",
			Description: "Reduce the image to N representative colors with an octree quantizer and report each color's coverage.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to return (1-256). Default 5",
						"default":     5,
					},
					"region": regionProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Quantization
		{
			Name:        "image_generate_palette",
			Description: "Generate an optimized palette of at most max_colors colors for an image using octree quantization.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"max_colors": map[string]interface{}{
						"type":        "integer",
						"description": "Palette size including the transparent entry (2-256). Defaults to the server setting",
					},
					"add_transparent": map[string]interface{}{
						"type":        "boolean",
						"description": "Reserve the last palette entry for transparent pixels. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_quantize",
			Description: "Reduce an image to an indexed palette with optional Floyd-Steinberg dithering and write it as PNG, or return it base64-encoded when no output path is given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"max_colors": map[string]interface{}{
						"type":        "integer",
						"description": "Palette size including the transparent entry (2-256). Defaults to the server setting",
					},
					"add_transparent": map[string]interface{}{
						"type":        "boolean",
						"description": "Reserve the last palette entry for transparent pixels. Default false",
						"default":     false,
					},
					"dither_level": map[string]interface{}{
						"type":        "integer",
						"description": "Error diffusion strength from 0 (none) to 8 (full). Defaults to the server setting",
					},
					"matrix": map[string]interface{}{
						"type":        "string",
						"enum":        imaging.MatrixNames(),
						"description": "Use this diffusion matrix instead of the built-in Floyd-Steinberg. dither_level is ignored",
					},
					"region": regionProperty(),
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor applied after cropping. Default 1.0",
						"default":     1.0,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Write the PNG here instead of returning it inline",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
