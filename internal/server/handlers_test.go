package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ironsheep/quantize-mcp/internal/config"
	"github.com/ironsheep/quantize-mcp/internal/imaging"
)

// createTestImageFile writes a PNG with four solid quadrants (red, green,
// blue, white) and a horizontal gray ramp in the bottom rows.
func createTestImageFile(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.NRGBA
			switch {
			case y >= height-4:
				v := uint8(x * 255 / max(1, width-1))
				c = color.NRGBA{v, v, v, 255}
			case x < width/2 && y < height/2:
				c = color.NRGBA{255, 0, 0, 255}
			case y < height/2:
				c = color.NRGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.NRGBA{0, 0, 255, 255}
			default:
				c = color.NRGBA{255, 255, 255, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "handler-test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeToolResult unmarshals the text content of a successful response
// into v.
func decodeToolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content: got %#v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode tool result %q: %v", text, err)
	}
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, 100, 80)

	var info imaging.ImageInfo
	decodeToolResult(t, callTool(t, s, "image_load", map[string]interface{}{"path": path}), &info)

	if info.Width != 100 || info.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("FileSizeBytes: got %d", info.FileSizeBytes)
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, 200, 150)

	var dims imaging.DimensionsResult
	decodeToolResult(t, callTool(t, s, "image_dimensions", map[string]interface{}{"path": path}), &dims)

	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("dimensions: got %dx%d, want 200x150", dims.Width, dims.Height)
	}
}

func TestHandleToolsCall_ImageHistogram(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, 64, 40)

	var summary imaging.HistogramSummary
	decodeToolResult(t, callTool(t, s, "image_histogram", map[string]interface{}{"path": path, "top": 3}), &summary)

	if summary.TotalPixels != 64*40 || summary.OpaquePixels != 64*40 {
		t.Errorf("pixel counts: got %d total, %d opaque", summary.TotalPixels, summary.OpaquePixels)
	}
	if summary.DistinctColors <= 4 {
		t.Errorf("DistinctColors: got %d, want more than the four quadrant colors", summary.DistinctColors)
	}
	if len(summary.TopColors) != 3 {
		t.Errorf("TopColors: got %d, want 3", len(summary.TopColors))
	}
}

func TestHandleToolsCall_ImageDominantColors(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, 100, 100)

	var result imaging.DominantColorsResult
	args := map[string]interface{}{
		"path":   path,
		"count":  3,
		"region": map[string]interface{}{"x1": 0, "y1": 0, "x2": 50, "y2": 50},
	}
	decodeToolResult(t, callTool(t, s, "image_dominant_colors", args), &result)

	if len(result.Colors) != 1 || result.Colors[0].Hex != "#FF0000" {
		t.Errorf("expected only red in the top-left region, got %+v", result.Colors)
	}
}

func TestHandleToolsCall_ImageGeneratePalette(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, 64, 64)

	tests := []struct {
		name            string
		args            map[string]interface{}
		wantMax         int
		wantTransparent int
	}{
		{"server default", map[string]interface{}{"path": path}, 16, -1},
		{"explicit", map[string]interface{}{"path": path, "max_colors": 6, "add_transparent": true}, 6, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result imaging.PaletteResult
			decodeToolResult(t, callTool(t, s, "image_generate_palette", tt.args), &result)

			if len(result.Colors) == 0 || len(result.Colors) > tt.wantMax {
				t.Errorf("palette size: got %d, want 1-%d", len(result.Colors), tt.wantMax)
			}
			if tt.wantTransparent >= 0 {
				if result.TransparentIndex != len(result.Colors)-1 {
					t.Errorf("TransparentIndex: got %d, want last entry %d", result.TransparentIndex, len(result.Colors)-1)
				}
				if !result.Colors[result.TransparentIndex].Transparent {
					t.Error("last entry should be transparent")
				}
			} else if result.TransparentIndex != -1 {
				t.Errorf("TransparentIndex: got %d, want -1", result.TransparentIndex)
			}
		})
	}
}

func TestHandleToolsCall_ImageQuantize_Inline(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, 60, 40)

	args := map[string]interface{}{
		"path":         path,
		"max_colors":   8,
		"dither_level": 0,
		"region":       map[string]interface{}{"x1": 0, "y1": 0, "x2": 30, "y2": 40},
		"scale":        2.0,
	}
	var result QuantizeToolResult
	decodeToolResult(t, callTool(t, s, "image_quantize", args), &result)

	if result.Width != 60 || result.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 60x80", result.Width, result.Height)
	}
	if len(result.Palette) == 0 || len(result.Palette) > 8 {
		t.Errorf("palette size: got %d, want 1-8", len(result.Palette))
	}
	if result.Image == nil || result.OutputPath != "" {
		t.Fatalf("expected an inline image only, got %+v", result)
	}

	data, err := base64.StdEncoding.DecodeString(result.Image.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("inline image is not a PNG: %v", err)
	}
}

func TestHandleToolsCall_ImageQuantize_OutputPath(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, 32, 32)
	out := filepath.Join(t.TempDir(), "quantized.png")

	for _, matrix := range []string{"", "sierra"} {
		t.Run("matrix="+matrix, func(t *testing.T) {
			args := map[string]interface{}{
				"path":            path,
				"max_colors":      4,
				"add_transparent": true,
				"matrix":          matrix,
				"output_path":     out,
			}
			var result QuantizeToolResult
			decodeToolResult(t, callTool(t, s, "image_quantize", args), &result)

			if result.OutputPath != out || result.Image != nil {
				t.Fatalf("expected output path only, got %+v", result)
			}
			f, err := os.Open(out)
			if err != nil {
				t.Fatalf("output not written: %v", err)
			}
			defer f.Close()
			img, err := png.Decode(f)
			if err != nil {
				t.Fatalf("output is not a PNG: %v", err)
			}
			if _, ok := img.(*image.Paletted); !ok {
				t.Errorf("output: got %T, want *image.Paletted", img)
			}
		})
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, 16, 16)

	tests := []struct {
		name string
		tool string
		args map[string]interface{}
	}{
		{"unknown tool", "image_crop", map[string]interface{}{"path": path}},
		{"missing file", "image_load", map[string]interface{}{"path": filepath.Join(t.TempDir(), "missing.png")}},
		{"too few colors", "image_quantize", map[string]interface{}{"path": path, "max_colors": 1}},
		{"dither too high", "image_quantize", map[string]interface{}{"path": path, "dither_level": 9}},
		{"unknown matrix", "image_quantize", map[string]interface{}{"path": path, "matrix": "bogus"}},
		{"region out of bounds", "image_quantize", map[string]interface{}{"path": path, "region": map[string]interface{}{"x1": 0, "y1": 0, "x2": 17, "y2": 4}}},
		{"bad dominant count", "image_dominant_colors", map[string]interface{}{"path": path, "count": 300}},
		{"palette too large", "image_generate_palette", map[string]interface{}{"path": path, "max_colors": 257}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, tt.tool, tt.args)
			if resp.Error == nil {
				t.Fatal("expected an error response")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("Error.Code: got %d, want -32000", resp.Error.Code)
			}
		})
	}
}

func TestHandleToolsCall_InvalidArguments(t *testing.T) {
	s := newTestServer()
	params := json.RawMessage(`{"name":"image_load","arguments":{"path":42}}`)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 7, Method: "tools/call", Params: params})
	if resp == nil || resp.Error == nil {
		t.Fatal("expected an error response")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error.Code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_Timeout(t *testing.T) {
	s := New(config.Config{MaxColors: 16, DitherLevel: 8, ToolTimeout: time.Nanosecond}, "test")
	path := createTestImageFile(t, 256, 256)

	resp := callTool(t, s, "image_quantize", map[string]interface{}{"path": path})
	if resp.Error == nil {
		t.Fatal("expected a timeout error")
	}
}
