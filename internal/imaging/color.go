package imaging

import (
	"cmp"
	"context"
	"fmt"
	"image"
	"math"
	"slices"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/quantize-mcp/internal/histogram"
	"github.com/ironsheep/quantize-mcp/internal/pixel"
	"github.com/ironsheep/quantize-mcp/internal/quantize"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// RGBAColor represents an RGBA color with 8-bit components including alpha.
//
// The alpha component represents opacity:
//   - 0 = fully transparent
//   - 255 = fully opaque
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a palette color in multiple representations.
//
// Hex excludes alpha; use RGBA.A for transparency. The transparent palette
// entry is reported with Transparent set.
type ColorResult struct {
	Hex         string    `json:"hex"`
	RGB         RGBColor  `json:"rgb"`
	RGBA        RGBAColor `json:"rgba"`
	HSL         HSLColor  `json:"hsl"`
	Transparent bool      `json:"transparent,omitempty"`
}

// NewColorResult describes c. Hex and HSL are computed by go-colorful from
// the color channels alone.
func NewColorResult(c pixel.Bgra32) ColorResult {
	cf := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	h, s, l := cf.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return ColorResult{
		Hex:         strings.ToUpper(cf.Hex()),
		RGB:         RGBColor{R: c.R, G: c.G, B: c.B},
		RGBA:        RGBAColor{R: c.R, G: c.G, B: c.B, A: c.A},
		HSL:         HSLColor{H: int(math.Round(h)) % 360, S: int(math.Round(s * 100)), L: int(math.Round(l * 100))},
		Transparent: c.A == 0,
	}
}

// DescribePalette returns one ColorResult per palette entry, in order.
func DescribePalette(palette []pixel.Bgra32) []ColorResult {
	out := make([]ColorResult, len(palette))
	for i, c := range palette {
		out[i] = NewColorResult(c)
	}
	return out
}

// ColorFrequency is a color and its share of the counted pixels.
type ColorFrequency struct {
	ColorResult
	Count      uint64  `json:"count"`
	Percentage float64 `json:"percentage"` // 0-100
}

// HistogramSummary describes the color content of an image.
type HistogramSummary struct {
	Width          int              `json:"width"`
	Height         int              `json:"height"`
	TotalPixels    int              `json:"total_pixels"`
	OpaquePixels   uint64           `json:"opaque_pixels"`
	DistinctColors int              `json:"distinct_colors"`
	TopColors      []ColorFrequency `json:"top_colors"`
}

// Summarize counts the opaque colors of img and reports the top most
// frequent. Equal counts are ordered by packed color value so output is
// stable.
func Summarize(ctx context.Context, img image.Image, top int, opts ...histogram.Option) (*HistogramSummary, error) {
	src := ToBitmap(img)
	h, err := histogram.CreateOpaque(ctx, src, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to count colors: %w", err)
	}

	entries := h.Entries()
	slices.SortFunc(entries, func(a, b histogram.Entry[pixel.Bgr24]) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Color.Bgr(), b.Color.Bgr())
	})
	if top >= 0 && len(entries) > top {
		entries = entries[:top]
	}

	size := src.Size()
	summary := &HistogramSummary{
		Width:          size.Width,
		Height:         size.Height,
		TotalPixels:    size.Area(),
		OpaquePixels:   h.TotalCount(),
		DistinctColors: h.Len(),
		TopColors:      make([]ColorFrequency, 0, len(entries)),
	}
	for _, e := range entries {
		summary.TopColors = append(summary.TopColors, frequency(e.Color.ToBgra32(), e.Count, h.TotalCount()))
	}
	return summary, nil
}

func frequency(c pixel.Bgra32, count, total uint64) ColorFrequency {
	pct := 0.0
	if total > 0 {
		pct = float64(count) / float64(total) * 100
	}
	return ColorFrequency{ColorResult: NewColorResult(c), Count: count, Percentage: pct}
}

// DominantColorsResult contains representative colors sorted by coverage,
// most common first.
type DominantColorsResult struct {
	Colors []ColorFrequency `json:"colors"`
}

// DominantColors reduces the opaque pixels of img (or region of it) to at
// most count representative colors with the octree quantizer and reports how
// many pixels map to each one.
func DominantColors(ctx context.Context, img image.Image, count int, region *Region) (*DominantColorsResult, error) {
	if count < 1 || count > quantize.MaxPaletteSize {
		return nil, fmt.Errorf("count %d must be between 1 and %d", count, quantize.MaxPaletteSize)
	}
	area, err := PrepareRegion(img, region, 1)
	if err != nil {
		return nil, err
	}

	h, err := histogram.CreateOpaque(ctx, ToBitmap(area))
	if err != nil {
		return nil, fmt.Errorf("failed to count colors: %w", err)
	}
	if h.Len() == 0 {
		return &DominantColorsResult{Colors: []ColorFrequency{}}, nil
	}

	palette, err := quantize.NewOctreeQuantizer().GeneratePalette(ctx, h, count, false)
	if err != nil {
		return nil, fmt.Errorf("failed to generate palette: %w", err)
	}
	pm, err := quantize.NewLinearSearchPaletteMap(palette)
	if err != nil {
		return nil, err
	}

	coverage := make([]uint64, len(palette))
	for e := range h.All() {
		coverage[pm.FindClosestPaletteIndex(e.Color.ToBgra32())] += e.Count
	}

	colors := make([]ColorFrequency, 0, len(palette))
	for i, c := range palette {
		if coverage[i] > 0 {
			colors = append(colors, frequency(c, coverage[i], h.TotalCount()))
		}
	}
	slices.SortStableFunc(colors, func(a, b ColorFrequency) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return &DominantColorsResult{Colors: colors}, nil
}
