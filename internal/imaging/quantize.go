package imaging

import (
	"context"
	"fmt"
	"image"

	"github.com/ironsheep/quantize-mcp/internal/fault"
	"github.com/ironsheep/quantize-mcp/internal/histogram"
	"github.com/ironsheep/quantize-mcp/internal/pixel"
	"github.com/ironsheep/quantize-mcp/internal/quantize"
)

// QuantizeOptions selects how QuantizeImage reduces an image.
type QuantizeOptions struct {
	// MaxColors is the palette budget, including the transparent entry.
	MaxColors int

	// AddTransparent reserves the last palette entry for transparent pixels.
	AddTransparent bool

	// DitherLevel scales Floyd-Steinberg diffusion from 0 (off) to 8 (full).
	DitherLevel int

	// Matrix, when set, renders with that dither matrix instead of the
	// built-in diffusion. DitherLevel is then ignored.
	Matrix string

	// Workers bounds histogram concurrency; 0 selects GOMAXPROCS.
	Workers int
}

// QuantizeResult is a quantized image and the palette it was built with.
type QuantizeResult struct {
	Image   *image.Paletted
	Palette []pixel.Bgra32
}

// QuantizeImage generates an octree palette for img and renders img with
// it. Without dithering the pixels are mapped in parallel bands; with
// dithering rows are processed in order.
func QuantizeImage(ctx context.Context, img image.Image, opts QuantizeOptions) (*QuantizeResult, error) {
	if opts.DitherLevel < 0 || opts.DitherLevel > quantize.MaxDitherLevel {
		return nil, fault.InvalidArgument("dither level %d must be between 0 and %d", opts.DitherLevel, quantize.MaxDitherLevel)
	}

	src := ToBitmap(img)
	q := quantize.NewOctreeQuantizer(histogram.WithWorkers(opts.Workers))
	palette, err := q.GeneratePaletteFromSource(ctx, src, opts.MaxColors, opts.AddTransparent)
	if err != nil {
		return nil, fmt.Errorf("failed to generate palette: %w", err)
	}

	var out *image.Paletted
	switch {
	case opts.Matrix != "":
		out, err = DitherWithMatrix(img, palette, opts.Matrix)
	case opts.DitherLevel == 0:
		out, err = QuantizeParallel(ctx, src, palette)
	default:
		out, err = renderDithered(ctx, src, palette, opts.DitherLevel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render quantized image: %w", err)
	}
	return &QuantizeResult{Image: out, Palette: palette}, nil
}

func renderDithered(ctx context.Context, src pixel.Source[pixel.Bgra32], palette []pixel.Bgra32, level int) (*image.Paletted, error) {
	pm, err := quantize.NewPaletteMap(palette)
	if err != nil {
		return nil, err
	}
	cached, err := quantize.NewCachingPaletteMap(pm)
	if err != nil {
		return nil, err
	}
	qs, err := quantize.NewQuantizedSource(src, cached, level)
	if err != nil {
		return nil, err
	}
	return ToPaletted(ctx, qs)
}

// PaletteResult describes a generated palette.
type PaletteResult struct {
	Colors []ColorResult `json:"colors"`

	// TransparentIndex is the index of the transparent entry, or -1.
	TransparentIndex int `json:"transparent_index"`
}

// GeneratePalette builds an octree palette of at most maxColors entries
// for img.
func GeneratePalette(ctx context.Context, img image.Image, maxColors int, addTransparent bool, workers int) (*PaletteResult, error) {
	q := quantize.NewOctreeQuantizer(histogram.WithWorkers(workers))
	palette, err := q.GeneratePaletteFromSource(ctx, ToBitmap(img), maxColors, addTransparent)
	if err != nil {
		return nil, fmt.Errorf("failed to generate palette: %w", err)
	}
	result := &PaletteResult{Colors: DescribePalette(palette), TransparentIndex: -1}
	if addTransparent {
		result.TransparentIndex = len(palette) - 1
	}
	return result, nil
}
