package imaging

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/makeworld-the-better-one/dither/v2"

	"github.com/ironsheep/quantize-mcp/internal/fault"
	"github.com/ironsheep/quantize-mcp/internal/pixel"
	"github.com/ironsheep/quantize-mcp/internal/quantize"
)

// ColorPalette converts a quantizer palette to a color.Palette of
// color.NRGBA values in the same order.
func ColorPalette(colors []pixel.Bgra32) color.Palette {
	p := make(color.Palette, len(colors))
	for i, c := range colors {
		p[i] = c.ToNRGBA()
	}
	return p
}

// ToPaletted reads every row of src into a new *image.Paletted. Rows are
// requested top to bottom so a dithering source does each row once. ctx is
// checked between rows.
func ToPaletted(ctx context.Context, src pixel.IndexedSource) (*image.Paletted, error) {
	size := src.Size()
	out := image.NewPaletted(size.Bounds(), ColorPalette(src.Palette()))
	row := make([]pixel.Indexed8, size.Width)
	for y := 0; y < size.Height; y++ {
		if err := fault.Check(ctx); err != nil {
			return nil, err
		}
		if err := pixel.CopyRow[pixel.Indexed8](src, y, row); err != nil {
			return nil, fmt.Errorf("failed to render row %d: %w", y, err)
		}
		dst := out.Pix[y*out.Stride : y*out.Stride+size.Width]
		for x, idx := range row {
			dst[x] = uint8(idx)
		}
	}
	return out, nil
}

// QuantizeParallel maps every pixel of src to its nearest palette entry
// without dithering. Rows are split into bands that run concurrently, each
// with its own caching palette map, since the map implementations are not
// safe for concurrent use.
func QuantizeParallel(ctx context.Context, src *pixel.Bitmap[pixel.Bgra32], palette []pixel.Bgra32) (*image.Paletted, error) {
	// Validate once up front so the bands cannot fail on construction.
	if _, err := quantize.NewPaletteMap(palette); err != nil {
		return nil, err
	}

	size := src.Size()
	out := image.NewPaletted(size.Bounds(), ColorPalette(palette))

	var (
		mu   sync.Mutex
		errs []error
	)
	parallel.Line(size.Height, func(start, end int) {
		pm, err := newBandMap(palette)
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			return
		}
		for y := start; y < end; y++ {
			if ctx.Err() != nil {
				mu.Lock()
				errs = append(errs, fault.Canceled(ctx.Err()))
				mu.Unlock()
				return
			}
			dst := out.Pix[y*out.Stride : y*out.Stride+size.Width]
			for x, c := range src.Row(y) {
				dst[x] = pm.FindClosestPaletteIndex(c)
			}
		}
	})
	if err := fault.Collapse(errs); err != nil {
		return nil, err
	}
	return out, nil
}

func newBandMap(palette []pixel.Bgra32) (quantize.PaletteMap, error) {
	inner, err := quantize.NewPaletteMap(palette)
	if err != nil {
		return nil, err
	}
	return quantize.NewCachingPaletteMap(inner)
}

// ditherMatrices are the error-diffusion kernels DitherWithMatrix accepts.
var ditherMatrices = map[string]dither.ErrorDiffusionMatrix{
	"floyd-steinberg":     dither.FloydSteinberg,
	"atkinson":            dither.Atkinson,
	"burkes":              dither.Burkes,
	"stucki":              dither.Stucki,
	"sierra":              dither.Sierra,
	"sierra-lite":         dither.SierraLite,
	"jarvis-judice-ninke": dither.JarvisJudiceNinke,
}

// MatrixNames returns the names DitherWithMatrix accepts, sorted.
func MatrixNames() []string {
	names := make([]string, 0, len(ditherMatrices))
	for name := range ditherMatrices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DitherWithMatrix renders img against the opaque entries of palette using
// the named error-diffusion matrix, scanning in serpentine order. The
// transparent entry, if any, is not offered to the ditherer.
func DitherWithMatrix(img image.Image, palette []pixel.Bgra32, name string) (*image.Paletted, error) {
	matrix, ok := ditherMatrices[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown dither matrix %q (want one of %s)",
			fault.ErrInvalidArgument, name, strings.Join(MatrixNames(), ", "))
	}

	opaque := slices.DeleteFunc(slices.Clone(palette), func(c pixel.Bgra32) bool {
		return c.A != 255
	})
	if len(opaque) == 0 {
		return nil, fault.InvalidArgument("palette has no opaque colors")
	}

	d := dither.NewDitherer(ColorPalette(opaque))
	if d == nil {
		return nil, fault.Internal("ditherer rejected a palette of %d colors", len(opaque))
	}
	d.Matrix = matrix
	d.Serpentine = true
	return d.DitherPaletted(img), nil
}
