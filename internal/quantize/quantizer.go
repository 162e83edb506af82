package quantize

import (
	"context"

	"github.com/ironsheep/quantize-mcp/internal/fault"
	"github.com/ironsheep/quantize-mcp/internal/histogram"
	"github.com/ironsheep/quantize-mcp/internal/pixel"
)

// MaxPaletteSize is the largest palette an 8-bit index can address.
const MaxPaletteSize = 256

// cancelPollInterval is the number of histogram entries inserted between
// cancellation checks.
const cancelPollInterval = 1024

// Quantizer generates a palette of at most maxColorCount entries. When
// addTransparentColor is set, the last entry is TransparentBlack and counts
// toward maxColorCount.
type Quantizer interface {
	GeneratePalette(ctx context.Context, h *histogram.Histogram[pixel.Bgr24], maxColorCount int, addTransparentColor bool) ([]pixel.Bgra32, error)
	GeneratePaletteFromSource(ctx context.Context, src pixel.Source[pixel.Bgra32], maxColorCount int, addTransparentColor bool) ([]pixel.Bgra32, error)
}

// OctreeQuantizer reduces a color histogram with an 8-level octree: every
// distinct color is a leaf, and the lightest nodes are folded into their
// parents until the color budget is met.
//
// An OctreeQuantizer holds no state between calls and may be shared.
type OctreeQuantizer struct {
	histogramOpts []histogram.Option
}

var _ Quantizer = (*OctreeQuantizer)(nil)

// NewOctreeQuantizer returns a quantizer. opts are passed to
// histogram.CreateOpaque by GeneratePaletteFromSource.
func NewOctreeQuantizer(opts ...histogram.Option) *OctreeQuantizer {
	return &OctreeQuantizer{histogramOpts: opts}
}

// GeneratePalette builds a palette from h. maxColorCount must be in
// [1, MaxPaletteSize], and at least 2 when addTransparentColor is set.
func (q *OctreeQuantizer) GeneratePalette(
	ctx context.Context,
	h *histogram.Histogram[pixel.Bgr24],
	maxColorCount int,
	addTransparentColor bool,
) ([]pixel.Bgra32, error) {
	if h == nil {
		return nil, fault.InvalidArgument("histogram is nil")
	}
	if maxColorCount < 1 || maxColorCount > MaxPaletteSize {
		return nil, fault.InvalidArgument("maxColorCount %d not in [1, %d]", maxColorCount, MaxPaletteSize)
	}
	if addTransparentColor && maxColorCount < 2 {
		return nil, fault.InvalidArgument("maxColorCount %d leaves no room for an opaque color next to the transparent one", maxColorCount)
	}
	if err := fault.Check(ctx); err != nil {
		return nil, err
	}

	if h.Len() == 0 {
		return finishPalette(nil, addTransparentColor), nil
	}

	target := maxColorCount
	if addTransparentColor {
		target--
	}

	tree := newOctree()
	inserted := 0
	for e := range h.All() {
		if err := tree.addColor(e.Color, e.Count); err != nil {
			return nil, err
		}
		inserted++
		if inserted%cancelPollInterval == 0 {
			if err := fault.Check(ctx); err != nil {
				return nil, err
			}
		}
	}
	if err := fault.Check(ctx); err != nil {
		return nil, err
	}

	if err := tree.reduce(ctx, target); err != nil {
		return nil, err
	}

	colors, err := tree.gatherColors(ctx, make([]pixel.Bgr24, 0, target))
	if err != nil {
		return nil, err
	}
	if len(colors) > target {
		return nil, fault.Internal("octree produced %d colors for a target of %d", len(colors), target)
	}
	return finishPalette(colors, addTransparentColor), nil
}

// GeneratePaletteFromSource counts the opaque pixels of src and builds a
// palette from them. maxColorCount must be in [2, MaxPaletteSize].
func (q *OctreeQuantizer) GeneratePaletteFromSource(
	ctx context.Context,
	src pixel.Source[pixel.Bgra32],
	maxColorCount int,
	addTransparentColor bool,
) ([]pixel.Bgra32, error) {
	if src == nil {
		return nil, fault.InvalidArgument("source is nil")
	}
	if maxColorCount < 2 || maxColorCount > MaxPaletteSize {
		return nil, fault.InvalidArgument("maxColorCount %d not in [2, %d]", maxColorCount, MaxPaletteSize)
	}
	h, err := histogram.CreateOpaque(ctx, src, q.histogramOpts...)
	if err != nil {
		return nil, err
	}
	return q.GeneratePalette(ctx, h, maxColorCount, addTransparentColor)
}

// finishPalette widens colors to Bgra32 and appends the transparent entry.
// An empty color list becomes a single Black.
func finishPalette(colors []pixel.Bgr24, addTransparentColor bool) []pixel.Bgra32 {
	if len(colors) == 0 {
		colors = []pixel.Bgr24{pixel.Black.ToBgr24()}
	}
	out := make([]pixel.Bgra32, 0, len(colors)+1)
	for _, c := range colors {
		out = append(out, c.ToBgra32())
	}
	if addTransparentColor {
		out = append(out, pixel.TransparentBlack)
	}
	return out
}
