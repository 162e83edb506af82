package quantize

import (
	"slices"

	"github.com/ironsheep/quantize-mcp/internal/fault"
	"github.com/ironsheep/quantize-mcp/internal/pixel"
)

// PaletteMap finds the palette entry closest to a color.
//
// A palette is at most 256 colors, all fully opaque except an optional final
// TransparentBlack entry. Colors with alpha below 255 map to that transparent
// entry when it exists; every other color maps to the opaque entry with the
// smallest squared BGR distance, the lowest index winning ties.
type PaletteMap interface {
	// Colors returns the palette.
	Colors() []pixel.Bgra32

	// OpaqueColors returns the opaque entries as Bgr24, in palette order.
	OpaqueColors() []pixel.Bgr24

	// TransparentIndex returns the index of the transparent entry.
	TransparentIndex() (uint8, bool)

	FindClosestPaletteIndex(c pixel.Bgra32) uint8
}

// NewPaletteMap returns the default PaletteMap for colors.
func NewPaletteMap(colors []pixel.Bgra32) (PaletteMap, error) {
	return NewProximityPaletteMap(colors)
}

// paletteBase holds the validated palette shared by every implementation.
type paletteBase struct {
	colors           []pixel.Bgra32
	opaque           []pixel.Bgr24
	transparentIndex uint8
	hasTransparent   bool
}

func newPaletteBase(colors []pixel.Bgra32) (paletteBase, error) {
	if len(colors) == 0 {
		return paletteBase{}, fault.InvalidArgument("palette is empty")
	}
	if len(colors) > MaxPaletteSize {
		return paletteBase{}, fault.InvalidArgument("palette has %d colors, at most %d allowed", len(colors), MaxPaletteSize)
	}

	b := paletteBase{colors: slices.Clone(colors)}
	last := len(colors) - 1
	for i, c := range colors {
		switch {
		case c.A == 255:
			b.opaque = append(b.opaque, c.ToBgr24())
		case i == last && c == pixel.TransparentBlack:
			b.transparentIndex = uint8(i)
			b.hasTransparent = true
		default:
			return paletteBase{}, fault.InvalidArgument(
				"palette entry %d (%v) is not opaque; only a final all-zero entry may be transparent", i, c)
		}
	}
	if len(b.opaque) == 0 {
		return paletteBase{}, fault.InvalidArgument("palette has no opaque colors")
	}
	return b, nil
}

func (b *paletteBase) Colors() []pixel.Bgra32 {
	return slices.Clone(b.colors)
}

func (b *paletteBase) OpaqueColors() []pixel.Bgr24 {
	return slices.Clone(b.opaque)
}

func (b *paletteBase) TransparentIndex() (uint8, bool) {
	return b.transparentIndex, b.hasTransparent
}

// lookup routes translucent colors to the transparent entry and everything
// else to find.
func (b *paletteBase) lookup(c pixel.Bgra32, find func(pixel.Bgr24) uint8) uint8 {
	if c.A < 255 && b.hasTransparent {
		return b.transparentIndex
	}
	return find(c.ToBgr24())
}
