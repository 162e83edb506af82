package quantize

import "github.com/ironsheep/quantize-mcp/internal/pixel"

// LinearSearchPaletteMap compares every query against every opaque entry.
// It has no mutable state and is safe for concurrent use.
type LinearSearchPaletteMap struct {
	paletteBase
}

var _ PaletteMap = (*LinearSearchPaletteMap)(nil)

// NewLinearSearchPaletteMap validates colors and returns a map over them.
func NewLinearSearchPaletteMap(colors []pixel.Bgra32) (*LinearSearchPaletteMap, error) {
	base, err := newPaletteBase(colors)
	if err != nil {
		return nil, err
	}
	return &LinearSearchPaletteMap{paletteBase: base}, nil
}

// FindClosestPaletteIndex implements PaletteMap.
func (m *LinearSearchPaletteMap) FindClosestPaletteIndex(c pixel.Bgra32) uint8 {
	return m.lookup(c, m.find)
}

func (m *LinearSearchPaletteMap) find(target pixel.Bgr24) uint8 {
	best := 0
	bestDist := pixel.DistanceSquared(target, m.opaque[0])
	for i := 1; i < len(m.opaque) && bestDist > 0; i++ {
		if d := pixel.DistanceSquared(target, m.opaque[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return uint8(best)
}
