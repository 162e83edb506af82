package quantize

import (
	"github.com/ironsheep/quantize-mcp/internal/fault"
	"github.com/ironsheep/quantize-mcp/internal/pixel"
)

// CachingPaletteMap remembers the answer for every opaque color it has been
// asked about and consults the wrapped map only on a miss. It is not safe
// for concurrent use.
type CachingPaletteMap struct {
	paletteBase
	inner PaletteMap
	cache map[pixel.Bgr24]uint8
}

var _ PaletteMap = (*CachingPaletteMap)(nil)

// NewCachingPaletteMap wraps inner. The palette is taken from inner.
func NewCachingPaletteMap(inner PaletteMap) (*CachingPaletteMap, error) {
	if inner == nil {
		return nil, fault.InvalidArgument("inner palette map is nil")
	}
	base, err := newPaletteBase(inner.Colors())
	if err != nil {
		return nil, err
	}
	return &CachingPaletteMap{
		paletteBase: base,
		inner:       inner,
		cache:       make(map[pixel.Bgr24]uint8),
	}, nil
}

// FindClosestPaletteIndex implements PaletteMap.
func (m *CachingPaletteMap) FindClosestPaletteIndex(c pixel.Bgra32) uint8 {
	return m.lookup(c, m.find)
}

// Len returns the number of cached colors.
func (m *CachingPaletteMap) Len() int {
	return len(m.cache)
}

func (m *CachingPaletteMap) find(target pixel.Bgr24) uint8 {
	if idx, ok := m.cache[target]; ok {
		return idx
	}
	idx := m.inner.FindClosestPaletteIndex(target.ToBgra32())
	m.cache[target] = idx
	return idx
}
