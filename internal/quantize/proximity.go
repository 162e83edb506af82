package quantize

import (
	"math"
	"slices"

	"github.com/ironsheep/quantize-mcp/internal/pixel"
)

const (
	// proximityBits is the number of high bits per channel that select a
	// region cube.
	proximityBits  = 4
	proximityShift = 8 - proximityBits
	proximityCubes = 1 << (3 * proximityBits)
	// proximityCenter offsets a cube origin to its center.
	proximityCenter = 1 << (proximityShift - 1)
	// proximitySlack absorbs float rounding in the early-exit test.
	proximitySlack = 1e-9
)

// ProximityPaletteMap splits BGR space into 16x16x16 cubes. For each cube it
// lazily computes the opaque entries ordered by distance from the cube
// center, and a query scans that list until no later entry can be closer
// than the best found so far.
//
// Results are identical to LinearSearchPaletteMap. The lazily filled tables
// make it unsafe for concurrent use.
type ProximityPaletteMap struct {
	paletteBase
	cubes [proximityCubes][]uint8
}

var _ PaletteMap = (*ProximityPaletteMap)(nil)

// NewProximityPaletteMap validates colors and returns a map over them.
func NewProximityPaletteMap(colors []pixel.Bgra32) (*ProximityPaletteMap, error) {
	base, err := newPaletteBase(colors)
	if err != nil {
		return nil, err
	}
	return &ProximityPaletteMap{paletteBase: base}, nil
}

// FindClosestPaletteIndex implements PaletteMap.
func (m *ProximityPaletteMap) FindClosestPaletteIndex(c pixel.Bgra32) uint8 {
	return m.lookup(c, m.find)
}

func cubeOf(c pixel.Bgr24) (index int, center pixel.Bgr24) {
	x, y, z := c.B>>proximityShift, c.G>>proximityShift, c.R>>proximityShift
	index = int(x) | int(y)<<proximityBits | int(z)<<(2*proximityBits)
	center = pixel.Bgr24{
		B: x<<proximityShift + proximityCenter,
		G: y<<proximityShift + proximityCenter,
		R: z<<proximityShift + proximityCenter,
	}
	return index, center
}

func (m *ProximityPaletteMap) candidates(index int, center pixel.Bgr24) []uint8 {
	if order := m.cubes[index]; order != nil {
		return order
	}
	dist := make([]int, len(m.opaque))
	order := make([]uint8, len(m.opaque))
	for i, c := range m.opaque {
		dist[i] = pixel.DistanceSquared(center, c)
		order[i] = uint8(i)
	}
	// Stable so that equidistant entries keep palette order.
	slices.SortStableFunc(order, func(a, b uint8) int {
		return dist[a] - dist[b]
	})
	m.cubes[index] = order
	return order
}

// find scans the candidates of the target's cube. By the triangle inequality
// a candidate at distance dc from the center is at least |dc - dt| from the
// target, where dt is the target's own distance from the center. Candidates
// come in increasing dc, so once that bound exceeds the best distance no
// later candidate can win or tie.
func (m *ProximityPaletteMap) find(target pixel.Bgr24) uint8 {
	index, center := cubeOf(target)
	order := m.candidates(index, center)
	dt := math.Sqrt(float64(pixel.DistanceSquared(center, target)))

	best := order[0]
	bestDist := pixel.DistanceSquared(target, m.opaque[best])
	bestRoot := math.Sqrt(float64(bestDist))
	for _, i := range order[1:] {
		if bestDist == 0 {
			break
		}
		d := pixel.DistanceSquared(target, m.opaque[i])
		if d < bestDist || (d == bestDist && i < best) {
			best, bestDist = i, d
			bestRoot = math.Sqrt(float64(d))
			continue
		}
		dc := math.Sqrt(float64(pixel.DistanceSquared(center, m.opaque[i])))
		if math.Abs(dc-dt) > bestRoot+proximitySlack {
			break
		}
	}
	return best
}
