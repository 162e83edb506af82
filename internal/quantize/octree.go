package quantize

import (
	"context"
	"math"

	"github.com/ironsheep/quantize-mcp/internal/fault"
	"github.com/ironsheep/quantize-mcp/internal/pixel"
)

// octreeDepth is the number of bit planes walked per color; leaves live at
// this level and the root at level 0.
const octreeDepth = 8

// node is a vertex of the color octree. It is one of:
//   - *leafNode: a single color with a 32-bit count, never has children
//   - *wideLeafNode: a single color whose count needs 64 bits
//   - *innerNode: accumulated count and channel sums plus up to 8 children
//
// Leaves are by far the most numerous nodes for photographic input, so they
// carry only the color and the narrowest counter that fits.
type node interface {
	colorCount() uint64
	channelSums() (r, g, b uint64)
}

type leafNode struct {
	color pixel.Bgr24
	count uint32
}

type wideLeafNode struct {
	color pixel.Bgr24
	count uint64
}

type innerNode struct {
	count      uint64
	sumR       uint64
	sumG       uint64
	sumB       uint64
	children   *[8]node
	childCount int
}

func newLeaf(c pixel.Bgr24, count uint64) node {
	if count <= math.MaxUint32 {
		return &leafNode{color: c, count: uint32(count)}
	}
	return &wideLeafNode{color: c, count: count}
}

func (n *leafNode) colorCount() uint64 { return uint64(n.count) }

func (n *leafNode) channelSums() (r, g, b uint64) {
	return scaledSums(n.color, uint64(n.count))
}

func (n *wideLeafNode) colorCount() uint64 { return n.count }

func (n *wideLeafNode) channelSums() (r, g, b uint64) {
	return scaledSums(n.color, n.count)
}

func scaledSums(c pixel.Bgr24, count uint64) (r, g, b uint64) {
	return uint64(c.R) * count, uint64(c.G) * count, uint64(c.B) * count
}

func (n *innerNode) colorCount() uint64 { return n.count }

func (n *innerNode) channelSums() (r, g, b uint64) {
	return n.sumR, n.sumG, n.sumB
}

// absorb adds other's weight and channel sums to n. Sums are carried exactly
// so repeated merging never compounds rounding error.
func (n *innerNode) absorb(other node) {
	r, g, b := other.channelSums()
	n.count += other.colorCount()
	n.sumR += r
	n.sumG += g
	n.sumB += b
}

func (n *innerNode) addColor(c pixel.Bgr24, count uint64) {
	r, g, b := scaledSums(c, count)
	n.count += count
	n.sumR += r
	n.sumG += g
	n.sumB += b
}

func (n *innerNode) child(i int) node {
	if n.children == nil {
		return nil
	}
	return n.children[i]
}

func (n *innerNode) setChild(i int, c node) {
	if n.children == nil {
		n.children = new([8]node)
	}
	if n.children[i] == nil {
		n.childCount++
	}
	n.children[i] = c
}

func (n *innerNode) removeChild(i int) error {
	if n.children == nil || n.children[i] == nil {
		return fault.Internal("octree: removing missing child %d", i)
	}
	n.children[i] = nil
	n.childCount--
	if n.childCount == 0 {
		n.children = nil
	}
	return nil
}

// hasChildren reports whether n is an inner node with at least one child.
func hasChildren(n node) bool {
	in, ok := n.(*innerNode)
	return ok && in.children != nil
}

// hasColorInfo reports whether n contributes a palette entry.
func hasColorInfo(n node) bool {
	return n.colorCount() > 0
}

// averageColor returns the weighted mean color of n in the 0..1 range.
func averageColor(n node) pixel.Rgb96Float {
	count := float64(n.colorCount())
	r, g, b := n.channelSums()
	return pixel.Rgb96Float{
		R: float32(float64(r) / count / 255),
		G: float32(float64(g) / count / 255),
		B: float32(float64(b) / count / 255),
	}
}

// roundedColor returns the weighted mean color of n rounded to 8 bits per
// channel, halves rounding up. It works on the exact integer sums.
func roundedColor(n node) pixel.Bgr24 {
	count := n.colorCount()
	r, g, b := n.channelSums()
	return pixel.Bgr24{
		B: roundedQuotient(b, count),
		G: roundedQuotient(g, count),
		R: roundedQuotient(r, count),
	}
}

func roundedQuotient(sum, count uint64) uint8 {
	q, rem := sum/count, sum%count
	if rem >= count-rem {
		q++
	}
	return uint8(min(q, 255))
}

// colorOffset selects the child slot for c at level: bit (7-level) of R, G,
// and B form bits 0, 1, and 2 of the slot.
func colorOffset(c pixel.Bgr24, level int) int {
	shift := 7 - level
	return int((c.R>>shift)&1) |
		int((c.G>>shift)&1)<<1 |
		int((c.B>>shift)&1)<<2
}

// octree is the working structure of OctreeQuantizer. colorCount tracks the
// number of nodes that carry color information and is kept current by every
// mutation.
type octree struct {
	root       *innerNode
	colorCount int
}

func newOctree() *octree {
	return &octree{root: &innerNode{}}
}

// addColor inserts count occurrences of c.
func (t *octree) addColor(c pixel.Bgr24, count uint64) error {
	n := t.root
	for level := 0; level < octreeDepth-1; level++ {
		offset := colorOffset(c, level)
		switch child := n.child(offset).(type) {
		case nil:
			next := &innerNode{}
			n.setChild(offset, next)
			n = next
		case *innerNode:
			n = child
		default:
			return fault.Internal("octree: leaf found at level %d", level+1)
		}
	}

	offset := colorOffset(c, octreeDepth-1)
	existing := n.child(offset)
	if existing == nil {
		n.setChild(offset, newLeaf(c, count))
		t.colorCount++
		return nil
	}

	// Same color inserted again: replace the leaf by an inner node carrying
	// both weights. The color count is unchanged.
	merged := &innerNode{}
	merged.absorb(existing)
	merged.addColor(c, count)
	n.setChild(offset, merged)
	return nil
}

// levelCounts returns the number of nodes at each level, root first.
func (t *octree) levelCounts(ctx context.Context) ([octreeDepth + 1]int, error) {
	var counts [octreeDepth + 1]int
	var walk func(n node, level int) error
	walk = func(n node, level int) error {
		if level <= 2 {
			if err := fault.Check(ctx); err != nil {
				return err
			}
		}
		counts[level]++
		in, ok := n.(*innerNode)
		if !ok || in.children == nil {
			return nil
		}
		for _, c := range in.children {
			if c != nil {
				if err := walk(c, level+1); err != nil {
					return err
				}
			}
		}
		return nil
	}
	err := walk(t.root, 0)
	return counts, err
}

// mergeChildIntoParent folds a childless node into its parent and removes it.
// The first merge into a parent without color information leaves colorCount
// unchanged because the parent becomes a colored node itself.
func (t *octree) mergeChildIntoParent(parent *innerNode, offset int, child node) error {
	if hasChildren(child) {
		return fault.Internal("octree: merging node that still has children")
	}
	if !hasColorInfo(parent) {
		t.colorCount++
	}
	parent.absorb(child)
	if err := parent.removeChild(offset); err != nil {
		return err
	}
	t.colorCount--
	return nil
}

// levelNode records a node at the reduction boundary together with the slot
// it occupies in its parent.
type levelNode struct {
	node   node
	parent *innerNode
	offset int
}

// visitLevel calls fn for every node at level (>= 1) with its parent.
func (t *octree) visitLevel(ctx context.Context, level int, fn func(levelNode) error) error {
	var walk func(n *innerNode, nodeLevel int) error
	walk = func(n *innerNode, nodeLevel int) error {
		if nodeLevel <= 2 {
			if err := fault.Check(ctx); err != nil {
				return err
			}
		}
		if n.children == nil {
			return nil
		}
		for i, c := range n.children {
			if c == nil {
				continue
			}
			if nodeLevel+1 == level {
				if err := fn(levelNode{node: c, parent: n, offset: i}); err != nil {
					return err
				}
				continue
			}
			in, ok := c.(*innerNode)
			if !ok {
				continue
			}
			if err := walk(in, nodeLevel+1); err != nil {
				return err
			}
		}
		return nil
	}
	if level < 1 {
		return fault.Internal("octree: cannot visit level %d", level)
	}
	return walk(t.root, 0)
}

// mergeLevelIntoParent merges every node at level into its parent.
func (t *octree) mergeLevelIntoParent(ctx context.Context, level int) error {
	return t.visitLevel(ctx, level, func(ln levelNode) error {
		return t.mergeChildIntoParent(ln.parent, ln.offset, ln.node)
	})
}

// reduce merges nodes until at most target nodes carry color information.
func (t *octree) reduce(ctx context.Context, target int) error {
	if target < 1 {
		return fault.Internal("octree: reduce target %d", target)
	}
	counts, err := t.levelCounts(ctx)
	if err != nil {
		return err
	}

	// Collapse whole levels, deepest first, while even the level above has
	// more nodes than the target.
	level := octreeDepth
	for ; level >= 1 && counts[level-1] > target; level-- {
		if err := t.mergeLevelIntoParent(ctx, level); err != nil {
			return err
		}
		counts[level] = 0
	}
	if level < 1 {
		return fault.Internal("octree: reduced past the root for target %d", target)
	}
	if err := fault.Check(ctx); err != nil {
		return err
	}

	boundary := make([]levelNode, 0, counts[level])
	err = t.visitLevel(ctx, level, func(ln levelNode) error {
		boundary = append(boundary, ln)
		return nil
	})
	if err != nil {
		return err
	}

	ordered, err := sortByMergePriority(ctx, boundary)
	if err != nil {
		return err
	}

	for _, ln := range ordered {
		if t.colorCount <= target {
			break
		}
		if err := t.mergeChildIntoParent(ln.parent, ln.offset, ln.node); err != nil {
			return err
		}
	}
	return fault.Check(ctx)
}

// gatherColors appends one rounded color per colored node, depth first.
func (t *octree) gatherColors(ctx context.Context, out []pixel.Bgr24) ([]pixel.Bgr24, error) {
	var walk func(n node, level int) error
	walk = func(n node, level int) error {
		if hasColorInfo(n) {
			out = append(out, roundedColor(n))
		}
		in, ok := n.(*innerNode)
		if !ok || in.children == nil {
			return nil
		}
		for _, c := range in.children {
			if c == nil {
				continue
			}
			if err := walk(c, level+1); err != nil {
				return err
			}
			if level <= 1 {
				if err := fault.Check(ctx); err != nil {
					return err
				}
			}
		}
		return nil
	}
	err := walk(t.root, 0)
	return out, err
}
