package quantize

import (
	"cmp"
	"context"
	"math"
	"runtime"
	"slices"
	"sync"

	"github.com/ironsheep/quantize-mcp/internal/fault"
	"github.com/ironsheep/quantize-mcp/internal/pixel"
)

// parallelSortThreshold is the boundary size above which the merge order is
// computed by a parallel merge sort.
const parallelSortThreshold = 512

// mergeCandidate caches the sort keys of a boundary node.
type mergeCandidate struct {
	levelNode
	count uint64
	hash  int32
	wide  pixel.Bgr48
	seq   int
}

func newMergeCandidate(ln levelNode, seq int) mergeCandidate {
	avg := averageColor(ln.node)
	return mergeCandidate{
		levelNode: ln,
		count:     ln.node.colorCount(),
		hash:      colorHash(avg),
		wide:      pixel.RoundBgr48(avg),
		seq:       seq,
	}
}

// colorHash combines the bit patterns of the three float channels.
func colorHash(c pixel.Rgb96Float) int32 {
	h := int32(math.Float32bits(c.R))
	h = ((h << 5) + h) ^ int32(math.Float32bits(c.G))
	h = ((h << 5) + h) ^ int32(math.Float32bits(c.B))
	return h
}

// compareWide walks the 16-bit channels from the most significant bit down.
// At each bit the per-channel comparisons are summed and the first non-zero
// sum decides.
func compareWide(a, b pixel.Bgr48) int {
	for bit := 15; bit >= 0; bit-- {
		mask := uint16(1) << bit
		s := cmp.Compare(a.R&mask, b.R&mask) +
			cmp.Compare(a.G&mask, b.G&mask) +
			cmp.Compare(a.B&mask, b.B&mask)
		if s != 0 {
			return s
		}
	}
	return 0
}

// compareCandidates orders nodes lightest first. Ties on weight fall back to
// the color hash, then to a bit-wise color comparison, then to tree order, so
// the result is deterministic.
func compareCandidates(a, b mergeCandidate) int {
	if c := cmp.Compare(a.count, b.count); c != 0 {
		return c
	}
	if c := cmp.Compare(a.hash, b.hash); c != 0 {
		return c
	}
	if c := compareWide(a.wide, b.wide); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

// sortByMergePriority returns nodes in the order they should be merged.
func sortByMergePriority(ctx context.Context, nodes []levelNode) ([]levelNode, error) {
	candidates := make([]mergeCandidate, len(nodes))
	for i, ln := range nodes {
		candidates[i] = newMergeCandidate(ln, i)
	}

	if len(candidates) > parallelSortThreshold {
		if err := parallelSort(ctx, candidates, compareCandidates); err != nil {
			return nil, err
		}
	} else {
		slices.SortFunc(candidates, compareCandidates)
	}
	if err := fault.Check(ctx); err != nil {
		return nil, err
	}

	out := make([]levelNode, len(candidates))
	for i, c := range candidates {
		out[i] = c.levelNode
	}
	return out, nil
}

// parallelSort sorts s with a merge sort whose halves run on separate
// goroutines down to parallelSortThreshold elements. It checks ctx at every
// split.
func parallelSort[T any](ctx context.Context, s []T, compare func(a, b T) int) error {
	scratch := make([]T, len(s))
	depth := 0
	for n := runtime.GOMAXPROCS(0); n > 1; n >>= 1 {
		depth++
	}
	return mergeSort(ctx, s, scratch, compare, depth+1)
}

func mergeSort[T any](ctx context.Context, s, scratch []T, compare func(a, b T) int, depth int) error {
	if err := fault.Check(ctx); err != nil {
		return err
	}
	if len(s) <= parallelSortThreshold || depth == 0 {
		slices.SortStableFunc(s, compare)
		return nil
	}

	mid := len(s) / 2
	var (
		leftErr error
		wg      sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		leftErr = mergeSort(ctx, s[:mid], scratch[:mid], compare, depth-1)
	}()
	rightErr := mergeSort(ctx, s[mid:], scratch[mid:], compare, depth-1)
	wg.Wait()
	if err := fault.Collapse([]error{leftErr, rightErr}); err != nil {
		return err
	}

	copy(scratch, s)
	mergeRuns(s, scratch[:mid], scratch[mid:], compare)
	return nil
}

// mergeRuns merges the sorted runs a and b into dst, taking from a on ties.
func mergeRuns[T any](dst, a, b []T, compare func(a, b T) int) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if compare(b[j], a[i]) < 0 {
			dst[k] = b[j]
			j++
		} else {
			dst[k] = a[i]
			i++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}
