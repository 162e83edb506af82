// Package histogram counts the distinct colors of a bitmap.
//
// A Histogram is built once per image, in parallel, and is read-only
// afterwards. Enumeration order is unspecified and may differ between runs;
// counts never do.
package histogram

import "iter"

// Entry is one distinct color and the number of pixels that had it.
type Entry[T comparable] struct {
	Color T
	Count uint64
}

// Histogram is an immutable multiset of colors. It keeps the tier layout of
// the Builder it came from so that singleton colors cost no counter.
type Histogram[T comparable] struct {
	ones     []T
	colors32 []T
	counts32 []uint32
	colors64 []T
	counts64 []uint64
	total    uint64
}

// Len returns the number of distinct colors.
func (h *Histogram[T]) Len() int {
	return len(h.ones) + len(h.colors32) + len(h.colors64)
}

// TotalCount returns the sum of all counts, i.e. the number of pixels that
// were counted.
func (h *Histogram[T]) TotalCount() uint64 {
	return h.total
}

// All yields every entry once.
func (h *Histogram[T]) All() iter.Seq[Entry[T]] {
	return func(yield func(Entry[T]) bool) {
		for _, c := range h.ones {
			if !yield(Entry[T]{Color: c, Count: 1}) {
				return
			}
		}
		for i, c := range h.colors32 {
			if !yield(Entry[T]{Color: c, Count: uint64(h.counts32[i])}) {
				return
			}
		}
		for i, c := range h.colors64 {
			if !yield(Entry[T]{Color: c, Count: h.counts64[i]}) {
				return
			}
		}
	}
}

// Entries returns all entries as a new slice.
func (h *Histogram[T]) Entries() []Entry[T] {
	out := make([]Entry[T], 0, h.Len())
	for e := range h.All() {
		out = append(out, e)
	}
	return out
}

// Count returns how often c occurred. It scans the histogram.
func (h *Histogram[T]) Count(c T) uint64 {
	for e := range h.All() {
		if e.Color == c {
			return e.Count
		}
	}
	return 0
}
