package histogram

import "math"

// Builder accumulates color counts. Counts live in one of three tiers so that
// the common case, a color seen exactly once, costs only a set entry:
//   - ones: colors seen exactly once (count implied)
//   - counts32: colors with a count in 2..MaxUint32
//   - counts64: colors with a larger count
//
// A color is stored in exactly one tier at any time and moves up a tier when
// its count no longer fits. A Builder is not safe for concurrent use.
type Builder[T comparable] struct {
	ones     map[T]struct{}
	counts32 map[T]uint32
	counts64 map[T]uint64
}

// NewBuilder returns an empty builder.
func NewBuilder[T comparable]() *Builder[T] {
	return &Builder[T]{
		ones:     make(map[T]struct{}),
		counts32: make(map[T]uint32),
		counts64: make(map[T]uint64),
	}
}

// Len returns the number of distinct colors.
func (b *Builder[T]) Len() int {
	return len(b.ones) + len(b.counts32) + len(b.counts64)
}

// TierLens returns the number of colors held in each tier.
func (b *Builder[T]) TierLens() (ones, counts32, counts64 int) {
	return len(b.ones), len(b.counts32), len(b.counts64)
}

// Add counts one occurrence of c.
func (b *Builder[T]) Add(c T) {
	if n, ok := b.counts64[c]; ok {
		b.counts64[c] = n + 1
		return
	}
	if n, ok := b.counts32[c]; ok {
		if n == math.MaxUint32 {
			delete(b.counts32, c)
			b.counts64[c] = uint64(n) + 1
		} else {
			b.counts32[c] = n + 1
		}
		return
	}
	if _, ok := b.ones[c]; ok {
		delete(b.ones, c)
		b.counts32[c] = 2
		return
	}
	b.ones[c] = struct{}{}
}

// AddCount counts n occurrences of c.
func (b *Builder[T]) AddCount(c T, n uint64) {
	switch {
	case n == 0:
		return
	case n == 1:
		b.Add(c)
		return
	}

	if cur, ok := b.counts64[c]; ok {
		b.counts64[c] = cur + n
		return
	}
	if cur, ok := b.counts32[c]; ok {
		b.store(c, uint64(cur)+n)
		return
	}
	if _, ok := b.ones[c]; ok {
		delete(b.ones, c)
		n++
	}
	b.store(c, n)
}

// store places a color that is in no tier into the 32- or 64-bit tier.
func (b *Builder[T]) store(c T, n uint64) {
	if n <= math.MaxUint32 {
		b.counts32[c] = uint32(n)
		return
	}
	delete(b.counts32, c)
	b.counts64[c] = n
}

// UnionWith adds every count in other to b. other is not modified.
func (b *Builder[T]) UnionWith(other *Builder[T]) {
	for c, n := range other.counts64 {
		b.AddCount(c, n)
	}
	for c, n := range other.counts32 {
		b.AddCount(c, uint64(n))
	}
	for c := range other.ones {
		b.Add(c)
	}
}

// Reset empties the builder, keeping its allocated maps.
func (b *Builder[T]) Reset() {
	clear(b.ones)
	clear(b.counts32)
	clear(b.counts64)
}

// Build snapshots the builder into an immutable Histogram. The builder may be
// reused afterwards.
func (b *Builder[T]) Build() *Histogram[T] {
	h := &Histogram[T]{
		ones:     make([]T, 0, len(b.ones)),
		colors32: make([]T, 0, len(b.counts32)),
		counts32: make([]uint32, 0, len(b.counts32)),
		colors64: make([]T, 0, len(b.counts64)),
		counts64: make([]uint64, 0, len(b.counts64)),
	}
	for c := range b.ones {
		h.ones = append(h.ones, c)
	}
	h.total = uint64(len(b.ones))
	for c, n := range b.counts32 {
		h.colors32 = append(h.colors32, c)
		h.counts32 = append(h.counts32, n)
		h.total += uint64(n)
	}
	for c, n := range b.counts64 {
		h.colors64 = append(h.colors64, c)
		h.counts64 = append(h.counts64, n)
		h.total += n
	}
	return h
}

// unionIntoLarger folds the builder with fewer colors into the other one and
// returns the survivor.
func unionIntoLarger[T comparable](a, b *Builder[T]) *Builder[T] {
	if a.Len() < b.Len() {
		a, b = b, a
	}
	a.UnionWith(b)
	return a
}
