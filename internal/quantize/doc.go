// Package quantize reduces true-color images to an 8-bit palette.
//
// The pipeline has three stages:
//   - OctreeQuantizer turns a color histogram into a palette of at most 256
//     colors, optionally ending in a transparent entry.
//   - A PaletteMap answers nearest-color queries against that palette.
//     LinearSearchPaletteMap scans every entry, ProximityPaletteMap scans a
//     per-region candidate list with an early exit, and CachingPaletteMap
//     memoizes another map. All three return identical indices.
//   - QuantizedSource maps a Bgra32 source through a PaletteMap row by row,
//     with optional serpentine Floyd-Steinberg error diffusion.
//
// Every blocking operation takes a context and reports cancellation with
// fault.ErrCanceled. Nothing in this package logs.
package quantize
