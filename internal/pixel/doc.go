// Package pixel defines the fixed-width color value types and the bitmap
// source contract shared by the histogram, quantizer, and dithering stages.
//
// # Color Types
//
// Each color type is a small comparable struct whose fields mirror its memory
// layout (blue first, as in a little-endian BGRA word):
//   - Bgr24: opaque 24-bit color
//   - Bgr32: 24-bit color padded to 32 bits (padding byte ignored)
//   - Bgra32: 32-bit color with straight (non-premultiplied) alpha
//   - Bgr48: 16 bits per channel
//   - Rgb96Float: float32 per channel in the range 0..1
//   - Indexed8: 8-bit palette index
//
// Equality is equivalent to comparing the packed integer representation
// returned by Bgr(), Bgra(), and friends. Conversions between types are
// explicit functions; no type converts implicitly.
//
// # Sources
//
// Source is the row-copy contract consumed by the quantization pipeline:
// callers ask for a rectangle of pixels and receive them in a caller-owned
// buffer with a caller-chosen stride. Bitmap is a simple in-memory Source.
//
// # Thread Safety
//
// Color values are immutable. Bitmap is safe for concurrent CopyPixels calls
// as long as nobody writes to it at the same time.
package pixel
