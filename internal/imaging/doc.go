// Package imaging connects the quantizer to Go images and files.
//
// It loads and caches images, converts any image.Image into the Bgra32
// bitmap the quantizer reads, and turns quantized output back into an
// *image.Paletted that the standard PNG and GIF encoders write as an indexed
// image. It also reports palettes and color statistics in the formats the
// MCP tools return.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Rendering Paths
//
// QuantizeImage picks one of three renderers:
//   - no dithering: QuantizeParallel maps bands of rows concurrently, each
//     band with its own palette map
//   - dithering: a quantize.QuantizedSource applies serpentine
//     Floyd-Steinberg diffusion row by row
//   - a named matrix: DitherWithMatrix delegates to the dither library
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The other functions are
// stateless and may be called concurrently on different images.
//
// # Color Representation
//
// Colors are returned in multiple formats:
//   - Hex: 6-character format "#RRGGBB" (alpha excluded)
//   - RGB: 8-bit components (0-255)
//   - RGBA: 8-bit components with alpha (0-255)
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
package imaging
