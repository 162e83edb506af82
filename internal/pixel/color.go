package pixel

import (
	"fmt"
	"image/color"
	"math"
)

// Bgr24 is an opaque 24-bit color.
type Bgr24 struct {
	B, G, R uint8
}

// Bgr32 is a 24-bit color stored in 32 bits. X is padding and is not
// considered part of the color by the conversions in this package.
type Bgr32 struct {
	B, G, R, X uint8
}

// Bgra32 is a 32-bit color with straight (non-premultiplied) alpha.
type Bgra32 struct {
	B, G, R, A uint8
}

// Bgr48 is a color with 16 bits per channel.
type Bgr48 struct {
	B, G, R uint16
}

// Rgb96Float is a color with one float32 per channel, nominally in 0..1.
type Rgb96Float struct {
	R, G, B float32
}

// Indexed8 is an index into a palette of at most 256 colors.
type Indexed8 uint8

var (
	// Black is opaque black.
	Black = Bgra32{A: 255}

	// TransparentBlack is the all-zero color used as the transparent palette entry.
	TransparentBlack = Bgra32{}
)

// NewBgr24 builds a Bgr24 from components in R, G, B order.
func NewBgr24(r, g, b uint8) Bgr24 {
	return Bgr24{B: b, G: g, R: r}
}

// NewBgra32 builds a Bgra32 from components in R, G, B, A order.
func NewBgra32(r, g, b, a uint8) Bgra32 {
	return Bgra32{B: b, G: g, R: r, A: a}
}

// Bgr returns the packed value 0x00RRGGBB.
func (c Bgr24) Bgr() uint32 {
	return uint32(c.B) | uint32(c.G)<<8 | uint32(c.R)<<16
}

// Bgr24FromBgr unpacks a value produced by Bgr24.Bgr.
func Bgr24FromBgr(v uint32) Bgr24 {
	return Bgr24{B: uint8(v), G: uint8(v >> 8), R: uint8(v >> 16)}
}

// ToBgra32 returns the color as a fully opaque Bgra32.
func (c Bgr24) ToBgra32() Bgra32 {
	return Bgra32{B: c.B, G: c.G, R: c.R, A: 255}
}

// ToBgr32 returns the color with a zero padding byte.
func (c Bgr24) ToBgr32() Bgr32 {
	return Bgr32{B: c.B, G: c.G, R: c.R}
}

// ToRgb96Float scales each channel to 0..1.
func (c Bgr24) ToRgb96Float() Rgb96Float {
	return Rgb96Float{
		R: float32(c.R) / 255,
		G: float32(c.G) / 255,
		B: float32(c.B) / 255,
	}
}

// String formats the color as #RRGGBB.
func (c Bgr24) String() string {
	return fmt.Sprintf("#%06X", c.Bgr())
}

func (Bgr24) Format() Format { return FormatBgr24 }
func (Bgr24) BitsPerPixel() int { return 24 }
func (Bgr24) BytesPerPixel() int { return 3 }

// Bgrx returns the packed value including the padding byte.
func (c Bgr32) Bgrx() uint32 {
	return uint32(c.B) | uint32(c.G)<<8 | uint32(c.R)<<16 | uint32(c.X)<<24
}

// ToBgr24 drops the padding byte.
func (c Bgr32) ToBgr24() Bgr24 {
	return Bgr24{B: c.B, G: c.G, R: c.R}
}

func (Bgr32) Format() Format { return FormatBgr32 }
func (Bgr32) BitsPerPixel() int { return 32 }
func (Bgr32) BytesPerPixel() int { return 4 }

// Bgra returns the packed value 0xAARRGGBB.
func (c Bgra32) Bgra() uint32 {
	return uint32(c.B) | uint32(c.G)<<8 | uint32(c.R)<<16 | uint32(c.A)<<24
}

// Bgra32FromBgra unpacks a value produced by Bgra32.Bgra.
func Bgra32FromBgra(v uint32) Bgra32 {
	return Bgra32{B: uint8(v), G: uint8(v >> 8), R: uint8(v >> 16), A: uint8(v >> 24)}
}

// IsOpaque reports whether A is 255.
func (c Bgra32) IsOpaque() bool {
	return c.A == 255
}

// ToBgr24 drops the alpha channel without compositing.
func (c Bgra32) ToBgr24() Bgr24 {
	return Bgr24{B: c.B, G: c.G, R: c.R}
}

// ToBgr32 reinterprets the alpha byte as padding.
func (c Bgra32) ToBgr32() Bgr32 {
	return Bgr32{B: c.B, G: c.G, R: c.R, X: c.A}
}

// ToNRGBA converts to the standard library's non-premultiplied color.
func (c Bgra32) ToNRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// FromNRGBA converts from the standard library's non-premultiplied color.
func FromNRGBA(c color.NRGBA) Bgra32 {
	return Bgra32{B: c.B, G: c.G, R: c.R, A: c.A}
}

// String formats the color as #AARRGGBB.
func (c Bgra32) String() string {
	return fmt.Sprintf("#%08X", c.Bgra())
}

func (Bgra32) Format() Format { return FormatBgra32 }
func (Bgra32) BitsPerPixel() int { return 32 }
func (Bgra32) BytesPerPixel() int { return 4 }

// Bgr returns the packed value with blue in the low 16 bits.
func (c Bgr48) Bgr() uint64 {
	return uint64(c.B) | uint64(c.G)<<16 | uint64(c.R)<<32
}

func (Bgr48) Format() Format { return FormatBgr48 }
func (Bgr48) BitsPerPixel() int { return 48 }
func (Bgr48) BytesPerPixel() int { return 6 }

func (Rgb96Float) Format() Format { return FormatRgb96Float }
func (Rgb96Float) BitsPerPixel() int { return 96 }
func (Rgb96Float) BytesPerPixel() int { return 12 }

func (Indexed8) Format() Format { return FormatIndexed8 }
func (Indexed8) BitsPerPixel() int { return 8 }
func (Indexed8) BytesPerPixel() int { return 1 }

// RoundBgr24 scales a float color to 8 bits per channel, rounding halves away
// from zero and clamping to 0..255.
func RoundBgr24(c Rgb96Float) Bgr24 {
	return Bgr24{
		B: uint8(roundClamp(c.B, 255)),
		G: uint8(roundClamp(c.G, 255)),
		R: uint8(roundClamp(c.R, 255)),
	}
}

// RoundBgr48 scales a float color to 16 bits per channel, rounding halves
// away from zero and clamping to 0..65535.
func RoundBgr48(c Rgb96Float) Bgr48 {
	return Bgr48{
		B: uint16(roundClamp(c.B, 65535)),
		G: uint16(roundClamp(c.G, 65535)),
		R: uint16(roundClamp(c.R, 65535)),
	}
}

func roundClamp(v float32, limit float64) float64 {
	x := math.Round(float64(v) * limit)
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > limit {
		return limit
	}
	return x
}

// ClampToByte clamps x to 0..255.
func ClampToByte(x int) uint8 {
	if x > 255 {
		return 255
	}
	if x < 0 {
		return 0
	}
	return uint8(x)
}

// DistanceSquared returns the squared Euclidean distance between a and b in
// BGR space.
func DistanceSquared(a, b Bgr24) int {
	db := int(a.B) - int(b.B)
	dg := int(a.G) - int(b.G)
	dr := int(a.R) - int(b.R)
	return db*db + dg*dg + dr*dr
}
