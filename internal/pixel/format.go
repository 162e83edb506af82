package pixel

import "fmt"

// Format identifies the memory layout of a pixel type.
type Format int

const (
	FormatUnknown Format = iota
	FormatBgr24
	FormatBgr32
	FormatBgra32
	FormatBgr48
	FormatRgb96Float
	FormatIndexed8
)

// String returns the format name, e.g. "Bgra32".
func (f Format) String() string {
	switch f {
	case FormatBgr24:
		return "Bgr24"
	case FormatBgr32:
		return "Bgr32"
	case FormatBgra32:
		return "Bgra32"
	case FormatBgr48:
		return "Bgr48"
	case FormatRgb96Float:
		return "Rgb96Float"
	case FormatIndexed8:
		return "Indexed8"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// BitsPerPixel returns the storage size of one pixel of this format.
func (f Format) BitsPerPixel() int {
	switch f {
	case FormatBgr24:
		return 24
	case FormatBgr32, FormatBgra32:
		return 32
	case FormatBgr48:
		return 48
	case FormatRgb96Float:
		return 96
	case FormatIndexed8:
		return 8
	default:
		return 0
	}
}

// HasAlpha reports whether the format carries an alpha channel.
func (f Format) HasAlpha() bool {
	return f == FormatBgra32
}

// IsIndexed reports whether pixels of this format are palette indices.
func (f Format) IsIndexed() bool {
	return f == FormatIndexed8
}

// Info is implemented by every color value type. It lets generic code ask a
// pixel type for its layout without reflection.
type Info interface {
	comparable
	Format() Format
	BitsPerPixel() int
	BytesPerPixel() int
}
