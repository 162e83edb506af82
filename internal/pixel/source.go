package pixel

import (
	"errors"
	"fmt"
	"image"
)

// ErrBadRect is returned when a copy rectangle or destination buffer does not
// fit the source.
var ErrBadRect = errors.New("pixel: rectangle or buffer out of range")

// Size is the pixel dimensions of a bitmap.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Bounds returns the rectangle (0,0)-(Width,Height).
func (s Size) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

// Area returns Width*Height.
func (s Size) Area() int {
	return s.Width * s.Height
}

// Source produces rows of pixels of a single fixed-width type.
type Source[T Info] interface {
	Size() Size
	Format() Format

	// CopyPixels copies rect from the source into dst. A nil rect means the
	// whole bitmap. Row y of the rectangle is written at dst[y*stride:], where
	// stride is measured in pixels and must be at least rect.Dx().
	CopyPixels(rect *image.Rectangle, dst []T, stride int) error
}

// IndexedSource is a Source of palette indices that can report its palette.
type IndexedSource interface {
	Source[Indexed8]

	// Palette returns the colors the indices refer to, or nil when the
	// source has no palette.
	Palette() []Bgra32
}

// ResolveRect validates rect against size and the destination buffer and
// returns the effective rectangle. It is exported so that every Source
// implementation applies the same checks.
func ResolveRect(size Size, rect *image.Rectangle, dstLen, stride int) (image.Rectangle, error) {
	r := size.Bounds()
	if rect != nil {
		r = *rect
	}
	if r.Empty() {
		return r, nil
	}
	if !r.In(size.Bounds()) {
		return r, fmt.Errorf("%w: %v not within %dx%d", ErrBadRect, r, size.Width, size.Height)
	}
	if stride < r.Dx() {
		return r, fmt.Errorf("%w: stride %d smaller than row width %d", ErrBadRect, stride, r.Dx())
	}
	if need := (r.Dy()-1)*stride + r.Dx(); dstLen < need {
		return r, fmt.Errorf("%w: buffer holds %d pixels, need %d", ErrBadRect, dstLen, need)
	}
	return r, nil
}

// Bitmap is an in-memory Source backed by a tightly packed pixel slice.
type Bitmap[T Info] struct {
	size Size
	pix  []T
}

// NewBitmap allocates a zeroed width x height bitmap.
func NewBitmap[T Info](width, height int) *Bitmap[T] {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Bitmap[T]{
		size: Size{Width: width, Height: height},
		pix:  make([]T, width*height),
	}
}

// BitmapFromPixels wraps pix, which must hold exactly width*height pixels in
// row-major order. The slice is not copied.
func BitmapFromPixels[T Info](width, height int, pix []T) (*Bitmap[T], error) {
	if width < 0 || height < 0 || len(pix) != width*height {
		return nil, fmt.Errorf("%w: %d pixels for %dx%d", ErrBadRect, len(pix), width, height)
	}
	return &Bitmap[T]{size: Size{Width: width, Height: height}, pix: pix}, nil
}

// Size returns the bitmap dimensions.
func (b *Bitmap[T]) Size() Size {
	return b.size
}

// Format returns the pixel format of T.
func (b *Bitmap[T]) Format() Format {
	var zero T
	return zero.Format()
}

// At returns the pixel at (x, y). It panics when out of range, like slice
// indexing.
func (b *Bitmap[T]) At(x, y int) T {
	return b.pix[y*b.size.Width+x]
}

// Set stores c at (x, y).
func (b *Bitmap[T]) Set(x, y int, c T) {
	b.pix[y*b.size.Width+x] = c
}

// Fill sets every pixel to c.
func (b *Bitmap[T]) Fill(c T) {
	for i := range b.pix {
		b.pix[i] = c
	}
}

// Row returns the pixels of row y. The slice aliases the bitmap.
func (b *Bitmap[T]) Row(y int) []T {
	w := b.size.Width
	return b.pix[y*w : (y+1)*w]
}

// Pix returns the backing slice.
func (b *Bitmap[T]) Pix() []T {
	return b.pix
}

// CopyPixels implements Source.
func (b *Bitmap[T]) CopyPixels(rect *image.Rectangle, dst []T, stride int) error {
	r, err := ResolveRect(b.size, rect, len(dst), stride)
	if err != nil {
		return err
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := b.pix[y*b.size.Width+r.Min.X : y*b.size.Width+r.Max.X]
		copy(dst[(y-r.Min.Y)*stride:], row)
	}
	return nil
}

// CopyRow is a convenience wrapper that copies full row y of src into dst,
// which must hold at least src.Size().Width pixels.
func CopyRow[T Info](src Source[T], y int, dst []T) error {
	w := src.Size().Width
	rect := image.Rect(0, y, w, y+1)
	return src.CopyPixels(&rect, dst, w)
}
