package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/quantize-mcp/internal/pixel"
)

// ToBitmap converts img to a Bgra32 bitmap with straight alpha. The result
// always starts at (0,0) regardless of img.Bounds().Min.
func ToBitmap(img image.Image) *pixel.Bitmap[pixel.Bgra32] {
	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	b := pixel.NewBitmap[pixel.Bgra32](w, h)
	pix := b.Pix()
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		out := pix[y*w : (y+1)*w]
		for x := range out {
			p := row[x*4 : x*4+4 : x*4+4]
			out[x] = pixel.Bgra32{R: p[0], G: p[1], B: p[2], A: p[3]}
		}
	}
	return b
}

// Region represents a rectangular region within an image.
//
// Coordinates follow the standard image convention:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// PrepareRegion crops img to region (nil means the whole image) and then
// resizes by scale with Lanczos filtering. A scale of 0 or 1 keeps the size.
func PrepareRegion(img image.Image, region *Region, scale float64) (image.Image, error) {
	bounds := img.Bounds()
	out := img
	if region != nil {
		if region.X1 < bounds.Min.X || region.Y1 < bounds.Min.Y || region.X2 > bounds.Max.X || region.Y2 > bounds.Max.Y {
			return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
				region.X1, region.Y1, region.X2, region.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
		}
		if region.X1 >= region.X2 || region.Y1 >= region.Y2 {
			return nil, fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
		}
		out = imaging.Crop(img, region.Rect())
	}

	if scale < 0 {
		return nil, fmt.Errorf("invalid scale %g: must not be negative", scale)
	}
	if scale != 0 && scale != 1 {
		w := max(1, int(float64(out.Bounds().Dx())*scale))
		h := max(1, int(float64(out.Bounds().Dy())*scale))
		out = imaging.Resize(out, w, h, imaging.Lanczos)
	}
	return out, nil
}
