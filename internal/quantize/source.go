package quantize

import (
	"fmt"
	"image"

	"github.com/ironsheep/quantize-mcp/internal/fault"
	"github.com/ironsheep/quantize-mcp/internal/pixel"
)

// MaxDitherLevel is full-strength error diffusion. Level n diffuses n/8 of
// the quantization error.
const MaxDitherLevel = 8

// QuantizedSource presents a Bgra32 source as palette indices.
//
// With a dither level of 0 every pixel maps independently and rows may be
// requested in any order. Otherwise error diffusion carries state from row
// to row: the source remembers the next row it will produce (NextY), and a
// request that starts above that row restarts diffusion from row 0. Callers
// that read top to bottom pay for each row once.
//
// A QuantizedSource is not safe for concurrent use.
type QuantizedSource struct {
	src         pixel.Source[pixel.Bgra32]
	pm          PaletteMap
	colors      []pixel.Bgra32
	ditherLevel int
	state       *ditherState
}

var _ pixel.IndexedSource = (*QuantizedSource)(nil)

// NewQuantizedSource wraps src. ditherLevel must be in [0, MaxDitherLevel].
func NewQuantizedSource(src pixel.Source[pixel.Bgra32], pm PaletteMap, ditherLevel int) (*QuantizedSource, error) {
	if src == nil {
		return nil, fault.InvalidArgument("source is nil")
	}
	if pm == nil {
		return nil, fault.InvalidArgument("palette map is nil")
	}
	if ditherLevel < 0 || ditherLevel > MaxDitherLevel {
		return nil, fault.InvalidArgument("ditherLevel %d not in [0, %d]", ditherLevel, MaxDitherLevel)
	}
	return &QuantizedSource{
		src:         src,
		pm:          pm,
		colors:      pm.Colors(),
		ditherLevel: ditherLevel,
	}, nil
}

// Size returns the size of the wrapped source.
func (q *QuantizedSource) Size() pixel.Size {
	return q.src.Size()
}

// Format always returns pixel.FormatIndexed8.
func (q *QuantizedSource) Format() pixel.Format {
	return pixel.FormatIndexed8
}

// Palette returns the colors the produced indices refer to.
func (q *QuantizedSource) Palette() []pixel.Bgra32 {
	return q.pm.Colors()
}

// DitherLevel returns the configured dither level.
func (q *QuantizedSource) DitherLevel() int {
	return q.ditherLevel
}

// NextY returns the row the next dithered request will continue from. It is
// 0 before the first dithered request.
func (q *QuantizedSource) NextY() int {
	if q.state == nil {
		return 0
	}
	return q.state.nextY
}

// CopyPixels implements pixel.Source.
func (q *QuantizedSource) CopyPixels(rect *image.Rectangle, dst []pixel.Indexed8, stride int) error {
	r, err := pixel.ResolveRect(q.src.Size(), rect, len(dst), stride)
	if err != nil {
		return fmt.Errorf("%w: %w", fault.ErrInvalidArgument, err)
	}
	if r.Empty() {
		return nil
	}
	if q.ditherLevel == 0 {
		return q.copyUndithered(r, dst, stride)
	}

	width := q.src.Size().Width
	if q.state == nil || r.Min.Y < q.state.nextY {
		q.state = newDitherState(width)
	}
	return q.state.run(q, r, dst, stride)
}

func (q *QuantizedSource) copyUndithered(r image.Rectangle, dst []pixel.Indexed8, stride int) error {
	row := make([]pixel.Bgra32, r.Dx())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		line := image.Rect(r.Min.X, y, r.Max.X, y+1)
		if err := q.src.CopyPixels(&line, row, len(row)); err != nil {
			return fmt.Errorf("quantize: copy row %d: %w", y, err)
		}
		out := dst[(y-r.Min.Y)*stride:]
		for x, c := range row {
			out[x] = pixel.Indexed8(q.pm.FindClosestPaletteIndex(c))
		}
	}
	return nil
}

// errorTerm is the accumulated diffusion error of one pixel, per channel.
type errorTerm struct {
	b, g, r int
}

// ditherState is the row-to-row memory of serpentine Floyd-Steinberg
// diffusion. Error rows are indexed by column+1 so the neighbors of the
// first and last column land in guard cells that are never read.
type ditherState struct {
	nextY   int
	src     []pixel.Bgra32
	out     []pixel.Indexed8
	errThis []errorTerm
	errNext []errorTerm
}

func newDitherState(width int) *ditherState {
	return &ditherState{
		src:     make([]pixel.Bgra32, width),
		out:     make([]pixel.Indexed8, width),
		errThis: make([]errorTerm, width+2),
		errNext: make([]errorTerm, width+2),
	}
}

// run dithers rows from the cursor through r.Max.Y-1 and copies the rows
// inside r to dst.
func (s *ditherState) run(q *QuantizedSource, r image.Rectangle, dst []pixel.Indexed8, stride int) error {
	if r.Min.Y < s.nextY {
		return fault.InvalidOperation("dithering cursor at row %d is past requested row %d", s.nextY, r.Min.Y)
	}
	for y := s.nextY; y < r.Max.Y; y++ {
		if err := pixel.CopyRow(q.src, y, s.src); err != nil {
			return fmt.Errorf("quantize: copy row %d: %w", y, err)
		}
		s.ditherRow(q, y)
		s.nextY = y + 1
		if y >= r.Min.Y {
			copy(dst[(y-r.Min.Y)*stride:], s.out[r.Min.X:r.Max.X])
		}
	}
	return nil
}

// ditherRow maps s.src into s.out. Even rows run left to right and odd rows
// right to left.
func (s *ditherState) ditherRow(q *QuantizedSource, y int) {
	width := len(s.src)
	dir := 1
	if y%2 == 1 {
		dir = -1
	}
	level := q.ditherLevel
	transparent, hasTransparent := q.pm.TransparentIndex()

	for i := 0; i < width; i++ {
		x := i
		if dir < 0 {
			x = width - 1 - i
		}
		cell := x + 1
		e := s.errThis[cell]
		c := s.src[x]

		target := pixel.Bgra32{
			B: pixel.ClampToByte(int(c.B) - (e.b*level)>>3),
			G: pixel.ClampToByte(int(c.G) - (e.g*level)>>3),
			R: pixel.ClampToByte(int(c.R) - (e.r*level)>>3),
			A: c.A,
		}
		idx := q.pm.FindClosestPaletteIndex(target)
		s.out[x] = pixel.Indexed8(idx)

		// Transparent pixels show nothing, so they have no error to spread.
		if hasTransparent && idx == transparent {
			continue
		}
		p := q.colors[idx]
		s.spread(cell, dir,
			int(p.B)-int(target.B),
			int(p.G)-int(target.G),
			int(p.R)-int(target.R))
	}

	s.errThis, s.errNext = s.errNext, s.errThis
	clear(s.errNext)
}

// spread distributes one pixel's error: right of it on this row, and behind,
// below, and ahead of it on the next row, relative to the scan direction.
func (s *ditherState) spread(cell, dir, eb, eg, er int) {
	rb, bb, hb, ab := DistributeError(eb)
	rg, bg, hg, ag := DistributeError(eg)
	rr, br, hr, ar := DistributeError(er)

	s.errThis[cell+dir].add(rb, rg, rr)
	s.errNext[cell-dir].add(hb, hg, hr)
	s.errNext[cell].add(bb, bg, br)
	s.errNext[cell+dir].add(ab, ag, ar)
}

func (t *errorTerm) add(b, g, r int) {
	t.b += b
	t.g += g
	t.r += r
}

// DistributeError splits e into the Floyd-Steinberg shares 7/16, 5/16, and
// 3/16, each rounded toward negative infinity, and a remainder that makes
// the four parts sum to e exactly.
func DistributeError(e int) (right, below, behind, ahead int) {
	right = (e * 7) >> 4
	below = (e * 5) >> 4
	behind = (e * 3) >> 4
	ahead = e - right - below - behind
	return right, below, behind, ahead
}
