package quantize

import (
	"errors"
	"image"
	"slices"
	"testing"

	"github.com/ironsheep/quantize-mcp/internal/fault"
	"github.com/ironsheep/quantize-mcp/internal/pixel"
)

func blackWhite(t *testing.T) PaletteMap {
	t.Helper()
	pm, err := NewLinearSearchPaletteMap([]pixel.Bgra32{opaque(0, 0, 0), opaque(255, 255, 255)})
	if err != nil {
		t.Fatalf("NewLinearSearchPaletteMap failed: %v", err)
	}
	return pm
}

func uniformBitmap(width, height int, c pixel.Bgra32) *pixel.Bitmap[pixel.Bgra32] {
	b := pixel.NewBitmap[pixel.Bgra32](width, height)
	b.Fill(c)
	return b
}

func readAll(t *testing.T, q *QuantizedSource) []pixel.Indexed8 {
	t.Helper()
	size := q.Size()
	out := make([]pixel.Indexed8, size.Area())
	if err := q.CopyPixels(nil, out, size.Width); err != nil {
		t.Fatalf("CopyPixels failed: %v", err)
	}
	return out
}

func TestDistributeError(t *testing.T) {
	tests := []struct {
		e                           int
		right, below, behind, ahead int
	}{
		{0, 0, 0, 0, 0},
		{16, 7, 5, 3, 1},
		{-16, -7, -5, -3, -1},
		{1, 0, 0, 0, 1},
		{-1, -1, -1, -1, 2},
		{100, 43, 31, 18, 8},
	}
	for _, tt := range tests {
		r, b, h, a := DistributeError(tt.e)
		if r != tt.right || b != tt.below || h != tt.behind || a != tt.ahead {
			t.Errorf("DistributeError(%d): got (%d,%d,%d,%d), want (%d,%d,%d,%d)",
				tt.e, r, b, h, a, tt.right, tt.below, tt.behind, tt.ahead)
		}
	}

	for e := -1024; e <= 1024; e++ {
		r, b, h, a := DistributeError(e)
		if r+b+h+a != e {
			t.Fatalf("DistributeError(%d): parts sum to %d", e, r+b+h+a)
		}
	}
}

func TestNewQuantizedSource_InvalidArguments(t *testing.T) {
	src := uniformBitmap(2, 2, opaque(1, 2, 3))
	pm := blackWhite(t)

	tests := []struct {
		name  string
		src   pixel.Source[pixel.Bgra32]
		pm    PaletteMap
		level int
	}{
		{"negative level", src, pm, -1},
		{"level too high", src, pm, 9},
		{"nil source", nil, pm, 0},
		{"nil map", src, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQuantizedSource(tt.src, tt.pm, tt.level)
			if !errors.Is(err, fault.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestQuantizedSource_Metadata(t *testing.T) {
	pm := blackWhite(t)
	q, err := NewQuantizedSource(uniformBitmap(7, 3, opaque(9, 9, 9)), pm, 8)
	if err != nil {
		t.Fatalf("NewQuantizedSource failed: %v", err)
	}
	if q.Format() != pixel.FormatIndexed8 {
		t.Errorf("Format: got %v, want Indexed8", q.Format())
	}
	if q.Size() != (pixel.Size{Width: 7, Height: 3}) {
		t.Errorf("Size: got %+v", q.Size())
	}
	if !slices.Equal(q.Palette(), pm.Colors()) {
		t.Errorf("Palette: got %v, want %v", q.Palette(), pm.Colors())
	}
	if q.NextY() != 0 {
		t.Errorf("NextY before first read: got %d, want 0", q.NextY())
	}
}

func TestQuantizedSource_ExactColorsHaveNoError(t *testing.T) {
	for _, level := range []int{0, 4, 8} {
		q, err := NewQuantizedSource(uniformBitmap(9, 5, opaque(255, 255, 255)), blackWhite(t), level)
		if err != nil {
			t.Fatalf("NewQuantizedSource failed: %v", err)
		}
		for i, idx := range readAll(t, q) {
			if idx != 1 {
				t.Fatalf("level %d pixel %d: got %d, want 1", level, i, idx)
			}
		}
	}
}

func TestQuantizedSource_NoDitherMapsEachPixel(t *testing.T) {
	src := createNoiseBitmap(13, 11, 5)
	pm, err := NewLinearSearchPaletteMap(randomPalette(24, 6))
	if err != nil {
		t.Fatalf("NewLinearSearchPaletteMap failed: %v", err)
	}
	q, err := NewQuantizedSource(src, pm, 0)
	if err != nil {
		t.Fatalf("NewQuantizedSource failed: %v", err)
	}
	got := readAll(t, q)
	for y := 0; y < 11; y++ {
		for x := 0; x < 13; x++ {
			want := pm.FindClosestPaletteIndex(src.At(x, y))
			if got[y*13+x] != pixel.Indexed8(want) {
				t.Fatalf("(%d,%d): got %d, want %d", x, y, got[y*13+x], want)
			}
		}
	}

	// Rows can be read in any order without dithering.
	rect := image.Rect(3, 7, 10, 9)
	part := make([]pixel.Indexed8, rect.Dx()*rect.Dy())
	if err := q.CopyPixels(&rect, part, rect.Dx()); err != nil {
		t.Fatalf("CopyPixels failed: %v", err)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if part[(y-rect.Min.Y)*rect.Dx()+x-rect.Min.X] != got[y*13+x] {
				t.Fatalf("(%d,%d): region read differs from full read", x, y)
			}
		}
	}
}

func TestQuantizedSource_MidGrayDithersToHalf(t *testing.T) {
	const w, h = 64, 64
	q, err := NewQuantizedSource(uniformBitmap(w, h, opaque(128, 128, 128)), blackWhite(t), MaxDitherLevel)
	if err != nil {
		t.Fatalf("NewQuantizedSource failed: %v", err)
	}
	white := 0
	for _, idx := range readAll(t, q) {
		if idx == 1 {
			white++
		}
	}
	frac := float64(white) / float64(w*h)
	if frac < 0.45 || frac > 0.55 {
		t.Errorf("white fraction: got %.3f, want about 0.5", frac)
	}
	if q.NextY() != h {
		t.Errorf("NextY after full read: got %d, want %d", q.NextY(), h)
	}
}

func TestQuantizedSource_NoDitherIsThreshold(t *testing.T) {
	q, err := NewQuantizedSource(uniformBitmap(8, 8, opaque(100, 100, 100)), blackWhite(t), 0)
	if err != nil {
		t.Fatalf("NewQuantizedSource failed: %v", err)
	}
	for i, idx := range readAll(t, q) {
		if idx != 0 {
			t.Fatalf("pixel %d: got %d, want 0", i, idx)
		}
	}
}

func TestQuantizedSource_RowByRowMatchesFullRead(t *testing.T) {
	src := createNoiseBitmap(17, 12, 11)
	pm, err := NewProximityPaletteMap(randomPalette(12, 3))
	if err != nil {
		t.Fatalf("NewProximityPaletteMap failed: %v", err)
	}

	full, err := NewQuantizedSource(src, pm, 6)
	if err != nil {
		t.Fatalf("NewQuantizedSource failed: %v", err)
	}
	want := readAll(t, full)

	rows, err := NewQuantizedSource(src, pm, 6)
	if err != nil {
		t.Fatalf("NewQuantizedSource failed: %v", err)
	}
	got := make([]pixel.Indexed8, len(want))
	for y := 0; y < 12; y++ {
		if err := pixel.CopyRow[pixel.Indexed8](rows, y, got[y*17:]); err != nil {
			t.Fatalf("CopyRow(%d) failed: %v", y, err)
		}
		if rows.NextY() != y+1 {
			t.Errorf("NextY after row %d: got %d, want %d", y, rows.NextY(), y+1)
		}
	}
	if !slices.Equal(got, want) {
		t.Error("row-by-row read differs from full read")
	}
}

func TestQuantizedSource_RewindAndSkip(t *testing.T) {
	const w, h = 10, 9
	src := createNoiseBitmap(w, h, 21)
	pm, err := NewLinearSearchPaletteMap(randomPalette(8, 13))
	if err != nil {
		t.Fatalf("NewLinearSearchPaletteMap failed: %v", err)
	}
	ref, err := NewQuantizedSource(src, pm, 8)
	if err != nil {
		t.Fatalf("NewQuantizedSource failed: %v", err)
	}
	want := readAll(t, ref)

	q, err := NewQuantizedSource(src, pm, 8)
	if err != nil {
		t.Fatalf("NewQuantizedSource failed: %v", err)
	}

	tests := []struct {
		name      string
		rect      image.Rectangle
		wantNextY int
	}{
		{"skip ahead from fresh", image.Rect(2, 3, 8, 5), 5},
		{"continue", image.Rect(0, 5, w, 6), 6},
		{"rewind", image.Rect(1, 1, 4, 3), 3},
		{"skip again", image.Rect(0, 7, w, h), h},
		{"rewind to top", image.Rect(0, 0, w, 1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]pixel.Indexed8, tt.rect.Dx()*tt.rect.Dy())
			if err := q.CopyPixels(&tt.rect, dst, tt.rect.Dx()); err != nil {
				t.Fatalf("CopyPixels failed: %v", err)
			}
			for y := tt.rect.Min.Y; y < tt.rect.Max.Y; y++ {
				for x := tt.rect.Min.X; x < tt.rect.Max.X; x++ {
					got := dst[(y-tt.rect.Min.Y)*tt.rect.Dx()+x-tt.rect.Min.X]
					if got != want[y*w+x] {
						t.Fatalf("(%d,%d): got %d, want %d", x, y, got, want[y*w+x])
					}
				}
			}
			if q.NextY() != tt.wantNextY {
				t.Errorf("NextY: got %d, want %d", q.NextY(), tt.wantNextY)
			}
		})
	}
}

func TestQuantizedSource_TransparentPixelsSpreadNoError(t *testing.T) {
	colors := []pixel.Bgra32{opaque(0, 0, 0), opaque(255, 255, 255), pixel.TransparentBlack}
	pm, err := NewLinearSearchPaletteMap(colors)
	if err != nil {
		t.Fatalf("NewLinearSearchPaletteMap failed: %v", err)
	}
	src := uniformBitmap(4, 2, pixel.NewBgra32(200, 200, 200, 0))
	src.Set(3, 0, opaque(0, 0, 0))
	src.Set(2, 1, opaque(0, 0, 0))

	q, err := NewQuantizedSource(src, pm, MaxDitherLevel)
	if err != nil {
		t.Fatalf("NewQuantizedSource failed: %v", err)
	}
	got := readAll(t, q)
	want := []pixel.Indexed8{2, 2, 2, 0, 2, 2, 0, 2}
	if !slices.Equal(got, want) {
		t.Errorf("indices: got %v, want %v", got, want)
	}
}

func TestQuantizedSource_BadRect(t *testing.T) {
	q, err := NewQuantizedSource(uniformBitmap(4, 4, opaque(0, 0, 0)), blackWhite(t), 8)
	if err != nil {
		t.Fatalf("NewQuantizedSource failed: %v", err)
	}
	rect := image.Rect(0, 0, 5, 1)
	err = q.CopyPixels(&rect, make([]pixel.Indexed8, 8), 5)
	if !errors.Is(err, fault.ErrInvalidArgument) {
		t.Errorf("out-of-bounds rect: expected ErrInvalidArgument, got %v", err)
	}

	rect = image.Rect(0, 0, 4, 2)
	err = q.CopyPixels(&rect, make([]pixel.Indexed8, 7), 4)
	if !errors.Is(err, fault.ErrInvalidArgument) {
		t.Errorf("short buffer: expected ErrInvalidArgument, got %v", err)
	}
}

func TestDitherState_CursorPastRequest(t *testing.T) {
	q, err := NewQuantizedSource(uniformBitmap(3, 3, opaque(0, 0, 0)), blackWhite(t), 8)
	if err != nil {
		t.Fatalf("NewQuantizedSource failed: %v", err)
	}
	s := newDitherState(3)
	s.nextY = 2
	err = s.run(q, image.Rect(0, 1, 3, 2), make([]pixel.Indexed8, 3), 3)
	if !errors.Is(err, fault.ErrInvalidOperation) {
		t.Errorf("expected ErrInvalidOperation, got %v", err)
	}
}

func TestPipeline_NoiseImage(t *testing.T) {
	src := createNoiseBitmap(40, 30, 77)
	palette, err := NewOctreeQuantizer().GeneratePaletteFromSource(t.Context(), src, 64, true)
	if err != nil {
		t.Fatalf("GeneratePaletteFromSource failed: %v", err)
	}
	pm, err := NewPaletteMap(palette)
	if err != nil {
		t.Fatalf("NewPaletteMap failed: %v", err)
	}
	cached, err := NewCachingPaletteMap(pm)
	if err != nil {
		t.Fatalf("NewCachingPaletteMap failed: %v", err)
	}
	q, err := NewQuantizedSource(src, cached, MaxDitherLevel)
	if err != nil {
		t.Fatalf("NewQuantizedSource failed: %v", err)
	}
	for i, idx := range readAll(t, q) {
		if int(idx) >= len(palette)-1 {
			t.Fatalf("pixel %d: index %d out of opaque range (palette %d)", i, idx, len(palette))
		}
	}
}
