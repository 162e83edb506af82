package main

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ironsheep/quantize-mcp/internal/config"
)

func testConfig() config.Config {
	return config.Config{MaxColors: 32, DitherLevel: 6, ToolTimeout: time.Minute, LogLevel: "error"}
}

func TestParseQuantizeFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    quantizeFlags
		wantErr bool
	}{
		{
			name: "defaults from config",
			args: []string{"-in", "a.png", "-out", "b.png"},
			want: quantizeFlags{in: "a.png", out: "b.png", colors: 32, dither: 6},
		},
		{
			name: "explicit",
			args: []string{"-in", "a.png", "-out", "b.png", "-colors", "4", "-dither", "0", "-transparent", "-matrix", "atkinson"},
			want: quantizeFlags{in: "a.png", out: "b.png", colors: 4, dither: 0, transparent: true, matrix: "atkinson"},
		},
		{name: "missing out", args: []string{"-in", "a.png"}, wantErr: true},
		{name: "unknown flag", args: []string{"-bogus"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseQuantizeFlags(testConfig(), tt.args, io.Discard)
			if tt.wantErr {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseQuantizeFlags failed: %v", err)
			}
			if *got != tt.want {
				t.Errorf("flags: got %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestRunQuantize(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")

	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 6), uint8(y * 8), 128, 255})
		}
	}
	f, err := os.Create(in)
	if err != nil {
		t.Fatalf("failed to create input: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode input: %v", err)
	}
	f.Close()

	if err := runQuantize(context.Background(), testConfig(), []string{"-in", in, "-out", out, "-colors", "8"}); err != nil {
		t.Fatalf("runQuantize failed: %v", err)
	}

	rf, err := os.Open(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	defer rf.Close()
	decoded, err := png.Decode(rf)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	p, ok := decoded.(*image.Paletted)
	if !ok {
		t.Fatalf("output: got %T, want *image.Paletted", decoded)
	}
	if len(p.Palette) > 8 {
		t.Errorf("palette: got %d entries, want at most 8", len(p.Palette))
	}
	if p.Bounds().Dx() != 40 || p.Bounds().Dy() != 30 {
		t.Errorf("bounds: got %v, want 40x30", p.Bounds())
	}
}

func TestRunQuantize_MissingInput(t *testing.T) {
	dir := t.TempDir()
	err := runQuantize(context.Background(), testConfig(), []string{"-in", filepath.Join(dir, "missing.png"), "-out", filepath.Join(dir, "out.png")})
	if err == nil {
		t.Error("expected an error for a missing input file")
	}
}
