package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/ironsheep/quantize-mcp/internal/config"
	"github.com/ironsheep/quantize-mcp/internal/imaging"
	"github.com/ironsheep/quantize-mcp/internal/logging"
)

type quantizeFlags struct {
	in          string
	out         string
	colors      int
	dither      int
	transparent bool
	matrix      string
}

func parseQuantizeFlags(cfg config.Config, args []string, output io.Writer) (*quantizeFlags, error) {
	fs := flag.NewFlagSet("quantize", flag.ContinueOnError)
	fs.SetOutput(output)

	f := &quantizeFlags{}
	fs.StringVar(&f.in, "in", "", "input image path (required)")
	fs.StringVar(&f.out, "out", "", "output PNG path (required)")
	fs.IntVar(&f.colors, "colors", cfg.MaxColors, "palette size including the transparent entry, 2-256")
	fs.IntVar(&f.dither, "dither", cfg.DitherLevel, "Floyd-Steinberg dither level, 0-8")
	fs.BoolVar(&f.transparent, "transparent", false, "reserve the last palette entry for transparent pixels")
	fs.StringVar(&f.matrix, "matrix", "", fmt.Sprintf("diffusion matrix instead of the built-in dithering %v", imaging.MatrixNames()))

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.in == "" || f.out == "" {
		fs.Usage()
		return nil, errors.New("both -in and -out are required")
	}
	return f, nil
}

func runQuantize(ctx context.Context, cfg config.Config, args []string) error {
	f, err := parseQuantizeFlags(cfg, args, flag.CommandLine.Output())
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ToolTimeout)
	defer cancel()

	log := logging.With(logging.ComponentQuantize)
	start := time.Now()

	img, err := imaging.NewImageCache().Load(f.in)
	if err != nil {
		return err
	}
	result, err := imaging.QuantizeImage(ctx, img, imaging.QuantizeOptions{
		MaxColors:      f.colors,
		AddTransparent: f.transparent,
		DitherLevel:    f.dither,
		Matrix:         f.matrix,
		Workers:        cfg.Workers,
	})
	if err != nil {
		return err
	}
	if err := imaging.Save(result.Image, f.out); err != nil {
		return err
	}

	log.Info("quantized image",
		"in", f.in, "out", f.out,
		"colors", len(result.Palette), "dither", f.dither, "matrix", f.matrix,
		"elapsed", time.Since(start))
	return nil
}
