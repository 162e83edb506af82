package histogram

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/quantize-mcp/internal/fault"
	"github.com/ironsheep/quantize-mcp/internal/pixel"
)

type options struct {
	workers   int
	batchRows int
}

// Option configures Create and CreateOpaque.
type Option func(*options)

// WithWorkers bounds the number of goroutines scanning rows. Values below 1
// select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithBatchRows sets how many rows a worker scans between cancellation
// checks. Values below 1 select a size based on the image height.
func WithBatchRows(n int) Option {
	return func(o *options) {
		o.batchRows = n
	}
}

func resolveOptions(height int, opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	if o.batchRows < 1 {
		// A few batches per worker keeps the pool busy when rows are uneven.
		o.batchRows = max(1, min(64, height/(o.workers*4)))
	}
	return o
}

// Create counts every pixel of src.
func Create[T pixel.Info](ctx context.Context, src pixel.Source[T], opts ...Option) (*Histogram[T], error) {
	return create(ctx, src, func(c T) (T, bool) { return c, true }, opts)
}

// CreateOpaque counts the fully opaque pixels of src as 24-bit colors. Pixels
// with alpha below 255 are skipped.
func CreateOpaque(ctx context.Context, src pixel.Source[pixel.Bgra32], opts ...Option) (*Histogram[pixel.Bgr24], error) {
	return create(ctx, src, func(c pixel.Bgra32) (pixel.Bgr24, bool) {
		return c.ToBgr24(), c.A == 255
	}, opts)
}

// create scans src in row batches on a bounded worker pool, then merges the
// partial builders with a balanced parallel reduction.
func create[TIn, TOut pixel.Info](
	ctx context.Context,
	src pixel.Source[TIn],
	project func(TIn) (TOut, bool),
	opts []Option,
) (*Histogram[TOut], error) {
	if err := fault.Check(ctx); err != nil {
		return nil, err
	}

	size := src.Size()
	o := resolveOptions(size.Height, opts)

	pool := &builderPool[TOut]{}
	rowBuffers := sync.Pool{
		New: func() any {
			buf := make([]TIn, size.Width)
			return &buf
		},
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) error {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for top := 0; top < size.Height; top += o.batchRows {
		if gctx.Err() != nil {
			break
		}
		bottom := min(top+o.batchRows, size.Height)
		g.Go(func() error {
			if err := fault.Check(gctx); err != nil {
				return fail(err)
			}

			b := pool.get()
			defer pool.put(b)

			bufPtr := rowBuffers.Get().(*[]TIn)
			defer rowBuffers.Put(bufPtr)
			row := *bufPtr

			for y := top; y < bottom; y++ {
				if err := pixel.CopyRow(src, y, row); err != nil {
					return fail(fmt.Errorf("histogram: copy row %d: %w", y, err))
				}
				for _, c := range row {
					if out, ok := project(c); ok {
						b.Add(out)
					}
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := fault.Collapse(errs); err != nil {
		return nil, err
	}
	if err := fault.Check(ctx); err != nil {
		return nil, err
	}

	merged, err := mergeAll(ctx, pool.drain())
	if err != nil {
		return nil, err
	}
	if err := fault.Check(ctx); err != nil {
		return nil, err
	}
	return merged.Build(), nil
}

// mergeAll reduces builders pairwise, forking one half onto a new goroutine
// at every level. Every merge folds the smaller builder into the larger.
func mergeAll[T comparable](ctx context.Context, builders []*Builder[T]) (*Builder[T], error) {
	switch len(builders) {
	case 0:
		return NewBuilder[T](), nil
	case 1:
		return builders[0], nil
	}
	if err := fault.Check(ctx); err != nil {
		return nil, err
	}

	mid := len(builders) / 2
	var (
		left    *Builder[T]
		leftErr error
		wg      sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		left, leftErr = mergeAll(ctx, builders[:mid])
	}()
	right, rightErr := mergeAll(ctx, builders[mid:])
	wg.Wait()

	if err := fault.Collapse([]error{leftErr, rightErr}); err != nil {
		return nil, err
	}
	if err := fault.Check(ctx); err != nil {
		return nil, err
	}
	return unionIntoLarger(left, right), nil
}

// builderPool lends builders to scanning workers. Unlike sync.Pool it never
// discards an entry, since every builder holds counts that must be merged.
type builderPool[T comparable] struct {
	mu   sync.Mutex
	free []*Builder[T]
}

func (p *builderPool[T]) get() *Builder[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.free); n > 0 {
		b := p.free[n-1]
		p.free = p.free[:n-1]
		return b
	}
	return NewBuilder[T]()
}

func (p *builderPool[T]) put(b *Builder[T]) {
	p.mu.Lock()
	p.free = append(p.free, b)
	p.mu.Unlock()
}

func (p *builderPool[T]) drain() []*Builder[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.free
	p.free = nil
	return out
}
