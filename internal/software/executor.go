package software

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/bloom/rdg"
)

var (
	// ErrUnbound is returned when a pass samples an external texture that
	// has no image bound.
	ErrUnbound = errors.New("software: external texture not bound")

	// ErrUnknownParams is returned for a parameter block no program accepts.
	ErrUnknownParams = errors.New("software: unknown program parameters")

	// ErrInputs is returned when a pass binds the wrong number of inputs.
	ErrInputs = errors.New("software: wrong input count")

	// ErrSize is returned when a bound image does not match its texture.
	ErrSize = errors.New("software: image size mismatch")
)

// Executor runs rdg passes on the CPU. It implements rdg.Executor.
//
// Transient textures get images on first write; a transient texture read
// before it is written samples as zero. External textures must be bound
// with Bind before they are read.
type Executor struct {
	mu      sync.Mutex
	images  map[*rdg.Texture]*Image
	sampler Sampler
	pool    *bandPool
}

var _ rdg.Executor = (*Executor)(nil)

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithWorkers sets the number of goroutines used per pass. Zero or less
// uses GOMAXPROCS.
func WithWorkers(n int) ExecutorOption {
	return func(e *Executor) {
		e.pool = newBandPool(n)
	}
}

// WithSampler replaces the bilinear clamp-to-edge sampler.
func WithSampler(desc gputypes.SamplerDescriptor) ExecutorOption {
	return func(e *Executor) {
		e.sampler = NewSampler(desc)
	}
}

// NewExecutor creates an executor. Call Close to stop its workers.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		images:  make(map[*rdg.Texture]*Image),
		sampler: BilinearClamp(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.pool == nil {
		e.pool = newBandPool(0)
	}
	return e
}

// Bind attaches img to t. The image must match the texture extent.
func (e *Executor) Bind(t *rdg.Texture, img *Image) error {
	if img.Width != t.Width() || img.Height != t.Height() {
		return fmt.Errorf("%w: %s is %v, image is %dx%d", ErrSize, t.Name(), t.Extent(), img.Width, img.Height)
	}
	e.mu.Lock()
	e.images[t] = img
	e.mu.Unlock()
	return nil
}

// Image returns the image backing t, or nil if t was never bound or
// written.
func (e *Executor) Image(t *rdg.Texture) *Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.images[t]
}

// Reset forgets every image, bound or produced.
func (e *Executor) Reset() {
	e.mu.Lock()
	clear(e.images)
	e.mu.Unlock()
}

// Close stops the worker goroutines.
func (e *Executor) Close() error {
	e.pool.close()
	return nil
}

// ExecutePass runs p over its target rectangle.
func (e *Executor) ExecutePass(ctx context.Context, p *rdg.Pass) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	inputs := make([]*Image, len(p.Inputs))
	for i, t := range p.Inputs {
		img, err := e.input(t)
		if err != nil {
			return err
		}
		inputs[i] = img
	}
	frag, err := program(p.Params, inputs, e.sampler)
	if err != nil {
		return err
	}

	dst := e.target(p.Target)
	r := p.Target.Rect
	e.pool.rows(r.Min.Y, r.Max.Y, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				dst.Set(x, y, frag(mgl32.Vec2{float32(x) + 0.5, float32(y) + 0.5}))
			}
		}
	})
	return nil
}

func (e *Executor) input(t *rdg.Texture) (*Image, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if img, ok := e.images[t]; ok {
		return img, nil
	}
	if t.External() {
		return nil, fmt.Errorf("%w: %s", ErrUnbound, t.Name())
	}
	img := NewImage(t.Width(), t.Height())
	e.images[t] = img
	return img, nil
}

// target returns the image for rt, allocating it on first use and clearing
// it when the target asks for a clear.
func (e *Executor) target(rt rdg.RenderTarget) *Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	img, ok := e.images[rt.Texture]
	if !ok {
		img = NewImage(rt.Texture.Width(), rt.Texture.Height())
		e.images[rt.Texture] = img
	}
	if rt.Load == gputypes.LoadOpClear {
		c := rt.Texture.Desc().Clear
		img.Fill(mgl32.Vec4{float32(c.R), float32(c.G), float32(c.B), float32(c.A)})
	}
	return img
}
