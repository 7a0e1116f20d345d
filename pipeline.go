package bloom

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/bloom/rdg"
	"github.com/gogpu/bloom/screen"
	"github.com/gogpu/bloom/shader"
)

// ScopeName is the event scope wrapping every pass the effect adds.
const ScopeName = "ClassicBloom"

// workFormat is the format of every intermediate bloom buffer.
const workFormat = gputypes.TextureFormatRG11B10Ufloat

// Inputs are the per-frame buffers handed over by the host.
type Inputs struct {
	// SceneColor is the color buffer the effect reads. Its texture must be
	// registered with the builder.
	SceneColor rdg.ScreenTexture

	// OverrideOutput, when valid, receives the composite instead of a new
	// texture.
	OverrideOutput rdg.RenderTarget
}

// Extension builds the bloom graph for every view that asks for it. It
// reads the active configuration from a Registry each frame.
//
// Build and Process may run concurrently for different views, each with
// its own rdg.Builder.
type Extension struct {
	reg      *Registry
	programs shader.Library
	logger   *slog.Logger
	throttle *Throttle
}

// NewExtension creates an extension reading configurations from reg.
//
// Example:
//
//	reg := bloom.NewRegistry()
//	fx := bloom.NewEffect(reg, bloom.DefaultConfig())
//	defer fx.Close()
//	ext := bloom.NewExtension(reg, bloom.WithPrograms(shader.NewEmbeddedLibrary()))
func NewExtension(reg *Registry, opts ...Option) *Extension {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.programs == nil {
		o.programs = shader.Builtin()
	}
	th := NewThrottle(o.clock)
	for c, d := range o.intervals {
		th.SetInterval(c, d)
	}
	return &Extension{
		reg:      reg,
		programs: o.programs,
		logger:   o.logger,
		throttle: th,
	}
}

func (e *Extension) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return Logger()
}

// Throttle returns the diagnostics throttle of e.
func (e *Extension) Throttle() *Throttle { return e.throttle }

// IsActiveThisFrame reports whether any registered configuration is
// enabled.
func (e *Extension) IsActiveThisFrame() bool {
	_, ok := e.reg.Select()
	return ok
}

// Subscribe attaches Process to pass when the view qualifies. Only game,
// editor and play-in-editor worlds with rendering and post-processing on
// and wireframe off qualify, and only on the pass the active configuration
// asks for (motion blur when none is active). A pass that already has a
// callback this frame is left alone. It reports whether a callback was
// added.
func (e *Extension) Subscribe(view View, pass PostProcessPass, subs *Subscriptions) bool {
	if subs == nil || !view.World.Subscribable() {
		return false
	}
	if !view.Show.PostProcessing || !view.Show.Rendering || view.Show.Wireframe {
		return false
	}

	desired, debug := PassMotionBlur, false
	if sel, ok := e.reg.Select(); ok {
		desired, debug = sel.Config.Pass, sel.Config.Debug.Logging
	}
	if pass != desired {
		return false
	}

	if n := subs.Len(pass); n > 0 {
		if debug && e.throttle.Allow(CategoryDuplicate) {
			e.log().Warn("bloom: skipped duplicate subscription", "pass", pass, "callbacks", n)
		}
		return false
	}
	if debug && e.throttle.Allow(CategorySubscribe) {
		e.log().Info("bloom: subscribed", "pass", pass, "world", view.World)
	}
	subs.Add(pass, e.Process)
	return true
}

// frame holds everything resolved once per Build.
type frame struct {
	cfg        Config
	view       View
	source     rdg.ScreenTexture
	sourceVP   screen.Viewport
	divisor    int
	bright     screen.Viewport
	brightDesc rdg.TextureDesc
	strategy   strategy
}

// brightTarget binds the bright-pass rectangle of t.
func (f *frame) brightTarget(t *rdg.Texture) rdg.RenderTarget {
	return rdg.RenderTarget{Texture: t, Rect: f.bright.Rect, Load: gputypes.LoadOpClear}
}

// Build adds the bloom passes for one view to b and returns the composited
// output. On error nothing that writes the output has been added and the
// scene color should be used unchanged.
//
// The checks run before any pass is added: activation gate, geometry,
// program availability. A blur strategy whose programs are missing falls
// back to the standard blur, which is not an error.
func (e *Extension) Build(b *rdg.Builder, view View, in Inputs) (rdg.ScreenTexture, error) {
	sel, ok := e.reg.Select()
	if err := Gate(view, in.SceneColor, sel, ok); err != nil {
		return in.SceneColor, err
	}

	f, err := e.resolve(sel.Config, view, in.SceneColor)
	if err != nil {
		return in.SceneColor, err
	}

	b.PushScope(ScopeName)
	defer b.PopScope()

	bright, err := addBrightPass(b, f)
	if err != nil {
		return in.SceneColor, fmt.Errorf("bloom: bright pass: %w", err)
	}
	bloom, err := buildBlur(b, f, bright)
	if err != nil {
		return in.SceneColor, fmt.Errorf("bloom: blur: %w", err)
	}
	out, params, err := addComposite(b, f, in.OverrideOutput, bloom)
	if err != nil {
		return in.SceneColor, fmt.Errorf("bloom: composite: %w", err)
	}

	if f.cfg.Debug.Logging && e.throttle.Allow(CategoryFrame) {
		e.log().Debug("bloom: frame",
			"mode", f.cfg.Mode,
			"strategy", fmt.Sprintf("%T", f.strategy),
			"divisor", f.divisor,
			"world", view.World,
			viewportAttr("source", f.sourceVP),
			viewportAttr("bright", f.bright),
			viewportAttr("output", out.Viewport()),
			transformAttr("scene_uv", params.SvPositionToSceneColorUV),
			transformAttr("bloom_uv", params.SvPositionToBloomUV),
		)
	}
	return out, nil
}

// resolve computes the frame geometry and picks the strategy that can run
// with the available programs.
func (e *Extension) resolve(cfg Config, view View, source rdg.ScreenTexture) (*frame, error) {
	if !e.programs.Available(shader.BrightPass) {
		return nil, &ProgramError{Program: shader.BrightPass, Stage: "bright pass"}
	}
	if !e.programs.Available(shader.Composite) {
		return nil, &ProgramError{Program: shader.Composite, Stage: "composite"}
	}

	f := &frame{
		cfg:      cfg,
		view:     view,
		source:   source,
		sourceVP: source.Viewport(),
		divisor:  screen.DownsampleDivisor(cfg.DownsampleScale),
	}
	bright, err := screen.Downsample(f.sourceVP, f.divisor)
	if err != nil {
		return nil, fmt.Errorf("bloom: bright viewport of %v: %w", source.Rect, err)
	}
	f.bright = bright
	f.brightDesc = rdg.NewTextureDesc2D(bright.Extent, workFormat)

	s, err := withAvailablePrograms(resolveStrategy(cfg, f.divisor), e.programs)
	switch {
	case errors.Is(err, errFallback):
		if cfg.Debug.Logging && e.throttle.Allow(CategoryFallback) {
			e.log().Warn("bloom: falling back to standard blur", "mode", cfg.Mode, "err", err)
		}
	case err != nil:
		return nil, err
	}
	f.strategy = s
	return f, nil
}

// Process runs Build and returns the scene color unchanged on any error.
// It matches the Callback signature used by Subscribe.
func (e *Extension) Process(b *rdg.Builder, view View, in Inputs) rdg.ScreenTexture {
	out, err := e.Build(b, view, in)
	if err != nil {
		if e.throttle.Allow(CategoryPassThrough) {
			e.log().Debug("bloom: pass through", "err", err)
		}
		return in.SceneColor
	}
	return out
}
