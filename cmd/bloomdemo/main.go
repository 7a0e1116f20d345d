// Command bloomdemo applies the bloom effect to an image on the CPU.
//
// Usage:
//
//	bloomdemo -in scene.png -out bloom.png -mode kawase
//	bloomdemo -in scene.jpg -preset glare.json -dump
//
// PNG, JPEG, BMP, TIFF and WebP inputs are accepted. The output is always
// PNG.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/bloom"
	"github.com/gogpu/bloom/internal/software"
	"github.com/gogpu/bloom/rdg"
	"github.com/gogpu/bloom/shader"
)

func main() {
	var (
		in      = flag.String("in", "", "input image")
		out     = flag.String("out", "bloom.png", "output PNG")
		preset  = flag.String("preset", "", "JSON preset (defaults if empty)")
		mode    = flag.String("mode", "", "override mode: standard, directional-glare, kawase, soft-focus")
		library = flag.String("library", "", "program library: naga or builtin (best available if empty)")
		backend = flag.String("executor", "", "executor: parallel or serial (best available if empty)")
		scale   = flag.Float64("scale", 1, "resize the input before processing")
		dump    = flag.Bool("dump", false, "print the compiled render graph")
		verbose = flag.Bool("v", false, "debug logging")
		workers = flag.Int("workers", 0, "CPU workers per pass (GOMAXPROCS if 0)")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	bloom.SetLogger(logger)

	opts := options{
		in: *in, out: *out, preset: *preset, mode: *mode, library: *library, executor: *backend,
		scale: *scale, dump: *dump, verbose: *verbose, workers: *workers,
	}
	if err := run(context.Background(), logger, opts); err != nil {
		logger.Error("bloomdemo failed", "err", err)
		os.Exit(1)
	}
}

type options struct {
	in, out, preset, mode, library, executor string

	scale   float64
	dump    bool
	verbose bool
	workers int
}

func run(ctx context.Context, logger *slog.Logger, o options) error {
	if o.in == "" {
		return errors.New("missing -in")
	}
	src, err := loadImage(o.in, o.scale)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	cfg.Debug.Logging = o.verbose

	lib, libName, err := pickLibrary(shader.NewLibraryRegistry(), o.library)
	if err != nil {
		return err
	}

	reg := bloom.NewRegistry()
	fx := bloom.NewEffect(reg, cfg)
	defer fx.Close()
	ext := bloom.NewExtension(reg, bloom.WithPrograms(lib), bloom.WithLogger(logger))

	scene := software.FromImage(src)
	b := rdg.NewBuilder()
	sceneTex := b.RegisterExternal("SceneColor",
		rdg.NewTextureDesc2D(image.Pt(scene.Width, scene.Height), gputypes.TextureFormatRGBA16Float))
	sceneST := rdg.FullScreenTexture(sceneTex)

	result, err := ext.Build(b, bloom.StandardView(), bloom.Inputs{SceneColor: sceneST})
	if err != nil {
		logger.Warn("bloom skipped, writing the input unchanged", "err", err)
		result = sceneST
	}

	if o.dump {
		if err := b.Dump(os.Stdout, result.Texture); err != nil {
			return err
		}
	}

	execs := executors(o.workers)
	execName := execs.BestName()
	if o.executor != "" {
		if !execs.Has(o.executor) {
			return fmt.Errorf("unknown executor %q, have %v", o.executor, execs.Available())
		}
		execName = o.executor
	}
	exec := execs.Get(execName)
	defer exec.Close()
	if err := exec.Bind(sceneTex, scene); err != nil {
		return err
	}

	start := time.Now()
	if err := b.Execute(ctx, exec, result.Texture); err != nil {
		return err
	}
	logger.Info("bloom applied",
		"mode", cfg.Mode,
		"library", libName,
		"executor", execName,
		"size", fmt.Sprintf("%dx%d", scene.Width, scene.Height),
		"passes", len(b.Passes()),
		"elapsed", time.Since(start).Round(time.Millisecond))

	return writePNG(o.out, exec.Image(result.Texture).NRGBA(result.Rect))
}

// pickLibrary returns the named program library, or the best one when
// name is empty. Only the chosen library is constructed.
func pickLibrary(libs *gpucontext.Registry[shader.Library], name string) (shader.Library, string, error) {
	if name == "" {
		return libs.Best(), libs.BestName(), nil
	}
	if !libs.Has(name) {
		return nil, "", fmt.Errorf("unknown library %q, have %v", name, libs.Available())
	}
	return libs.Get(name), name, nil
}

// executors lists the CPU executor variants, most parallel first.
func executors(workers int) *gpucontext.Registry[*software.Executor] {
	r := gpucontext.NewRegistry[*software.Executor](gpucontext.WithPriority("parallel", "serial"))
	r.Register("parallel", func() *software.Executor { return software.NewExecutor(software.WithWorkers(workers)) })
	r.Register("serial", func() *software.Executor { return software.NewExecutor(software.WithWorkers(1)) })
	return r
}

func loadConfig(o options) (bloom.Config, error) {
	cfg := bloom.DefaultConfig()
	if o.preset != "" {
		var err error
		if cfg, err = bloom.LoadPresetFile(o.preset); err != nil {
			return cfg, err
		}
	}
	if o.mode != "" {
		var m bloom.Mode
		if err := m.UnmarshalText([]byte(o.mode)); err != nil {
			return cfg, err
		}
		cfg = cfg.WithMode(m)
	}
	return cfg, nil
}

func loadImage(path string, scale float64) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	slog.Debug("decoded input", "format", format, "bounds", img.Bounds())

	if scale == 1 || scale <= 0 {
		return img, nil
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
