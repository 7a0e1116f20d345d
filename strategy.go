package bloom

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/bloom/rdg"
	"github.com/gogpu/bloom/screen"
	"github.com/gogpu/bloom/shader"
)

// Radius scales applied to Config.Size. They were tuned against the
// half-resolution bright pass and are kept as authored.
const (
	standardRadiusScale = 0.1
	glareRadiusScale    = 0.05
)

// strategy is the blur variant resolved for one frame. The set of variants
// is closed; buildBlur switches over it exhaustively.
type strategy interface {
	isStrategy()
}

// standardBlur ping-pongs separable blurs between two buffers.
type standardBlur struct {
	passes  int
	radius  float32
	samples int
}

// glareBlur extracts angular streaks, accumulates them and blurs lightly.
type glareBlur struct {
	count    int
	length   float32 // in bright-pass pixels
	rotation float32 // degrees
	falloff  float32
	radius   float32
	samples  int

	fallback standardBlur
}

// kawaseBlur builds a down/up mip pyramid straight from the scene color.
type kawaseBlur struct {
	mips        int
	radius      float32
	threshold   float32
	knee        float32
	highQuality bool

	fallback standardBlur
}

// softFocusBlur is the standard graph fed by a near-zero threshold.
type softFocusBlur struct {
	standardBlur
}

func (standardBlur) isStrategy()  {}
func (glareBlur) isStrategy()     {}
func (kawaseBlur) isStrategy()    {}
func (softFocusBlur) isStrategy() {}

// resolveStrategy clamps the mode settings of cfg into a strategy payload.
// divisor is the bright-pass downsample divisor.
func resolveStrategy(cfg Config, divisor int) strategy {
	standard := standardBlur{
		passes:  clampInt(cfg.BlurPasses, 1, 4),
		radius:  cfg.Size * standardRadiusScale,
		samples: clampInt(cfg.BlurSamples, 5, 13),
	}

	switch cfg.Mode {
	case ModeDirectionalGlare:
		return glareBlur{
			count:    clampInt(cfg.Glare.Count, 2, 16),
			length:   mathClamp(cfg.Glare.Length, 5, 200) / float32(max(divisor, 1)),
			rotation: cfg.Glare.Rotation,
			falloff:  mathClamp(cfg.Glare.Falloff, 0.5, 10),
			radius:   cfg.Size * glareRadiusScale,
			samples:  standard.samples,
			fallback: standard,
		}
	case ModeKawase:
		var knee float32
		if cfg.Kawase.SoftThreshold {
			knee = mathClamp(cfg.Kawase.Knee, 0, 1)
		}
		return kawaseBlur{
			mips:        clampInt(cfg.Kawase.MipCount, 3, 8),
			radius:      mathClamp(cfg.Kawase.FilterRadius, 0.0001, 0.01),
			threshold:   cfg.Threshold,
			knee:        knee,
			highQuality: cfg.HighQualityUpsampling,
			fallback:    standard,
		}
	case ModeSoftFocus:
		return softFocusBlur{standard}
	default:
		return standard
	}
}

// withAvailablePrograms replaces a strategy whose programs are missing by
// its standard fallback. The returned error wraps errFallback when a
// fallback happened, or is a ProgramError when even the fallback cannot
// run.
func withAvailablePrograms(s strategy, lib shader.Library) (strategy, error) {
	var fellBack error
	switch v := s.(type) {
	case glareBlur:
		if missing := shader.Missing(lib, shader.GlareStreak, shader.GlareAccumulate); len(missing) > 0 {
			fellBack = fmt.Errorf("%w: %w", errFallback, &ProgramError{Program: missing[0], Stage: "directional glare"})
			s = v.fallback
		}
	case kawaseBlur:
		if missing := shader.Missing(lib, shader.KawaseDownsample, shader.KawaseUpsample); len(missing) > 0 {
			fellBack = fmt.Errorf("%w: %w", errFallback, &ProgramError{Program: missing[0], Stage: "kawase"})
			s = v.fallback
		}
	}

	switch s.(type) {
	case standardBlur, softFocusBlur, glareBlur:
		if !lib.Available(shader.Blur) {
			return nil, &ProgramError{Program: shader.Blur, Stage: "blur"}
		}
	}
	return s, fellBack
}

// buildBlur adds the passes of the frame's strategy and returns the bloom
// texture, sized like the bright pass.
func buildBlur(b *rdg.Builder, f *frame, bright *rdg.Texture) (*rdg.Texture, error) {
	switch s := f.strategy.(type) {
	case standardBlur:
		return buildStandard(b, f, s, bright)
	case softFocusBlur:
		return buildStandard(b, f, s.standardBlur, bright)
	case glareBlur:
		return buildGlare(b, f, s, bright)
	case kawaseBlur:
		return buildKawase(b, f, s)
	default:
		return nil, fmt.Errorf("bloom: unknown strategy %T", s)
	}
}

func buildStandard(b *rdg.Builder, f *frame, s standardBlur, src *rdg.Texture) (*rdg.Texture, error) {
	temp := b.CreateTexture(f.brightDesc, "ClassicBloom.BlurTemp")
	blurred := b.CreateTexture(f.brightDesc, "ClassicBloom.Blurred")
	for range s.passes {
		if err := addBlurPair(b, f, "BlurHorizontal", "BlurVertical", src, temp, blurred, s.radius, s.samples); err != nil {
			return nil, err
		}
		src = blurred
	}
	return blurred, nil
}

// addBlurPair adds a horizontal blur src→temp followed by a vertical blur
// temp→dst over the bright-pass rectangle.
func addBlurPair(b *rdg.Builder, f *frame, hName, vName string, src, temp, dst *rdg.Texture, radius float32, samples int) error {
	size := f.bright.ExtentAndInvExtent()
	h := shader.BlurParams{BufferSizeAndInvSize: size, Direction: mgl32.Vec2{1, 0}, Radius: radius, Samples: samples}
	if _, err := b.AddFullscreenPass(hName, shader.Blur, h, []*rdg.Texture{src}, f.brightTarget(temp)); err != nil {
		return err
	}
	v := shader.BlurParams{BufferSizeAndInvSize: size, Direction: mgl32.Vec2{0, 1}, Radius: radius, Samples: samples}
	_, err := b.AddFullscreenPass(vName, shader.Blur, v, []*rdg.Texture{temp}, f.brightTarget(dst))
	return err
}

// glareBatch is one accumulate pass. Inputs index the streak list; -1 is
// the previous accumulation.
type glareBatch struct {
	Start      int
	Inputs     [4]int
	NumStreaks int
}

// glareBatches plans the accumulation of count streaks. The first batch
// sums up to four streaks, padding with streak 0; each later batch adds up
// to three more streaks to the previous result, padding with its first
// streak.
func glareBatches(count int) []glareBatch {
	if count <= 0 {
		return nil
	}
	first := min(count, 4)
	pick := func(n, base, off int) int {
		if n > off {
			return base + off
		}
		return base
	}
	batches := []glareBatch{{
		Start:      0,
		Inputs:     [4]int{0, pick(first, 0, 1), pick(first, 0, 2), pick(first, 0, 3)},
		NumStreaks: first,
	}}
	for start := 4; start < count; start += 3 {
		n := min(3, count-start)
		batches = append(batches, glareBatch{
			Start:      start,
			Inputs:     [4]int{-1, start, pick(n, start, 1), pick(n, start, 2)},
			NumStreaks: 1 + n,
		})
	}
	return batches
}

func buildGlare(b *rdg.Builder, f *frame, s glareBlur, bright *rdg.Texture) (*rdg.Texture, error) {
	size := f.bright.ExtentAndInvExtent()
	step := 360 / float32(s.count)

	streaks := make([]*rdg.Texture, s.count)
	for i := range streaks {
		angle := mgl32.DegToRad(step*float32(i) + s.rotation)
		sin, cos := math32.Sincos(angle)
		streaks[i] = b.CreateTexture(f.brightDesc, fmt.Sprintf("ClassicBloom.Streak%d", i))
		params := shader.GlareStreakParams{
			BufferSizeAndInvSize: size,
			Direction:            mgl32.Vec2{cos, sin},
			Length:               s.length,
			Falloff:              s.falloff,
		}
		if _, err := b.AddFullscreenPass(fmt.Sprintf("GlareStreak%d", i), shader.GlareStreak, params,
			[]*rdg.Texture{bright}, f.brightTarget(streaks[i])); err != nil {
			return nil, err
		}
	}

	var accum *rdg.Texture
	for _, batch := range glareBatches(s.count) {
		inputs := make([]*rdg.Texture, len(batch.Inputs))
		for j, idx := range batch.Inputs {
			if idx < 0 {
				inputs[j] = accum
			} else {
				inputs[j] = streaks[idx]
			}
		}
		texName, passName := "ClassicBloom.GlareAccum", "GlareAccumulate"
		if batch.Start > 0 {
			texName = fmt.Sprintf("%s%d", texName, batch.Start)
			passName = fmt.Sprintf("%s%d", passName, batch.Start)
		}
		next := b.CreateTexture(f.brightDesc, texName)
		params := shader.GlareAccumulateParams{
			ViewportSizeAndInvSize: f.bright.RectSizeAndInvSize(),
			NumStreaks:             batch.NumStreaks,
		}
		if _, err := b.AddFullscreenPass(passName, shader.GlareAccumulate, params, inputs, f.brightTarget(next)); err != nil {
			return nil, err
		}
		accum = next
	}

	temp := b.CreateTexture(f.brightDesc, "ClassicBloom.GlareBlurTemp")
	blurred := b.CreateTexture(f.brightDesc, "ClassicBloom.GlareBlurred")
	if err := addBlurPair(b, f, "GlareBlurH", "GlareBlurV", accum, temp, blurred, s.radius, s.samples); err != nil {
		return nil, err
	}
	return blurred, nil
}

func buildKawase(b *rdg.Builder, f *frame, s kawaseBlur) (*rdg.Texture, error) {
	mips := screen.MipChain(f.bright, s.mips)
	mipTex := make([]*rdg.Texture, len(mips))
	for m, vp := range mips {
		mipTex[m] = b.CreateTexture(rdg.NewTextureDesc2D(vp.Extent, workFormat), fmt.Sprintf("ClassicBloom.KawaseMip%d", m))
	}

	curve := shader.ThresholdCurve(s.threshold, s.knee)
	src, srcVP := f.source.Texture, f.sourceVP
	for m, vp := range mips {
		params := shader.KawaseDownsampleParams{
			SourceSizeAndInvSize: srcVP.ExtentAndInvExtent(),
			OutputSizeAndInvSize: vp.ExtentAndInvExtent(),
			SvPositionToSourceUV: screen.SvPositionToTextureUV(vp, srcVP),
			Threshold:            s.threshold,
			Knee:                 s.knee,
			Curve:                curve,
			MipLevel:             m,
			KarisAverage:         m == 0,
		}
		target := rdg.RenderTarget{Texture: mipTex[m], Rect: vp.Rect, Load: gputypes.LoadOpClear}
		if _, err := b.AddFullscreenPass(fmt.Sprintf("KawaseDownsample_Mip%d", m), shader.KawaseDownsample, params,
			[]*rdg.Texture{src}, target); err != nil {
			return nil, err
		}
		src, srcVP = mipTex[m], vp
	}

	up := mipTex[len(mipTex)-1]
	for m := len(mips) - 2; m >= 0; m-- {
		vp := mips[m]
		tex := b.CreateTexture(rdg.NewTextureDesc2D(vp.Extent, workFormat), fmt.Sprintf("ClassicBloom.KawaseUpsample%d", m))
		params := shader.KawaseUpsampleParams{
			OutputSizeAndInvSize: vp.ExtentAndInvExtent(),
			FilterRadius:         s.radius,
			HighQuality:          s.highQuality,
		}
		target := rdg.RenderTarget{Texture: tex, Rect: vp.Rect, Load: gputypes.LoadOpClear}
		if _, err := b.AddFullscreenPass(fmt.Sprintf("KawaseUpsample_Mip%d", m), shader.KawaseUpsample, params,
			[]*rdg.Texture{up, mipTex[m]}, target); err != nil {
			return nil, err
		}
		up = tex
	}

	out := b.CreateTexture(f.brightDesc, "ClassicBloom.KawaseBlurred")
	params := shader.KawaseUpsampleParams{
		OutputSizeAndInvSize: f.bright.ExtentAndInvExtent(),
		FilterRadius:         s.radius,
		HighQuality:          s.highQuality,
	}
	if _, err := b.AddFullscreenPass("KawaseUpsample_Final", shader.KawaseUpsample, params,
		[]*rdg.Texture{up, mipTex[0]}, f.brightTarget(out)); err != nil {
		return nil, err
	}
	return out, nil
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
