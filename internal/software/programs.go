package software

import (
	"fmt"
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/bloom/shader"
)

// fragment computes one output pixel from its pixel-center position.
type fragment func(pos mgl32.Vec2) mgl32.Vec4

var rec709 = mgl32.Vec3{0.2126, 0.7152, 0.0722}

func luma(c mgl32.Vec3) float32 { return c.Dot(rec709) }

func clamp01(v float32) float32 { return min(max(v, 0), 1) }

func mix3(a, b mgl32.Vec3, t float32) mgl32.Vec3 { return a.Add(b.Sub(a).Mul(t)) }

func rgba(c mgl32.Vec3, a float32) mgl32.Vec4 { return mgl32.Vec4{c[0], c[1], c[2], a} }

func scaleUV(pos mgl32.Vec2, inv mgl32.Vec4) mgl32.Vec2 {
	return mgl32.Vec2{pos[0] * inv[2], pos[1] * inv[3]}
}

// tapCache holds normalized blur weights per half tap count. The blur
// program weighs tap x by exp(-x²/8), a Gaussian with sigma 2 in tap units.
var tapCache sync.Map // int -> []float32

func tapWeights(half int) []float32 {
	if w, ok := tapCache.Load(half); ok {
		return w.([]float32)
	}
	w := make([]float32, 2*half+1)
	var sum float32
	for i := range w {
		x := float32(i - half)
		w[i] = math32.Exp(-(x * x) / 8)
		sum += w[i]
	}
	inv := 1 / max(sum, 1e-4)
	for i := range w {
		w[i] *= inv
	}
	tapCache.Store(half, w)
	return w
}

func brightPass(p shader.BrightPassParams, scene *Image, s Sampler) fragment {
	return func(pos mgl32.Vec2) mgl32.Vec4 {
		c := s.Sample(scene, p.SvPositionToInputTextureUV.Apply(pos)).Vec3()
		l := luma(c)
		contribution := max(l-p.Threshold, 0) / max(l, 1e-4)
		return rgba(c.Mul(contribution*p.Intensity), 1)
	}
}

func blur(p shader.BlurParams, src *Image, s Sampler) fragment {
	inv := mgl32.Vec2{p.BufferSizeAndInvSize[2], p.BufferSizeAndInvSize[3]}
	radius := max(p.Radius, 1e-4)
	half := p.Samples / 2
	weights := tapWeights(half)
	stride := mgl32.Vec2{p.Direction[0] * inv[0] * radius, p.Direction[1] * inv[1] * radius}
	return func(pos mgl32.Vec2) mgl32.Vec4 {
		uv := scaleUV(pos, p.BufferSizeAndInvSize)
		var sum mgl32.Vec3
		for i, w := range weights {
			x := float32(i - half)
			sum = sum.Add(s.Sample(src, uv.Add(stride.Mul(x))).Vec3().Mul(w))
		}
		return rgba(sum, 1)
	}
}

func glareStreak(p shader.GlareStreakParams, src *Image, s Sampler) fragment {
	inv := mgl32.Vec2{p.BufferSizeAndInvSize[2], p.BufferSizeAndInvSize[3]}
	stride := mgl32.Vec2{p.Direction[0] * inv[0], p.Direction[1] * inv[1]}
	taps := int(max(p.Length, 1))
	weights := make([]float32, taps)
	var total float32
	for i := range weights {
		t := float32(i) / float32(taps)
		weights[i] = math32.Pow(1-t, p.Falloff)
		total += weights[i]
	}
	norm := 1 / max(total, 1e-4)
	return func(pos mgl32.Vec2) mgl32.Vec4 {
		uv := scaleUV(pos, p.BufferSizeAndInvSize)
		var sum mgl32.Vec3
		for i, w := range weights {
			sum = sum.Add(s.Sample(src, uv.Sub(stride.Mul(float32(i)))).Vec3().Mul(w))
		}
		return rgba(sum.Mul(norm), 1)
	}
}

func glareAccumulate(p shader.GlareAccumulateParams, streaks []*Image, s Sampler) fragment {
	return func(pos mgl32.Vec2) mgl32.Vec4 {
		uv := scaleUV(pos, p.ViewportSizeAndInvSize)
		var sum mgl32.Vec3
		for i, img := range streaks {
			if i > 0 && p.NumStreaks < i+1 {
				break
			}
			sum = sum.Add(s.Sample(img, uv).Vec3())
		}
		return rgba(sum, 1)
	}
}

func softThreshold(c mgl32.Vec3, curve mgl32.Vec4) mgl32.Vec3 {
	br := max(c[0], c[1], c[2])
	rq := min(max(br-curve[1], 0), curve[2])
	rq = curve[3] * rq * rq
	return c.Mul(max(rq, br-curve[0]) / max(br, 1e-4))
}

func kawaseDownsample(p shader.KawaseDownsampleParams, src *Image, s Sampler) fragment {
	d := mgl32.Vec2{p.SourceSizeAndInvSize[2], p.SourceSizeAndInvSize[3]}
	offsets := [4]mgl32.Vec2{{-d[0], -d[1]}, {d[0], -d[1]}, {-d[0], d[1]}, {d[0], d[1]}}
	return func(pos mgl32.Vec2) mgl32.Vec4 {
		uv := p.SvPositionToSourceUV.Apply(pos)
		center := s.Sample(src, uv).Vec3()

		var color mgl32.Vec3
		if p.KarisAverage {
			wc := 4 / (1 + luma(center))
			sum, weight := center.Mul(wc), wc
			for _, o := range offsets {
				c := s.Sample(src, uv.Add(o)).Vec3()
				w := 1 / (1 + luma(c))
				sum, weight = sum.Add(c.Mul(w)), weight+w
			}
			color = sum.Mul(1 / weight)
		} else {
			sum := center.Mul(4)
			for _, o := range offsets {
				sum = sum.Add(s.Sample(src, uv.Add(o)).Vec3())
			}
			color = sum.Mul(1.0 / 8)
		}
		if p.MipLevel == 0 {
			color = softThreshold(color, p.Curve)
		}
		return rgba(color, 1)
	}
}

// tent is the 3x3 upsample kernel in units of the filter radius.
var tent = [9]struct {
	dx, dy, w float32
}{
	{0, 0, 4},
	{-1, 0, 2}, {1, 0, 2}, {0, -1, 2}, {0, 1, 2},
	{-1, -1, 1}, {1, -1, 1}, {-1, 1, 1}, {1, 1, 1},
}

func kawaseUpsample(p shader.KawaseUpsampleParams, src, mip *Image, s Sampler) fragment {
	r := p.FilterRadius
	return func(pos mgl32.Vec2) mgl32.Vec4 {
		uv := scaleUV(pos, p.OutputSizeAndInvSize)
		var sum mgl32.Vec3
		for _, k := range tent {
			sum = sum.Add(s.Sample(src, uv.Add(mgl32.Vec2{k.dx * r, k.dy * r})).Vec3().Mul(k.w))
		}
		return rgba(s.Sample(mip, uv).Vec3().Add(sum.Mul(1.0/16)), 1)
	}
}

// BlendMode values match the composite program's blend selector.
const (
	BlendScreen = iota
	BlendOverlay
	BlendSoftLight
	BlendHardLight
	BlendLighten
	BlendMultiply
)

// blendChannel applies a separable blend mode to one channel, with base the
// scene and b the bloom.
func blendChannel(base, b float32, mode uint32) float32 {
	switch mode {
	case BlendScreen:
		return 1 - (1-base)*(1-b)
	case BlendOverlay:
		if base <= 0.5 {
			return 2 * base * b
		}
		return 1 - 2*(1-base)*(1-b)
	case BlendSoftLight:
		return base - (1-2*b)*base*(1-base)
	case BlendHardLight:
		if b <= 0.5 {
			return 2 * base * b
		}
		return 1 - 2*(1-base)*(1-b)
	case BlendLighten:
		return max(base, b)
	default:
		return base * b
	}
}

func blend(base, b mgl32.Vec3, mode uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		blendChannel(base[0], b[0], mode),
		blendChannel(base[1], b[1], mode),
		blendChannel(base[2], b[2], mode),
	}
}

func composite(p shader.CompositeParams, scene, bloom *Image, s Sampler) fragment {
	tint := p.Tint.Vec3()
	useScene := p.Tint[3] > 0.5
	scale := float32(1)
	if p.IsGameWorld {
		scale = p.GameModeScale
	}
	return func(pos mgl32.Vec2) mgl32.Vec4 {
		sc := s.Sample(scene, p.SvPositionToSceneColorUV.Apply(pos))
		base := sc.Vec3()
		b := s.Sample(bloom, p.SvPositionToBloomUV.Apply(pos)).Vec3()

		tinted := b
		if !useScene {
			tinted = mgl32.Vec3{b[0] * tint[0], b[1] * tint[1], b[2] * tint[2]}
		}
		g := luma(tinted)
		b = mix3(mgl32.Vec3{g, g, g}, tinted, p.Saturation)

		if p.ProtectHighlights {
			b = b.Mul(1 - clamp01(luma(base))*p.HighlightProtection)
		}
		amount := b.Mul(p.BloomIntensity * scale)
		result := blend(base, amount, p.BlendMode)
		if p.SoftFocusIntensity > 0 {
			soft := blend(base, b.Mul(p.SoftFocusParams[0]), BlendOverlay)
			result = mix3(base, soft, p.SoftFocusIntensity*p.SoftFocusParams[3])
		}
		if p.ShowBloomOnly {
			result = amount
		}
		return rgba(result, sc[3])
	}
}

// program builds the fragment for params with the images bound to the
// pass inputs, in order.
func program(params any, inputs []*Image, s Sampler) (fragment, error) {
	need := func(n int) error {
		if len(inputs) != n {
			return fmt.Errorf("%w: %T wants %d inputs, got %d", ErrInputs, params, n, len(inputs))
		}
		return nil
	}
	switch p := params.(type) {
	case shader.BrightPassParams:
		if err := need(1); err != nil {
			return nil, err
		}
		return brightPass(p, inputs[0], s), nil
	case shader.BlurParams:
		if err := need(1); err != nil {
			return nil, err
		}
		return blur(p, inputs[0], s), nil
	case shader.GlareStreakParams:
		if err := need(1); err != nil {
			return nil, err
		}
		return glareStreak(p, inputs[0], s), nil
	case shader.GlareAccumulateParams:
		if err := need(4); err != nil {
			return nil, err
		}
		return glareAccumulate(p, inputs, s), nil
	case shader.KawaseDownsampleParams:
		if err := need(1); err != nil {
			return nil, err
		}
		return kawaseDownsample(p, inputs[0], s), nil
	case shader.KawaseUpsampleParams:
		if err := need(2); err != nil {
			return nil, err
		}
		return kawaseUpsample(p, inputs[0], inputs[1], s), nil
	case shader.CompositeParams:
		if err := need(2); err != nil {
			return nil, err
		}
		return composite(p, inputs[0], inputs[1], s), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownParams, params)
	}
}
