package bloom

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/bloom/rdg"
	"github.com/gogpu/bloom/screen"
	"github.com/gogpu/bloom/shader"
)

// compositeTarget returns override when it is usable, or a new output
// texture laid out like the source.
func compositeTarget(b *rdg.Builder, source rdg.ScreenTexture, override rdg.RenderTarget) rdg.RenderTarget {
	if override.IsValid() {
		return override
	}
	desc := source.Texture.Desc()
	desc.Clear = gputypes.ColorBlack
	desc.Usage |= rdg.TransientUsage
	tex := b.CreateTexture(desc, "ClassicBloom.Output")
	return rdg.RenderTarget{Texture: tex, Rect: source.Rect, Load: gputypes.LoadOpClear}
}

// compositeParams fills the Composite parameter block. Every transform is
// keyed off the output viewport.
func compositeParams(f *frame, out screen.Viewport) shader.CompositeParams {
	cfg := f.cfg
	softFocus := cfg.Mode == ModeSoftFocus

	var bloomIntensity, softFocusIntensity float32
	if softFocus {
		softFocusIntensity = cfg.Intensity
	} else {
		bloomIntensity = cfg.Intensity
	}
	var useScene float32
	if cfg.UseSceneColor {
		useScene = 1
	}

	return shader.CompositeParams{
		OutputViewportSizeAndInvSize: out.RectSizeAndInvSize(),
		SvPositionToSceneColorUV:     screen.SvPositionToTextureUV(out, f.sourceVP),
		SvPositionToBloomUV:          screen.SvPositionToTextureUV(out, f.bright),

		BloomIntensity:      bloomIntensity,
		Tint:                mgl32.Vec4{float32(cfg.Tint.R), float32(cfg.Tint.G), float32(cfg.Tint.B), useScene},
		BlendMode:           uint32(cfg.Blend),
		Saturation:          cfg.Saturation,
		ProtectHighlights:   cfg.ProtectHighlights,
		HighlightProtection: cfg.HighlightProtection,

		SoftFocusIntensity: softFocusIntensity,
		SoftFocusParams: mgl32.Vec4{
			cfg.SoftFocus.OverlayMultiplier,
			cfg.SoftFocus.BlendStrength,
			cfg.SoftFocus.SoftLightMultiplier,
			cfg.SoftFocus.FinalBlend,
		},

		AdaptiveScaling:       cfg.AdaptiveScaling,
		ShowBloomOnly:         cfg.Debug.ShowBloomOnly,
		ShowGammaCompensation: cfg.Debug.ShowGammaCompensation,
		IsGameWorld:           f.view.World.IsGameWorld(),
		GameModeScale:         cfg.GameModeScale,
	}
}

// addComposite blends bloom onto the scene color into the output target.
func addComposite(b *rdg.Builder, f *frame, override rdg.RenderTarget, bloom *rdg.Texture) (rdg.ScreenTexture, shader.CompositeParams, error) {
	target := compositeTarget(b, f.source, override)
	params := compositeParams(f, target.Viewport())
	if _, err := b.AddFullscreenPass("CompositeBloom", shader.Composite, params,
		[]*rdg.Texture{f.source.Texture, bloom}, target); err != nil {
		return rdg.ScreenTexture{}, params, err
	}
	return target.ScreenTexture(), params, nil
}
