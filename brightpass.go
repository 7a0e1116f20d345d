package bloom

import (
	"github.com/gogpu/bloom/rdg"
	"github.com/gogpu/bloom/screen"
	"github.com/gogpu/bloom/shader"
)

// softFocusThreshold lets nearly the whole frame through the bright pass.
const softFocusThreshold = 0.01

// brightThreshold returns the threshold the bright pass runs with.
func brightThreshold(cfg Config) float32 {
	if cfg.Mode == ModeSoftFocus {
		return softFocusThreshold
	}
	return cfg.Threshold
}

// addBrightPass downsamples the scene color into the bright-pass buffer,
// keeping what lies above the threshold.
func addBrightPass(b *rdg.Builder, f *frame) (*rdg.Texture, error) {
	tex := b.CreateTexture(f.brightDesc, "ClassicBloom.BrightPass")
	params := shader.BrightPassParams{
		InputViewportSizeAndInvSize:  f.sourceVP.RectSizeAndInvSize(),
		OutputViewportSizeAndInvSize: f.bright.RectSizeAndInvSize(),
		SvPositionToInputTextureUV:   screen.SvPositionToTextureUV(f.bright, f.sourceVP),
		Threshold:                    brightThreshold(f.cfg),
		Intensity:                    1,
	}
	if _, err := b.AddFullscreenPass("BrightPass", shader.BrightPass, params,
		[]*rdg.Texture{f.source.Texture}, f.brightTarget(tex)); err != nil {
		return nil, err
	}
	return tex, nil
}
