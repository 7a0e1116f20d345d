// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnknownParams is returned by Uniform for a value that is not one of
// the parameter blocks of this package.
var ErrUnknownParams = errors.New("shader: unknown parameter block")

// vec4Size is the byte size of one vec4<f32> uniform member.
const vec4Size = 16

// Uniform packs params into the uniform block of its program, laid out as
// the program's WGSL Params struct. Every member is a vec4<f32>, so the
// block is the members in order with no padding. It also reports which
// program the block belongs to.
func Uniform(params any) (ProgramID, []byte, error) {
	var (
		id   ProgramID
		vecs []mgl32.Vec4
	)
	switch p := params.(type) {
	case BrightPassParams:
		id = BrightPass
		vecs = []mgl32.Vec4{
			p.InputViewportSizeAndInvSize,
			p.OutputViewportSizeAndInvSize,
			p.SvPositionToInputTextureUV.Vec4(),
			{p.Threshold, p.Intensity, 0, 0},
		}
	case BlurParams:
		id = Blur
		vecs = []mgl32.Vec4{
			p.BufferSizeAndInvSize,
			{p.Direction[0], p.Direction[1], p.Radius, float32(p.Samples)},
		}
	case GlareStreakParams:
		id = GlareStreak
		vecs = []mgl32.Vec4{
			p.BufferSizeAndInvSize,
			{p.Direction[0], p.Direction[1], p.Length, p.Falloff},
		}
	case GlareAccumulateParams:
		id = GlareAccumulate
		vecs = []mgl32.Vec4{
			p.ViewportSizeAndInvSize,
			{float32(p.NumStreaks), 0, 0, 0},
		}
	case KawaseDownsampleParams:
		id = KawaseDownsample
		vecs = []mgl32.Vec4{
			p.SourceSizeAndInvSize,
			p.OutputSizeAndInvSize,
			p.SvPositionToSourceUV.Vec4(),
			p.Curve,
			{p.Threshold, p.Knee, float32(p.MipLevel), flag(p.KarisAverage)},
		}
	case KawaseUpsampleParams:
		id = KawaseUpsample
		vecs = []mgl32.Vec4{
			p.OutputSizeAndInvSize,
			{p.FilterRadius, flag(p.HighQuality), 0, 0},
		}
	case CompositeParams:
		id = Composite
		vecs = []mgl32.Vec4{
			p.OutputViewportSizeAndInvSize,
			p.SvPositionToSceneColorUV.Vec4(),
			p.SvPositionToBloomUV.Vec4(),
			p.Tint,
			{p.BloomIntensity, float32(p.BlendMode), p.Saturation, p.GameModeScale},
			{flag(p.ProtectHighlights), p.HighlightProtection, p.SoftFocusIntensity, flag(p.IsGameWorld)},
			p.SoftFocusParams,
			{flag(p.AdaptiveScaling), flag(p.ShowBloomOnly), flag(p.ShowGammaCompensation), 0},
		}
	default:
		return 0, nil, fmt.Errorf("%w: %T", ErrUnknownParams, params)
	}

	buf := make([]byte, len(vecs)*vec4Size)
	for i, v := range vecs {
		for j, f := range v {
			binary.LittleEndian.PutUint32(buf[i*vec4Size+j*4:], math.Float32bits(f))
		}
	}
	return id, buf, nil
}

func flag(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
