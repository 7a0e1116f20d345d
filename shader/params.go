// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/bloom/screen"
)

// Size vectors below are packed as (w, h, 1/w, 1/h).

// BrightPassParams drives the BrightPass program.
type BrightPassParams struct {
	InputViewportSizeAndInvSize  mgl32.Vec4
	OutputViewportSizeAndInvSize mgl32.Vec4
	SvPositionToInputTextureUV   screen.Transform
	Threshold                    float32
	Intensity                    float32
}

// BlurParams drives one axis of the Blur program.
type BlurParams struct {
	BufferSizeAndInvSize mgl32.Vec4
	Direction            mgl32.Vec2
	Radius               float32
	Samples              int
}

// GlareStreakParams drives the GlareStreak program.
type GlareStreakParams struct {
	BufferSizeAndInvSize mgl32.Vec4
	Direction            mgl32.Vec2
	Length               float32
	Falloff              float32
}

// GlareAccumulateParams drives the GlareAccumulate program. The pass binds
// exactly four inputs; only the first NumStreaks are summed.
type GlareAccumulateParams struct {
	ViewportSizeAndInvSize mgl32.Vec4
	NumStreaks             int
}

// KawaseDownsampleParams drives one level of the Kawase downsample.
type KawaseDownsampleParams struct {
	SourceSizeAndInvSize mgl32.Vec4
	OutputSizeAndInvSize mgl32.Vec4
	SvPositionToSourceUV screen.Transform
	Threshold            float32
	Knee                 float32
	// Curve is the soft threshold curve (t, t-k, 2k, 0.25/k) with
	// k = t*Knee + 1e-5.
	Curve        mgl32.Vec4
	MipLevel     int
	KarisAverage bool
}

// ThresholdCurve packs the soft-knee threshold used by the Kawase downsample.
func ThresholdCurve(threshold, knee float32) mgl32.Vec4 {
	k := threshold*knee + 1e-5
	return mgl32.Vec4{threshold, threshold - k, 2 * k, 0.25 / k}
}

// KawaseUpsampleParams drives one Kawase upsample. Input 0 is the level
// being upsampled, input 1 the mip it is added to.
type KawaseUpsampleParams struct {
	OutputSizeAndInvSize mgl32.Vec4
	FilterRadius         float32
	HighQuality          bool
}

// CompositeParams drives the Composite program. Input 0 is the scene
// color, input 1 the bloom result.
type CompositeParams struct {
	OutputViewportSizeAndInvSize mgl32.Vec4
	SvPositionToSceneColorUV     screen.Transform
	SvPositionToBloomUV          screen.Transform

	BloomIntensity float32
	// Tint carries the tint color; alpha is 1 when the scene color is used
	// instead of the tint.
	Tint                mgl32.Vec4
	BlendMode           uint32
	Saturation          float32
	ProtectHighlights   bool
	HighlightProtection float32

	SoftFocusIntensity float32
	// SoftFocusParams is (overlay multiplier, blend strength, soft light
	// multiplier, final blend).
	SoftFocusParams mgl32.Vec4

	AdaptiveScaling       bool
	ShowBloomOnly         bool
	ShowGammaCompensation bool
	IsGameWorld           bool
	GameModeScale         float32
}
