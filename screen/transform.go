// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package screen

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform is an axis-aligned affine map p' = p*Scale + Bias, applied
// component-wise.
type Transform struct {
	Scale mgl32.Vec2
	Bias  mgl32.Vec2
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Scale: mgl32.Vec2{1, 1}}
}

// Apply maps a point through the transform.
func (t Transform) Apply(p mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{
		p[0]*t.Scale[0] + t.Bias[0],
		p[1]*t.Scale[1] + t.Bias[1],
	}
}

// Then returns the transform that applies t first and next second.
func (t Transform) Then(next Transform) Transform {
	return Transform{
		Scale: mgl32.Vec2{t.Scale[0] * next.Scale[0], t.Scale[1] * next.Scale[1]},
		Bias: mgl32.Vec2{
			t.Bias[0]*next.Scale[0] + next.Bias[0],
			t.Bias[1]*next.Scale[1] + next.Bias[1],
		},
	}
}

// Invert returns the inverse transform. The second result is false when a
// scale component is zero.
func (t Transform) Invert() (Transform, bool) {
	if t.Scale[0] == 0 || t.Scale[1] == 0 {
		return Transform{}, false
	}
	sx, sy := 1/t.Scale[0], 1/t.Scale[1]
	return Transform{
		Scale: mgl32.Vec2{sx, sy},
		Bias:  mgl32.Vec2{-t.Bias[0] * sx, -t.Bias[1] * sy},
	}, true
}

// Vec4 packs the transform as (scale.x, scale.y, bias.x, bias.y).
func (t Transform) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{t.Scale[0], t.Scale[1], t.Bias[0], t.Bias[1]}
}

// String implements fmt.Stringer.
func (t Transform) String() string {
	return fmt.Sprintf("scale(%g, %g) bias(%g, %g)", t.Scale[0], t.Scale[1], t.Bias[0], t.Bias[1])
}

// TextureBasis names a coordinate space attached to a viewport.
type TextureBasis uint8

const (
	// TexelPosition is pixel coordinates within the texture extent.
	TexelPosition TextureBasis = iota
	// ViewportUV is [0,1] across the viewport rectangle.
	ViewportUV
	// TextureUV is [0,1] across the texture extent.
	TextureUV
)

// String implements fmt.Stringer.
func (b TextureBasis) String() string {
	switch b {
	case TexelPosition:
		return "TexelPosition"
	case ViewportUV:
		return "ViewportUV"
	case TextureUV:
		return "TextureUV"
	default:
		return fmt.Sprintf("TextureBasis(%d)", b)
	}
}

// ChangeTextureBasis returns the transform converting coordinates in basis
// from into basis to, for the given viewport.
func ChangeTextureBasis(v Viewport, from, to TextureBasis) Transform {
	if from == to {
		return Identity()
	}
	if from > to {
		inv, ok := ChangeTextureBasis(v, to, from).Invert()
		if !ok {
			return Identity()
		}
		return inv
	}
	t := Identity()
	for b := from; b < to; b++ {
		t = t.Then(basisStep(v, b))
	}
	return t
}

// basisStep converts from basis b to basis b+1.
func basisStep(v Viewport, b TextureBasis) Transform {
	size := v.Rect.Size()
	w, h := float32(size.X), float32(size.Y)
	minX, minY := float32(v.Rect.Min.X), float32(v.Rect.Min.Y)
	ew, eh := float32(v.Extent.X), float32(v.Extent.Y)

	switch b {
	case TexelPosition:
		if w == 0 || h == 0 {
			return Identity()
		}
		return Transform{
			Scale: mgl32.Vec2{1 / w, 1 / h},
			Bias:  mgl32.Vec2{-minX / w, -minY / h},
		}
	case ViewportUV:
		if ew == 0 || eh == 0 {
			return Identity()
		}
		return Transform{
			Scale: mgl32.Vec2{w / ew, h / eh},
			Bias:  mgl32.Vec2{minX / ew, minY / eh},
		}
	default:
		return Identity()
	}
}

// SvPositionToTextureUV maps a pixel position in dst to the normalized
// texture coordinate of the matching point in src. The corners of dst.Rect
// land on the corners of src.Rect divided by src.Extent.
func SvPositionToTextureUV(dst, src Viewport) Transform {
	return ChangeTextureBasis(dst, TexelPosition, ViewportUV).
		Then(ChangeTextureBasis(src, ViewportUV, TextureUV))
}
