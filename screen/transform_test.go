// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package screen

import (
	"image"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const tolerance = 1e-5

// nearVec2 compares with an absolute tolerance. mgl32's ApproxEqual family is
// relative and rejects tiny errors around zero.
func nearVec2(a, b mgl32.Vec2) bool {
	return math32.Abs(a[0]-b[0]) <= tolerance && math32.Abs(a[1]-b[1]) <= tolerance
}

func corners(r image.Rectangle) [4]mgl32.Vec2 {
	return [4]mgl32.Vec2{
		{float32(r.Min.X), float32(r.Min.Y)},
		{float32(r.Max.X), float32(r.Min.Y)},
		{float32(r.Min.X), float32(r.Max.Y)},
		{float32(r.Max.X), float32(r.Max.Y)},
	}
}

func TestSvPositionToTextureUVCorners(t *testing.T) {
	viewports := []Viewport{
		FullViewport(image.Pt(1920, 1080)),
		NewViewport(image.Pt(1920, 1088), image.Rect(0, 4, 1920, 1084)),
		NewViewport(image.Pt(2048, 2048), image.Rect(100, 200, 1380, 920)),
		FullViewport(image.Pt(960, 540)),
		FullViewport(image.Pt(1, 1)),
		NewViewport(image.Pt(17, 9), image.Rect(3, 1, 16, 8)),
		FullViewport(image.Pt(241, 135)),
	}
	for i, dst := range viewports {
		for j, src := range viewports {
			tr := SvPositionToTextureUV(dst, src)
			dc := corners(dst.Rect)
			sc := corners(src.Rect)
			for k := range dc {
				got := tr.Apply(dc[k])
				want := mgl32.Vec2{sc[k][0] / float32(src.Extent.X), sc[k][1] / float32(src.Extent.Y)}
				if !nearVec2(got, want) {
					t.Errorf("pair (%d,%d) corner %d: got %v, want %v (transform %v)", i, j, k, got, want, tr)
				}
			}
		}
	}
}

func TestChangeTextureBasis(t *testing.T) {
	v := NewViewport(image.Pt(200, 100), image.Rect(20, 10, 120, 60))
	tests := []struct {
		name     string
		from, to TextureBasis
		in, want mgl32.Vec2
	}{
		{"texel to viewport min", TexelPosition, ViewportUV, mgl32.Vec2{20, 10}, mgl32.Vec2{0, 0}},
		{"texel to viewport max", TexelPosition, ViewportUV, mgl32.Vec2{120, 60}, mgl32.Vec2{1, 1}},
		{"viewport to texture", ViewportUV, TextureUV, mgl32.Vec2{1, 1}, mgl32.Vec2{0.6, 0.6}},
		{"texel to texture", TexelPosition, TextureUV, mgl32.Vec2{100, 50}, mgl32.Vec2{0.5, 0.5}},
		{"texture to texel", TextureUV, TexelPosition, mgl32.Vec2{0.5, 0.5}, mgl32.Vec2{100, 50}},
		{"viewport to texel", ViewportUV, TexelPosition, mgl32.Vec2{0.5, 0.5}, mgl32.Vec2{70, 35}},
		{"identity", ViewportUV, ViewportUV, mgl32.Vec2{0.3, 0.7}, mgl32.Vec2{0.3, 0.7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChangeTextureBasis(v, tt.from, tt.to).Apply(tt.in)
			if !nearVec2(got, tt.want) {
				t.Errorf("ChangeTextureBasis(%v->%v).Apply(%v) = %v, want %v", tt.from, tt.to, tt.in, got, tt.want)
			}
		})
	}
}

func TestTransformThenAssociative(t *testing.T) {
	a := Transform{Scale: mgl32.Vec2{2, 3}, Bias: mgl32.Vec2{1, -1}}
	b := Transform{Scale: mgl32.Vec2{0.5, 0.25}, Bias: mgl32.Vec2{0.1, 0.2}}
	c := Transform{Scale: mgl32.Vec2{-1, 4}, Bias: mgl32.Vec2{3, 0}}

	left := a.Then(b).Then(c)
	right := a.Then(b.Then(c))
	p := mgl32.Vec2{7, -2}
	if !nearVec2(left.Apply(p), right.Apply(p)) {
		t.Errorf("(a.b).c = %v, a.(b.c) = %v", left, right)
	}
	if !nearVec2(left.Apply(p), c.Apply(b.Apply(a.Apply(p)))) {
		t.Errorf("Then() does not apply the receiver first")
	}
}

func TestTransformInvert(t *testing.T) {
	tr := Transform{Scale: mgl32.Vec2{4, 0.5}, Bias: mgl32.Vec2{-2, 3}}
	inv, ok := tr.Invert()
	if !ok {
		t.Fatal("Invert() ok = false, want true")
	}
	p := mgl32.Vec2{1.5, -8}
	if got := inv.Apply(tr.Apply(p)); !nearVec2(got, p) {
		t.Errorf("inv(tr(p)) = %v, want %v", got, p)
	}
	if _, ok := (Transform{Scale: mgl32.Vec2{0, 1}}).Invert(); ok {
		t.Error("Invert() of zero scale ok = true, want false")
	}
}

func TestNearVec2AroundZero(t *testing.T) {
	if !nearVec2(mgl32.Vec2{1.4901161e-08, -1.4901161e-08}, mgl32.Vec2{}) {
		t.Error("nearVec2() rejects a rounding error at zero")
	}
	if nearVec2(mgl32.Vec2{2e-5, 0}, mgl32.Vec2{}) {
		t.Error("nearVec2() accepts an error above the tolerance")
	}
}

func TestIdentity(t *testing.T) {
	p := mgl32.Vec2{3, 4}
	if got := Identity().Apply(p); got != p {
		t.Errorf("Identity().Apply(%v) = %v", p, got)
	}
}
