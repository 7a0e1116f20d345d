// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package screen

import (
	"errors"
	"image"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Downsample scale limits. A scale of 2 keeps full resolution, 1 halves it.
const (
	MinDownsampleScale = 0.25
	MaxDownsampleScale = 2.0
)

// ErrDegenerate is returned when a rectangle has zero width or height at
// any resize step.
var ErrDegenerate = errors.New("screen: degenerate viewport")

// Viewport describes a texture's allocated size and the sub-rectangle of
// valid pixels within it.
type Viewport struct {
	Extent image.Point
	Rect   image.Rectangle
}

// NewViewport creates a viewport from an extent and a valid rectangle.
func NewViewport(extent image.Point, rect image.Rectangle) Viewport {
	return Viewport{Extent: extent, Rect: rect}
}

// FullViewport creates a viewport whose rectangle exactly fills the extent.
func FullViewport(extent image.Point) Viewport {
	return Viewport{Extent: extent, Rect: image.Rectangle{Max: extent}}
}

// IsEmpty reports whether the extent or the valid rectangle has zero area.
func (v Viewport) IsEmpty() bool {
	return v.Extent.X <= 0 || v.Extent.Y <= 0 || v.Rect.Empty()
}

// IsFull reports whether the rectangle starts at the origin and covers the
// whole extent.
func (v Viewport) IsFull() bool {
	return v.Rect.Min == image.Point{} && v.Rect.Max == v.Extent
}

// Contained reports whether the rectangle lies inside the extent.
func (v Viewport) Contained() bool {
	return v.Rect.In(image.Rectangle{Max: v.Extent})
}

// Size returns the size of the valid rectangle.
func (v Viewport) Size() image.Point {
	return v.Rect.Size()
}

// RectSizeAndInvSize packs (w, h, 1/w, 1/h) of the valid rectangle.
func (v Viewport) RectSizeAndInvSize() mgl32.Vec4 {
	return sizeAndInvSize(v.Rect.Size())
}

// ExtentAndInvExtent packs (w, h, 1/w, 1/h) of the extent.
func (v Viewport) ExtentAndInvExtent() mgl32.Vec4 {
	return sizeAndInvSize(v.Extent)
}

func sizeAndInvSize(p image.Point) mgl32.Vec4 {
	w, h := float32(p.X), float32(p.Y)
	var iw, ih float32
	if w > 0 {
		iw = 1 / w
	}
	if h > 0 {
		ih = 1 / h
	}
	return mgl32.Vec4{w, h, iw, ih}
}

// DownsampleDivisor converts a downsample scale into an integer divisor.
// The scale is clamped to [MinDownsampleScale, MaxDownsampleScale], so the
// divisor ranges from 1 (scale 2) to 8 (scale 0.25).
func DownsampleDivisor(scale float32) int {
	s := mgl32.Clamp(scale, MinDownsampleScale, MaxDownsampleScale)
	d := int(math32.Round(2 / s))
	return max(1, d)
}

// Downsample derives an origin-anchored viewport whose extent is the source
// rectangle size ceil-divided by divisor.
func Downsample(src Viewport, divisor int) (Viewport, error) {
	if divisor < 1 || src.Rect.Empty() {
		return Viewport{}, ErrDegenerate
	}
	size := src.Rect.Size()
	extent := image.Pt(divideAndRoundUp(size.X, divisor), divideAndRoundUp(size.Y, divisor))
	if extent.X <= 0 || extent.Y <= 0 {
		return Viewport{}, ErrDegenerate
	}
	return FullViewport(extent), nil
}

// Half returns the next mip level of v: half the rectangle size rounded up,
// never smaller than 1x1.
func Half(v Viewport) Viewport {
	size := v.Rect.Size()
	return FullViewport(image.Pt(
		max(1, divideAndRoundUp(size.X, 2)),
		max(1, divideAndRoundUp(size.Y, 2)),
	))
}

// MipChain returns count successive halvings of base. Level 0 is Half(base).
func MipChain(base Viewport, count int) []Viewport {
	if count <= 0 {
		return nil
	}
	mips := make([]Viewport, count)
	cur := base
	for i := range mips {
		cur = Half(cur)
		mips[i] = cur
	}
	return mips
}

func divideAndRoundUp(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
