// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package screen

import (
	"errors"
	"image"
	"testing"
)

func TestDownsampleDivisor(t *testing.T) {
	tests := []struct {
		scale float32
		want  int
	}{
		{2.0, 1},
		{1.5, 1},
		{1.0, 2},
		{0.6, 3},
		{0.5, 4},
		{0.25, 8},
		{0.1, 8},  // clamped to 0.25
		{10.0, 1}, // clamped to 2.0
	}
	for _, tt := range tests {
		if got := DownsampleDivisor(tt.scale); got != tt.want {
			t.Errorf("DownsampleDivisor(%v) = %d, want %d", tt.scale, got, tt.want)
		}
	}
}

func TestDownsample(t *testing.T) {
	tests := []struct {
		name    string
		src     Viewport
		divisor int
		want    image.Point
		wantErr error
	}{
		{"half", FullViewport(image.Pt(1920, 1080)), 2, image.Pt(960, 540), nil},
		{"odd rounds up", FullViewport(image.Pt(101, 33)), 2, image.Pt(51, 17), nil},
		{"offset rect uses rect size", NewViewport(image.Pt(2000, 1200), image.Rect(40, 60, 1960, 1140)), 2, image.Pt(960, 540), nil},
		{"tiny", FullViewport(image.Pt(1, 1)), 8, image.Pt(1, 1), nil},
		{"full res", FullViewport(image.Pt(7, 5)), 1, image.Pt(7, 5), nil},
		{"empty rect", NewViewport(image.Pt(64, 64), image.Rect(10, 10, 10, 40)), 2, image.Point{}, ErrDegenerate},
		{"zero divisor", FullViewport(image.Pt(64, 64)), 0, image.Point{}, ErrDegenerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Downsample(tt.src, tt.divisor)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Downsample() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.Extent != tt.want {
				t.Errorf("Downsample().Extent = %v, want %v", got.Extent, tt.want)
			}
			if !got.IsFull() {
				t.Errorf("Downsample() = %+v, want origin-anchored full viewport", got)
			}
		})
	}
}

// TestDownsampleGeometryInvariant sweeps rectangles and scales: every derived
// viewport is origin-anchored, exactly filled and at least 1x1.
func TestDownsampleGeometryInvariant(t *testing.T) {
	scales := []float32{0.25, 0.3, 0.5, 0.66, 0.8, 1.0, 1.25, 1.5, 1.75, 2.0}
	rects := []image.Rectangle{
		image.Rect(0, 0, 1, 1),
		image.Rect(0, 0, 3, 1),
		image.Rect(5, 7, 6, 8),
		image.Rect(0, 0, 1920, 1080),
		image.Rect(13, 17, 1277, 733),
		image.Rect(100, 0, 101, 999),
	}
	for _, r := range rects {
		src := NewViewport(r.Max.Add(image.Pt(3, 3)), r)
		for _, s := range scales {
			v, err := Downsample(src, DownsampleDivisor(s))
			if err != nil {
				t.Fatalf("Downsample(%v, %v) error = %v", r, s, err)
			}
			if v.Rect.Min != (image.Point{}) || v.Rect.Size() != v.Extent {
				t.Errorf("Downsample(%v, %v) = %+v, want rect == extent at origin", r, s, v)
			}
			if v.Extent.X < 1 || v.Extent.Y < 1 {
				t.Errorf("Downsample(%v, %v).Extent = %v, want >= 1x1", r, s, v.Extent)
			}
		}
	}
}

func TestMipChain(t *testing.T) {
	base := FullViewport(image.Pt(100, 3))
	mips := MipChain(base, 5)
	want := []image.Point{{50, 2}, {25, 1}, {13, 1}, {7, 1}, {4, 1}}
	if len(mips) != len(want) {
		t.Fatalf("len(MipChain()) = %d, want %d", len(mips), len(want))
	}
	for i, m := range mips {
		if m.Extent != want[i] {
			t.Errorf("mip %d extent = %v, want %v", i, m.Extent, want[i])
		}
		if !m.IsFull() {
			t.Errorf("mip %d = %+v, want full viewport", i, m)
		}
	}
	if got := MipChain(base, 0); got != nil {
		t.Errorf("MipChain(base, 0) = %v, want nil", got)
	}
}

func TestViewportPredicates(t *testing.T) {
	tests := []struct {
		name      string
		v         Viewport
		empty     bool
		full      bool
		contained bool
	}{
		{"full", FullViewport(image.Pt(8, 8)), false, true, true},
		{"padded", NewViewport(image.Pt(8, 8), image.Rect(1, 1, 7, 7)), false, false, true},
		{"overflow", NewViewport(image.Pt(8, 8), image.Rect(4, 4, 12, 12)), false, false, false},
		{"zero extent", NewViewport(image.Point{}, image.Rect(0, 0, 1, 1)), true, false, false},
		{"zero rect", NewViewport(image.Pt(4, 4), image.Rectangle{}), true, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsEmpty(); got != tt.empty {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.empty)
			}
			if got := tt.v.IsFull(); got != tt.full {
				t.Errorf("IsFull() = %v, want %v", got, tt.full)
			}
			if got := tt.v.Contained(); got != tt.contained {
				t.Errorf("Contained() = %v, want %v", got, tt.contained)
			}
		})
	}
}

func TestRectSizeAndInvSize(t *testing.T) {
	v := NewViewport(image.Pt(10, 10), image.Rect(2, 2, 6, 10))
	got := v.RectSizeAndInvSize()
	if got[0] != 4 || got[1] != 8 || got[2] != 0.25 || got[3] != 0.125 {
		t.Errorf("RectSizeAndInvSize() = %v, want [4 8 0.25 0.125]", got)
	}
	got = v.ExtentAndInvExtent()
	if got[0] != 10 || got[2] != 0.1 {
		t.Errorf("ExtentAndInvExtent() = %v, want [10 10 0.1 0.1]", got)
	}
}
