// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package screen resolves the geometry of screen-space passes.
//
// A [Viewport] pairs a texture's allocated size (the extent) with the
// sub-rectangle of valid pixels inside it. Source buffers handed over by a
// renderer are frequently padded or offset, while every texture derived by
// this module is origin-anchored and exactly filled:
//
//	src := screen.NewViewport(image.Pt(1920, 1088), image.Rect(0, 4, 1920, 1084))
//	half, err := screen.Downsample(src, screen.DownsampleDivisor(1.0))
//	// half.Rect == image.Rect(0, 0, 960, 540), half.Extent == (960, 540)
//
// A [Transform] maps a destination pixel position (SV_Position-style texel
// coordinates) into a source texture's normalized UV space. Transforms are
// built from [ChangeTextureBasis] steps and composed with [Transform.Then]:
//
//	uv := screen.SvPositionToTextureUV(half, src)
//
// Extent-only ratios are never used; they misalign offset rectangles.
package screen
