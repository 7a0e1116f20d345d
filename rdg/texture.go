// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rdg

import (
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/bloom/screen"
)

// TransientUsage is the usage of every texture created by the graph: it is
// rendered into by one pass and sampled by later ones.
const TransientUsage = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment

// TextureDesc describes a 2D texture allocation.
type TextureDesc struct {
	Label  string
	Extent image.Point
	Format gputypes.TextureFormat
	Usage  gputypes.TextureUsage
	Clear  gputypes.Color
}

// NewTextureDesc2D returns a descriptor for a transient render target of
// the given extent and format, cleared to black.
//
// Every allocation site calls it explicitly; there is no shared pool of
// descriptors or textures.
func NewTextureDesc2D(extent image.Point, format gputypes.TextureFormat) TextureDesc {
	return TextureDesc{
		Extent: extent,
		Format: format,
		Usage:  TransientUsage,
		Clear:  gputypes.ColorBlack,
	}
}

// Descriptor converts d to a gputypes texture descriptor.
func (d TextureDesc) Descriptor() gputypes.TextureDescriptor {
	return gputypes.TextureDescriptor{
		Label:         d.Label,
		Size:          gputypes.NewExtent2D(uint32(max(d.Extent.X, 0)), uint32(max(d.Extent.Y, 0))), //nolint:gosec // clamped non-negative
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        d.Format,
		Usage:         d.Usage,
	}
}

// Texture is a graph-owned texture handle. Transient textures live for one
// frame; external textures are imported from the host.
type Texture struct {
	id       int
	name     string
	desc     TextureDesc
	external bool
	owner    *Builder
}

var _ gpucontext.Texture = (*Texture)(nil)

// ID returns the texture's index within its builder.
func (t *Texture) ID() int { return t.id }

// Name returns the debug name.
func (t *Texture) Name() string { return t.name }

// Desc returns the allocation descriptor.
func (t *Texture) Desc() TextureDesc { return t.desc }

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.desc.Extent.X }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.desc.Extent.Y }

// Extent returns the allocated size.
func (t *Texture) Extent() image.Point { return t.desc.Extent }

// External reports whether the texture was imported with RegisterExternal.
func (t *Texture) External() bool { return t.external }

// String implements fmt.Stringer.
func (t *Texture) String() string {
	if t == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s#%d(%dx%d %s)", t.name, t.id, t.desc.Extent.X, t.desc.Extent.Y, t.desc.Format)
}

// ScreenTexture is a texture together with its valid rectangle.
type ScreenTexture struct {
	Texture *Texture
	Rect    image.Rectangle
}

// IsValid reports whether the texture is set and the rectangle non-empty.
func (s ScreenTexture) IsValid() bool {
	return s.Texture != nil && !s.Rect.Empty()
}

// Viewport returns the texture extent and valid rectangle.
func (s ScreenTexture) Viewport() screen.Viewport {
	if s.Texture == nil {
		return screen.Viewport{Rect: s.Rect}
	}
	return screen.NewViewport(s.Texture.Extent(), s.Rect)
}

// FullScreenTexture returns a ScreenTexture covering the whole texture.
func FullScreenTexture(t *Texture) ScreenTexture {
	return ScreenTexture{Texture: t, Rect: image.Rectangle{Max: t.Extent()}}
}

// RenderTarget is the output binding of a pass.
type RenderTarget struct {
	Texture *Texture
	Rect    image.Rectangle
	Load    gputypes.LoadOp
}

// NewRenderTarget binds the full extent of t, cleared before drawing.
func NewRenderTarget(t *Texture) RenderTarget {
	return RenderTarget{Texture: t, Rect: image.Rectangle{Max: t.Extent()}, Load: gputypes.LoadOpClear}
}

// IsValid reports whether the target is set and the rectangle non-empty.
func (r RenderTarget) IsValid() bool {
	return r.Texture != nil && !r.Rect.Empty()
}

// Viewport returns the target extent and rectangle.
func (r RenderTarget) Viewport() screen.Viewport {
	return ScreenTexture{Texture: r.Texture, Rect: r.Rect}.Viewport()
}

// ScreenTexture returns the texture and rectangle written by the target.
func (r RenderTarget) ScreenTexture() ScreenTexture {
	return ScreenTexture{Texture: r.Texture, Rect: r.Rect}
}
