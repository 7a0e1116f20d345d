package software

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

// Image is a linear float32 RGBA image with straight alpha.
type Image struct {
	Width, Height int
	// Pix holds 4 floats per pixel, row-major.
	Pix []float32
}

// NewImage allocates a zeroed image.
func NewImage(w, h int) *Image {
	w, h = max(w, 0), max(h, 0)
	return &Image{Width: w, Height: h, Pix: make([]float32, 4*w*h)}
}

// NewUniform allocates an image filled with c.
func NewUniform(w, h int, c mgl32.Vec4) *Image {
	m := NewImage(w, h)
	m.Fill(c)
	return m
}

// FromImage converts img, un-premultiplying alpha.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	m := NewImage(b.Dx(), b.Dy())
	for y := range m.Height {
		for x := range m.Width {
			c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			m.Set(x, y, mgl32.Vec4{
				float32(c.R) / 0xffff,
				float32(c.G) / 0xffff,
				float32(c.B) / 0xffff,
				float32(c.A) / 0xffff,
			})
		}
	}
	return m
}

// At returns the pixel at (x, y). Out-of-range coordinates return zero.
func (m *Image) At(x, y int) mgl32.Vec4 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return mgl32.Vec4{}
	}
	i := 4 * (y*m.Width + x)
	return mgl32.Vec4{m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3]}
}

// Set stores c at (x, y). Out-of-range coordinates are ignored.
func (m *Image) Set(x, y int, c mgl32.Vec4) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	i := 4 * (y*m.Width + x)
	m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3] = c[0], c[1], c[2], c[3]
}

// Fill sets every pixel to c.
func (m *Image) Fill(c mgl32.Vec4) {
	for i := 0; i < len(m.Pix); i += 4 {
		m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3] = c[0], c[1], c[2], c[3]
	}
}

// Mean returns the average color over r, clipped to the image.
func (m *Image) Mean(r image.Rectangle) mgl32.Vec4 {
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	if r.Empty() {
		return mgl32.Vec4{}
	}
	var sum [4]float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := m.At(x, y)
			for k := range sum {
				sum[k] += float64(c[k])
			}
		}
	}
	n := float64(r.Dx() * r.Dy())
	return mgl32.Vec4{float32(sum[0] / n), float32(sum[1] / n), float32(sum[2] / n), float32(sum[3] / n)}
}

// NRGBA converts the pixels inside r to 8-bit, clamping to [0, 1].
func (m *Image) NRGBA(r image.Rectangle) *image.NRGBA {
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	out := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := m.At(x, y)
			out.SetNRGBA(x-r.Min.X, y-r.Min.Y, color.NRGBA{
				R: to8(c[0]), G: to8(c[1]), B: to8(c[2]), A: to8(c[3]),
			})
		}
	}
	return out
}

func to8(v float32) uint8 {
	if math32.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Sampler reads an Image at normalized coordinates following a
// gputypes sampler descriptor. Only the U/V address modes and the
// mag filter are honored.
type Sampler struct {
	desc gputypes.SamplerDescriptor
}

// NewSampler wraps desc.
func NewSampler(desc gputypes.SamplerDescriptor) Sampler {
	return Sampler{desc: desc}
}

// BilinearClamp returns the sampler every bloom program binds.
func BilinearClamp() Sampler {
	return NewSampler(gputypes.LinearSamplerDescriptor())
}

// Sample returns the color at uv. Texel centers sit at (i+0.5)/size.
func (s Sampler) Sample(m *Image, uv mgl32.Vec2) mgl32.Vec4 {
	if m == nil || m.Width == 0 || m.Height == 0 {
		return mgl32.Vec4{}
	}
	x := uv[0]*float32(m.Width) - 0.5
	y := uv[1]*float32(m.Height) - 0.5

	if s.desc.MagFilter != gputypes.FilterModeLinear {
		xi := s.wrap(int(math32.Floor(x+0.5)), m.Width, s.desc.AddressModeU)
		yi := s.wrap(int(math32.Floor(y+0.5)), m.Height, s.desc.AddressModeV)
		return m.At(xi, yi)
	}

	x0f, y0f := math32.Floor(x), math32.Floor(y)
	fx, fy := x-x0f, y-y0f
	x0, y0 := int(x0f), int(y0f)
	x1 := s.wrap(x0+1, m.Width, s.desc.AddressModeU)
	y1 := s.wrap(y0+1, m.Height, s.desc.AddressModeV)
	x0 = s.wrap(x0, m.Width, s.desc.AddressModeU)
	y0 = s.wrap(y0, m.Height, s.desc.AddressModeV)

	top := lerp4(m.At(x0, y0), m.At(x1, y0), fx)
	bottom := lerp4(m.At(x0, y1), m.At(x1, y1), fx)
	return lerp4(top, bottom, fy)
}

func (s Sampler) wrap(i, n int, mode gputypes.AddressMode) int {
	switch mode {
	case gputypes.AddressModeRepeat:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	case gputypes.AddressModeMirrorRepeat:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i
	default:
		return min(max(i, 0), n-1)
	}
}

func lerp4(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}
