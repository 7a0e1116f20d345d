package gpu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/bloom/rdg"
	"github.com/gogpu/bloom/shader"
)

var (
	// ErrUnbound is returned when a pass samples an external texture that
	// has not been bound.
	ErrUnbound = errors.New("gpu: external texture not bound")

	// ErrProgram is returned when a program's SPIR-V is unavailable.
	ErrProgram = errors.New("gpu: program unavailable")

	// ErrParams is returned when a pass's parameter block does not belong
	// to its program.
	ErrParams = errors.New("gpu: parameters do not match program")

	// ErrInputs is returned when a pass binds the wrong number of inputs.
	ErrInputs = errors.New("gpu: wrong input count")

	// ErrDestroyed is returned by ExecutePass after Destroy.
	ErrDestroyed = errors.New("gpu: executor destroyed")
)

// Programs supplies compiled SPIR-V. *shader.NagaLibrary implements it.
type Programs interface {
	SPIRV(id shader.ProgramID) ([]byte, error)
	VertexSPIRV() ([]byte, error)
}

var _ Programs = (*shader.NagaLibrary)(nil)

// texture is a HAL texture backing one graph texture.
type texture struct {
	tex   hal.Texture
	view  hal.TextureView
	usage gputypes.TextureUsage
	owned bool
}

// Executor runs rdg passes on a HAL device. It implements rdg.Executor.
//
// Every pass is submitted and waited for before ExecutePass returns, so
// per-pass buffers and bind groups are released immediately.
type Executor struct {
	device hal.Device
	queue  hal.Queue
	lib    Programs
	logger *slog.Logger

	samplerDesc gputypes.SamplerDescriptor

	mu        sync.Mutex
	destroyed bool
	vertex    hal.ShaderModule
	sampler   hal.Sampler
	programs  map[shader.ProgramID]*program
	textures  map[*rdg.Texture]*texture
}

var _ rdg.Executor = (*Executor)(nil)

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithSampler replaces the bilinear clamp-to-edge sampler.
func WithSampler(desc gputypes.SamplerDescriptor) ExecutorOption {
	return func(e *Executor) {
		e.samplerDesc = desc
	}
}

// WithLogger sets the logger for pipeline and texture creation. The
// default discards everything.
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = l
	}
}

// NewExecutor creates an executor over an open device and its queue.
// GPU objects are created lazily by ExecutePass.
func NewExecutor(device hal.Device, queue hal.Queue, lib Programs, opts ...ExecutorOption) *Executor {
	e := &Executor{
		device:      device,
		queue:       queue,
		lib:         lib,
		samplerDesc: gputypes.LinearSamplerDescriptor(),
		programs:    make(map[shader.ProgramID]*program),
		textures:    make(map[*rdg.Texture]*texture),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return nopLogger
}

// Bind imports a host texture for t. The executor never destroys it.
func (e *Executor) Bind(t *rdg.Texture, tex hal.Texture, view hal.TextureView) error {
	if tex == nil || view == nil {
		return fmt.Errorf("gpu: bind %s: nil texture or view", t.Name())
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releaseLocked(t)
	e.textures[t] = &texture{tex: tex, view: view, usage: gputypes.TextureUsageTextureBinding}
	return nil
}

// Texture returns the HAL texture and view backing t, if any.
func (e *Executor) Texture(t *rdg.Texture) (hal.Texture, hal.TextureView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tx, ok := e.textures[t]; ok {
		return tx.tex, tx.view, true
	}
	return nil, nil, false
}

// Reset destroys the transient textures and forgets bound ones. Pipelines
// stay cached.
func (e *Executor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for t := range e.textures {
		e.releaseLocked(t)
	}
}

// Destroy releases every GPU object the executor created. Safe to call
// more than once.
func (e *Executor) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.destroyed = true
	for t := range e.textures {
		e.releaseLocked(t)
	}
	for id, prog := range e.programs {
		e.destroyProgram(prog)
		delete(e.programs, id)
	}
	if e.sampler != nil {
		e.device.DestroySampler(e.sampler)
		e.sampler = nil
	}
	if e.vertex != nil {
		e.device.DestroyShaderModule(e.vertex)
		e.vertex = nil
	}
}

func (e *Executor) releaseLocked(t *rdg.Texture) {
	tx, ok := e.textures[t]
	if !ok {
		return
	}
	delete(e.textures, t)
	if !tx.owned {
		return
	}
	e.device.DestroyTextureView(tx.view)
	e.device.DestroyTexture(tx.tex)
}

// ExecutePass encodes p as one render pass, submits it and waits for the
// device to finish.
func (e *Executor) ExecutePass(ctx context.Context, p *rdg.Pass) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrDestroyed
	}

	id, uniform, err := shader.Uniform(p.Params)
	if err != nil {
		return fmt.Errorf("%s: %w", p.FullName(), err)
	}
	if id != p.Program {
		return fmt.Errorf("%w: %s runs %s with %s parameters", ErrParams, p.FullName(), p.Program, id)
	}
	if n := p.Program.Inputs(); len(p.Inputs) != n {
		return fmt.Errorf("%w: %s wants %d inputs, got %d", ErrInputs, p.Program, n, len(p.Inputs))
	}

	inputs := make([]*texture, len(p.Inputs))
	for i, t := range p.Inputs {
		if inputs[i], err = e.textureLocked(t); err != nil {
			return err
		}
	}
	target, err := e.textureLocked(p.Target.Texture)
	if err != nil {
		return err
	}

	prog, pipeline, err := e.ensurePipeline(p.Program, p.Target.Texture.Desc().Format)
	if err != nil {
		return err
	}
	if err := e.ensureSampler(); err != nil {
		return err
	}
	return e.encode(p, prog, pipeline, uniform, inputs, target)
}

// textureLocked returns the texture backing t, creating transient ones
// from their descriptors.
func (e *Executor) textureLocked(t *rdg.Texture) (*texture, error) {
	if tx, ok := e.textures[t]; ok {
		return tx, nil
	}
	if t.External() {
		return nil, fmt.Errorf("%w: %s", ErrUnbound, t.Name())
	}

	d := t.Desc().Descriptor()
	label := d.Label
	if label == "" {
		label = t.Name()
	}
	tex, err := e.device.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              d.Size.Width,
			Height:             d.Size.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: d.MipLevelCount,
		SampleCount:   d.SampleCount,
		Dimension:     d.Dimension,
		Format:        d.Format,
		Usage:         d.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", label, err)
	}
	view, err := e.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           label + "_view",
		Format:          d.Format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		e.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view %s: %w", label, err)
	}

	tx := &texture{tex: tex, view: view, owned: true}
	e.textures[t] = tx
	e.log().Debug("gpu: created texture", "name", label, "size", t.Extent(), "format", d.Format)
	return tx, nil
}

func (e *Executor) ensureSampler() error {
	if e.sampler != nil {
		return nil
	}
	d := e.samplerDesc
	mip := gputypes.FilterModeNearest
	if d.MipmapFilter == gputypes.MipmapFilterModeLinear {
		mip = gputypes.FilterModeLinear
	}
	s, err := e.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "bloom_sampler",
		AddressModeU: d.AddressModeU,
		AddressModeV: d.AddressModeV,
		AddressModeW: d.AddressModeW,
		MagFilter:    d.MagFilter,
		MinFilter:    d.MinFilter,
		MipmapFilter: mip,
		LodMinClamp:  d.LodMinClamp,
		LodMaxClamp:  d.LodMaxClamp,
		Compare:      d.Compare,
		Anisotropy:   d.MaxAnisotropy,
	})
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}
	e.sampler = s
	return nil
}

// encode records, submits and waits for one pass.
func (e *Executor) encode(p *rdg.Pass, prog *program, pipeline hal.RenderPipeline, uniform []byte, inputs []*texture, target *texture) error {
	uniformBuf, err := e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: p.Name + "_params",
		Size:  uint64(len(uniform)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	defer e.device.DestroyBuffer(uniformBuf)
	if err := e.queue.WriteBuffer(uniformBuf, 0, uniform); err != nil {
		return fmt.Errorf("write uniform buffer: %w", err)
	}

	entries := make([]gputypes.BindGroupEntry, 0, len(inputs)+2)
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  0,
		Resource: gputypes.BufferBinding{Buffer: uniformBuf.NativeHandle(), Size: uint64(len(uniform))},
	})
	for i, in := range inputs {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(i + 1), //nolint:gosec // at most four inputs
			Resource: gputypes.TextureViewBinding{TextureView: in.view.NativeHandle()},
		})
	}
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  uint32(len(inputs) + 1), //nolint:gosec // at most four inputs
		Resource: gputypes.SamplerBinding{Sampler: e.sampler.NativeHandle()},
	})
	bindGroup, err := e.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.Name + "_bind",
		Layout:  prog.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer e.device.DestroyBindGroup(bindGroup)

	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: p.FullName()})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	defer encoder.Destroy()
	if err := encoder.BeginEncoding(p.FullName()); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	// Layout transitions are no-ops outside Vulkan and DX12.
	var barriers []hal.TextureBarrier
	for _, in := range inputs {
		barriers = appendBarrier(barriers, in, gputypes.TextureUsageTextureBinding)
	}
	barriers = appendBarrier(barriers, target, gputypes.TextureUsageRenderAttachment)
	if len(barriers) > 0 {
		encoder.TransitionTextures(barriers)
	}

	rt := p.Target
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: p.FullName(),
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       target.view,
				LoadOp:     rt.Load,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: rt.Texture.Desc().Clear,
			},
		},
	})
	r := rt.Rect
	rp.SetViewport(float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), 0, 1)
	rp.SetScissorRect(uint32(r.Min.X), uint32(r.Min.Y), uint32(r.Dx()), uint32(r.Dy())) //nolint:gosec // rect lies inside the texture
	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer e.device.FreeCommandBuffer(cmdBuf)

	if _, err := e.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("submit %s: %w", p.FullName(), err)
	}
	if err := e.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for %s: %w", p.FullName(), err)
	}
	return nil
}

// appendBarrier moves tx to usage, recording a barrier when it changes.
func appendBarrier(barriers []hal.TextureBarrier, tx *texture, usage gputypes.TextureUsage) []hal.TextureBarrier {
	if tx.usage == usage {
		return barriers
	}
	barriers = append(barriers, hal.TextureBarrier{
		Texture: tx.tex,
		Range: hal.TextureRange{
			Aspect:          gputypes.TextureAspectAll,
			MipLevelCount:   1,
			ArrayLayerCount: 1,
		},
		Usage: hal.TextureUsageTransition{OldUsage: tx.usage, NewUsage: usage},
	})
	tx.usage = usage
	return barriers
}
