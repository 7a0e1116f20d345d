package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/bloom/shader"
)

const (
	vertexEntryPoint   = "vs_main"
	fragmentEntryPoint = "fs_main"
)

// program holds the GPU objects of one pixel program. The bind group
// layout is (uniform block, inputs..., sampler); pipelines are created per
// target format.
type program struct {
	id         shader.ProgramID
	fragment   hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipelines  map[gputypes.TextureFormat]hal.RenderPipeline
}

// spirvWords converts a little-endian SPIR-V byte stream to words.
func spirvWords(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("gpu: SPIR-V length %d is not a positive multiple of 4", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words, nil
}

func (e *Executor) createShaderModule(label string, spirv []byte) (hal.ShaderModule, error) {
	words, err := spirvWords(spirv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return e.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: words},
	})
}

// ensureVertex compiles the shared fullscreen vertex stage.
func (e *Executor) ensureVertex() error {
	if e.vertex != nil {
		return nil
	}
	spirv, err := e.lib.VertexSPIRV()
	if err != nil {
		return fmt.Errorf("%w: fullscreen vertex: %w", ErrProgram, err)
	}
	m, err := e.createShaderModule("bloom_fullscreen_vs", spirv)
	if err != nil {
		return fmt.Errorf("create fullscreen vertex module: %w", err)
	}
	e.vertex = m
	return nil
}

// ensurePipeline returns the render pipeline drawing id into targets of
// the given format, creating the program and pipeline on first use.
func (e *Executor) ensurePipeline(id shader.ProgramID, format gputypes.TextureFormat) (*program, hal.RenderPipeline, error) {
	if err := e.ensureVertex(); err != nil {
		return nil, nil, err
	}
	prog, err := e.ensureProgram(id)
	if err != nil {
		return nil, nil, err
	}
	if p, ok := prog.pipelines[format]; ok {
		return prog, p, nil
	}

	pipeline, err := e.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("bloom_%s_%s", id, format),
		Layout: prog.pipeLayout,
		Vertex: hal.VertexState{
			Module:     e.vertex,
			EntryPoint: vertexEntryPoint,
		},
		Fragment: &hal.FragmentState{
			Module:     prog.fragment,
			EntryPoint: fragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{Format: format, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s pipeline: %w", id, err)
	}
	prog.pipelines[format] = pipeline
	e.log().Debug("gpu: created pipeline", "program", id, "format", format)
	return prog, pipeline, nil
}

func (e *Executor) ensureProgram(id shader.ProgramID) (*program, error) {
	if prog, ok := e.programs[id]; ok {
		return prog, nil
	}
	spirv, err := e.lib.SPIRV(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProgram, id, err)
	}

	prog := &program{id: id, pipelines: make(map[gputypes.TextureFormat]hal.RenderPipeline)}
	if prog.fragment, err = e.createShaderModule(fmt.Sprintf("bloom_%s_fs", id), spirv); err != nil {
		return nil, fmt.Errorf("create %s module: %w", id, err)
	}

	prog.bindLayout, err = e.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   fmt.Sprintf("bloom_%s_layout", id),
		Entries: bindLayoutEntries(id.Inputs()),
	})
	if err != nil {
		e.destroyProgram(prog)
		return nil, fmt.Errorf("create %s bind group layout: %w", id, err)
	}

	prog.pipeLayout, err = e.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            fmt.Sprintf("bloom_%s_pipe_layout", id),
		BindGroupLayouts: []hal.BindGroupLayout{prog.bindLayout},
	})
	if err != nil {
		e.destroyProgram(prog)
		return nil, fmt.Errorf("create %s pipeline layout: %w", id, err)
	}

	e.programs[id] = prog
	return prog, nil
}

// bindLayoutEntries lays out binding 0 as the uniform block, 1..inputs as
// sampled textures and inputs+1 as the sampler.
func bindLayoutEntries(inputs int) []gputypes.BindGroupLayoutEntry {
	entries := make([]gputypes.BindGroupLayoutEntry, 0, inputs+2)
	entries = append(entries, gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageFragment,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	})
	for i := range inputs {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i + 1), //nolint:gosec // at most four inputs
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		})
	}
	entries = append(entries, gputypes.BindGroupLayoutEntry{
		Binding:    uint32(inputs + 1), //nolint:gosec // at most four inputs
		Visibility: gputypes.ShaderStageFragment,
		Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
	})
	return entries
}

// destroyProgram releases prog in reverse creation order.
func (e *Executor) destroyProgram(prog *program) {
	for _, p := range prog.pipelines {
		e.device.DestroyRenderPipeline(p)
	}
	clear(prog.pipelines)
	if prog.pipeLayout != nil {
		e.device.DestroyPipelineLayout(prog.pipeLayout)
		prog.pipeLayout = nil
	}
	if prog.bindLayout != nil {
		e.device.DestroyBindGroupLayout(prog.bindLayout)
		prog.bindLayout = nil
	}
	if prog.fragment != nil {
		e.device.DestroyShaderModule(prog.fragment)
		prog.fragment = nil
	}
}
