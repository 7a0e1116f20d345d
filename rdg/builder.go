// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rdg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/bloom/shader"
)

// Sentinel errors for graph construction.
var (
	// ErrNoTarget is returned when a pass has no render target.
	ErrNoTarget = errors.New("rdg: pass has no render target")

	// ErrForeignTexture is returned when a texture belongs to another builder.
	ErrForeignTexture = errors.New("rdg: texture not owned by this builder")

	// ErrEmptyRect is returned when a target rectangle is empty or outside
	// the texture.
	ErrEmptyRect = errors.New("rdg: invalid target rectangle")

	// ErrSelfRead is returned when a pass samples its own render target.
	ErrSelfRead = errors.New("rdg: pass reads its own target")

	// ErrCycle is returned when the dependency graph cannot be ordered.
	ErrCycle = errors.New("rdg: dependency cycle")
)

// Pass is one full-screen draw: a program reading Inputs and writing Target.
type Pass struct {
	ID      int
	Name    string
	Scope   string
	Program shader.ProgramID
	Params  any
	Inputs  []*Texture
	Target  RenderTarget

	deps []int
}

// FullName returns the scope-qualified pass name.
func (p *Pass) FullName() string {
	if p.Scope == "" {
		return p.Name
	}
	return p.Scope + "/" + p.Name
}

// Deps returns the IDs of the passes p depends on.
func (p *Pass) Deps() []int { return p.deps }

// Executor runs compiled passes.
type Executor interface {
	ExecutePass(ctx context.Context, p *Pass) error
}

// Builder collects the textures and passes of one view's frame. It is not
// safe for concurrent use; each view builds its own graph.
type Builder struct {
	textures []*Texture
	passes   []*Pass
	scopes   []string

	// lastWriter maps texture ID to the most recent pass writing it.
	lastWriter map[int]int
	// readers maps texture ID to the passes reading it since its last write.
	readers map[int][]int
}

// NewBuilder creates an empty graph.
func NewBuilder() *Builder {
	return &Builder{
		lastWriter: make(map[int]int),
		readers:    make(map[int][]int),
	}
}

// RegisterExternal imports a host-owned texture such as the scene color.
func (b *Builder) RegisterExternal(name string, desc TextureDesc) *Texture {
	t := b.newTexture(name, desc)
	t.external = true
	return t
}

// CreateTexture allocates a transient texture.
func (b *Builder) CreateTexture(desc TextureDesc, name string) *Texture {
	return b.newTexture(name, desc)
}

func (b *Builder) newTexture(name string, desc TextureDesc) *Texture {
	desc.Label = name
	t := &Texture{
		id:    len(b.textures),
		name:  name,
		desc:  desc,
		owner: b,
	}
	b.textures = append(b.textures, t)
	return t
}

// PushScope opens a named event scope for subsequent passes.
func (b *Builder) PushScope(name string) {
	b.scopes = append(b.scopes, name)
}

// PopScope closes the innermost scope.
func (b *Builder) PopScope() {
	if len(b.scopes) > 0 {
		b.scopes = b.scopes[:len(b.scopes)-1]
	}
}

// AddFullscreenPass records a draw of program over target.Rect.
func (b *Builder) AddFullscreenPass(name string, program shader.ProgramID, params any, inputs []*Texture, target RenderTarget) (*Pass, error) {
	if target.Texture == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNoTarget)
	}
	if target.Texture.owner != b {
		return nil, fmt.Errorf("%s: target %s: %w", name, target.Texture.name, ErrForeignTexture)
	}
	if target.Rect.Empty() || !target.Rect.In(image.Rectangle{Max: target.Texture.Extent()}) {
		return nil, fmt.Errorf("%s: %v in %v: %w", name, target.Rect, target.Texture.Extent(), ErrEmptyRect)
	}
	for _, in := range inputs {
		if in == nil || in.owner != b {
			return nil, fmt.Errorf("%s: input %v: %w", name, in, ErrForeignTexture)
		}
		if in == target.Texture {
			return nil, fmt.Errorf("%s: %s: %w", name, in.name, ErrSelfRead)
		}
	}

	p := &Pass{
		ID:      len(b.passes),
		Name:    name,
		Scope:   strings.Join(b.scopes, "/"),
		Program: program,
		Params:  params,
		Inputs:  append([]*Texture(nil), inputs...),
		Target:  target,
	}

	seen := make(map[int]bool)
	addDep := func(id int) {
		if !seen[id] {
			seen[id] = true
			p.deps = append(p.deps, id)
		}
	}
	// Read after write.
	for _, in := range p.Inputs {
		if w, ok := b.lastWriter[in.id]; ok {
			addDep(w)
		}
	}
	out := target.Texture.id
	// Write after write.
	if w, ok := b.lastWriter[out]; ok {
		addDep(w)
	}
	// Write after read.
	for _, r := range b.readers[out] {
		addDep(r)
	}

	for _, in := range p.Inputs {
		b.readers[in.id] = append(b.readers[in.id], p.ID)
	}
	b.lastWriter[out] = p.ID
	b.readers[out] = nil

	b.passes = append(b.passes, p)
	return p, nil
}

// Passes returns every recorded pass in insertion order.
func (b *Builder) Passes() []*Pass { return b.passes }

// Textures returns every texture in creation order.
func (b *Builder) Textures() []*Texture { return b.textures }

// Producer returns the last pass writing t, or nil.
func (b *Builder) Producer(t *Texture) *Pass {
	if t == nil {
		return nil
	}
	if id, ok := b.lastWriter[t.id]; ok {
		return b.passes[id]
	}
	return nil
}

// Compile returns the passes contributing to outputs in a dependency
// respecting order. Passes whose results never reach an output are culled.
// With no outputs every pass is kept.
func (b *Builder) Compile(outputs ...*Texture) ([]*Pass, error) {
	needed := make([]bool, len(b.passes))
	if len(outputs) == 0 {
		for i := range needed {
			needed[i] = true
		}
	} else {
		var stack []int
		for _, t := range outputs {
			if t == nil || t.owner != b {
				return nil, fmt.Errorf("output %v: %w", t, ErrForeignTexture)
			}
			if w, ok := b.lastWriter[t.id]; ok && !needed[w] {
				needed[w] = true
				stack = append(stack, w)
			}
		}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			p := b.passes[id]
			for _, d := range b.contentDeps(p) {
				if !needed[d] {
					needed[d] = true
					stack = append(stack, d)
				}
			}
		}
	}
	return b.order(needed)
}

// contentDeps returns the passes whose output p consumes. Write-after-read
// edges only order passes; they do not keep a pass alive.
func (b *Builder) contentDeps(p *Pass) []int {
	var deps []int
	for _, d := range p.deps {
		dp := b.passes[d]
		if dp.Target.Texture == p.Target.Texture {
			if p.Target.Load == gputypes.LoadOpLoad {
				deps = append(deps, d)
			}
			continue
		}
		for _, in := range p.Inputs {
			if in == dp.Target.Texture {
				deps = append(deps, d)
				break
			}
		}
	}
	return deps
}

// order performs a Kahn topological sort over the needed passes, breaking
// ties by insertion order.
func (b *Builder) order(needed []bool) ([]*Pass, error) {
	indegree := make([]int, len(b.passes))
	dependents := make([][]int, len(b.passes))
	total := 0
	for _, p := range b.passes {
		if !needed[p.ID] {
			continue
		}
		total++
		for _, d := range p.deps {
			if needed[d] {
				indegree[p.ID]++
				dependents[d] = append(dependents[d], p.ID)
			}
		}
	}

	var ready []int
	for _, p := range b.passes {
		if needed[p.ID] && indegree[p.ID] == 0 {
			ready = append(ready, p.ID)
		}
	}

	sorted := make([]*Pass, 0, total)
	for len(ready) > 0 {
		// ready is kept sorted so the smallest ID runs first.
		id := ready[0]
		ready = ready[1:]
		sorted = append(sorted, b.passes[id])
		for _, n := range dependents[id] {
			indegree[n]--
			if indegree[n] == 0 {
				ready = insertSorted(ready, n)
			}
		}
	}
	if len(sorted) != total {
		return nil, ErrCycle
	}
	return sorted, nil
}

func insertSorted(s []int, v int) []int {
	i := len(s)
	for i > 0 && s[i-1] > v {
		i--
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// Execute compiles the graph for outputs and runs each pass on exec.
// Cancellation is checked between passes.
func (b *Builder) Execute(ctx context.Context, exec Executor, outputs ...*Texture) error {
	passes, err := b.Compile(outputs...)
	if err != nil {
		return err
	}
	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := exec.ExecutePass(ctx, p); err != nil {
			return fmt.Errorf("rdg: pass %s: %w", p.FullName(), err)
		}
	}
	return nil
}

// Dump writes a human-readable listing of the compiled graph.
func (b *Builder) Dump(w io.Writer, outputs ...*Texture) error {
	passes, err := b.Compile(outputs...)
	if err != nil {
		return err
	}
	for _, p := range passes {
		names := make([]string, len(p.Inputs))
		for i, in := range p.Inputs {
			names[i] = in.String()
		}
		if _, err := fmt.Fprintf(w, "%3d %-40s %-16s [%s] -> %v %v\n",
			p.ID, p.FullName(), p.Program, strings.Join(names, ", "), p.Target.Texture, p.Target.Rect); err != nil {
			return err
		}
	}
	return nil
}
