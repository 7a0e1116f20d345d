// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/gogpu/naga"
)

//go:embed wgsl/*.wgsl
var embedded embed.FS

// Sources returns the embedded WGSL sources, rooted so that each program's
// Source() name resolves directly.
func Sources() fs.FS {
	sub, err := fs.Sub(embedded, "wgsl")
	if err != nil {
		panic(fmt.Sprintf("shader: embedded sources: %v", err))
	}
	return sub
}

// compiled is the cached outcome of one source compilation.
type compiled struct {
	spirv []byte
	err   error
}

// NagaLibrary compiles WGSL programs to SPIR-V with naga on first use. A
// program whose source is missing or fails to compile is unavailable.
type NagaLibrary struct {
	src  fs.FS
	opts naga.CompileOptions

	mu    sync.Mutex
	cache map[string]*compiled
}

// NewNagaLibrary creates a library reading <program>.wgsl files from src.
func NewNagaLibrary(src fs.FS, opts naga.CompileOptions) *NagaLibrary {
	return &NagaLibrary{
		src:   src,
		opts:  opts,
		cache: make(map[string]*compiled),
	}
}

// NewEmbeddedLibrary creates a library over the module's own WGSL sources.
func NewEmbeddedLibrary() *NagaLibrary {
	return NewNagaLibrary(Sources(), naga.DefaultOptions())
}

// Available implements Library.
func (l *NagaLibrary) Available(id ProgramID) bool {
	return l.program(id).err == nil
}

// SPIRV returns the compiled fragment module for id.
func (l *NagaLibrary) SPIRV(id ProgramID) ([]byte, error) {
	c := l.program(id)
	return c.spirv, c.err
}

// VertexSPIRV returns the compiled fullscreen vertex module.
func (l *NagaLibrary) VertexSPIRV() ([]byte, error) {
	c := l.compile(FullscreenVertexSource)
	return c.spirv, c.err
}

// Err returns the reason id is unavailable, or nil.
func (l *NagaLibrary) Err(id ProgramID) error {
	return l.program(id).err
}

func (l *NagaLibrary) program(id ProgramID) *compiled {
	if !id.Valid() {
		return &compiled{err: fmt.Errorf("shader: unknown program %v", id)}
	}
	return l.compile(id.Source())
}

func (l *NagaLibrary) compile(name string) *compiled {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok := l.cache[name]; ok {
		return c
	}
	c := &compiled{}
	l.cache[name] = c

	source, err := fs.ReadFile(l.src, name)
	if err != nil {
		c.err = fmt.Errorf("shader: load %s: %w", name, err)
		return c
	}
	spirv, err := naga.CompileWithOptions(string(source), l.opts)
	if err != nil {
		c.err = fmt.Errorf("shader: compile %s: %w", name, err)
		return c
	}
	c.spirv = spirv
	return c
}
