// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"github.com/gogpu/gpucontext"
)

// Library reports which pixel programs can be used this frame.
// Implementations must be safe for concurrent use.
type Library interface {
	Available(id ProgramID) bool
}

// StaticLibrary is a fixed set of available programs.
type StaticLibrary struct {
	set [programCount]bool
}

// NewStaticLibrary returns a library containing exactly ids.
func NewStaticLibrary(ids ...ProgramID) *StaticLibrary {
	l := &StaticLibrary{}
	for _, id := range ids {
		if id.Valid() {
			l.set[id] = true
		}
	}
	return l
}

// Builtin returns a library in which every program is available.
func Builtin() *StaticLibrary {
	return NewStaticLibrary(AllPrograms()...)
}

// Available implements Library.
func (l *StaticLibrary) Available(id ProgramID) bool {
	return id.Valid() && l.set[id]
}

// Without returns a copy of l with ids removed.
func (l *StaticLibrary) Without(ids ...ProgramID) *StaticLibrary {
	c := &StaticLibrary{set: l.set}
	for _, id := range ids {
		if id.Valid() {
			c.set[id] = false
		}
	}
	return c
}

// Missing returns the programs from ids that lib cannot provide.
func Missing(lib Library, ids ...ProgramID) []ProgramID {
	var out []ProgramID
	for _, id := range ids {
		if lib == nil || !lib.Available(id) {
			out = append(out, id)
		}
	}
	return out
}

// Library backend names registered by NewLibraryRegistry.
const (
	BackendNaga    = "naga"
	BackendBuiltin = "builtin"
)

// NewLibraryRegistry returns a registry of program libraries. The naga
// backend compiles the embedded WGSL sources; the builtin backend assumes
// every program is present.
//
//	libs := shader.NewLibraryRegistry()
//	lib := libs.Best() // naga
func NewLibraryRegistry() *gpucontext.Registry[Library] {
	r := gpucontext.NewRegistry[Library](gpucontext.WithPriority(BackendNaga, BackendBuiltin))
	r.Register(BackendNaga, func() Library { return NewEmbeddedLibrary() })
	r.Register(BackendBuiltin, func() Library { return Builtin() })
	return r
}
