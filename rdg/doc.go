// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package rdg is a small render dependency graph for full-screen passes.
//
// A [Builder] is created per view per frame. Textures are either imported
// from the host ([Builder.RegisterExternal]) or allocated transiently from a
// [TextureDesc] produced by [NewTextureDesc2D]. Each call to
// [Builder.AddFullscreenPass] declares the textures a pass samples and the
// target it writes; read-after-write, write-after-write and
// write-after-read edges are derived from those declarations.
//
// [Builder.Compile] culls passes that never reach the requested outputs and
// orders the rest topologically. [Builder.Execute] hands them to an
// [Executor] (a GPU backend, or the CPU reference executor used in tests).
package rdg
