// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package shader describes the pixel programs used by the bloom graph.
//
// Each [ProgramID] has a WGSL source embedded in the module and a typed
// parameter block (BrightPassParams, BlurParams, ...) that a graph pass
// carries. Whether a program may be used in a frame is answered by a
// [Library]:
//
//   - [NagaLibrary] compiles WGSL to SPIR-V with naga; a program that fails
//     to load or compile is reported unavailable
//   - [StaticLibrary] is an explicit set, useful for tests and for hosts that
//     manage compilation themselves
//
// [NewLibraryRegistry] exposes both through a gpucontext.Registry.
package shader
