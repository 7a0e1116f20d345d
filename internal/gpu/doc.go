// Package gpu runs bloom render graphs on a wgpu HAL device.
//
// [Executor] implements rdg.Executor. Each pass becomes one render pass
// drawing a fullscreen triangle into its target texture:
//
//	rdg.Pass -> uniform buffer + bind group -> render pipeline -> Draw(3)
//
// Fragment modules come from a shader.NagaLibrary, which compiles the
// embedded WGSL to SPIR-V; the vertex stage is the library's shared
// fullscreen module. Render pipelines are cached per program and target
// format. Transient graph textures are created from their descriptors on
// first use; external textures are imported with [Executor.Bind].
//
// The executor works on any HAL backend, including hal/noop for tests:
//
//	api := noop.API{}
//	inst, _ := api.CreateInstance(nil)
//	dev, _ := inst.EnumerateAdapters(nil)[0].Adapter.Open(0, gputypes.DefaultLimits())
//	exec := gpu.NewExecutor(dev.Device, dev.Queue, shader.NewEmbeddedLibrary())
//	defer exec.Destroy()
package gpu
