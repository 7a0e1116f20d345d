// Package bloom builds a screen-space bloom post-process as a render graph.
//
// # Overview
//
// Each frame, for each view, the host asks an [Extension] to add its passes
// to an [rdg.Builder]. The extension extracts the bright parts of the scene
// color at reduced resolution, spreads them with one of four blur
// strategies and composites the result back over the scene:
//
//	scene ──► BrightPass ──► blur strategy ──► CompositeBloom ──► output
//	  └────────────────────────────────────────────┘
//
// The strategies are
//   - [ModeStandard]: separable Gaussian blur, one or more H/V pairs
//   - [ModeDirectionalGlare]: angular streaks summed four at a time, then
//     lightly blurred
//   - [ModeKawase]: a down/up mip pyramid read straight from the scene
//   - [ModeSoftFocus]: the standard graph with a near-zero threshold and a
//     soft overlay composite
//
// A strategy whose pixel programs are missing falls back to the standard
// blur. A missing bright pass, blur or composite program skips the effect
// for the frame and the scene color is returned unchanged.
//
// # Quick Start
//
//	reg := bloom.NewRegistry()
//	fx := bloom.NewEffect(reg, bloom.DefaultConfig())
//	defer fx.Close()
//
//	ext := bloom.NewExtension(reg)
//
//	// per frame, per view
//	b := rdg.NewBuilder()
//	scene := rdg.FullScreenTexture(b.RegisterExternal("SceneColor", desc))
//	out := ext.Process(b, view, bloom.Inputs{SceneColor: scene})
//	err := b.Execute(ctx, executor, out.Texture)
//
// # Configuration
//
// [Config] holds every tunable. Configurations live in a [Registry] of
// generation-checked slots; an [Effect] owns one slot and moves it in and
// out of the active set. The first registered, enabled configuration drives
// the frame. Presets are JSON documents read with [LoadPreset].
//
// # Logging
//
// bloom logs through log/slog and is silent by default. See [SetLogger].
// Per-frame diagnostics are rate limited by a [Throttle].
//
// # Coordinate System
//
// Pixel positions are pixel centers in target texels, origin top-left.
// Viewport and UV transforms live in package screen.
package bloom
