// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shader

import "fmt"

// ProgramID identifies one of the pixel programs used by the bloom graph.
type ProgramID uint8

const (
	// BrightPass downsamples the source and keeps luminance above a threshold.
	BrightPass ProgramID = iota
	// Blur is a separable Gaussian blur along one axis.
	Blur
	// GlareStreak extracts one directional streak.
	GlareStreak
	// GlareAccumulate sums up to four streak buffers.
	GlareAccumulate
	// KawaseDownsample produces one level of the Kawase pyramid.
	KawaseDownsample
	// KawaseUpsample upsamples a level and adds the next larger mip.
	KawaseUpsample
	// Composite blends the bloom result onto the source.
	Composite

	programCount
)

var programNames = [programCount]string{
	BrightPass:       "BrightPass",
	Blur:             "Blur",
	GlareStreak:      "GlareStreak",
	GlareAccumulate:  "GlareAccumulate",
	KawaseDownsample: "KawaseDownsample",
	KawaseUpsample:   "KawaseUpsample",
	Composite:        "Composite",
}

var programSources = [programCount]string{
	BrightPass:       "bright_pass.wgsl",
	Blur:             "blur.wgsl",
	GlareStreak:      "glare_streak.wgsl",
	GlareAccumulate:  "glare_accumulate.wgsl",
	KawaseDownsample: "kawase_downsample.wgsl",
	KawaseUpsample:   "kawase_upsample.wgsl",
	Composite:        "composite.wgsl",
}

// programInputs is the number of textures each program samples. They are
// bound at 1..n, after the uniform block and before the sampler.
var programInputs = [programCount]int{
	BrightPass:       1,
	Blur:             1,
	GlareStreak:      1,
	GlareAccumulate:  4,
	KawaseDownsample: 1,
	KawaseUpsample:   2,
	Composite:        2,
}

// FullscreenVertexSource is the WGSL file holding the vertex stage shared
// by every program. It draws one triangle covering the target.
const FullscreenVertexSource = "fullscreen.wgsl"

// String returns the program name.
func (id ProgramID) String() string {
	if id < programCount {
		return programNames[id]
	}
	return fmt.Sprintf("ProgramID(%d)", id)
}

// Source returns the WGSL file name holding the program.
func (id ProgramID) Source() string {
	if id < programCount {
		return programSources[id]
	}
	return ""
}

// Inputs returns the number of textures the program samples, or 0 for an
// unknown program.
func (id ProgramID) Inputs() int {
	if id < programCount {
		return programInputs[id]
	}
	return 0
}

// Valid reports whether id names a known program.
func (id ProgramID) Valid() bool {
	return id < programCount
}

// AllPrograms returns every program in declaration order.
func AllPrograms() []ProgramID {
	ids := make([]ProgramID, programCount)
	for i := range ids {
		ids[i] = ProgramID(i)
	}
	return ids
}
