// Package software is a CPU reference executor for bloom render graphs.
//
// It runs every pixel program on float32 RGBA images with the same math as
// the WGSL sources, one fragment per pixel center, sampling through a
// bilinear clamp-to-edge sampler. Rows are split into bands and processed
// by a small worker pool.
//
// The executor exists for tests and the demo command; it favors clarity
// over speed.
package software
