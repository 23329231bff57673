// Package imaging provides image loading and tensor conversion for the
// saliency pipeline.
//
// This package is the boundary between on-disk images and the float tensors
// the detection and saliency layers operate on. Images are always normalized
// to NRGBA with a fixed RGB channel order at load time, and converted to
// HWC float64 tensors with values in [0, 1] before any model sees them.
//
// # Coordinate System
//
// Tensors use row-major (y, x, channel) indexing with the origin at the
// top-left corner, matching the standard image convention:
//   - X increases rightward
//   - Y increases downward
//
// # Lifecycle
//
// Nothing here caches or persists: each explanation run loads its image
// fresh, and batch replication produces independent copies. Tensors are
// never shared mutably across runs.
package imaging
