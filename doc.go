// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gudafem is the device runtime underneath the GUDA finite-element
// field arrays.
//
// It hands out device memory blocks from a pooled Context, moves bytes
// between host slices and device blocks with Memcpy, and evaluates
// reductions such as Dot directly over device memory. Device memory is
// emulated in host RAM and is CPU-addressable, so typed views (View,
// DevicePtr.Float64) are valid for as long as the block is held.
//
// Strided multi-dimensional fields built on top of these blocks live in
// the field subpackage.
//
// Example usage:
//
//	ctx := gudafem.NewContext(gudafem.WithMemoryLimit(1 << 30))
//
//	d_x, _ := ctx.Malloc(n * 8) // n float64s
//	defer ctx.Free(d_x)
//
//	ctx.Memcpy(d_x, h_x, n*8, gudafem.MemcpyHostToDevice)
//	norm2, _ := gudafem.Dot[float64](n, d_x, d_x)
package gudafem
