// Package field provides Array, a strided device-resident array holding
// nodal or quadrature-point values of a finite-element field.
//
// An Array owns exactly one device block of n0*n1*n2*n3 elements and maps
// logical (x, y[, z]) tuples to linear offsets through its layout type
// parameter:
//
//   - Interleaved: offset = x + n0*(y + n1*z), computed from the extents.
//   - Planar: offset = s0*x + s1*y + s2*z with strides derived once at
//     allocation; the Transposed option swaps which of the first two
//     dimensions is fastest-varying.
//
// Host data enters a block through Stage and leaves it through Download
// or Print. Dot evaluates an inner product over device memory.
//
// Arrays are single-owner values handled by pointer. Copying an Array
// value is flagged by go vet and panics at run time; use Clone for a deep
// copy. Blocks are returned to the device with Release.
package field
