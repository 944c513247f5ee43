package gudafem

import (
	"fmt"
	"unsafe"

	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
)

// Dot computes the inner product of the first n elements of x and y,
// both viewed as T. Floating blocks go through the BLAS kernels; integer
// blocks accumulate into float64.
func Dot[T Numeric](n int, x, y DevicePtr) (float64, error) {
	if n < 0 {
		return 0, NewInvalidArgError("Dot", fmt.Sprintf("negative element count %d", n))
	}
	if n == 0 {
		return 0, nil
	}
	if x.IsNil() || y.IsNil() {
		return 0, ErrNullPointer
	}

	var zero T
	need := n * int(unsafe.Sizeof(zero))
	if need > x.Size() || need > y.Size() {
		return 0, NewTransferError("Dot",
			fmt.Sprintf("%d elements need %d bytes, blocks hold %d and %d", n, need, x.Size(), y.Size()),
			ErrOutOfRange)
	}

	switch any(zero).(type) {
	case float64:
		return blas64.Dot(
			blas64.Vector{N: n, Data: x.Float64()[:n], Inc: 1},
			blas64.Vector{N: n, Data: y.Float64()[:n], Inc: 1},
		), nil
	case float32:
		return float64(blas32.Dot(
			blas32.Vector{N: n, Data: x.Float32()[:n], Inc: 1},
			blas32.Vector{N: n, Data: y.Float32()[:n], Inc: 1},
		)), nil
	}

	xs, ys := View[T](x)[:n], View[T](y)[:n]
	var sum float64
	for i := range xs {
		sum += float64(xs[i]) * float64(ys[i])
	}
	return sum, nil
}

// SumSquares is Dot of a block with itself.
func SumSquares[T Numeric](n int, x DevicePtr) (float64, error) {
	return Dot[T](n, x, x)
}
