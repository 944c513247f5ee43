package field

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// HostArray is a host-resident dense source for Stage.
type HostArray[T Element] interface {
	Len() int
	Data() []T
}

// HostSlice adapts a plain slice to HostArray.
type HostSlice[T Element] []T

func (s HostSlice[T]) Len() int  { return len(s) }
func (s HostSlice[T]) Data() []T { return s }

type vecDense struct {
	v *mat.VecDense
}

// VecDense adapts a gonum vector to HostArray. Strided vectors are
// gathered into a contiguous copy when Data is called.
func VecDense(v *mat.VecDense) HostArray[float64] {
	return vecDense{v: v}
}

func (h vecDense) Len() int { return h.v.Len() }

func (h vecDense) Data() []float64 {
	raw := h.v.RawVector()
	if raw.Inc == 1 {
		return raw.Data[:raw.N]
	}
	return mat.Col(nil, 0, h.v)
}

// ToVecDense downloads a into a new gonum vector in linear offset order.
func ToVecDense[L Layout](a *Array[float64, L]) (*mat.VecDense, error) {
	host, err := a.Download()
	if err != nil {
		return nil, fmt.Errorf("field: ToVecDense: %w", err)
	}
	return mat.NewVecDense(len(host), host), nil
}
