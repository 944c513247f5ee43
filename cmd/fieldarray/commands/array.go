package commands

import (
	"fmt"
	"io"

	"github.com/LynnColeArt/gudafem/field"
	"github.com/LynnColeArt/gudafem/internal/config"
)

// fieldArray erases the element and layout type parameters so one command
// can drive any configured array.
type fieldArray interface {
	Len() int
	Dims() field.Extents
	Strides() field.Strides
	LayoutName() string
	IsTransposed() bool
	Offset3(x, y, z int) int
	Print(w io.Writer) error
	Release() error

	// stageRamp fills the array with 0, 1, 2, ... in linear order and
	// returns the staged values widened to float64.
	stageRamp() ([]float64, error)
	selfDot() (float64, error)
}

type typedArray[T field.Element, L field.Layout] struct {
	*field.Array[T, L]
}

func (a typedArray[T, L]) stageRamp() ([]float64, error) {
	host := make([]T, a.Len())
	wide := make([]float64, len(host))
	for i := range host {
		host[i] = T(i)
		wide[i] = float64(host[i])
	}
	if err := a.Stage(field.HostSlice[T](host)); err != nil {
		return nil, err
	}
	return wide, nil
}

func (a typedArray[T, L]) selfDot() (float64, error) {
	return a.Dot(a.Array)
}

func openArray(cfg *config.Config, dev field.Device) (fieldArray, error) {
	opts := []field.Option{field.OnDevice(dev)}
	if cfg.Array.Transposed {
		opts = append(opts, field.Transposed())
	}

	switch cfg.Array.Layout {
	case "interleaved":
		return openElement[field.Interleaved](cfg, opts)
	case "planar":
		return openElement[field.Planar](cfg, opts)
	default:
		return nil, fmt.Errorf("unknown layout %q", cfg.Array.Layout)
	}
}

func openElement[L field.Layout](cfg *config.Config, opts []field.Option) (fieldArray, error) {
	switch cfg.Array.Element {
	case "float32":
		return open[float32, L](cfg.Array.Extents, opts)
	case "float64":
		return open[float64, L](cfg.Array.Extents, opts)
	case "int32":
		return open[int32, L](cfg.Array.Extents, opts)
	case "int64":
		return open[int64, L](cfg.Array.Extents, opts)
	default:
		return nil, fmt.Errorf("unknown element type %q", cfg.Array.Element)
	}
}

func open[T field.Element, L field.Layout](extents []int, opts []field.Option) (fieldArray, error) {
	a, err := field.New[T, L](extents, opts...)
	if err != nil {
		return nil, err
	}
	return typedArray[T, L]{a}, nil
}
