package field

import "fmt"

// MaxRank is the number of logical dimensions an Array carries.
const MaxRank = 4

// Extents holds the four logical dimension sizes n0..n3. Unused trailing
// dimensions are 1.
type Extents [MaxRank]int

// Size returns n0*n1*n2*n3.
func (e Extents) Size() int {
	return e[0] * e[1] * e[2] * e[3]
}

func (e Extents) String() string {
	return fmt.Sprintf("%dx%dx%dx%d", e[0], e[1], e[2], e[3])
}

// Strides holds the element stride of each logical dimension.
type Strides [MaxRank]int

// Interleaved keeps dimension 0 fastest-varying and computes offsets from
// the extents on every access. It ignores the transposed flag.
//
//	offset(x, y)    = x + n0*y
//	offset(x, y, z) = x + n0*(y + n1*z)
type Interleaved struct{}

// Planar derives a stride table once at allocation and uses it for every
// access. The transposed convention makes dimension 1 fastest-varying.
//
//	default:    s = (1,  n0, n0*n1, n0*n1*n2)
//	transposed: s = (n1, 1,  n0*n1, n0*n1*n2)
type Planar struct{}

// Layout is the compile-time layout tag of an Array. Only Interleaved and
// Planar satisfy it.
type Layout interface {
	Interleaved | Planar

	// Name identifies the layout in logs and diagnostics.
	Name() string

	strides(d Extents, transposed bool) Strides
	offset2(d Extents, s Strides, x, y int) int
	offset3(d Extents, s Strides, x, y, z int) int
}

func (Interleaved) Name() string { return "interleaved" }

// Interleaved keeps no stride table.
func (Interleaved) strides(Extents, bool) Strides { return Strides{} }

func (Interleaved) offset2(d Extents, _ Strides, x, y int) int {
	return x + d[0]*y
}

func (Interleaved) offset3(d Extents, _ Strides, x, y, z int) int {
	return x + d[0]*(y+d[1]*z)
}

func (Planar) Name() string { return "planar" }

func (Planar) strides(d Extents, transposed bool) Strides {
	// Exchanging n0 and n1 leaves n0*n1 unchanged, so only the two
	// leading strides differ between the conventions.
	plane := d[0] * d[1]
	if transposed {
		return Strides{d[1], 1, plane, plane * d[2]}
	}
	return Strides{1, d[0], plane, plane * d[2]}
}

func (Planar) offset2(_ Extents, s Strides, x, y int) int {
	return s[0]*x + s[1]*y
}

func (Planar) offset3(_ Extents, s Strides, x, y, z int) int {
	return s[0]*x + s[1]*y + s[2]*z
}
