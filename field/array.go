package field

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"reflect"
	"runtime"
	"unsafe"

	"github.com/LynnColeArt/gudafem"
	"github.com/LynnColeArt/gudafem/internal/logging"
	"github.com/sirupsen/logrus"
)

// Element is the set of value types an Array can hold.
type Element = gudafem.Numeric

// Device is the runtime an Array draws its block from. *gudafem.Context
// implements it.
type Device interface {
	Malloc(size int) (gudafem.DevicePtr, error)
	Free(ptr gudafem.DevicePtr) error
	Memcpy(dst, src interface{}, size int, kind gudafem.MemcpyKind) error
}

// Option adjusts an allocation.
type Option func(*allocOptions)

type allocOptions struct {
	dev        Device
	transposed bool
}

// Transposed selects the transposed stride convention. Interleaved
// arrays accept and ignore it.
func Transposed() Option {
	return func(o *allocOptions) { o.transposed = true }
}

// OnDevice allocates from dev instead of the default context.
func OnDevice(dev Device) Option {
	return func(o *allocOptions) { o.dev = dev }
}

// noCopy makes go vet's copylocks check flag copies of an Array.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// block is the device allocation an Array owns. It holds no reference
// back to the Array, so a dropped Array leaves block unreachable and its
// finalizer returns the memory to the device.
type block struct {
	dev Device
	ptr gudafem.DevicePtr
}

func acquire(dev Device, bytes int) (*block, error) {
	ptr, err := dev.Malloc(bytes)
	if err != nil {
		return nil, err
	}
	b := &block{dev: dev, ptr: ptr}
	runtime.SetFinalizer(b, (*block).finalize)
	return b, nil
}

func (b *block) release() error {
	if err := b.dev.Free(b.ptr); err != nil {
		return err
	}
	runtime.SetFinalizer(b, nil)
	return nil
}

func (b *block) finalize() {
	if err := b.dev.Free(b.ptr); err != nil {
		logging.Warnf("field: releasing dropped block of %d bytes: %v", b.ptr.Size(), err)
	}
}

// Array is a strided multi-dimensional view over one device block it owns
// exclusively. It is used through a pointer; a copied Array value panics
// with ErrCopied on first use. An Array is not safe for concurrent use.
//
// Release returns the block promptly. An Array dropped without Release
// gives its block back when the garbage collector reclaims it, so a
// Device shared with dropped arrays must tolerate Free from the
// finalizer goroutine.
type Array[T Element, L Layout] struct {
	noCopy noCopy
	addr   *Array[T, L]

	dev        Device
	blk        *block
	data       gudafem.DevicePtr
	view       []T
	dims       Extents
	size       int
	strides    Strides
	transposed bool
}

// New allocates an array with the given extents (1 to 4 of them).
//
//	u, err := field.New[float64, field.Planar]([]int{3, 4, 2}, field.Transposed())
func New[T Element, L Layout](extents []int, opts ...Option) (*Array[T, L], error) {
	a := &Array[T, L]{}
	if err := a.Allocate(extents, opts...); err != nil {
		return nil, err
	}
	return a, nil
}

// Must panics if err is non-nil and returns a otherwise.
func Must[T Element, L Layout](a *Array[T, L], err error) *Array[T, L] {
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Array[T, L]) copyCheck() {
	if a.addr == nil {
		a.addr = a
	} else if a.addr != a {
		panic(ErrCopied)
	}
}

// Allocate acquires a block for n0*n1*n2*n3 elements and derives the
// layout's strides. Missing trailing extents are 1. Invalid extents leave
// the array unchanged. A block already held is released first; if the new
// allocation then fails the array is left unallocated.
func (a *Array[T, L]) Allocate(extents []int, opts ...Option) error {
	a.copyCheck()

	dims, size, err := parseExtents[T](extents)
	if err != nil {
		return err
	}

	o := allocOptions{dev: a.dev}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dev == nil {
		o.dev = gudafem.Default()
	}

	if err := a.Release(); err != nil {
		logging.Warnf("field: Allocate(%v): previous block not released: %v", dims, err)
		return fmt.Errorf("field: Allocate: releasing previous block: %w", err)
	}

	var elem T
	blk, err := acquire(o.dev, size*int(unsafe.Sizeof(elem)))
	if err != nil {
		return fmt.Errorf("field: Allocate(%v): %w", dims, err)
	}

	var l L
	a.dev = o.dev
	a.blk = blk
	a.data = blk.ptr
	a.view = gudafem.View[T](blk.ptr)[:size]
	a.dims = dims
	a.size = size
	a.transposed = o.transposed
	a.strides = l.strides(dims, o.transposed)

	a.logger().Debug("field allocated")
	return nil
}

func parseExtents[T Element](extents []int) (Extents, int, error) {
	dims := Extents{1, 1, 1, 1}
	if len(extents) == 0 {
		return dims, 0, fmt.Errorf("field: Allocate: no extents: %w", ErrInvalidExtent)
	}
	if len(extents) > MaxRank {
		return dims, 0, fmt.Errorf("field: Allocate(%v): %w", extents, ErrTooManyExtents)
	}

	var elem T
	limit := math.MaxInt / int(unsafe.Sizeof(elem))
	size := 1
	for i, n := range extents {
		if n <= 0 {
			return dims, 0, fmt.Errorf("field: Allocate(%v): extent %d is %d: %w", extents, i, n, ErrInvalidExtent)
		}
		if size > limit/n {
			return dims, 0, fmt.Errorf("field: Allocate(%v): element count overflows: %w", extents, ErrInvalidExtent)
		}
		size *= n
		dims[i] = n
	}
	return dims, size, nil
}

// Release returns the block to its device. Releasing an unallocated
// array is a no-op.
func (a *Array[T, L]) Release() error {
	a.copyCheck()
	if a.blk == nil {
		return nil
	}
	entry := a.logger()
	if err := a.blk.release(); err != nil {
		return err
	}
	a.blk = nil
	a.data = gudafem.DevicePtr{}
	a.view = nil
	a.dims = Extents{}
	a.size = 0
	a.strides = Strides{}
	a.transposed = false
	entry.Debug("field released")
	return nil
}

func (a *Array[T, L]) logger() *logrus.Entry {
	var l L
	return logging.WithFields(logrus.Fields{
		"layout":     l.Name(),
		"dims":       a.dims.String(),
		"transposed": a.transposed,
		"bytes":      a.Bytes(),
	})
}

// IsAllocated reports whether the array holds a device block.
func (a *Array[T, L]) IsAllocated() bool {
	a.copyCheck()
	return !a.data.IsNil()
}

// Len returns the element count n0*n1*n2*n3, or 0 when unallocated.
func (a *Array[T, L]) Len() int {
	a.copyCheck()
	return a.size
}

// Bytes returns the block size in bytes.
func (a *Array[T, L]) Bytes() int {
	var elem T
	return a.Len() * int(unsafe.Sizeof(elem))
}

// Dims returns the four extents.
func (a *Array[T, L]) Dims() Extents {
	a.copyCheck()
	return a.dims
}

// Strides returns the stride table derived at allocation. Interleaved
// arrays keep none and return the zero Strides.
func (a *Array[T, L]) Strides() Strides {
	a.copyCheck()
	return a.strides
}

// IsTransposed reports whether the array was allocated with Transposed.
func (a *Array[T, L]) IsTransposed() bool {
	a.copyCheck()
	return a.transposed
}

// LayoutName returns the name of the array's layout.
func (a *Array[T, L]) LayoutName() string {
	var l L
	return l.Name()
}

// Device returns the device the block was allocated from.
func (a *Array[T, L]) Device() Device {
	a.copyCheck()
	return a.dev
}

// Ptr returns a non-owning handle to the block. It must not be freed and
// is invalid once the array is released, reallocated, or dropped.
func (a *Array[T, L]) Ptr() gudafem.DevicePtr {
	a.copyCheck()
	return a.data
}

// View returns a non-owning slice over the block in linear offset order,
// with the same lifetime rules as Ptr.
func (a *Array[T, L]) View() []T {
	a.copyCheck()
	return a.view
}

func (a *Array[T, L]) mustView() []T {
	a.copyCheck()
	if a.view == nil {
		panic(ErrNotAllocated)
	}
	return a.view
}

// Offset2 maps (x, y) to a linear offset. Indices are not checked
// against the extents.
func (a *Array[T, L]) Offset2(x, y int) int {
	var l L
	return l.offset2(a.dims, a.strides, x, y)
}

// Offset3 maps (x, y, z) to a linear offset. Indices are not checked
// against the extents.
func (a *Array[T, L]) Offset3(x, y, z int) int {
	var l L
	return l.offset3(a.dims, a.strides, x, y, z)
}

// At returns the element at linear offset i, bypassing the layout.
func (a *Array[T, L]) At(i int) T { return a.mustView()[i] }

// Set stores v at linear offset i, bypassing the layout.
func (a *Array[T, L]) Set(i int, v T) { a.mustView()[i] = v }

// At2 returns the element at (x, y).
func (a *Array[T, L]) At2(x, y int) T {
	v := a.mustView()
	return v[a.Offset2(x, y)]
}

// Set2 stores v at (x, y).
func (a *Array[T, L]) Set2(x, y int, val T) {
	v := a.mustView()
	v[a.Offset2(x, y)] = val
}

// At3 returns the element at (x, y, z).
func (a *Array[T, L]) At3(x, y, z int) T {
	v := a.mustView()
	return v[a.Offset3(x, y, z)]
}

// Set3 stores v at (x, y, z).
func (a *Array[T, L]) Set3(x, y, z int, val T) {
	v := a.mustView()
	v[a.Offset3(x, y, z)] = val
}

// Stage copies src from host memory into the block. src must hold exactly
// Len elements; extents and layout are left untouched.
func (a *Array[T, L]) Stage(src HostArray[T]) error {
	a.copyCheck()
	if a.data.IsNil() {
		return fmt.Errorf("field: Stage: %w", ErrNotAllocated)
	}
	if src.Len() != a.size {
		return fmt.Errorf("field: Stage: host holds %d elements, array %d: %w", src.Len(), a.size, ErrSizeMismatch)
	}
	host := asBytes(src.Data()[:src.Len()])
	err := a.dev.Memcpy(a.data, host, len(host), gudafem.MemcpyHostToDevice)
	runtime.KeepAlive(a.blk)
	return err
}

// Download copies the block into a freshly allocated host slice.
func (a *Array[T, L]) Download() ([]T, error) {
	a.copyCheck()
	if a.data.IsNil() {
		return nil, fmt.Errorf("field: Download: %w", ErrNotAllocated)
	}
	out := make([]T, a.size)
	host := asBytes(out)
	err := a.dev.Memcpy(host, a.data, len(host), gudafem.MemcpyDeviceToHost)
	runtime.KeepAlive(a.blk)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Dot returns the inner product of a and other as flat vectors. A nil
// other is reported as ErrNotAllocated.
func (a *Array[T, L]) Dot(other *Array[T, L]) (float64, error) {
	a.copyCheck()
	if other == nil {
		return 0, fmt.Errorf("field: Dot: nil operand: %w", ErrNotAllocated)
	}
	other.copyCheck()
	if a.data.IsNil() || other.data.IsNil() {
		return 0, fmt.Errorf("field: Dot: %w", ErrNotAllocated)
	}
	if a.size != other.size {
		return 0, fmt.Errorf("field: Dot: %d vs %d elements: %w", a.size, other.size, ErrSizeMismatch)
	}
	sum, err := gudafem.Dot[T](a.size, a.data, other.data)
	runtime.KeepAlive(a.blk)
	runtime.KeepAlive(other.blk)
	return sum, err
}

// Clone allocates a new array with the same extents, layout convention and
// device, and copies the block into it.
func (a *Array[T, L]) Clone() (*Array[T, L], error) {
	a.copyCheck()
	if a.data.IsNil() {
		return nil, fmt.Errorf("field: Clone: %w", ErrNotAllocated)
	}
	opts := []Option{OnDevice(a.dev)}
	if a.transposed {
		opts = append(opts, Transposed())
	}
	c, err := New[T, L](a.dims[:], opts...)
	if err != nil {
		return nil, err
	}
	err = a.dev.Memcpy(c.data, a.data, a.Bytes(), gudafem.MemcpyDeviceToDevice)
	runtime.KeepAlive(a.blk)
	if err != nil {
		if rerr := c.Release(); rerr != nil {
			logging.Warnf("field: Clone: releasing partial copy: %v", rerr)
		}
		return nil, err
	}
	return c, nil
}

// Print copies the block back to the host and writes every element in
// linear order, one "[i] value" line each.
func (a *Array[T, L]) Print(w io.Writer) error {
	host, err := a.Download()
	if err != nil {
		return err
	}

	format := "\n\t[%d] %d"
	switch reflect.TypeOf((*T)(nil)).Elem().Kind() {
	case reflect.Float64:
		format = "\n\t[%d] %.15e"
	case reflect.Float32:
		format = "\n\t[%d] %.7e"
	}

	bw := bufio.NewWriter(w)
	for i, v := range host {
		fmt.Fprintf(bw, format, i, v)
	}
	bw.WriteString("\n")
	return bw.Flush()
}

func asBytes[T Element](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var elem T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(elem)))
}
