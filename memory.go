package gudafem

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/LynnColeArt/gudafem/internal/logging"
	"github.com/sirupsen/logrus"
)

// MemcpyKind specifies the direction of memory transfer.
type MemcpyKind int

const (
	MemcpyHostToHost     MemcpyKind = iota // Host to host transfer
	MemcpyHostToDevice                     // Host to device transfer
	MemcpyDeviceToHost                     // Device to host transfer
	MemcpyDeviceToDevice                   // Device to device transfer
	MemcpyDefault                          // Default transfer (infer direction)
)

func (k MemcpyKind) String() string {
	switch k {
	case MemcpyHostToHost:
		return "HostToHost"
	case MemcpyHostToDevice:
		return "HostToDevice"
	case MemcpyDeviceToHost:
		return "DeviceToHost"
	case MemcpyDeviceToDevice:
		return "DeviceToDevice"
	case MemcpyDefault:
		return "Default"
	default:
		return fmt.Sprintf("MemcpyKind(%d)", int(k))
	}
}

// PoolStats summarizes a memory pool.
type PoolStats struct {
	InUse      int64 // Bytes currently handed out
	Peak       int64 // Largest InUse observed
	LiveBlocks int   // Blocks currently handed out
	FreeBlocks int   // Blocks parked on the free list
}

// MemoryPool manages device memory allocation with efficient reuse.
// It maintains a free list of previously allocated blocks to reduce
// allocation overhead and memory fragmentation.
type MemoryPool struct {
	mu         sync.Mutex
	name       string
	allocated  map[uintptr]*allocation
	freeList   []*allocation
	totalAlloc int64
	peakAlloc  int64
	live       int
	limit      int64
}

type allocation struct {
	buf  []byte
	ptr  unsafe.Pointer
	size int
	used bool
}

// NewMemoryPool creates a new memory pool for efficient memory management.
func NewMemoryPool() *MemoryPool {
	return &MemoryPool{
		allocated: make(map[uintptr]*allocation),
	}
}

// Malloc allocates device memory of the specified size in bytes.
// Blocks are aligned to MemoryAlignment. Recycled blocks are not cleared.
func (ctx *Context) Malloc(size int) (DevicePtr, error) {
	return ctx.memory.Allocate(size)
}

// Free releases device memory allocated by Malloc.
// It is safe to call Free with a zero DevicePtr.
func (ctx *Context) Free(ptr DevicePtr) error {
	if ptr.IsNil() {
		return nil
	}
	return ctx.memory.Free(ptr)
}

// Memcpy copies size bytes from src to dst. Each operand is a DevicePtr
// or a host slice ([]byte, []float32, []float64, []int32, []int64). The
// kind must agree with the operands; MemcpyDefault infers it.
//
// Example:
//
//	h_data := make([]float64, 1024)
//	d_data, _ := ctx.Malloc(1024 * 8)
//	ctx.Memcpy(d_data, h_data, 1024*8, gudafem.MemcpyHostToDevice)
func (ctx *Context) Memcpy(dst, src interface{}, size int, kind MemcpyKind) error {
	if size < 0 {
		return NewInvalidArgError("Memcpy", fmt.Sprintf("negative byte count %d", size))
	}

	dstPtr, dstLen, dstDev, err := operand(dst)
	if err != nil {
		return &Error{Type: ErrTypeInvalidArg, Op: "Memcpy", Message: "bad dst operand", Err: err}
	}
	srcPtr, srcLen, srcDev, err := operand(src)
	if err != nil {
		return &Error{Type: ErrTypeInvalidArg, Op: "Memcpy", Message: "bad src operand", Err: err}
	}

	if err := checkKind(kind, dstDev, srcDev); err != nil {
		return err
	}

	if size == 0 {
		return nil
	}
	if size > dstLen || size > srcLen {
		return NewTransferError("Memcpy",
			fmt.Sprintf("%s copy of %d bytes into %d-byte dst from %d-byte src", kind, size, dstLen, srcLen),
			ErrOutOfRange)
	}

	copy(unsafe.Slice((*byte)(dstPtr), size), unsafe.Slice((*byte)(srcPtr), size))
	return nil
}

func checkKind(kind MemcpyKind, dstDev, srcDev bool) error {
	var wantDst, wantSrc bool
	switch kind {
	case MemcpyDefault:
		return nil
	case MemcpyHostToHost:
	case MemcpyHostToDevice:
		wantDst = true
	case MemcpyDeviceToHost:
		wantSrc = true
	case MemcpyDeviceToDevice:
		wantDst, wantSrc = true, true
	default:
		return NewInvalidArgError("Memcpy", fmt.Sprintf("unknown transfer kind %d", int(kind)))
	}
	if dstDev != wantDst || srcDev != wantSrc {
		return NewInvalidArgError("Memcpy", fmt.Sprintf("operands do not match %s transfer", kind))
	}
	return nil
}

// operand resolves a Memcpy argument to its address, byte length, and
// whether it lives on the device.
func operand(v interface{}) (unsafe.Pointer, int, bool, error) {
	switch o := v.(type) {
	case DevicePtr:
		if o.ptr == nil {
			return nil, 0, true, ErrNullPointer
		}
		return o.ptr, o.size, true, nil
	case []byte:
		p, n := hostSlice(o)
		return p, n, false, nil
	case []float32:
		p, n := hostSlice(o)
		return p, n, false, nil
	case []float64:
		p, n := hostSlice(o)
		return p, n, false, nil
	case []int32:
		p, n := hostSlice(o)
		return p, n, false, nil
	case []int64:
		p, n := hostSlice(o)
		return p, n, false, nil
	default:
		return nil, 0, false, fmt.Errorf("unsupported type: %T", v)
	}
}

func hostSlice[T any](s []T) (unsafe.Pointer, int) {
	if len(s) == 0 {
		return nil, 0
	}
	var zero T
	return unsafe.Pointer(&s[0]), len(s) * int(unsafe.Sizeof(zero))
}

// Allocate allocates memory from the pool
func (mp *MemoryPool) Allocate(size int) (DevicePtr, error) {
	if size <= 0 {
		return DevicePtr{}, ErrInvalidSize
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	alignedSize := (size + MemoryAlignment - 1) &^ (MemoryAlignment - 1)

	for i, alloc := range mp.freeList {
		if alloc.size >= alignedSize && alloc.size <= alignedSize*FreeListSlack {
			if err := mp.reserve(alloc.size); err != nil {
				return DevicePtr{}, err
			}
			mp.freeList = append(mp.freeList[:i], mp.freeList[i+1:]...)
			alloc.used = true
			mp.trace("Malloc", size, true)
			return DevicePtr{ptr: alloc.ptr, size: size}, nil
		}
	}

	if err := mp.reserve(alignedSize); err != nil {
		return DevicePtr{}, err
	}

	buf := make([]byte, alignedSize)
	alloc := &allocation{
		buf:  buf,
		ptr:  unsafe.Pointer(&buf[0]),
		size: alignedSize,
		used: true,
	}
	mp.allocated[uintptr(alloc.ptr)] = alloc
	mp.trace("Malloc", size, false)

	return DevicePtr{ptr: alloc.ptr, size: size}, nil
}

// reserve accounts for n more bytes in use. Caller holds mp.mu.
func (mp *MemoryPool) reserve(n int) error {
	if mp.limit > 0 && mp.totalAlloc+int64(n) > mp.limit {
		return NewMemoryError("Malloc",
			fmt.Sprintf("%d bytes requested with %d of %d in use", n, mp.totalAlloc, mp.limit),
			ErrOutOfMemory)
	}
	mp.totalAlloc += int64(n)
	if mp.totalAlloc > mp.peakAlloc {
		mp.peakAlloc = mp.totalAlloc
	}
	mp.live++
	return nil
}

// Free returns memory to the pool
func (mp *MemoryPool) Free(ptr DevicePtr) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	// Offset handles are views; only the block base can be released.
	alloc, ok := mp.allocated[uintptr(ptr.ptr)]
	if !ok || ptr.offset != 0 {
		return ErrUnknownPointer
	}
	if !alloc.used {
		return ErrDoubleFree
	}

	alloc.used = false
	mp.freeList = append(mp.freeList, alloc)
	mp.totalAlloc -= int64(alloc.size)
	mp.live--
	mp.trace("Free", alloc.size, false)

	return nil
}

// Stats returns memory pool statistics
func (mp *MemoryPool) Stats() PoolStats {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return PoolStats{
		InUse:      mp.totalAlloc,
		Peak:       mp.peakAlloc,
		LiveBlocks: mp.live,
		FreeBlocks: len(mp.freeList),
	}
}

func (mp *MemoryPool) trace(op string, bytes int, reused bool) {
	logging.WithFields(logrus.Fields{
		"ctx":    mp.name,
		"op":     op,
		"bytes":  bytes,
		"reused": reused,
		"in_use": mp.totalAlloc,
	}).Debug("device memory")
}

// View returns a typed slice over the device memory. The slice does not
// own the memory and must not be used after the block is freed.
func View[T Numeric](d DevicePtr) []T {
	if d.ptr == nil {
		return nil
	}
	var zero T
	return unsafe.Slice((*T)(d.ptr), d.size/int(unsafe.Sizeof(zero)))
}

// Float32 returns a float32 slice view of the device memory.
func (d DevicePtr) Float32() []float32 { return View[float32](d) }

// Float64 returns a float64 slice view of the device memory.
func (d DevicePtr) Float64() []float64 { return View[float64](d) }

// Int32 returns an int32 slice view of the device memory.
func (d DevicePtr) Int32() []int32 { return View[int32](d) }

// Int64 returns an int64 slice view of the device memory.
func (d DevicePtr) Int64() []int64 { return View[int64](d) }

// Byte returns a byte slice view of the device memory.
func (d DevicePtr) Byte() []byte {
	if d.ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(d.ptr), d.size)
}

// Offset returns a new DevicePtr offset by the given number of bytes.
// The returned DevicePtr shares the same underlying memory and cannot be
// passed to Free. Offset panics with ErrOutOfRange unless
// 0 <= bytes <= d.Size().
func (d DevicePtr) Offset(bytes int) DevicePtr {
	if bytes < 0 || bytes > d.size {
		panic(ErrOutOfRange)
	}
	if bytes == 0 {
		return d
	}
	return DevicePtr{
		ptr:    unsafe.Add(d.ptr, bytes),
		size:   d.size - bytes,
		offset: d.offset + bytes,
	}
}
