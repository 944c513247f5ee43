package gudafem

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"unsafe"
)

// Numeric is the set of element types a device block can be viewed as.
type Numeric interface {
	~int32 | ~int64 | ~float32 | ~float64
}

// Device describes the compute device behind a Context. The runtime
// emulates device memory in host RAM, so the device is the CPU with its
// cores and vector extensions.
type Device struct {
	ID          int      // Unique device identifier
	Name        string   // Human-readable device name
	MemoryLimit int64    // Bytes the context may hand out, 0 for unlimited
	NumCores    int      // Number of CPU cores
	Features    []string // SIMD extensions reported by the CPU
}

// String renders the device for logs and the CLI.
func (d *Device) String() string {
	limit := "unlimited"
	if d.MemoryLimit > 0 {
		limit = fmt.Sprintf("%d bytes", d.MemoryLimit)
	}
	features := "none"
	if len(d.Features) > 0 {
		features = strings.Join(d.Features, ",")
	}
	return fmt.Sprintf("%s [id=%d cores=%d memory=%s features=%s]",
		d.Name, d.ID, d.NumCores, limit, features)
}

// Context owns a memory pool and the device description it serves.
// A Context is safe for concurrent use.
type Context struct {
	device *Device
	memory *MemoryPool
}

// ContextOption configures a Context at construction.
type ContextOption func(*Context)

// WithMemoryLimit caps the bytes the context may have outstanding.
// Non-positive values mean unlimited.
func WithMemoryLimit(bytes int64) ContextOption {
	return func(ctx *Context) {
		if bytes < 0 {
			bytes = 0
		}
		ctx.device.MemoryLimit = bytes
		ctx.memory.limit = bytes
	}
}

// WithName overrides the device name, useful to tell contexts apart in logs.
func WithName(name string) ContextOption {
	return func(ctx *Context) {
		ctx.device.Name = name
	}
}

// NewContext creates a context backed by a fresh memory pool.
func NewContext(opts ...ContextOption) *Context {
	ctx := &Context{
		device: &Device{
			Name:     fmt.Sprintf("CPU (%s)", runtime.GOARCH),
			NumCores: runtime.NumCPU(),
			Features: detectCPUFeatures(),
		},
		memory: NewMemoryPool(),
	}
	for _, opt := range opts {
		opt(ctx)
	}
	ctx.memory.name = ctx.device.Name
	return ctx
}

// Device returns the device this context allocates on.
func (ctx *Context) Device() *Device {
	return ctx.device
}

// Stats reports bytes in use, peak bytes, and live block count.
func (ctx *Context) Stats() PoolStats {
	return ctx.memory.Stats()
}

var (
	defaultContext *Context
	initOnce       sync.Once
)

func init() {
	initOnce.Do(func() {
		defaultContext = NewContext()
	})
}

// Default returns the package-level context used by Malloc, Free and Memcpy.
func Default() *Context {
	return defaultContext
}

// Malloc allocates device memory of the specified size in bytes from the
// default context.
//
// Example:
//
//	d_data, err := gudafem.Malloc(1024 * 8) // Allocate 1024 float64s
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gudafem.Free(d_data)
func Malloc(size int) (DevicePtr, error) {
	return defaultContext.Malloc(size)
}

// Free releases device memory allocated by Malloc.
// It is safe to call Free with a zero-value DevicePtr.
func Free(ptr DevicePtr) error {
	return defaultContext.Free(ptr)
}

// Memcpy copies memory between host and device using the default context.
func Memcpy(dst, src interface{}, size int, kind MemcpyKind) error {
	return defaultContext.Memcpy(dst, src, size, kind)
}

// MemoryStats reports the default context's pool statistics.
func MemoryStats() PoolStats {
	return defaultContext.Stats()
}

// DeviceInfo returns the default context's device.
func DeviceInfo() *Device {
	return defaultContext.device
}

// DevicePtr is a handle to a block of device memory. It does not own the
// block; the block stays valid until it is passed to Free.
type DevicePtr struct {
	ptr    unsafe.Pointer
	size   int
	offset int
}

// IsNil reports whether the handle refers to no memory.
func (d DevicePtr) IsNil() bool {
	return d.ptr == nil
}

// Size returns the size in bytes of the memory region
func (d DevicePtr) Size() int {
	return d.size
}
