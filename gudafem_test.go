package gudafem

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"
	"unsafe"
)

// Test basic memory allocation and deallocation
func TestMemoryAllocation(t *testing.T) {
	ctx := NewContext()
	sizes := []int{1, 100, 1000, 100000}

	for _, size := range sizes {
		ptr, err := ctx.Malloc(size * 8)
		if err != nil {
			t.Fatalf("Failed to allocate %d bytes: %v", size*8, err)
		}

		slice := ptr.Float64()
		if len(slice) != size {
			t.Errorf("Expected slice length %d, got %d", size, len(slice))
		}
		if uintptr(unsafe.Pointer(&slice[0]))%MemoryAlignment != 0 {
			t.Errorf("Block of %d elements is not %d-byte aligned", size, MemoryAlignment)
		}

		for i := 0; i < min(100, size); i++ {
			slice[i] = float64(i)
		}
		for i := 0; i < min(100, size); i++ {
			if slice[i] != float64(i) {
				t.Errorf("Memory corruption at index %d", i)
			}
		}

		if err := ctx.Free(ptr); err != nil {
			t.Fatalf("Failed to free memory: %v", err)
		}
	}

	if stats := ctx.Stats(); stats.InUse != 0 || stats.LiveBlocks != 0 {
		t.Errorf("Expected empty pool after frees, got %+v", stats)
	}
}

func TestMallocRejectsNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -8} {
		_, err := Malloc(size)
		if !errors.Is(err, ErrInvalidSize) {
			t.Errorf("Malloc(%d): expected ErrInvalidSize, got %v", size, err)
		}
	}
}

func TestFreeErrors(t *testing.T) {
	ctx := NewContext()

	if err := ctx.Free(DevicePtr{}); err != nil {
		t.Errorf("Free of zero DevicePtr should be a no-op, got %v", err)
	}

	ptr, _ := ctx.Malloc(64)
	if err := ctx.Free(ptr.Offset(8)); !errors.Is(err, ErrUnknownPointer) {
		t.Errorf("Free of offset view: expected ErrUnknownPointer, got %v", err)
	}
	if err := ctx.Free(ptr); err != nil {
		t.Fatalf("Free failed: %v", err)
	}
	if err := ctx.Free(ptr); !errors.Is(err, ErrDoubleFree) {
		t.Errorf("Second Free: expected ErrDoubleFree, got %v", err)
	}

	other, _ := NewContext().Malloc(64)
	if err := ctx.Free(other); !IsMemoryError(err) {
		t.Errorf("Free of foreign pointer: expected memory error, got %v", err)
	}
}

func TestMemoryPoolReuse(t *testing.T) {
	ctx := NewContext()

	a, _ := ctx.Malloc(1000)
	base := a.Byte()
	ctx.Free(a)

	b, err := ctx.Malloc(900)
	if err != nil {
		t.Fatalf("Malloc failed: %v", err)
	}
	if &b.Byte()[0] != &base[0] {
		t.Errorf("Expected freed block to be reused")
	}
	if b.Size() != 900 {
		t.Errorf("Reused block reports size %d, want 900", b.Size())
	}

	// Far smaller requests must not pin the large block.
	ctx.Free(b)
	c, _ := ctx.Malloc(8)
	if &c.Byte()[0] == &base[0] {
		t.Errorf("8-byte request should not reuse a 1024-byte block")
	}

	stats := ctx.Stats()
	if stats.LiveBlocks != 1 || stats.FreeBlocks != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if stats.Peak < 1024 {
		t.Errorf("Peak %d should cover the first block", stats.Peak)
	}
}

func TestMemoryLimit(t *testing.T) {
	ctx := NewContext(WithMemoryLimit(1024), WithName("small"))
	if ctx.Device().MemoryLimit != 1024 || ctx.Device().Name != "small" {
		t.Fatalf("Options not applied: %+v", ctx.Device())
	}

	a, err := ctx.Malloc(1000)
	if err != nil {
		t.Fatalf("Malloc within limit failed: %v", err)
	}
	if _, err := ctx.Malloc(64); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("Expected ErrOutOfMemory, got %v", err)
	}
	ctx.Free(a)
	if _, err := ctx.Malloc(64); err != nil {
		t.Errorf("Malloc after Free failed: %v", err)
	}
}

// Test memory copy operations
func TestMemcpy(t *testing.T) {
	const N = 1000
	ctx := NewContext()

	h_src := make([]float64, N)
	h_dst := make([]float64, N)
	for i := 0; i < N; i++ {
		h_src[i] = rand.Float64()
	}

	d_src, _ := ctx.Malloc(N * 8)
	d_dst, _ := ctx.Malloc(N * 8)
	defer ctx.Free(d_src)
	defer ctx.Free(d_dst)

	if err := ctx.Memcpy(d_src, h_src, N*8, MemcpyHostToDevice); err != nil {
		t.Fatalf("H2D copy failed: %v", err)
	}
	if err := ctx.Memcpy(d_dst, d_src, N*8, MemcpyDeviceToDevice); err != nil {
		t.Fatalf("D2D copy failed: %v", err)
	}
	if err := ctx.Memcpy(h_dst, d_dst, N*8, MemcpyDeviceToHost); err != nil {
		t.Fatalf("D2H copy failed: %v", err)
	}

	for i := 0; i < N; i++ {
		if h_src[i] != h_dst[i] {
			t.Errorf("Data mismatch at index %d: %f vs %f", i, h_src[i], h_dst[i])
		}
	}
}

func TestMemcpyTypedSlices(t *testing.T) {
	ctx := NewContext()
	d, _ := ctx.Malloc(16)
	defer ctx.Free(d)

	in := []int64{math.MaxInt64, -1}
	if err := ctx.Memcpy(d, in, 16, MemcpyDefault); err != nil {
		t.Fatalf("H2D copy failed: %v", err)
	}
	out := make([]int32, 4)
	if err := ctx.Memcpy(out, d, 16, MemcpyDeviceToHost); err != nil {
		t.Fatalf("D2H copy failed: %v", err)
	}
	if got := d.Int64(); got[0] != math.MaxInt64 || got[1] != -1 {
		t.Errorf("Int64 view mismatch: %v", got)
	}
	if out[2] != -1 || out[3] != -1 {
		t.Errorf("Int32 readback mismatch: %v", out)
	}
}

func TestMemcpyErrors(t *testing.T) {
	ctx := NewContext()
	d, _ := ctx.Malloc(32)
	defer ctx.Free(d)
	host := make([]float64, 2)

	cases := []struct {
		name  string
		dst   interface{}
		src   interface{}
		size  int
		kind  MemcpyKind
		check func(error) bool
	}{
		{"past device block", d, make([]byte, 64), 64, MemcpyHostToDevice, IsTransferError},
		{"past host slice", host, d, 32, MemcpyDeviceToHost, IsTransferError},
		{"negative size", d, host, -1, MemcpyHostToDevice, IsInvalidArgError},
		{"unsupported type", d, []string{"x"}, 1, MemcpyHostToDevice, IsInvalidArgError},
		{"null device pointer", DevicePtr{}, host, 8, MemcpyHostToDevice, IsInvalidArgError},
		{"kind mismatch", host, d, 8, MemcpyHostToDevice, IsInvalidArgError},
		{"unknown kind", d, host, 8, MemcpyKind(42), IsInvalidArgError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ctx.Memcpy(tc.dst, tc.src, tc.size, tc.kind)
			if err == nil || !tc.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}

	if err := ctx.Memcpy(d, host, 0, MemcpyHostToDevice); err != nil {
		t.Errorf("Zero-byte copy should succeed, got %v", err)
	}
}

func TestMemcpyKeepsOperandCause(t *testing.T) {
	ctx := NewContext()
	host := make([]float64, 2)

	err := ctx.Memcpy(DevicePtr{}, host, 8, MemcpyHostToDevice)
	if !errors.Is(err, ErrNullPointer) {
		t.Errorf("Expected ErrNullPointer in chain, got %v", err)
	}
	if !IsInvalidArgError(err) {
		t.Errorf("Expected invalid argument error, got %v", err)
	}

	err = ctx.Memcpy(host, DevicePtr{}, 8, MemcpyDeviceToHost)
	if !errors.Is(err, ErrNullPointer) {
		t.Errorf("Expected ErrNullPointer in chain for src, got %v", err)
	}
}

func TestDevicePtrOffsetBounds(t *testing.T) {
	ctx := NewContext()
	d, _ := ctx.Malloc(32)
	defer ctx.Free(d)

	if end := d.Offset(32); end.Size() != 0 || len(end.Byte()) != 0 {
		t.Errorf("Offset to end should be empty, got size %d", end.Size())
	}
	if same := d.Offset(0); same != d {
		t.Errorf("Zero offset should return the same pointer")
	}

	for _, off := range []int{-1, 33} {
		func() {
			defer func() {
				if r := recover(); r != ErrOutOfRange {
					t.Errorf("Offset(%d): expected ErrOutOfRange panic, got %v", off, r)
				}
			}()
			d.Offset(off)
		}()
	}
}

func TestDevicePtrViews(t *testing.T) {
	ctx := NewContext()
	d, _ := ctx.Malloc(64)
	defer ctx.Free(d)

	if len(d.Float32()) != 16 || len(d.Float64()) != 8 || len(d.Int32()) != 16 || len(d.Byte()) != 64 {
		t.Errorf("Unexpected view lengths")
	}

	d.Float64()[3] = 2.5
	tail := d.Offset(24)
	if tail.Size() != 40 || tail.Float64()[0] != 2.5 {
		t.Errorf("Offset view mismatch: size %d first %f", tail.Size(), tail.Float64()[0])
	}

	var zero DevicePtr
	if !zero.IsNil() || zero.Float64() != nil || zero.Byte() != nil {
		t.Errorf("Zero DevicePtr should produce nil views")
	}
}

func TestDefaultContext(t *testing.T) {
	if Default() == nil || DeviceInfo() == nil {
		t.Fatal("Default context not initialized")
	}
	before := MemoryStats().LiveBlocks
	d, err := Malloc(128)
	if err != nil {
		t.Fatalf("Malloc failed: %v", err)
	}
	if MemoryStats().LiveBlocks != before+1 {
		t.Errorf("Default pool did not record the block")
	}
	if err := Memcpy(d, []float32{1, 2}, 8, MemcpyHostToDevice); err != nil {
		t.Errorf("Memcpy failed: %v", err)
	}
	if err := Free(d); err != nil {
		t.Errorf("Free failed: %v", err)
	}
}

func TestDeviceString(t *testing.T) {
	dev := NewContext(WithMemoryLimit(2048)).Device()
	s := dev.String()
	if dev.NumCores <= 0 {
		t.Errorf("NumCores should be positive")
	}
	for _, want := range []string{"cores=", "memory=2048 bytes", "features="} {
		if !strings.Contains(s, want) {
			t.Errorf("Device string %q is missing %q", s, want)
		}
	}
	for _, f := range dev.Features {
		if !dev.HasFeature(f) {
			t.Errorf("HasFeature(%q) = false for listed feature", f)
		}
	}
	if dev.HasFeature("not-a-feature") {
		t.Errorf("HasFeature accepted an unknown name")
	}
}
