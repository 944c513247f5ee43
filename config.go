// Package gudafem configuration constants
package gudafem

// Memory pool parameters
const (
	// Memory alignment for allocations (one cache line)
	MemoryAlignment = 64

	// A free block is reused only if it is at most this many times the
	// aligned request, so a small field never pins a huge block.
	FreeListSlack = 2
)

