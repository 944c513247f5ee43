package field

import "github.com/LynnColeArt/gudafem"

var (
	// ErrInvalidExtent is returned when an extent is not positive or the
	// element count overflows.
	ErrInvalidExtent = gudafem.NewInvalidArgError("Allocate", "extents must be positive")

	// ErrTooManyExtents is returned for more than MaxRank extents.
	ErrTooManyExtents = gudafem.NewInvalidArgError("Allocate", "at most 4 extents")

	// ErrNotAllocated is returned, or panicked with on indexing, when the
	// array holds no device block.
	ErrNotAllocated = gudafem.NewStateError("Array", "array has no device block")

	// ErrSizeMismatch is returned when two operands hold different element counts.
	ErrSizeMismatch = gudafem.NewShapeError("Array", "element counts differ")

	// ErrCopied is panicked with when a copied Array value is used.
	ErrCopied = gudafem.NewStateError("Array", "illegal use of a copied Array; pass *Array or call Clone")
)
