package api

import "unsafe"

// Mallocer interface for custom memory management. Sizes and alignments
// are in bytes, alignment shall be a power of two.
type Mallocer interface {
	// Alloc allocate a block of `size` bytes aligned to `align`. Return
	// nil only when memory is exhausted at every level.
	Alloc(size, align int64) unsafe.Pointer

	// Free a block obtained from Alloc or Realloc, `size` and `align`
	// shall match the values used to allocate it. Freeing nil is a no-op.
	Free(ptr unsafe.Pointer, size, align int64)

	// Realloc resize the block to `newsize`, preserving the first
	// min(oldsize, newsize) bytes. A nil `ptr` degenerates to Alloc and
	// a zero `newsize` degenerates to Free, returning nil.
	Realloc(ptr unsafe.Pointer, oldsize, align, newsize int64) unsafe.Pointer
}

// Memorysource supplies the single contiguous region of memory managed
// by an arena. Region is queried once and the result cached for the
// lifetime of the arena.
type Memorysource interface {
	Region() (base unsafe.Pointer, length int64)
}
