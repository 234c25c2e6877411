package malloc

/*
#include <stdlib.h>

static void *xmalloc_aligned(size_t align, size_t size) {
	void *ptr = NULL;
	if (posix_memalign(&ptr, align, size) != 0) {
		return NULL;
	}
	return ptr;
}
*/
import "C"

import "unsafe"

import "github.com/bnclabs/xmalloc/lib"

// sysalign alignment guaranteed by the C library's malloc.
const sysalign = int64(16)

// Mallocator forwards to the C library allocator, implements
// api.Mallocer{}. It is thread safe.
type Mallocator struct{}

// NewMallocator return the system allocator.
func NewMallocator() *Mallocator {
	return &Mallocator{}
}

// Alloc implement api.Mallocer{} interface.
func (m *Mallocator) Alloc(size, align int64) unsafe.Pointer {
	if align <= sysalign {
		return C.malloc(C.size_t(size))
	}
	return C.xmalloc_aligned(C.size_t(align), C.size_t(size))
}

// Free implement api.Mallocer{} interface.
func (m *Mallocator) Free(ptr unsafe.Pointer, size, align int64) {
	if ptr != nil {
		C.free(ptr)
	}
}

// Realloc implement api.Mallocer{} interface.
func (m *Mallocator) Realloc(
	ptr unsafe.Pointer, oldsize, align, newsize int64) unsafe.Pointer {

	if ptr == nil {
		return m.Alloc(newsize, align)
	} else if newsize == 0 {
		m.Free(ptr, oldsize, align)
		return nil
	} else if align <= sysalign {
		return C.realloc(ptr, C.size_t(newsize))
	}
	newptr := m.Alloc(newsize, align)
	if newptr != nil {
		lib.Memcpy(newptr, ptr, int(min(oldsize, newsize)))
		m.Free(ptr, oldsize, align)
	}
	return newptr
}

// syssource takes the whole region as a single chunk aligned
// allocation from the C library.
type syssource struct {
	length int64
	base   unsafe.Pointer
}

func newsyssource(length int64) *syssource {
	return &syssource{length: length}
}

// Region implement api.Memorysource{} interface.
func (src *syssource) Region() (unsafe.Pointer, int64) {
	if src.base == nil {
		src.base = C.xmalloc_aligned(C.size_t(Chunksize), C.size_t(src.length))
		if src.base == nil {
			errorf("malloc: posix_memalign %v bytes failed\n", src.length)
			return nil, 0
		}
	}
	return src.base, src.length
}
