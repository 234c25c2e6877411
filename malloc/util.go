package malloc

import "fmt"
import "errors"
import "unsafe"

// ErrorOutofMemory arena has no more chunks to hand out.
var ErrorOutofMemory = errors.New("malloc.outofmemory")

// ErrorInvalidSource memory source could not supply a region.
var ErrorInvalidSource = errors.New("malloc.invalidsource")

// freenode overlays the first word of a logically free block. A block
// is either live payload or a freenode, never both, and only the
// current holder of the block may access it through nodeat.
type freenode struct {
	next uintptr
}

func nodeat(addr uintptr) *freenode {
	return (*freenode)(unsafe.Pointer(addr))
}

func ptrof(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr)
}

func alignup(n, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}

func aligndown(n, align uintptr) uintptr {
	return n &^ (align - 1)
}

// checklayout panics on requests no allocator can honour, these are
// caller bugs.
func checklayout(size, align int64) {
	if size <= 0 {
		panicerr("invalid allocation size %v", size)
	} else if align <= 0 || (align&(align-1)) != 0 {
		panicerr("alignment %v is not a power of two", align)
	}
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}
