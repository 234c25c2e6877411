package malloc

import "fmt"
import "unsafe"
import "sync/atomic"

import "golang.org/x/sys/cpu"
import humanize "github.com/dustin/go-humanize"

// chunkmeta is kept outside the chunk, so that a chunk's memory is
// entirely available to its owner.
type chunkmeta struct {
	owner atomic.Uint64  // token of the owning thread context, 0 if none
	inbox atomic.Uintptr // head of remote frees pushed by other contexts
	next  atomic.Uint32  // free-chunk stack link, index+1, 0 terminates
	_     cpu.CacheLinePad
}

// Arena partitions a memory region into Chunksize chunks. Chunks are
// handed out from a lock-free free-chunk stack, or if the stack is
// empty, by bumping a cursor over the never used tail of the region.
// All methods are thread safe.
type Arena struct {
	base    uintptr
	limit   uintptr
	nchunks int64
	chunks  []chunkmeta

	_        cpu.CacheLinePad
	freehead atomic.Uint64 // tag<<32 | (index+1)
	_        cpu.CacheLinePad
	cursor   atomic.Uint64
	_        cpu.CacheLinePad

	acquires  atomic.Int64
	exhausted atomic.Bool
}

// newarena aligns base up to Regionalign and trims length to a whole
// number of chunks, atmost maxchunks.
func newarena(base unsafe.Pointer, length, maxchunks int64) *Arena {
	arena := &Arena{}
	start := uintptr(base)
	if start == 0 || length <= 0 {
		errorf("arena: %v\n", ErrorInvalidSource)
		return arena
	}

	aligned := alignup(start, uintptr(Regionalign))
	if length -= int64(aligned - start); length < 0 {
		length = 0
	}
	nchunks := min(length/Chunksize, maxchunks)
	if trimmed := length - (nchunks * Chunksize); trimmed > 0 {
		infof("arena: trimmed %v from region\n", humanize.Bytes(uint64(trimmed)))
	}
	if nchunks > (1<<32)-2 {
		panicerr("arena cannot manage %v chunks", nchunks)
	}

	arena.base = aligned
	arena.limit = aligned + uintptr(nchunks*Chunksize)
	arena.nchunks = nchunks
	arena.chunks = make([]chunkmeta, nchunks)
	fmsg := "arena: region at %x, %v chunks %v\n"
	infof(fmsg, arena.base, nchunks, humanize.Bytes(uint64(nchunks*Chunksize)))
	return arena
}

// Acquirechunk hand out a chunk that is not owned by any thread
// context, previously released chunks are preferred over fresh ones.
// Return false if all chunks are in use.
func (arena *Arena) Acquirechunk() (int, bool) {
	if index, ok := arena.popfree(); ok {
		arena.acquires.Add(1)
		return index, true
	}
	if n := arena.cursor.Add(1) - 1; n < uint64(arena.nchunks) {
		arena.acquires.Add(1)
		return int(n), true
	}
	if arena.exhausted.CompareAndSwap(false, true) {
		warnf("arena: %v, all %v chunks in use\n", ErrorOutofMemory, arena.nchunks)
	}
	return -1, false
}

// Releasechunk return chunk at index to the arena. Caller must make
// sure that there are no live allocations in the chunk.
func (arena *Arena) Releasechunk(index int) {
	meta := &arena.chunks[index]
	if meta.inbox.Load() != 0 {
		panicerr("chunk %v released with pending remote frees", index)
	}
	meta.owner.Store(0)
	for {
		old := arena.freehead.Load()
		meta.next.Store(uint32(old))
		head := ((old>>32)+1)<<32 | uint64(index+1)
		if arena.freehead.CompareAndSwap(old, head) {
			return
		}
	}
}

func (arena *Arena) popfree() (int, bool) {
	for {
		old := arena.freehead.Load()
		top := uint32(old)
		if top == 0 {
			return -1, false
		}
		next := arena.chunks[top-1].next.Load()
		head := ((old>>32)+1)<<32 | uint64(next)
		if arena.freehead.CompareAndSwap(old, head) {
			return int(top - 1), true
		}
	}
}

// Owns return whether ptr falls inside the arena's chunks.
func (arena *Arena) Owns(ptr unsafe.Pointer) bool {
	return arena.owns(uintptr(ptr))
}

func (arena *Arena) owns(addr uintptr) bool {
	return addr >= arena.base && addr < arena.limit
}

// Chunkof return index of the chunk containing addr.
func (arena *Arena) Chunkof(addr uintptr) int {
	return int((addr - arena.base) >> Chunkshift)
}

// Chunkbase return the starting address of chunk at index.
func (arena *Arena) Chunkbase(index int) uintptr {
	return arena.base + (uintptr(index) << Chunkshift)
}

// Numchunks number of chunks managed by this arena.
func (arena *Arena) Numchunks() int64 {
	return arena.nchunks
}

// Acquires number of successful chunk acquisitions so far.
func (arena *Arena) Acquires() int64 {
	return arena.acquires.Load()
}

func (arena *Arena) setowner(index int, token uint64) {
	arena.chunks[index].owner.Store(token)
}

func (arena *Arena) owner(index int) uint64 {
	return arena.chunks[index].owner.Load()
}

// pushremote publish a list of freed blocks, linked from head to tail,
// to chunk's inbox.
func (arena *Arena) pushremote(index int, head, tail uintptr) {
	inbox := &arena.chunks[index].inbox
	for {
		old := inbox.Load()
		nodeat(tail).next = old
		if inbox.CompareAndSwap(old, head) {
			return
		}
	}
}

// takeremote detach the entire inbox of chunk, only the chunk's owner
// shall call this.
func (arena *Arena) takeremote(index int) uintptr {
	return arena.chunks[index].inbox.Swap(0)
}

func (arena *Arena) String() string {
	return fmt.Sprintf(
		"arena{base:%x chunks:%v acquires:%v}",
		arena.base, arena.nchunks, arena.acquires.Load())
}
