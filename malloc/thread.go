package malloc

import "unsafe"
import "sync/atomic"

import "github.com/bnclabs/xmalloc/lib"

// remotebatch frees destined to a single foreign chunk, linked through
// the freed blocks themselves.
type remotebatch struct {
	chunk int
	head  uintptr
	tail  uintptr
	count int
}

func (batch *remotebatch) add(arena *Arena, index int, addr uintptr) {
	if batch.count > 0 && batch.chunk != index {
		batch.flush(arena)
	}
	if batch.count == 0 {
		nodeat(addr).next = 0
		batch.chunk, batch.head, batch.tail = index, addr, addr
	} else {
		nodeat(addr).next = batch.head
		batch.head = addr
	}
	if batch.count++; batch.count >= Batchsize {
		batch.flush(arena)
	}
}

func (batch *remotebatch) flush(arena *Arena) {
	if batch.count == 0 {
		return
	}
	arena.pushremote(batch.chunk, batch.head, batch.tail)
	batch.head, batch.tail, batch.count = 0, 0, 0
}

// Thread is a thread context, the unit of ownership for chunks. A
// context binds to a chunk on its first small allocation and keeps it
// until Close. Methods are not thread safe, a context must be used by
// one goroutine at a time.
type Thread struct {
	allocs atomic.Int64
	frees  atomic.Int64

	allocator *Allocator
	token     uint64
	local     *Local
	batch     remotebatch
	closed    bool
}

// Alloc implement api.Mallocer{} interface. Return nil only if the
// system allocator failed as well.
func (th *Thread) Alloc(size, align int64) unsafe.Pointer {
	checklayout(size, align)
	th.checkclosed()
	ptr := th.allocate(size, align)
	if ptr != nil {
		th.allocs.Add(1)
	}
	return ptr
}

func (th *Thread) allocate(size, align int64) unsafe.Pointer {
	table := th.allocator.table
	fallback := th.allocator.fallback
	if size <= table.Maxsize() {
		local := th.bind()
		if local == nil {
			return fallback.Alloc(size, align)
		}
		local.tick()
		idx := table.Classfor(max(size, align))
		if idx >= 0 && table.Align(idx) >= align {
			if addr := local.Allocslab(idx); addr != 0 {
				return ptrof(addr)
			}
			local.Drain()
			if addr := local.Allocslab(idx); addr != 0 {
				return ptrof(addr)
			}
		}
		if addr := local.Allocheap(size, align); addr != 0 {
			return ptrof(addr)
		}
		return fallback.Alloc(size, align)

	} else if size >= Largecutoff {
		return fallback.Alloc(size, align)

	} else if th.local != nil {
		if addr := th.local.Allocheap(size, align); addr != 0 {
			return ptrof(addr)
		}
	}
	return fallback.Alloc(size, align)
}

// bind acquire a chunk for this context if it does not own one yet,
// chunks retained by closed contexts are adopted before fresh ones.
func (th *Thread) bind() *Local {
	if th.local != nil {
		return th.local
	}
	arena := th.allocator.Arena()
	if local := th.allocator.adopt(th.token); local != nil {
		th.local = local
		return local
	}
	index, ok := arena.Acquirechunk()
	if !ok {
		return nil
	}
	th.local = newlocal(arena, th.allocator.table, index, th.token)
	return th.local
}

// Free implement api.Mallocer{} interface. Memory owned by another
// context is batched and handed over to that context's chunk.
func (th *Thread) Free(ptr unsafe.Pointer, size, align int64) {
	if ptr == nil {
		return
	}
	th.checkclosed()
	th.frees.Add(1)
	addr := uintptr(ptr)
	arena := th.allocator.arena.Load()
	if arena == nil || !arena.owns(addr) {
		th.allocator.fallback.Free(ptr, size, align)
		return
	}
	index := arena.Chunkof(addr)
	if th.local != nil && arena.owner(index) == th.token {
		th.local.free(addr)
		return
	}
	th.batch.add(arena, index, addr)
}

// Realloc implement api.Mallocer{} interface. A slab slot is returned
// as is when newsize resolves to the same slab class.
func (th *Thread) Realloc(
	ptr unsafe.Pointer, oldsize, align, newsize int64) unsafe.Pointer {

	if ptr == nil {
		return th.Alloc(newsize, align)
	} else if newsize == 0 {
		th.Free(ptr, oldsize, align)
		return nil
	}
	checklayout(newsize, align)
	th.checkclosed()

	addr := uintptr(ptr)
	arena, table := th.allocator.arena.Load(), th.allocator.table
	if arena == nil || !arena.owns(addr) {
		return th.allocator.fallback.Realloc(ptr, oldsize, align, newsize)
	}
	offset := int64(addr - arena.Chunkbase(arena.Chunkof(addr)))
	if idx := table.Classat(offset); idx >= 0 && table.Align(idx) >= align {
		if table.Classfor(max(newsize, align)) == idx {
			return ptr
		}
	}
	newptr := th.Alloc(newsize, align)
	if newptr != nil {
		lib.Memcpy(newptr, ptr, int(min(oldsize, newsize)))
		th.Free(ptr, oldsize, align)
	}
	return newptr
}

// Drain reclaim blocks freed into this context's chunk by other
// contexts, return the number of blocks reclaimed.
func (th *Thread) Drain() int {
	th.checkclosed()
	if th.local == nil {
		return 0
	}
	return th.local.Drain()
}

// Flush publish pending frees destined to other contexts' chunks.
func (th *Thread) Flush() {
	th.checkclosed()
	if arena := th.allocator.arena.Load(); arena != nil {
		th.batch.flush(arena)
	}
}

// Close flush pending frees and give the chunk back to the arena. A
// chunk with live allocations is retained by the allocator and handed
// to the next context that needs one. Memory allocated by this context
// remains valid until freed, but the context shall not be used after
// Close.
func (th *Thread) Close() {
	if th.closed {
		return
	}
	th.Flush()
	if th.local != nil {
		if !th.local.release() {
			th.allocator.retain(th.local)
		}
		th.local = nil
	}
	th.closed = true
	th.allocator.retire(th)
}

// Live number of allocations made by this context less the number of
// frees made by this context.
func (th *Thread) Live() int64 {
	return th.allocs.Load() - th.frees.Load()
}

func (th *Thread) checkclosed() {
	if th.closed {
		panicerr("thread context %v used after close", th.token)
	}
}
