package malloc

import "fmt"

import humanize "github.com/dustin/go-humanize"

// Local sub-allocates one chunk on behalf of a single thread context.
// None of its methods are thread safe, other contexts reach the chunk
// only through the arena's inbox.
type Local struct {
	arena *Arena
	table *Slabtable
	index int
	token uint64
	base  uintptr
	slabs []slabpool
	heap  tlsf
	ticks uint32
	live  int64 // slots and blocks handed out and not yet freed
}

func newlocal(arena *Arena, table *Slabtable, index int, token uint64) *Local {
	local := &Local{
		arena: arena,
		table: table,
		index: index,
		token: token,
		base:  arena.Chunkbase(index),
		slabs: make([]slabpool, table.Numclasses()),
	}
	arena.setowner(index, token)
	for i := range local.slabs {
		base := local.base + uintptr(table.Offset(i))
		local.slabs[i] = newslabpool(base, table.Size(i), table.Slots(i))
	}
	start := local.base + uintptr(table.Capacity())
	local.heap.init(start, local.base+uintptr(Chunksize))
	debugf("malloc: chunk %v acquired by %v\n", index, token)
	return local
}

// Allocslab return a slot from class idx, 0 if the class is exhausted.
func (local *Local) Allocslab(idx int) uintptr {
	addr := local.slabs[idx].alloc()
	if addr != 0 {
		local.live++
	}
	return addr
}

// Freeslab return slot at addr to class idx.
func (local *Local) Freeslab(idx int, addr uintptr) {
	local.slabs[idx].release(addr)
	local.live--
}

// Allocheap return a block from the segregated fit heap, 0 if no free
// block is large enough.
func (local *Local) Allocheap(size, align int64) uintptr {
	addr := local.heap.alloc(uintptr(size), uintptr(align))
	if addr != 0 {
		local.live++
	}
	return addr
}

// free slot or block at addr, which must belong to this chunk.
func (local *Local) free(addr uintptr) {
	offset := int64(addr - local.base)
	if idx := local.table.Classat(offset); idx >= 0 {
		local.Freeslab(idx, addr)
		return
	} else if offset < local.table.Header() {
		panicerr("free of %x inside chunk header", addr)
	}
	local.heap.free(addr)
	local.live--
}

// Drain reclaim every block other contexts have freed into this chunk,
// return the number of blocks reclaimed.
func (local *Local) Drain() (n int) {
	addr := local.arena.takeremote(local.index)
	for addr != 0 {
		next := nodeat(addr).next
		local.free(addr)
		addr, n = next, n+1
	}
	return n
}

// tick drain the inbox every Drainperiod calls.
func (local *Local) tick() {
	if local.ticks++; local.ticks%Drainperiod == 0 {
		local.Drain()
	}
}

// release give the chunk back to the arena. If allocations are still
// live after a final drain, the chunk is left out of circulation and
// frees for it keep accumulating in its inbox.
func (local *Local) release() bool {
	local.Drain()
	if local.live > 0 {
		fmsg := "malloc: chunk %v retained with %v live allocations\n"
		warnf(fmsg, local.index, local.live)
		return false
	}
	local.arena.Releasechunk(local.index)
	debugf("malloc: chunk %v released by %v\n", local.index, local.token)
	return true
}

// Live number of allocations handed out from this chunk and not freed
// adopt a retained chunk into context token, blocks already sitting
// in the inbox are reclaimed right away.
func (local *Local) adopt(token uint64) {
	local.token = token
	local.arena.setowner(local.index, token)
	local.Drain()
	debugf("malloc: chunk %v adopted by %v\n", local.index, token)
}

// back to it.
func (local *Local) Live() int64 {
	return local.live
}

func (local *Local) String() string {
	used := humanize.Bytes(uint64(local.heap.used))
	return fmt.Sprintf(
		"local{chunk:%v live:%v heap:%v}", local.index, local.live, used)
}
