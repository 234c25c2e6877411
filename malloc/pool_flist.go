package malloc

// slabpool hands out equal sized slots of one slab class inside a
// chunk. Fresh slots are carved by bumping an index, freed slots are
// chained through their first word and reused in LIFO order.
type slabpool struct {
	base  uintptr // first slot of this class
	size  uintptr
	slots uint32
	bump  uint32  // slots carved so far
	free  uintptr // head of freed slots, 0 if empty
}

func newslabpool(base uintptr, size, slots int64) slabpool {
	return slabpool{base: base, size: uintptr(size), slots: uint32(slots)}
}

// alloc return a slot, 0 if the class is exhausted.
func (pool *slabpool) alloc() uintptr {
	if addr := pool.free; addr != 0 {
		pool.free = nodeat(addr).next
		return addr
	}
	if pool.bump < pool.slots {
		addr := pool.base + uintptr(pool.bump)*pool.size
		pool.bump++
		return addr
	}
	return 0
}

// release slot at addr, it becomes the next slot to be handed out.
func (pool *slabpool) release(addr uintptr) {
	poisonblock(addr, pool.size)
	nodeat(addr).next = pool.free
	pool.free = addr
}

// freecount walk the free list, for diagnostics only.
func (pool *slabpool) freecount() (n int64) {
	for addr := pool.free; addr != 0; addr = nodeat(addr).next {
		n++
	}
	return n
}
