package malloc

import "unsafe"

import "github.com/bnclabs/xmalloc/lib"

// two level segregated fit heap, first level indexes power of two
// ranges and second level splits each range into tlsfslcount lists.
const (
	tlsfalignlog = 4
	tlsfalign    = 1 << tlsfalignlog
	tlsfsllog    = 4
	tlsfslcount  = 1 << tlsfsllog
	tlsfflshift  = tlsfsllog + tlsfalignlog
	tlsfsmall    = 1 << tlsfflshift
	tlsfflcount  = 32
)

const (
	blockhdrsize = uintptr(16) // prevphys + size words
	blockmin     = uintptr(16) // smallest payload, holds the free links
)

// flags in the low bits of blockhdr.size.
const (
	blockfree     = uintptr(1)
	blockprevfree = uintptr(2)
	blockflags    = blockfree | blockprevfree
)

// blockhdr precedes every block's payload. nextfree and prevfree
// overlay the payload and are valid only while the block is free.
type blockhdr struct {
	prevphys uintptr
	size     uintptr
	nextfree uintptr
	prevfree uintptr
}

func hdrat(b uintptr) *blockhdr {
	return (*blockhdr)(unsafe.Pointer(b))
}

func (h *blockhdr) bsize() uintptr {
	return h.size &^ blockflags
}

func (h *blockhdr) isfree() bool {
	return (h.size & blockfree) != 0
}

func (h *blockhdr) isprevfree() bool {
	return (h.size & blockprevfree) != 0
}

func nextphys(b uintptr) uintptr {
	return b + blockhdrsize + hdrat(b).bsize()
}

// tlsf manages a contiguous range of memory, terminated by a zero sized
// sentinel block that is always in use. Physically adjacent free
// blocks are always coalesced.
type tlsf struct {
	start    uintptr
	end      uintptr
	used     int64
	flbitmap lib.Bit32
	slbitmap [tlsfflcount]lib.Bit32
	blocks   [tlsfflcount][tlsfslcount]uintptr
}

func (heap *tlsf) init(start, end uintptr) {
	start, end = alignup(start, tlsfalign), aligndown(end, tlsfalign)
	heap.start, heap.end = start, end
	if end < start || (end-start) < 2*blockhdrsize+blockmin {
		heap.start, heap.end = 0, 0
		return
	}
	b, sentinel := start, end-blockhdrsize
	h := hdrat(b)
	h.prevphys = 0
	h.size = (sentinel - start - blockhdrsize) | blockfree
	s := hdrat(sentinel)
	s.prevphys, s.size = b, blockprevfree
	heap.insert(b)
}

// alloc return address of a payload of atleast size bytes aligned to
// align, 0 if no free block is large enough.
func (heap *tlsf) alloc(size, align uintptr) uintptr {
	if heap.start == 0 {
		return 0
	}
	size = max(alignup(size, tlsfalign), blockmin)
	if align <= tlsfalign {
		if b := heap.locate(size); b != 0 {
			return heap.prepare(b, size)
		}
		return 0
	}

	// a misaligned payload is moved up by splitting off a leading
	// free block, which needs room for its own header and links.
	minlead := blockhdrsize + blockmin
	b := heap.locate(size + align + minlead)
	if b == 0 {
		return 0
	}
	payload := b + blockhdrsize
	aligned := alignup(payload, align)
	if aligned != payload {
		if aligned-payload < minlead {
			aligned += align
		}
		b = heap.trimleading(b, aligned-payload)
	}
	return heap.prepare(b, size)
}

// free payload at ptr, coalescing with physical neighbours.
func (heap *tlsf) free(ptr uintptr) {
	b := ptr - blockhdrsize
	h := hdrat(b)
	heap.used -= int64(h.bsize())
	h.size |= blockfree

	if h.isprevfree() {
		prev := h.prevphys
		ph := hdrat(prev)
		heap.remove(prev, ph.bsize())
		size := ph.bsize() + blockhdrsize + h.bsize()
		ph.size = size | (ph.size & blockprevfree) | blockfree
		b, h = prev, ph
	}
	next := nextphys(b)
	nh := hdrat(next)
	if nh.isfree() {
		heap.remove(next, nh.bsize())
		size := h.bsize() + blockhdrsize + nh.bsize()
		h.size = size | (h.size & blockprevfree) | blockfree
		next = nextphys(b)
		nh = hdrat(next)
	}
	nh.prevphys = b
	nh.size |= blockprevfree
	heap.insert(b)
}

// blocksize return payload size of the block at ptr.
func (heap *tlsf) blocksize(ptr uintptr) uintptr {
	return hdrat(ptr - blockhdrsize).bsize()
}

// locate find and detach a free block of atleast size bytes.
func (heap *tlsf) locate(size uintptr) uintptr {
	fl, sl := mapsearch(size)
	if fl >= tlsfflcount {
		return 0
	}
	slmap := heap.slbitmap[fl].Maskfrom(uint8(sl))
	if slmap == 0 {
		flmap := heap.flbitmap.Maskfrom(uint8(fl + 1))
		if flmap == 0 {
			return 0
		}
		fl = int(flmap.Findfirstset())
		slmap = heap.slbitmap[fl]
	}
	sl = int(slmap.Findfirstset())
	b := heap.blocks[fl][sl]
	heap.unlink(b, fl, sl)
	return b
}

// prepare mark a detached free block as used, returning the unused
// tail to the free lists when it can form a block of its own.
func (heap *tlsf) prepare(b, size uintptr) uintptr {
	h := hdrat(b)
	if h.bsize() >= size+blockhdrsize+blockmin {
		rest := b + blockhdrsize + size
		rh := hdrat(rest)
		rh.prevphys = b
		rh.size = (h.bsize() - size - blockhdrsize) | blockfree
		h.size = size | (h.size & blockflags)
		hdrat(nextphys(rest)).prevphys = rest
		heap.insert(rest)
	}
	h.size &^= blockfree
	hdrat(nextphys(b)).size &^= blockprevfree
	heap.used += int64(h.bsize())
	return b + blockhdrsize
}

// trimleading split a detached free block lead bytes from its start,
// the leading part goes back to the free lists.
func (heap *tlsf) trimleading(b, lead uintptr) uintptr {
	h := hdrat(b)
	total := h.bsize()
	nb := b + lead
	nh := hdrat(nb)
	nh.prevphys = b
	nh.size = (total - lead) | blockprevfree | blockfree
	h.size = (lead - blockhdrsize) | (h.size & blockprevfree) | blockfree
	hdrat(nextphys(nb)).prevphys = nb
	heap.insert(b)
	return nb
}

func (heap *tlsf) insert(b uintptr) {
	h := hdrat(b)
	fl, sl := mapinsert(h.bsize())
	head := heap.blocks[fl][sl]
	h.nextfree, h.prevfree = head, 0
	if head != 0 {
		hdrat(head).prevfree = b
	}
	heap.blocks[fl][sl] = b
	heap.flbitmap = heap.flbitmap.Setbit(uint8(fl))
	heap.slbitmap[fl] = heap.slbitmap[fl].Setbit(uint8(sl))
}

func (heap *tlsf) remove(b, size uintptr) {
	fl, sl := mapinsert(size)
	heap.unlink(b, fl, sl)
}

func (heap *tlsf) unlink(b uintptr, fl, sl int) {
	h := hdrat(b)
	prev, next := h.prevfree, h.nextfree
	if next != 0 {
		hdrat(next).prevfree = prev
	}
	if prev != 0 {
		hdrat(prev).nextfree = next
		return
	}
	heap.blocks[fl][sl] = next
	if next == 0 {
		heap.slbitmap[fl] = heap.slbitmap[fl].Clearbit(uint8(sl))
		if heap.slbitmap[fl] == 0 {
			heap.flbitmap = heap.flbitmap.Clearbit(uint8(fl))
		}
	}
}

// mapinsert return the list a free block of size bytes belongs to.
func mapinsert(size uintptr) (int, int) {
	if size < tlsfsmall {
		return 0, int(size / (tlsfsmall / tlsfslcount))
	}
	fl := int(lib.Findlastset64(uint64(size)))
	sl := int(size>>uint(fl-tlsfsllog)) ^ tlsfslcount
	return fl - (tlsfflshift - 1), sl
}

// mapsearch return the first list whose every block can hold size
// bytes.
func mapsearch(size uintptr) (int, int) {
	if size >= tlsfsmall {
		fl := uint(lib.Findlastset64(uint64(size)))
		size += (uintptr(1) << (fl - tlsfsllog)) - 1
	}
	return mapinsert(size)
}
