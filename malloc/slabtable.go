package malloc

import "fmt"
import "math/bits"

// Slabclass a run of Slots equal sized slots, of Size bytes each.
type Slabclass struct {
	Size  int64
	Slots int64
}

// Slabtable lays out slab classes back to back inside a chunk, after a
// reserved header. Sizes double from one class to the next, which
// lets size to class resolution be computed in closed form.
type Slabtable struct {
	classes  []Slabclass
	offsets  []int64 // len(classes)+1, last entry is the capacity
	aligns   []int64
	header   int64
	minsize  int64
	minbits  int
	granule  int64
	lookup   []uint8 // (offset-header)/granule -> class
	capacity int64
}

// NewSlabtable create a new layout of slab classes, starting at header
// offset within a chunk.
func NewSlabtable(classes []Slabclass, header int64) *Slabtable {
	if len(classes) == 0 {
		panicerr("slab table needs atleast one class")
	} else if len(classes) > 255 {
		panicerr("slab table cannot have more than 255 classes")
	} else if header < 0 || (header%8) != 0 {
		panicerr("slab header %v must be a multiple of 8", header)
	}
	minsize := classes[0].Size
	if minsize < 8 || (minsize&(minsize-1)) != 0 {
		panicerr("smallest slab size %v must be a power of two >= 8", minsize)
	}

	table := &Slabtable{
		classes: append([]Slabclass{}, classes...),
		offsets: make([]int64, 0, len(classes)+1),
		aligns:  make([]int64, 0, len(classes)),
		header:  header,
		minsize: minsize,
		minbits: bits.Len64(uint64(minsize - 1)),
	}
	offset := header
	for i, class := range classes {
		if class.Size != minsize<<uint(i) {
			panicerr("slab size %v at class %v must be %v", class.Size, i, minsize<<uint(i))
		} else if class.Slots <= 0 {
			panicerr("slab class %v has no slots", i)
		}
		table.offsets = append(table.offsets, offset)
		table.aligns = append(table.aligns, naturalalign(offset, class.Size))
		length := class.Size * class.Slots
		table.granule = gcd(table.granule, length)
		offset += length
	}
	if offset >= Chunksize {
		panicerr("slab layout %v does not fit in a chunk %v", offset, Chunksize)
	}
	table.offsets = append(table.offsets, offset)
	table.capacity = offset

	table.lookup = make([]uint8, (offset-header)/table.granule)
	for i := range table.classes {
		from := (table.offsets[i] - header) / table.granule
		till := (table.offsets[i+1] - header) / table.granule
		for j := from; j < till; j++ {
			table.lookup[j] = uint8(i)
		}
	}
	return table
}

// Numclasses number of slab classes.
func (table *Slabtable) Numclasses() int {
	return len(table.classes)
}

// Classfor return the smallest class whose slot can hold size bytes,
// -1 if size is larger than the largest class.
func (table *Slabtable) Classfor(size int64) int {
	if size <= table.minsize {
		return 0
	} else if size > table.Maxsize() {
		return -1
	}
	return bits.Len64(uint64(size-1)) - table.minbits
}

// Classat return the class holding the slot at offset within a chunk,
// -1 if offset falls outside the slab region.
func (table *Slabtable) Classat(offset int64) int {
	if offset < table.header || offset >= table.capacity {
		return -1
	}
	return int(table.lookup[(offset-table.header)/table.granule])
}

// Capacity offset within a chunk where the slab region ends, bytes
// from here onwards are managed by the segregated fit heap.
func (table *Slabtable) Capacity() int64 {
	return table.capacity
}

// Header bytes reserved at the start of a chunk.
func (table *Slabtable) Header() int64 {
	return table.header
}

// Maxsize largest slot size.
func (table *Slabtable) Maxsize() int64 {
	return table.classes[len(table.classes)-1].Size
}

// Size of slots in class i.
func (table *Slabtable) Size(i int) int64 {
	return table.classes[i].Size
}

// Slots number of slots in class i.
func (table *Slabtable) Slots(i int) int64 {
	return table.classes[i].Slots
}

// Offset of class i from the start of a chunk.
func (table *Slabtable) Offset(i int) int64 {
	return table.offsets[i]
}

// Align guaranteed alignment of every slot in class i, given that
// chunks are aligned to atleast Regionalign.
func (table *Slabtable) Align(i int) int64 {
	return table.aligns[i]
}

func (table *Slabtable) String() string {
	return fmt.Sprintf(
		"slabtable{classes:%v header:%v capacity:%v}",
		len(table.classes), table.header, table.capacity)
}

func naturalalign(offset, size int64) int64 {
	align := Regionalign
	if offset != 0 {
		align = min(align, offset&-offset)
	}
	return min(align, size&-size)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
