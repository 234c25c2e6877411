package malloc

import "github.com/bnclabs/xmalloc/lib"

// Chunkshift log2 of Chunksize.
const Chunkshift = 21

// Chunksize is the unit of memory handed out by the arena to a thread
// context, 2MB.
const Chunksize = int64(1) << Chunkshift

// Maxchunks default number of chunks managed by an arena. Can be used
// as default for settings parameter "maxchunks".
const Maxchunks = int64(256)

// Chunkheader bytes reserved at the start of every chunk, before the
// first slab class.
const Chunkheader = int64(256)

// Regionalign a memory region's base is aligned up to this boundary
// before being carved into chunks.
const Regionalign = int64(4096)

// Batchsize number of remote frees accumulated for a foreign chunk
// before they are published to its inbox.
const Batchsize = 16

// Drainperiod a thread context drains its chunk's inbox once every
// Drainperiod slab allocations.
const Drainperiod = 64

// Largecutoff allocations of this size and above always bypass the
// chunks and go to the system allocator.
const Largecutoff = Chunksize / 2

// Defaultslabs slab classes laid out inside every chunk, each class
// spans 32KB.
var Defaultslabs = []Slabclass{
	{Size: 8, Slots: 4096},
	{Size: 16, Slots: 2048},
	{Size: 32, Slots: 1024},
	{Size: 64, Slots: 512},
	{Size: 128, Slots: 256},
	{Size: 256, Slots: 128},
	{Size: 512, Slots: 64},
	{Size: 1024, Slots: 32},
	{Size: 2048, Slots: 16},
}

// Defaultsettings for a new Allocator.
//
// "maxchunks" (int64, default: <Maxchunks>)
//
//	Number of chunks in the region, region size is
//	maxchunks * Chunksize.
//
// "source" (string, default: "mmap")
//
//	Memory source backing the region, can be "mmap" for an
//	anonymous mapping or "system" for a single aligned
//	allocation from the C library.
//
// "memcheck" (bool, default: true)
//
//	Compare region size with free system memory and warn if
//	the region cannot be backed.
func Defaultsettings() lib.Settings {
	return lib.Settings{
		"maxchunks": Maxchunks,
		"source":    "mmap",
		"memcheck":  true,
	}
}
